package handler

import (
	"io"
	"os"
	"sync"

	"dreambot/internal/domain"
	"dreambot/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const msgInternalError = "Произошла ошибка. Попробуйте позже."

// Transcriber converts a voice message to text; "" means recognition failed
type Transcriber interface {
	Transcribe(audio io.Reader) (string, error)
}

// Synthesizer renders reply text to an audio file and returns its path
type Synthesizer interface {
	Synthesize(text string) (string, error)
}

// Handler manages all bot interactions
type Handler struct {
	bot          *tele.Bot
	conversation *service.ConversationService
	payments     *service.PaymentService
	transcriber  Transcriber
	synthesizer  Synthesizer
	logger       *zap.Logger

	// Per-user locks: events for one user run load→mutate→save, so two
	// concurrent ones could lose an update.
	userMux   sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	conversation *service.ConversationService,
	payments *service.PaymentService,
	transcriber Transcriber,
	synthesizer Synthesizer,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:          bot,
		conversation: conversation,
		payments:     payments,
		transcriber:  transcriber,
		synthesizer:  synthesizer,
		logger:       logger,
		userLocks:    make(map[int64]*sync.Mutex),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)

	// Text and voice messages
	h.bot.Handle(tele.OnText, h.handleText)
	h.bot.Handle(tele.OnVoice, h.handleVoice)

	// Callback queries (inline buttons)
	h.bot.Handle(&btnBuySub, h.handleBuySubscription)
	h.bot.Handle(&btnEditName, h.handleEditName)
	h.bot.Handle(&btnEditBirth, h.handleEditBirth)
	h.bot.Handle(&btnCancelChanges, h.handleCancelChanges)

	// Generic callback handler for callbacks that lose their Unique
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// lockUser serializes event handling for a single user
func (h *Handler) lockUser(userID int64) *sync.Mutex {
	h.userMux.Lock()
	defer h.userMux.Unlock()

	lock, exists := h.userLocks[userID]
	if !exists {
		lock = &sync.Mutex{}
		h.userLocks[userID] = lock
	}
	return lock
}

// sendReplies renders state machine replies into Telegram messages
func (h *Handler) sendReplies(c tele.Context, replies []domain.Reply) error {
	for _, reply := range replies {
		if reply.AsVoice {
			if err := h.sendVoice(c, reply.Text); err != nil {
				return err
			}
			continue
		}

		var err error
		if markup := markupFor(reply.Markup); markup != nil {
			err = c.Send(reply.Text, markup)
		} else {
			err = c.Send(reply.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// sendVoice synthesizes and sends an audio reply, falling back to plain
// text when synthesis fails.
func (h *Handler) sendVoice(c tele.Context, text string) error {
	path, err := h.synthesizer.Synthesize(text)
	if err != nil {
		h.logger.Warn("Falling back to text reply",
			zap.Int64("user_id", c.Sender().ID),
			zap.Error(err),
		)
		return c.Send(text)
	}
	defer os.Remove(path)

	return c.Send(&tele.Voice{File: tele.FromDisk(path)})
}

// Inline keyboard buttons
var (
	btnBuySub = tele.Btn{
		Unique: "buy_sub",
		Text:   "Подключить подписку 🔥",
	}
	btnEditName = tele.Btn{
		Unique: "edit_name",
		Text:   "✏ Изменить имя",
	}
	btnEditBirth = tele.Btn{
		Unique: "edit_birth",
		Text:   "📅 Изменить дату рождения",
	}
	btnCancelChanges = tele.Btn{
		Unique: "cancel_changes",
		Text:   "↩ Отмена изменений",
	}
)

// markupFor maps a state machine markup kind to a telebot keyboard
func markupFor(kind domain.MarkupKind) *tele.ReplyMarkup {
	switch kind {
	case domain.MarkupMenu:
		return menuMarkup()
	case domain.MarkupSubscribe:
		return subscribeMarkup()
	case domain.MarkupProfile:
		return profileMarkup()
	default:
		return nil
	}
}

func menuMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	markup.Reply(
		markup.Row(markup.Text(service.LabelVoiceMode)),
		markup.Row(markup.Text(service.LabelTextMode)),
		markup.Row(markup.Text(service.LabelProfile)),
	)
	return markup
}

func subscribeMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnBuySub))
	return markup
}

func profileMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnEditName),
		markup.Row(btnEditBirth),
		markup.Row(btnCancelChanges),
	)
	return markup
}
