package service

import (
	"strings"

	"dreambot/internal/backend"
	"dreambot/internal/domain"
	"dreambot/internal/repository"
	"dreambot/internal/sanitize"

	"go.uber.org/zap"
)

// Reply keyboard labels. They arrive as plain text messages, so the
// state machine matches them literally.
const (
	LabelVoiceMode = "🗣 Голосовой режим"
	LabelTextMode  = "✍️ Текстовый режим"
	LabelProfile   = "Мой профиль"
)

const (
	msgAuthFailed   = "Не удалось авторизоваться на сервисе. Попробуй позже или перезапусти /start."
	msgLimitReached = "Лимит запросов исчерпан. Чтобы продолжить, оформи подписку."
	msgNeedStart    = "Сначала введи /start, чтобы зарегистрироваться."
)

// EditField names a profile field the user may edit from the menu
type EditField int

const (
	EditName EditField = iota
	EditBirth
)

// ConversationService is the user session state machine: for every
// inbound event it decides the next state, the backend calls to make and
// the replies to send. Sessions are loaded, mutated and written back per
// event; the transport serializes events per user.
type ConversationService struct {
	sessions repository.SessionRepository
	backend  backend.Client
	auth     *AuthService
	activity *ActivityMonitor
	logger   *zap.Logger
}

// NewConversationService creates the state machine
func NewConversationService(
	sessions repository.SessionRepository,
	client backend.Client,
	auth *AuthService,
	activity *ActivityMonitor,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		sessions: sessions,
		backend:  client,
		auth:     auth,
		activity: activity,
		logger:   logger,
	}
}

// Start handles /start: onboarding for a new user, a welcome with the
// current quota situation for a returning one.
func (s *ConversationService) Start(userID int64) ([]domain.Reply, error) {
	session, err := s.sessions.Load(userID)
	if err != nil {
		return nil, err
	}

	if session == nil {
		session = domain.NewSession()
		if err := s.sessions.Save(userID, session); err != nil {
			return nil, err
		}
		return []domain.Reply{
			domain.TextReply("Привет! Я сонный помощник.\nСначала давай познакомимся 🙂"),
			domain.TextReply("Как тебя зовут?"),
		}, nil
	}

	var replies []domain.Reply

	token, err := s.auth.EnsureToken(userID, session)
	var limits *backend.Limits
	if err == nil {
		limits, err = s.backend.GetLimits(token)
		if err != nil {
			s.logger.Warn("Limits request failed", zap.Int64("user_id", userID), zap.Error(err))
			limits = nil
		}
	}

	switch {
	case limits != nil && limits.HasActiveSubscription:
		replies = append(replies, domain.TextReply("С возвращением! У тебя активна подписка, можешь использовать бота без ограничений 🎉"))
	case limits.Exhausted():
		replies = append(replies, domain.Reply{
			Text:   "Твои бесплатные сообщения закончились.\nЧтобы продолжить пользоваться ботом — оформи подписку.",
			Markup: domain.MarkupSubscribe,
		})
	default:
		replies = append(replies, domain.TextReply("С возвращением! Можешь описать свой сон, и я помогу с интерпретацией ✨"))
	}

	replies = append(replies, domain.Reply{Text: "Выбери режим работы:", Markup: domain.MarkupMenu})
	return replies, nil
}

// HandleText handles a free-form text message according to the current
// state. An unknown user is sent back to onboarding instead of erroring.
func (s *ConversationService) HandleText(userID int64, text string) ([]domain.Reply, error) {
	session, err := s.sessions.Load(userID)
	if err != nil {
		return nil, err
	}

	if session == nil {
		session = domain.NewSession()
		if err := s.sessions.Save(userID, session); err != nil {
			return nil, err
		}
		return []domain.Reply{domain.TextReply("Привет! Давай сначала познакомимся. Как тебя зовут?")}, nil
	}

	trimmed := strings.TrimSpace(text)

	switch session.State {
	case domain.StateAskName:
		session.Name = trimmed
		session.State = domain.StateAskBirth
		if err := s.sessions.Save(userID, session); err != nil {
			return nil, err
		}
		return []domain.Reply{domain.TextReply("Введите дату рождения (ДД.ММ.ГГГГ):")}, nil

	case domain.StateAskBirth:
		// Stored as entered; conversion and defaulting happen at
		// registration time.
		session.Birth = trimmed
		session.State = domain.StateAskEmail
		if err := s.sessions.Save(userID, session); err != nil {
			return nil, err
		}
		return []domain.Reply{domain.TextReply("Введите email:")}, nil

	case domain.StateAskEmail:
		session.Email = trimmed
		session.State = domain.StateAskPassword
		if err := s.sessions.Save(userID, session); err != nil {
			return nil, err
		}
		return []domain.Reply{domain.TextReply("Введите пароль:")}, nil

	case domain.StateAskPassword:
		return s.finishRegistration(userID, session, text)

	case domain.StateEditName:
		session.Name = trimmed
		session.BackupName = nil
		session.State = domain.StateMenu
		if err := s.sessions.Save(userID, session); err != nil {
			return nil, err
		}
		return []domain.Reply{domain.TextReply("Имя обновлено ✔")}, nil

	case domain.StateEditBirth:
		session.Birth = trimmed
		session.BackupBirth = nil
		session.State = domain.StateMenu
		if err := s.sessions.Save(userID, session); err != nil {
			return nil, err
		}
		return []domain.Reply{domain.TextReply("Дата рождения обновлена ✔")}, nil
	}

	// Menu (and the transient register_backend state, which older
	// records may still carry) falls through to mode handling.
	switch trimmed {
	case LabelVoiceMode:
		session.Mode = domain.ModeVoice
		if err := s.sessions.Save(userID, session); err != nil {
			return nil, err
		}
		return []domain.Reply{domain.TextReply("Голосовой режим включён 🎤")}, nil

	case LabelTextMode:
		session.Mode = domain.ModeText
		if err := s.sessions.Save(userID, session); err != nil {
			return nil, err
		}
		return []domain.Reply{domain.TextReply("Текстовый режим включён ✍️")}, nil

	case LabelProfile:
		return s.profile(userID, session)
	}

	if session.Mode == domain.ModeVoice {
		return []domain.Reply{domain.TextReply("Сейчас включён голосовой режим. Отправь голосовое сообщение 🎤")}, nil
	}

	return s.aiTurn(userID, session, text, false), nil
}

// HandleVoice handles a voice message. The transcribe callback is only
// invoked when the session is in voice mode and authenticated, so no
// audio work happens for messages that will be rejected anyway.
func (s *ConversationService) HandleVoice(userID int64, transcribe func() (string, error)) ([]domain.Reply, error) {
	session, err := s.sessions.Load(userID)
	if err != nil {
		return nil, err
	}

	if session == nil {
		return []domain.Reply{domain.TextReply(msgNeedStart)}, nil
	}

	if session.Mode != domain.ModeVoice {
		return []domain.Reply{domain.TextReply("Сейчас включён текстовый режим. Переключись в голосовой, чтобы отправлять голосовые 🎤")}, nil
	}

	if _, err := s.auth.EnsureToken(userID, session); err != nil {
		return []domain.Reply{domain.TextReply(msgAuthFailed)}, nil
	}

	text, err := transcribe()
	if err != nil {
		s.logger.Warn("Transcription failed", zap.Int64("user_id", userID), zap.Error(err))
		text = ""
	}
	if text == "" {
		return []domain.Reply{domain.TextReply("Не удалось распознать голос 😢")}, nil
	}

	return s.aiTurn(userID, session, text, true), nil
}

// Profile shows the user's profile with the edit keyboard
func (s *ConversationService) Profile(userID int64) ([]domain.Reply, error) {
	session, err := s.sessions.Load(userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return []domain.Reply{domain.TextReply("Для начала введи /start, чтобы зарегистрироваться.")}, nil
	}
	return s.profile(userID, session)
}

func (s *ConversationService) profile(userID int64, session *domain.Session) ([]domain.Reply, error) {
	hasSub := false
	if token, err := s.auth.EnsureToken(userID, session); err == nil {
		if limits, err := s.backend.GetLimits(token); err == nil && limits != nil && limits.HasActiveSubscription {
			hasSub = true
		}
		if !hasSub {
			if status, err := s.backend.GetSubscriptionStatus(token); err == nil && status != nil && status.HasActiveSubscription {
				hasSub = true
			}
		}
	}

	subText := "Нет ❌"
	if hasSub {
		subText = "Оформлена 🎉"
	}

	text := "👤 Профиль\n\n" +
		"Имя: " + orPlaceholder(session.Name, "не указано") + "\n" +
		"Дата рождения: " + orPlaceholder(session.Birth, "не указана") + "\n" +
		"Email: " + orPlaceholder(session.Email, "не указан") + "\n" +
		"Подписка: " + subText

	return []domain.Reply{{Text: text, Markup: domain.MarkupProfile}}, nil
}

// BeginEdit snapshots the current field value and enters the matching
// edit state.
func (s *ConversationService) BeginEdit(userID int64, field EditField) ([]domain.Reply, error) {
	session, err := s.sessions.Load(userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return []domain.Reply{domain.TextReply("Сначала введи /start.")}, nil
	}

	var prompt string
	switch field {
	case EditName:
		backup := session.Name
		session.BackupName = &backup
		session.State = domain.StateEditName
		prompt = "Введите новое имя:"
	case EditBirth:
		backup := session.Birth
		session.BackupBirth = &backup
		session.State = domain.StateEditBirth
		prompt = "Введите новую дату рождения (ДД.ММ.ГГГГ):"
	}

	if err := s.sessions.Save(userID, session); err != nil {
		return nil, err
	}
	return []domain.Reply{domain.TextReply(prompt)}, nil
}

// CancelEdit restores any backed-up fields and returns to the menu.
// Idempotent: with nothing to restore it only reports so.
func (s *ConversationService) CancelEdit(userID int64) ([]domain.Reply, error) {
	session, err := s.sessions.Load(userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return []domain.Reply{domain.TextReply("Сначала введи /start.")}, nil
	}

	changed := false
	if session.BackupName != nil {
		session.Name = *session.BackupName
		session.BackupName = nil
		changed = true
	}
	if session.BackupBirth != nil {
		session.Birth = *session.BackupBirth
		session.BackupBirth = nil
		changed = true
	}

	session.State = domain.StateMenu
	if err := s.sessions.Save(userID, session); err != nil {
		return nil, err
	}

	if changed {
		return []domain.Reply{domain.TextReply("Изменения отменены, данные восстановлены.")}, nil
	}
	return []domain.Reply{domain.TextReply("Нет сохранённых изменений для отмены.")}, nil
}

// finishRegistration stores the password and runs register-then-login.
// On failure the user stays at the password step and retries by sending
// another password.
func (s *ConversationService) finishRegistration(userID int64, session *domain.Session, password string) ([]domain.Reply, error) {
	session.Password = password // deliberately unsanitized
	session.State = domain.StateRegisterBackend
	if err := s.sessions.Save(userID, session); err != nil {
		return nil, err
	}

	replies := []domain.Reply{domain.TextReply("Регистрирую…")}

	if _, err := s.auth.CompleteRegistration(userID, session); err != nil {
		s.logger.Warn("Registration failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		session.State = domain.StateAskPassword
		if saveErr := s.sessions.Save(userID, session); saveErr != nil {
			return nil, saveErr
		}
		return append(replies, domain.TextReply("Ошибка регистрации ❌. Попробуйте другой email.")), nil
	}

	return append(replies, domain.Reply{Text: "Регистрация завершена 🎉", Markup: domain.MarkupMenu}), nil
}

// aiTurn runs one exchange with the backend: ensure token, idle-check,
// send, extract and sanitize the answer.
func (s *ConversationService) aiTurn(userID int64, session *domain.Session, text string, asVoice bool) []domain.Reply {
	token, err := s.auth.EnsureToken(userID, session)
	if err != nil {
		return []domain.Reply{domain.TextReply(msgAuthFailed)}
	}

	s.activity.MaybeClearContext(userID, token)

	resp, err := s.backend.SendMessage(token, text)
	if err != nil {
		s.logger.Error("Chat request failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		resp = nil // Answer falls back to the generic unavailability text
	}

	if resp != nil && resp.NeedSubscription {
		return []domain.Reply{{Text: msgLimitReached, Markup: domain.MarkupSubscribe}}
	}

	return []domain.Reply{{Text: sanitize.Clean(resp.Answer()), AsVoice: asVoice}}
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}
