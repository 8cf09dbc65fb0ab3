package handler

import (
	"strings"
	"unicode"

	"dreambot/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleCallback routes callbacks whose Unique did not come through
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	data := cleanCallbackData(callback.Data)
	h.logger.Info("Processing callback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	switch callback.Unique {
	case "buy_sub":
		return h.handleBuySubscription(c)
	case "edit_name":
		return h.handleEditName(c)
	case "edit_birth":
		return h.handleEditBirth(c)
	case "cancel_changes":
		return h.handleCancelChanges(c)
	}

	if callback.Unique == "" {
		switch data {
		case "buy_sub":
			return h.handleBuySubscription(c)
		case "edit_name":
			return h.handleEditName(c)
		case "edit_birth":
			return h.handleEditBirth(c)
		case "cancel_changes":
			return h.handleCancelChanges(c)
		}
	}

	h.logger.Warn("Unhandled callback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}

// handleBuySubscription runs the mock payment flow
func (h *Handler) handleBuySubscription(c tele.Context) error {
	userID := c.Sender().ID

	lock := h.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := c.Send("Создаю платёж… 🔄"); err != nil {
		return err
	}

	replies, err := h.payments.BuySubscription(userID)
	if err != nil {
		h.logger.Error("Subscription purchase failed", zap.Int64("user_id", userID), zap.Error(err))
		c.Respond()
		return c.Send(msgInternalError)
	}

	if err := h.sendReplies(c, replies); err != nil {
		return err
	}
	return c.Respond()
}

func (h *Handler) handleEditName(c tele.Context) error {
	return h.beginEdit(c, service.EditName)
}

func (h *Handler) handleEditBirth(c tele.Context) error {
	return h.beginEdit(c, service.EditBirth)
}

func (h *Handler) beginEdit(c tele.Context, field service.EditField) error {
	userID := c.Sender().ID

	lock := h.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	replies, err := h.conversation.BeginEdit(userID, field)
	if err != nil {
		h.logger.Error("Edit start failed", zap.Int64("user_id", userID), zap.Error(err))
		c.Respond()
		return c.Send(msgInternalError)
	}

	if err := h.sendReplies(c, replies); err != nil {
		return err
	}
	return c.Respond()
}

// handleCancelChanges restores edited fields from their backups
func (h *Handler) handleCancelChanges(c tele.Context) error {
	userID := c.Sender().ID

	lock := h.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	replies, err := h.conversation.CancelEdit(userID)
	if err != nil {
		h.logger.Error("Cancel edit failed", zap.Int64("user_id", userID), zap.Error(err))
		c.Respond()
		return c.Send(msgInternalError)
	}

	if err := h.sendReplies(c, replies); err != nil {
		return err
	}
	return c.Respond()
}
