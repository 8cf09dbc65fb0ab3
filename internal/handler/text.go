package handler

import (
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleText feeds a text message through the state machine
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := c.Text()

	// Ignore commands (starting with /); /start has its own handler
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return nil
	}

	lock := h.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	replies, err := h.conversation.HandleText(userID, text)
	if err != nil {
		h.logger.Error("Text handling failed", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send(msgInternalError)
	}

	return h.sendReplies(c, replies)
}
