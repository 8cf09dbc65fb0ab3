package handler

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	lock := h.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	replies, err := h.conversation.Start(userID)
	if err != nil {
		h.logger.Error("Start failed", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send(msgInternalError)
	}

	return h.sendReplies(c, replies)
}
