package handler

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleVoice feeds a voice message through the state machine. The
// download and transcription only run once the state machine decided
// the message will actually be processed.
func (h *Handler) handleVoice(c tele.Context) error {
	userID := c.Sender().ID

	voice := c.Message().Voice
	if voice == nil {
		return nil
	}

	lock := h.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	replies, err := h.conversation.HandleVoice(userID, func() (string, error) {
		reader, err := h.bot.File(&voice.File)
		if err != nil {
			return "", err
		}
		defer reader.Close()

		return h.transcriber.Transcribe(reader)
	})
	if err != nil {
		h.logger.Error("Voice handling failed", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send(msgInternalError)
	}

	return h.sendReplies(c, replies)
}
