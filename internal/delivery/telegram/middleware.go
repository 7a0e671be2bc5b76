package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

// withErrorHandling reports a failed handler to the chat. Domain errors get a
// specific message, everything else the generic one.
func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		err := fn(ctx, chatID)
		if err == nil {
			return nil
		}

		text, known := userMessage(err)
		if known {
			h.logger.Warn("handle error",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		} else {
			h.logger.Error("handle error",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		}
		h.sendError(chatID, text)
		return nil
	}
}

// userMessage maps err to the text shown to the user.
func userMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		return msgNotFound, true
	case errors.Is(err, entities.ErrTopicLocked):
		return msgTopicLocked, true
	case errors.Is(err, entities.ErrCycleDetected), errors.Is(err, entities.ErrDanglingReference),
		errors.Is(err, entities.ErrDuplicateTopic), errors.Is(err, entities.ErrInvalidTopic):
		return msgBrokenSubject, true
	case errors.Is(err, entities.ErrInvalidGrade), errors.Is(err, entities.ErrInvalidStatus):
		return msgInvalidInput, true
	case errors.Is(err, entities.ErrStoreUnavailable), errors.Is(err, entities.ErrVersionConflict):
		return msgTryLater, true
	}
	return msgInternalError, false
}
