package telegram

import (
	"context"
	"fmt"
	"strings"
)

// handleStats shows the progress summary of a subject.
func (h *Handler) handleStats(userID, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		subjectID := firstArg(args)
		if subjectID == "" {
			h.send(newHTMLMessage(chatID, msgUseStats))
			return nil
		}

		summary, err := h.progressService.Summary(ctx, userID, subjectID, h.now())
		if err != nil {
			return err
		}

		h.send(newHTMLMessage(chatID, renderSummary(subjectID, summary)))
		return nil
	}
}

// buildProgressBar creates ASCII progress bar.
func buildProgressBar(current, total, length int) string {
	if total == 0 {
		return "[" + strings.Repeat("░", length) + "]"
	}

	filled := int(float64(current) / float64(total) * float64(length))
	if filled > length {
		filled = length
	}
	if filled < 0 {
		filled = 0
	}

	empty := length - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return fmt.Sprintf("[%s]", bar)
}
