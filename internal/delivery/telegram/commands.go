package telegram

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/storage"
)

type statusCommand struct {
	status entities.ProgressStatus
	usage  string
	reply  string // format with the topic id
}

var (
	statusBegin  = statusCommand{entities.StatusInProgress, msgUseBegin, "▶️ Started %s. Good luck!"}
	statusDone   = statusCommand{entities.StatusCompleted, msgUseDone, "✅ Completed %s. Check /plan for what it unlocked."}
	statusReopen = statusCommand{entities.StatusNotStarted, msgUseReopen, "↩️ %s is not started again."}
)

func (h *Handler) handleStart() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		h.send(newHTMLMessage(chatID, msgWelcome))
		return nil
	}
}

func (h *Handler) handleHelp() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		h.send(newHTMLMessage(chatID, msgHelp))
		return nil
	}
}

// handlePlan shows the ranked study plan of a subject.
func (h *Handler) handlePlan(userID, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		subjectID := firstArg(args)
		if subjectID == "" {
			h.send(newHTMLMessage(chatID, msgUsePlan))
			return nil
		}

		plan, err := h.schedulerService.GetStudyPlan(ctx, userID, subjectID)
		if err != nil {
			return err
		}

		msg := newHTMLMessage(chatID, renderPlan(plan))
		msg.ReplyMarkup = buildPlanKeyboard(subjectID)
		h.send(msg)
		return nil
	}
}

// handleEnroll creates review items for the flashcards of a subject.
func (h *Handler) handleEnroll(userID, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		subjectID := firstArg(args)
		if subjectID == "" {
			h.send(newHTMLMessage(chatID, msgUseEnroll))
			return nil
		}

		created, err := h.schedulerService.EnrollSubject(ctx, userID, subjectID, h.now())
		if err != nil {
			return err
		}

		text := fmt.Sprintf("📥 Added %d new card(s) from %s. Use /review to start.", created, bold(subjectID))
		if created == 0 {
			text = fmt.Sprintf("No new cards in %s, you already review all of them.", bold(subjectID))
		}
		h.send(newHTMLMessage(chatID, text))
		return nil
	}
}

// handleStatus moves a topic to the status of cmd.
func (h *Handler) handleStatus(userID, args string, cmd statusCommand) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		topicID := firstArg(args)
		if topicID == "" {
			h.send(newHTMLMessage(chatID, cmd.usage))
			return nil
		}

		if _, err := h.progressService.SetTopicStatus(ctx, userID, topicID, cmd.status, h.now()); err != nil {
			return err
		}

		h.send(newHTMLMessage(chatID, fmt.Sprintf(cmd.reply, bold(topicID))))
		return nil
	}
}

// handleLogTime adds study minutes to a topic.
func (h *Handler) handleLogTime(userID, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		topicID, minutes, ok := parseLogArgs(args)
		if !ok {
			h.send(newHTMLMessage(chatID, msgUseLog))
			return nil
		}

		record, err := h.progressService.LogTime(ctx, userID, topicID, minutes, h.now())
		if err != nil {
			return err
		}

		h.send(newHTMLMessage(chatID, fmt.Sprintf("⏱ Logged %d min on %s, %s in total.",
			minutes, bold(topicID), formatMinutes(record.TimeSpentMinutes))))
		return nil
	}
}

// handleReview starts a review session, optionally limited to one topic.
func (h *Handler) handleReview(userID, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		return h.startReview(ctx, chatID, userID, firstArg(args))
	}
}

// startReview stores a session of due items and sends the first card.
func (h *Handler) startReview(ctx context.Context, chatID int64, userID, topicID string) error {
	now := h.now()
	due, err := h.schedulerService.DueReviews(ctx, userID, topicID, now, reviewBatch)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		h.send(newHTMLMessage(chatID, msgNoDueReviews))
		return nil
	}

	ids := make([]string, 0, len(due))
	for _, item := range due {
		ids = append(ids, item.ID)
	}
	h.sessions.Store(chatID, &storage.ReviewSession{
		ItemIDs:   ids,
		TopicID:   topicID,
		StartedAt: now,
	})

	h.logger.Info("review session started",
		zap.String("user_id", userID),
		zap.String("topic_id", topicID),
		zap.Int("items", len(ids)),
	)

	return h.sendCard(ctx, chatID, userID, ids[0], 1, len(ids))
}

// sendCard sends the front side of an item's flashcard.
func (h *Handler) sendCard(ctx context.Context, chatID int64, userID, itemID string, position, total int) error {
	card, err := h.cardFor(ctx, userID, itemID)
	if err != nil {
		return err
	}

	msg := newHTMLMessage(chatID, renderCardFront(card, position, total))
	msg.ReplyMarkup = buildShowAnswerKeyboard(itemID)
	h.send(msg)
	return nil
}

// cardFor returns the flashcard reviewed by an item of the user.
func (h *Handler) cardFor(ctx context.Context, userID, itemID string) (*entities.Flashcard, error) {
	item, err := h.schedulerService.ReviewItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	return h.schedulerService.Flashcard(ctx, item.FlashcardID)
}
