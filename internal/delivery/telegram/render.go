package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

var bucketTitles = []struct {
	title  string
	topics func(*entities.StudyPlan) []entities.TopicView
}{
	{"🔥 High priority", func(p *entities.StudyPlan) []entities.TopicView { return p.High }},
	{"📘 Medium priority", func(p *entities.StudyPlan) []entities.TopicView { return p.Medium }},
	{"🌱 Low priority", func(p *entities.StudyPlan) []entities.TopicView { return p.Low }},
}

// renderPlan renders a study plan as HTML.
func renderPlan(plan *entities.StudyPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>📋 Study plan: %s</b>\n", esc(plan.SubjectID))

	next, ok := plan.Next()
	switch {
	case ok:
		fmt.Fprintf(&b, "\nNext up: %s\n", bold(next.Title))
	case len(plan.AwaitingPrerequisites) > 0:
	case plan.Completed > 0:
		b.WriteString("\n🎓 Every topic is completed.\n")
	default:
		b.WriteString("\nThis subject has no topics yet.\n")
	}

	for _, bucket := range bucketTitles {
		topics := bucket.topics(plan)
		if len(topics) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", bold(bucket.title))
		for i, t := range topics {
			fmt.Fprintf(&b, "%d. %s%s <i>(%.1f)</i>\n", i+1, statusMark(t.Status), esc(t.Title), t.Score)
		}
	}

	if len(plan.AwaitingPrerequisites) > 0 {
		fmt.Fprintf(&b, "\n%s\n", bold("🔒 Awaiting prerequisites"))
		for _, t := range plan.AwaitingPrerequisites {
			fmt.Fprintf(&b, "• %s, needs %s\n", esc(t.Title), esc(strings.Join(t.Blockers, ", ")))
		}
	}

	return b.String()
}

func statusMark(s entities.UnlockStatus) string {
	if s == entities.UnlockInProgress {
		return "▶️ "
	}
	return ""
}

// renderSummary renders a progress summary as HTML.
func renderSummary(subjectID string, s *entities.ProgressSummary) string {
	return fmt.Sprintf(
		"<b>📊 Progress: %s</b>\n\n"+
			"%s\n\n"+
			"✅ <b>Completed:</b> %d / %d (%.1f%% of exam weight)\n"+
			"📖 <b>In progress:</b> %d\n"+
			"⏳ <b>Not started:</b> %d\n"+
			"🔒 <b>Locked:</b> %d\n"+
			"⏱ <b>Time spent:</b> %s\n\n"+
			"🃏 <b>Due reviews:</b> %d\n"+
			"🏆 <b>Mastered cards:</b> %d / %d\n"+
			"📅 <b>Next %d days:</b> %s\n",
		esc(subjectID),
		buildProgressBar(int(s.WeightedCompleted+0.5), 100, 20),
		s.Completed, s.TotalTopics, s.WeightedCompleted,
		s.InProgress,
		s.NotStarted,
		s.Locked,
		formatMinutes(s.TimeSpentMinutes),
		s.DueReviews,
		s.MasteredReviews, s.TotalReviews,
		len(s.Forecast), formatForecast(s.Forecast),
	)
}

func formatForecast(counts []int) string {
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, strconv.Itoa(c))
	}
	return strings.Join(parts, " · ")
}

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d h %d min", minutes/60, minutes%60)
}

// renderCardFront renders the question side of a card.
func renderCardFront(card *entities.Flashcard, position, total int) string {
	return fmt.Sprintf("<b>🃏 Card %d of %d</b>\n\n%s", position, total, esc(card.Front))
}

// renderCardBack renders both sides of a card.
func renderCardBack(card *entities.Flashcard, position, total int) string {
	return fmt.Sprintf("%s\n\n<b>Answer:</b>\n%s\n\nHow well did you recall it?",
		renderCardFront(card, position, total), esc(card.Back))
}

// renderGraded renders the outcome of a graded card.
func renderGraded(card *entities.Flashcard, grade entities.Grade, item *entities.ReviewItem, now time.Time) string {
	return fmt.Sprintf("%s\n\n<b>Answer:</b> %s\n\nGraded <b>%s</b>, next review %s.",
		esc(card.Front), esc(card.Back), esc(string(grade)), formatDue(item.DueDate, now))
}

func formatDue(due, now time.Time) string {
	days := int(due.Sub(now).Hours()/24 + 0.5)
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// renderReminder renders a reminder message.
func renderReminder(p entities.ReminderPayload) string {
	text := fmt.Sprintf("⏰ <b>%d</b> flashcard(s) are due for review.", p.DueCount)
	if p.NextTopic != "" {
		text += fmt.Sprintf("\nStart with %s.", bold(p.NextTopic))
	}
	return text
}

func renderSessionDone(reviewed int) string {
	return fmt.Sprintf("✅ Session finished, %d card(s) reviewed.", reviewed)
}
