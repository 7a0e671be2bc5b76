package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/domain/ranking"
	"github.com/aliskhannn/study-planner-bot/internal/domain/srs"
	"github.com/aliskhannn/study-planner-bot/internal/service"
	"github.com/aliskhannn/study-planner-bot/internal/storage"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

const chatID int64 = 42

type fakeBot struct {
	mu       sync.Mutex
	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return tgbotapi.Message{}, b.sendErr
	}
	b.nextID++
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: b.nextID}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

// last returns the text and markup of the last sent message or edit.
func (b *fakeBot) last(t *testing.T) (string, any) {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		t.Fatal("nothing sent")
	}
	switch c := b.sent[len(b.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		return c.Text, c.ReplyMarkup
	case tgbotapi.EditMessageTextConfig:
		return c.Text, c.ReplyMarkup
	default:
		t.Fatalf("unexpected chattable %T", c)
	}
	return "", nil
}

// lastAnswer returns the text of the last callback answer.
func (b *fakeBot) lastAnswer(t *testing.T) string {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		if cb, ok := b.requests[i].(tgbotapi.CallbackConfig); ok {
			return cb.Text
		}
	}
	t.Fatal("no callback answered")
	return ""
}

type fixture struct {
	bot      *fakeBot
	store    *storage.MemoryStore
	handler  *Handler
	sessions *storage.SessionStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	topics := []entities.Topic{
		{ID: "cells", Title: "Cells & <tissues>", ExamWeight: 50, RequiredDepth: entities.DepthMaster, PriorityHint: entities.HintMedium},
		{ID: "genetics", Title: "Genetics", ExamWeight: 80, RequiredDepth: entities.DepthUnderstand, PriorityHint: entities.HintMedium, Dependencies: []string{"cells"}},
	}
	cards := []entities.Flashcard{
		{ID: "c1", TopicID: "cells", Front: "What is a cell?", Back: "The unit of life"},
		{ID: "c2", TopicID: "genetics", Front: "What is DNA?", Back: "Genetic material"},
	}
	if err := store.SaveSubject(context.Background(), "bio", topics, cards); err != nil {
		t.Fatalf("SaveSubject: %v", err)
	}

	scheduler := service.NewSchedulerService(store, store, store, store,
		ranking.NewRanker(ranking.DefaultMultipliers),
		srs.NewScheduler(srs.DefaultParams()),
		service.RetryPolicy{MaxTries: 3, InitialInterval: time.Millisecond},
		nil,
	)
	progress := service.NewProgressService(store, store, store, service.RetryPolicy{}, nil)
	users := service.NewUserService(store)

	bot := &fakeBot{}
	sessions := storage.NewSessionStorage()
	h := NewHandler(bot, nil, users, scheduler, progress, sessions, storage.NewReminderStorage())
	h.now = func() time.Time { return now }

	return &fixture{bot: bot, store: store, handler: h, sessions: sessions}
}

func (f *fixture) command(text string) {
	cmd := strings.Fields(text)[0]
	f.handler.handleUpdate(context.Background(), tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text:     text,
			Chat:     &tgbotapi.Chat{ID: chatID},
			From:     &tgbotapi.User{ID: chatID},
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
		},
	})
}

func (f *fixture) callback(data string) {
	f.handler.handleUpdate(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: chatID},
			Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: chatID}},
			Data:    data,
		},
	})
}

func TestPlanCommand(t *testing.T) {
	f := newFixture(t)

	f.command("/plan bio")
	text, markup := f.bot.last(t)
	if !strings.Contains(text, "Next up: <b>Cells &amp; &lt;tissues&gt;</b>") {
		t.Errorf("plan text = %q", text)
	}
	if !strings.Contains(text, "Genetics, needs cells") {
		t.Errorf("plan does not list locked topic: %q", text)
	}
	if _, ok := markup.(tgbotapi.InlineKeyboardMarkup); !ok {
		t.Errorf("markup = %T, want inline keyboard", markup)
	}

	f.command("/plan")
	if text, _ := f.bot.last(t); text != msgUsePlan {
		t.Errorf("text = %q, want usage", text)
	}

	f.command("/plan chemistry")
	if text, _ := f.bot.last(t); !strings.Contains(text, "no topics yet") {
		t.Errorf("empty subject text = %q", text)
	}
}

func TestStatusCommands(t *testing.T) {
	f := newFixture(t)

	f.command("/begin genetics")
	if text, _ := f.bot.last(t); text != msgTopicLocked {
		t.Errorf("text = %q, want locked message", text)
	}

	f.command("/done cells")
	if text, _ := f.bot.last(t); !strings.Contains(text, "Completed <b>cells</b>") {
		t.Errorf("text = %q", text)
	}

	f.command("/begin genetics")
	if text, _ := f.bot.last(t); !strings.Contains(text, "Started <b>genetics</b>") {
		t.Errorf("text = %q", text)
	}

	f.command("/begin nope")
	if text, _ := f.bot.last(t); text != msgNotFound {
		t.Errorf("text = %q, want not found", text)
	}

	f.command("/log cells 90")
	if text, _ := f.bot.last(t); !strings.Contains(text, "1 h 30 min in total") {
		t.Errorf("text = %q", text)
	}

	f.command("/log cells -5")
	if text, _ := f.bot.last(t); text != msgUseLog {
		t.Errorf("text = %q, want usage", text)
	}

	f.command("/stats bio")
	if text, _ := f.bot.last(t); !strings.Contains(text, "<b>Completed:</b> 1 / 2") {
		t.Errorf("stats = %q", text)
	}
}

func TestReviewFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.command("/review")
	if text, _ := f.bot.last(t); text != msgNoDueReviews {
		t.Fatalf("text = %q, want nothing due", text)
	}

	f.command("/enroll bio")
	if text, _ := f.bot.last(t); !strings.Contains(text, "Added 2 new card(s)") {
		t.Fatalf("enroll text = %q", text)
	}

	f.command("/review")
	session, ok := f.sessions.Get(chatID)
	if !ok || len(session.ItemIDs) != 2 {
		t.Fatalf("session = %+v, %v", session, ok)
	}
	first := session.ItemIDs[0]
	if text, _ := f.bot.last(t); !strings.Contains(text, "Card 1 of 2") {
		t.Errorf("card text = %q", text)
	}

	f.callback(buildReviewShowCallback(first))
	text, markup := f.bot.last(t)
	if !strings.Contains(text, "<b>Answer:</b>") {
		t.Errorf("revealed text = %q", text)
	}
	if kb, ok := markup.(*tgbotapi.InlineKeyboardMarkup); !ok || len(kb.InlineKeyboard) != 3 {
		t.Errorf("markup = %#v, want grade keyboard", markup)
	}

	f.callback(buildReviewGradeCallback(first, entities.GradeGood))
	if text, _ := f.bot.last(t); !strings.Contains(text, "Card 2 of 2") {
		t.Errorf("next card text = %q", text)
	}
	item, err := f.store.LoadReviewItem(ctx, userKey(chatID), first)
	if err != nil {
		t.Fatal(err)
	}
	if item.RepetitionCount != 1 || item.Version != 1 {
		t.Errorf("item after grade = %+v", item)
	}

	// A second tap on the same card must not record it again.
	f.callback(buildReviewGradeCallback(first, entities.GradeGood))
	if got := f.bot.lastAnswer(t); got != msgSessionExpired {
		t.Errorf("answer = %q, want session expired", got)
	}
	if item, _ := f.store.LoadReviewItem(ctx, userKey(chatID), first); item.Version != 1 {
		t.Errorf("version = %d, want 1", item.Version)
	}

	second := session.ItemIDs[1]
	f.callback(buildReviewGradeCallback(second, "meh"))
	if got := f.bot.lastAnswer(t); got != msgInvalidInput {
		t.Errorf("answer = %q, want invalid input", got)
	}

	f.callback(buildReviewGradeCallback(second, entities.GradeAgain))
	if text, _ := f.bot.last(t); text != renderSessionDone(2) {
		t.Errorf("text = %q, want session done", text)
	}
	if _, ok := f.sessions.Get(chatID); ok {
		t.Error("session not removed")
	}
}

func TestSendReminderReplacesPrevious(t *testing.T) {
	f := newFixture(t)

	if err := f.handler.SendReminder(chatID, entities.ReminderPayload{DueCount: 3, NextTopic: "Cells"}); err != nil {
		t.Fatalf("SendReminder: %v", err)
	}
	text, _ := f.bot.last(t)
	if !strings.Contains(text, "<b>3</b> flashcard(s)") || !strings.Contains(text, "<b>Cells</b>") {
		t.Errorf("reminder = %q", text)
	}

	if err := f.handler.SendReminder(chatID, entities.ReminderPayload{DueCount: 4}); err != nil {
		t.Fatalf("SendReminder: %v", err)
	}
	var deleted []int
	for _, r := range f.bot.requests {
		if d, ok := r.(tgbotapi.DeleteMessageConfig); ok {
			deleted = append(deleted, d.MessageID)
		}
	}
	if len(deleted) != 1 || deleted[0] != 1 {
		t.Errorf("deleted = %v, want [1]", deleted)
	}

	f.bot.sendErr = errors.New("blocked by user")
	if err := f.handler.SendReminder(chatID, entities.ReminderPayload{DueCount: 1}); err == nil {
		t.Error("expected send error")
	}
}

func TestRemindersToggle(t *testing.T) {
	f := newFixture(t)

	f.command("/reminders")
	if text, _ := f.bot.last(t); text != msgRemindersOff {
		t.Errorf("text = %q, want off", text)
	}

	f.callback(buildSettingsRemindersCallback())
	if text, _ := f.bot.last(t); text != msgRemindersOn {
		t.Errorf("text = %q, want on", text)
	}

	f.callback(buildReminderDisableCallback())
	user, err := f.store.GetUser(context.Background(), userKey(chatID))
	if err != nil {
		t.Fatal(err)
	}
	if user.RemindersEnabled {
		t.Error("reminders still enabled")
	}
}
