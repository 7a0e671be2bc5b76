package telegram

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

func TestCallbackData(t *testing.T) {
	tests := []struct {
		data   string
		action string
		params []string
	}{
		{buildPlanCallback("bio"), actionPlan, []string{"bio"}},
		{buildReviewStartCallback(""), actionReview, []string{reviewStart}},
		{buildReviewStartCallback("cells"), actionReview, []string{reviewStart, "cells"}},
		{buildReviewGradeCallback("item-1", entities.GradeEasy), actionReview, []string{reviewGrade, "item-1", "easy"}},
		{buildReminderDisableCallback(), actionReminder, []string{reminderDisable}},
		{"unknown", "unknown", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			cd := decodeCallback(tt.data)
			if cd.Action != tt.action || fmt.Sprint(cd.Params) != fmt.Sprint(tt.params) {
				t.Errorf("decode = %+v, want %s %v", cd, tt.action, tt.params)
			}
			if cd.encode() != tt.data {
				t.Errorf("encode = %q, want %q", cd.encode(), tt.data)
			}
		})
	}
}

func TestCallbackDataFitsTelegramLimit(t *testing.T) {
	// uuid item ids with the longest grade
	data := buildReviewGradeCallback("123e4567-e89b-12d3-a456-426614174000", entities.GradeAgain)
	if len(data) > 64 {
		t.Errorf("len(%q) = %d, over 64 bytes", data, len(data))
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err   error
		want  string
		known bool
	}{
		{fmt.Errorf("get topic: %w", entities.ErrNotFound), msgNotFound, true},
		{entities.ErrTopicLocked, msgTopicLocked, true},
		{fmt.Errorf("build: %w", entities.ErrCycleDetected), msgBrokenSubject, true},
		{entities.ErrInvalidGrade, msgInvalidInput, true},
		{entities.ErrStoreUnavailable, msgTryLater, true},
		{errors.New("boom"), msgInternalError, false},
	}
	for _, tt := range tests {
		got, known := userMessage(tt.err)
		if got != tt.want || known != tt.known {
			t.Errorf("userMessage(%v) = %q, %v", tt.err, got, known)
		}
	}
}

func TestParseLogArgs(t *testing.T) {
	tests := []struct {
		args    string
		topic   string
		minutes int
		ok      bool
	}{
		{"cells 30", "cells", 30, true},
		{"  cells   5 ", "cells", 5, true},
		{"cells", "", 0, false},
		{"cells 0", "", 0, false},
		{"cells ten", "", 0, false},
		{"cells 5 extra", "", 0, false},
	}
	for _, tt := range tests {
		topic, minutes, ok := parseLogArgs(tt.args)
		if topic != tt.topic || minutes != tt.minutes || ok != tt.ok {
			t.Errorf("parseLogArgs(%q) = %q, %d, %v", tt.args, topic, minutes, ok)
		}
	}
}

func TestBuildProgressBar(t *testing.T) {
	tests := []struct {
		current, total int
		want           string
	}{
		{0, 100, "[░░░░░░░░░░]"},
		{50, 100, "[█████░░░░░]"},
		{150, 100, "[██████████]"},
		{1, 0, "[░░░░░░░░░░]"},
	}
	for _, tt := range tests {
		if got := buildProgressBar(tt.current, tt.total, 10); got != tt.want {
			t.Errorf("buildProgressBar(%d, %d) = %q, want %q", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestFormatDue(t *testing.T) {
	tests := []struct {
		due  time.Duration
		want string
	}{
		{0, "today"},
		{24 * time.Hour, "tomorrow"},
		{6 * 24 * time.Hour, "in 6 days"},
	}
	for _, tt := range tests {
		if got := formatDue(now.Add(tt.due), now); got != tt.want {
			t.Errorf("formatDue(+%v) = %q, want %q", tt.due, got, tt.want)
		}
	}
}
