package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

type retryableError struct{}

func (retryableError) Error() string     { return "connection reset before send" }
func (retryableError) SafeToRetry() bool { return true }

func TestMapError(t *testing.T) {
	other := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, entities.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), entities.ErrNotFound},
		{"serialization", &pgconn.PgError{Code: "40001"}, entities.ErrStoreUnavailable},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, entities.ErrStoreUnavailable},
		{"safe to retry", retryableError{}, entities.ErrStoreUnavailable},
		{"unique violation", &pgconn.PgError{Code: "23505"}, nil},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("MapError(nil) = %v", got)
				}
				return
			}
			if !errors.Is(got, tt.err) && !errors.As(got, new(*pgconn.PgError)) {
				t.Errorf("driver error lost: %v", got)
			}
			if tt.want != nil && !errors.Is(got, tt.want) {
				t.Errorf("MapError(%v) = %v, want %v", tt.err, got, tt.want)
			}
			if tt.want == nil {
				for _, sentinel := range []error{entities.ErrNotFound, entities.ErrStoreUnavailable} {
					if errors.Is(got, sentinel) {
						t.Errorf("MapError(%v) unexpectedly is %v", tt.err, sentinel)
					}
				}
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Error("unique violation not detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation reported as unique")
	}
}
