package graph

import (
	"fmt"
	"strings"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

// CycleDetectedError reports a prerequisite cycle. Path starts and ends
// with the same topic id, e.g. [a b c a].
type CycleDetectedError struct {
	Path []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("%s: %s", entities.ErrCycleDetected, strings.Join(e.Path, " -> "))
}

func (e *CycleDetectedError) Unwrap() error { return entities.ErrCycleDetected }

// DanglingReferenceError reports a dependency on a topic missing from the set.
type DanglingReferenceError struct {
	TopicID string
	Missing string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("%s: topic %q depends on %q", entities.ErrDanglingReference, e.TopicID, e.Missing)
}

func (e *DanglingReferenceError) Unwrap() error { return entities.ErrDanglingReference }
