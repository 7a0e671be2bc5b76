// Package importer loads a subject's topics and flashcards from a structured
// syllabus file (.xlsx or .yaml) and stores it after validating the graph.
package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/domain/graph"
)

// ErrInvalidSyllabus wraps every row-level problem of an import file.
var ErrInvalidSyllabus = errors.New("invalid syllabus")

// Syllabus is the parsed content of an import file.
type Syllabus struct {
	SubjectID  string
	Topics     []entities.Topic
	Flashcards []entities.Flashcard
}

// Validate checks topics and flashcards and builds the dependency graph, so
// cycles and dangling references are rejected before anything is stored.
func (s *Syllabus) Validate() (*graph.Graph, error) {
	if strings.TrimSpace(s.SubjectID) == "" {
		return nil, fmt.Errorf("%w: subject id is empty", ErrInvalidSyllabus)
	}

	var errs []error
	for i := range s.Topics {
		s.Topics[i].SubjectID = s.SubjectID
		if err := s.Topics[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("topic %d: %w", i+1, err))
		}
	}

	topicIDs := make(map[string]struct{}, len(s.Topics))
	for _, t := range s.Topics {
		topicIDs[t.ID] = struct{}{}
	}

	cardIDs := make(map[string]struct{}, len(s.Flashcards))
	for i, c := range s.Flashcards {
		switch {
		case c.ID == "":
			errs = append(errs, fmt.Errorf("flashcard %d: empty id", i+1))
		case strings.TrimSpace(c.Front) == "" || strings.TrimSpace(c.Back) == "":
			errs = append(errs, fmt.Errorf("flashcard %s: front and back are required", c.ID))
		}
		if _, ok := topicIDs[c.TopicID]; !ok {
			errs = append(errs, fmt.Errorf("flashcard %s: unknown topic %q", c.ID, c.TopicID))
		}
		if _, dup := cardIDs[c.ID]; dup {
			errs = append(errs, fmt.Errorf("flashcard %s: duplicate id", c.ID))
		}
		cardIDs[c.ID] = struct{}{}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSyllabus, errors.Join(errs...))
	}

	g, err := graph.Build(s.Topics)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// splitList splits a ";" or "," separated cell into trimmed, non-empty ids.
func splitList(cell string) []string {
	fields := strings.FieldsFunc(cell, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// topicFromFields parses the textual columns of one topic.
func topicFromFields(id, title, weight, depth, priority, deps string) (entities.Topic, error) {
	t := entities.Topic{
		ID:           strings.TrimSpace(id),
		Title:        strings.TrimSpace(title),
		Dependencies: splitList(deps),
	}
	if t.Title == "" {
		t.Title = t.ID
	}

	var err error
	if t.ExamWeight, err = parseWeight(weight); err != nil {
		return t, err
	}
	if t.RequiredDepth, err = entities.ParseDepth(strings.ToLower(strings.TrimSpace(depth))); err != nil {
		return t, err
	}
	if t.PriorityHint, err = entities.ParsePriorityHint(strings.ToLower(strings.TrimSpace(priority))); err != nil {
		return t, err
	}
	return t, nil
}
