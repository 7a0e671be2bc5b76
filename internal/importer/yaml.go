package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

type yamlSyllabus struct {
	Subject    string          `yaml:"subject"`
	Topics     []yamlTopic     `yaml:"topics"`
	Flashcards []yamlFlashcard `yaml:"flashcards"`
}

type yamlTopic struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	Weight       float64  `yaml:"weight"`
	Depth        string   `yaml:"depth"`
	Priority     string   `yaml:"priority"`
	Dependencies []string `yaml:"dependencies"`
}

type yamlFlashcard struct {
	ID    string `yaml:"id"`
	Topic string `yaml:"topic"`
	Front string `yaml:"front"`
	Back  string `yaml:"back"`
}

// ParseYAML reads a YAML syllabus. A non-empty subjectID overrides the
// file's subject.
func ParseYAML(r io.Reader, subjectID string) (*Syllabus, error) {
	var doc yamlSyllabus
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode yaml: %w", ErrInvalidSyllabus, err)
	}

	s := &Syllabus{SubjectID: doc.Subject}
	if subjectID != "" {
		s.SubjectID = subjectID
	}

	var errs []error
	for i, yt := range doc.Topics {
		t, err := topicFromFields(yt.ID, yt.Title, strconv.FormatFloat(yt.Weight, 'f', -1, 64),
			yt.Depth, yt.Priority, "")
		if err != nil {
			errs = append(errs, fmt.Errorf("topic %d: %w", i+1, err))
			continue
		}
		t.Dependencies = splitList(strings.Join(yt.Dependencies, ";"))
		s.Topics = append(s.Topics, t)
	}
	for _, yc := range doc.Flashcards {
		s.Flashcards = append(s.Flashcards, entities.Flashcard{
			ID: yc.ID, TopicID: yc.Topic, Front: yc.Front, Back: yc.Back,
		})
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSyllabus, errors.Join(errs...))
	}
	return s, nil
}
