package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/aliskhannn/study-planner-bot/internal/service"
)

// Result summarizes a stored import.
type Result struct {
	SubjectID  string
	Topics     int
	Flashcards int
	Layers     int // depth of the prerequisite graph
}

// Importer validates syllabus files and stores them.
type Importer struct {
	writer service.SubjectWriter
	logger *zap.Logger
}

func New(writer service.SubjectWriter, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{writer: writer, logger: logger}
}

// ParseFile parses a .xlsx, .yaml or .yml syllabus. An empty subjectID falls
// back to the subject in the file, then to the file name.
func ParseFile(path, subjectID string) (*Syllabus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open syllabus: %w", err)
	}
	defer f.Close()

	var s *Syllabus
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		s, err = ParseXLSX(f, subjectID)
	case ".yaml", ".yml":
		s, err = ParseYAML(f, subjectID)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalidSyllabus, ext)
	}
	if err != nil {
		return nil, err
	}

	if s.SubjectID == "" {
		s.SubjectID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Import validates s and stores it. Nothing is written when validation fails.
func (i *Importer) Import(ctx context.Context, s *Syllabus) (*Result, error) {
	g, err := s.Validate()
	if err != nil {
		return nil, err
	}

	if err := i.writer.SaveSubject(ctx, s.SubjectID, s.Topics, s.Flashcards); err != nil {
		return nil, fmt.Errorf("save subject: %w", err)
	}

	res := &Result{
		SubjectID:  s.SubjectID,
		Topics:     len(s.Topics),
		Flashcards: len(s.Flashcards),
		Layers:     len(g.Layers()),
	}

	i.logger.Info("syllabus imported",
		zap.String("subject_id", res.SubjectID),
		zap.Int("topics", res.Topics),
		zap.Int("flashcards", res.Flashcards),
		zap.Int("layers", res.Layers),
	)
	return res, nil
}

// ImportFile parses and imports a syllabus file.
func (i *Importer) ImportFile(ctx context.Context, path, subjectID string) (*Result, error) {
	s, err := ParseFile(path, subjectID)
	if err != nil {
		return nil, err
	}
	return i.Import(ctx, s)
}
