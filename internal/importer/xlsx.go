package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

// Sheet names of a workbook syllabus.
const (
	TopicsSheet     = "Topics"
	FlashcardsSheet = "Flashcards"
)

// TopicColumns and FlashcardColumns are the expected header cells; columns are
// matched by header name, case-insensitively, in any order.
var (
	TopicColumns     = []string{"id", "title", "weight", "depth", "priority", "dependencies"}
	FlashcardColumns = []string{"id", "topic", "front", "back"}
)

// ParseXLSX reads a workbook with a Topics sheet and an optional Flashcards
// sheet. The first row of each sheet is the header.
func ParseXLSX(r io.Reader, subjectID string) (*Syllabus, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	s := &Syllabus{SubjectID: subjectID}
	var errs []error

	rows, err := sheetRows(f, TopicsSheet, true)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		t, err := topicFromFields(row.get("id"), row.get("title"), row.get("weight"),
			row.get("depth"), row.get("priority"), row.get("dependencies"))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s row %d: %w", TopicsSheet, row.num, err))
			continue
		}
		s.Topics = append(s.Topics, t)
	}

	rows, err = sheetRows(f, FlashcardsSheet, false)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		s.Flashcards = append(s.Flashcards, entities.Flashcard{
			ID:      strings.TrimSpace(row.get("id")),
			TopicID: strings.TrimSpace(row.get("topic")),
			Front:   strings.TrimSpace(row.get("front")),
			Back:    strings.TrimSpace(row.get("back")),
		})
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSyllabus, errors.Join(errs...))
	}
	return s, nil
}

type sheetRow struct {
	num    int // 1-based row number in the sheet
	cells  []string
	header map[string]int
}

func (r sheetRow) get(column string) string {
	i, ok := r.header[column]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

// sheetRows returns the non-empty data rows of a sheet keyed by header.
func sheetRows(f *excelize.File, sheet string, required bool) ([]sheetRow, error) {
	if !hasSheet(f, sheet) {
		if required {
			return nil, fmt.Errorf("%w: missing sheet %q", ErrInvalidSyllabus, sheet)
		}
		return nil, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, cell := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(cell))] = i
	}
	if _, ok := header["id"]; !ok {
		return nil, fmt.Errorf("%w: sheet %s has no id column", ErrInvalidSyllabus, sheet)
	}

	out := make([]sheetRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		out = append(out, sheetRow{num: i + 2, cells: cells, header: header})
	}
	return out, nil
}

func hasSheet(f *excelize.File, sheet string) bool {
	for _, name := range f.GetSheetList() {
		if name == sheet {
			return true
		}
	}
	return false
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseWeight(cell string) (float64, error) {
	cell = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(cell), "%"))
	if cell == "" {
		return 0, fmt.Errorf("%w: weight is empty", entities.ErrInvalidTopic)
	}
	w, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: weight %q: %v", entities.ErrInvalidTopic, cell, err)
	}
	return w, nil
}

// WriteXLSX writes s as a workbook that ParseXLSX reads back.
func WriteXLSX(w io.Writer, s *Syllabus) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", TopicsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(FlashcardsSheet); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}

	if err := writeRow(f, TopicsSheet, 1, TopicColumns); err != nil {
		return err
	}
	for i, t := range s.Topics {
		row := []string{
			t.ID, t.Title, strconv.FormatFloat(t.ExamWeight, 'f', -1, 64),
			string(t.RequiredDepth), string(t.PriorityHint), strings.Join(t.Dependencies, ";"),
		}
		if err := writeRow(f, TopicsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, FlashcardsSheet, 1, FlashcardColumns); err != nil {
		return err
	}
	for i, c := range s.Flashcards {
		if err := writeRow(f, FlashcardsSheet, i+2, []string{c.ID, c.TopicID, c.Front, c.Back}); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
