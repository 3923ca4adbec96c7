package ingest

import (
	"fmt"
	"strings"

	"quiz-runner/internal/domain"
)

// Candidate is a validated row before its options are shuffled.
type Candidate struct {
	Topic       string
	Text        string
	Options     [domain.OptionCount]string
	CorrectText string
	Image       string
}

// RowValidator interprets raw rows according to a column layout.
type RowValidator struct {
	layout domain.ColumnLayout
}

func NewRowValidator(layout domain.ColumnLayout) *RowValidator {
	return &RowValidator{layout: layout}
}

// Validate reads one row. Rejections are always a *domain.RowError.
func (v *RowValidator) Validate(index int, row domain.RawRow) (Candidate, error) {
	if isBlank(row) {
		return Candidate{}, &domain.RowError{Row: index, Reason: domain.EmptyOrHeaderRow}
	}

	c := Candidate{
		Topic: v.field(row, v.layout.TopicColumn),
		Text:  v.field(row, v.layout.QuestionColumn),
		Image: v.field(row, v.layout.ImageColumn),
	}
	if c.Text == "" {
		return Candidate{}, &domain.RowError{Row: index, Reason: domain.MissingRequiredField, Field: "question"}
	}
	for i, col := range v.layout.OptionColumns {
		c.Options[i] = v.field(row, col)
		if c.Options[i] == "" {
			return Candidate{}, &domain.RowError{Row: index, Reason: domain.MissingRequiredField, Field: fmt.Sprintf("option %d", i+1)}
		}
	}

	correct, reason, ok := decodeMarker(row.Cell(v.layout.CorrectMarkerColumn))
	if !ok {
		return Candidate{}, &domain.RowError{Row: index, Reason: reason, Field: "correct marker"}
	}
	c.CorrectText = c.Options[correct]

	if v.layout.RejectDuplicateOptions && hasDuplicates(c.Options) {
		return Candidate{}, &domain.RowError{Row: index, Reason: domain.DuplicateOptions}
	}
	return c, nil
}

// IsHeader reports whether the first non-blank cell mentions "question".
func (v *RowValidator) IsHeader(row domain.RawRow) bool {
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		return strings.Contains(strings.ToLower(cell), "question")
	}
	return false
}

func (v *RowValidator) field(row domain.RawRow, col int) string {
	if col == domain.NoColumn {
		return ""
	}
	return strings.TrimSpace(row.Cell(col))
}

func isBlank(row domain.RawRow) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func hasDuplicates(options [domain.OptionCount]string) bool {
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		if _, ok := seen[o]; ok {
			return true
		}
		seen[o] = struct{}{}
	}
	return false
}
