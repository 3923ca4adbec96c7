package ingest

import (
	"errors"

	"quiz-runner/internal/domain"
)

// BuildStats accounts for every input row of a build.
type BuildStats struct {
	Rows       int
	Accepted   int
	HeaderRows int
	BlankRows  int
	// Rejected counts every rejection by reason, expected ones included.
	Rejected map[domain.RejectReason]int
	// Problems lists data-problem rejections in row order.
	Problems []*domain.RowError
}

// Skipped is the user-facing count of rows dropped for data problems.
func (s BuildStats) Skipped() int {
	return len(s.Problems)
}

// Builder folds validation and shuffling over a whole sheet.
type Builder struct {
	layout    domain.ColumnLayout
	validator *RowValidator
	shuffler  *Shuffler
}

func NewBuilder(layout domain.ColumnLayout, shuffler *Shuffler) *Builder {
	return &Builder{
		layout:    layout,
		validator: NewRowValidator(layout),
		shuffler:  shuffler,
	}
}

// Build produces a question set from rows, preserving row order. It never fails
// on individual rows; only an empty result is returned as ErrEmptyQuestionSet.
func (b *Builder) Build(rows []domain.RawRow) (domain.QuestionSet, BuildStats, error) {
	stats := BuildStats{
		Rows:     len(rows),
		Rejected: make(map[domain.RejectReason]int),
	}
	headers := b.headerRows(rows)
	questions := make([]domain.Question, 0, len(rows))

	for i, row := range rows {
		if headers[i] {
			stats.HeaderRows++
			stats.Rejected[domain.EmptyOrHeaderRow]++
			continue
		}

		candidate, err := b.validator.Validate(i, row)
		if err != nil {
			var rowErr *domain.RowError
			if !errors.As(err, &rowErr) {
				rowErr = &domain.RowError{Row: i, Reason: domain.UnrecognizedCorrectnessMarker}
			}
			stats.Rejected[rowErr.Reason]++
			if rowErr.Reason == domain.EmptyOrHeaderRow {
				stats.BlankRows++
			} else {
				stats.Problems = append(stats.Problems, rowErr)
			}
			continue
		}

		options, correct := b.shuffler.Shuffle(candidate.Options, candidate.CorrectText)
		questions = append(questions, domain.Question{
			Topic:        candidate.Topic,
			Text:         candidate.Text,
			Options:      options,
			CorrectIndex: correct,
			Image:        candidate.Image,
		})
	}

	stats.Accepted = len(questions)
	if len(questions) == 0 {
		return domain.QuestionSet{}, stats, domain.ErrEmptyQuestionSet
	}
	return domain.NewQuestionSet(questions, stats.Skipped()), stats, nil
}

// headerRows marks the configured header row, plus the first other non-blank row
// when it looks like a header.
func (b *Builder) headerRows(rows []domain.RawRow) map[int]bool {
	headers := make(map[int]bool, 2)
	if b.layout.HeaderRowPresent {
		headers[b.layout.HeaderRowIndex] = true
	}
	for i, row := range rows {
		if headers[i] || isBlank(row) {
			continue
		}
		if b.validator.IsHeader(row) {
			headers[i] = true
		}
		break
	}
	return headers
}
