package domain

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinLayoutsValidate(t *testing.T) {
	for _, layout := range []ColumnLayout{StandardLayout(), ImagedLayout(), TopicalLayout()} {
		assert.NoError(t, layout.Validate(), layout.Name)
	}
}

func TestLayoutValidateRejects(t *testing.T) {
	shared := StandardLayout()
	shared.CorrectMarkerColumn = shared.OptionColumns[0]

	negative := StandardLayout()
	negative.QuestionColumn = NoColumn

	header := ImagedLayout()
	header.HeaderRowIndex = -2

	for name, layout := range map[string]ColumnLayout{"shared": shared, "negative": negative, "header": header} {
		assert.ErrorIs(t, layout.Validate(), ErrInvalidLayout, name)
	}
}

func TestTransitionErrorsShareParent(t *testing.T) {
	for _, err := range []error{ErrNoAnswerSelected, ErrLastQuestion, ErrNoPreviousQuestion, ErrSessionCompleted} {
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
	assert.False(t, errors.Is(ErrSessionNotFound, ErrInvalidTransition))
}

func TestParseFailureMatching(t *testing.T) {
	var err error = NewParseFailure(FailureUnreadable, io.ErrUnexpectedEOF)

	assert.ErrorIs(t, err, ErrParseFailure)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "spreadsheet parse failure: unreadable: unexpected EOF", err.Error())

	var pf *ParseFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, FailureUnreadable, pf.Kind)
}

func TestRowErrorMessage(t *testing.T) {
	err := &RowError{Row: 4, Reason: MissingRequiredField, Field: "option 2"}
	assert.Equal(t, "row 5 rejected (missing_required_field): option 2", err.Error())
	assert.Equal(t, "reject_reason(99)", RejectReason(99).String())
	assert.Len(t, RejectReasons, 5)
}

func TestQuestionSetIsReadOnly(t *testing.T) {
	qs := []Question{{Text: "q", Options: [OptionCount]string{"a", "b", "c", "d"}, CorrectIndex: 2}}
	set := NewQuestionSet(qs, 1)
	qs[0].Text = "changed"

	got, ok := set.Question(0)
	require.True(t, ok)
	assert.Equal(t, "q", got.Text)
	assert.Equal(t, "c", got.CorrectText())

	all := set.Questions()
	all[0].Text = "changed"
	got, _ = set.Question(0)
	assert.Equal(t, "q", got.Text)

	_, ok = set.Question(1)
	assert.False(t, ok)
	assert.Equal(t, 1, set.Skipped())
}

func TestScoreReportPerfect(t *testing.T) {
	assert.True(t, ScoreReport{Correct: 2, Total: 2}.Perfect())
	assert.False(t, ScoreReport{Correct: 1, Total: 2}.Perfect())
	assert.False(t, ScoreReport{}.Perfect())
	assert.Equal(t, "", RawRow{"a"}.Cell(3))
	assert.Equal(t, "completed", PhaseCompleted.String())
}
