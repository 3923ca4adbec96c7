package ingest

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-runner/internal/domain"
)

func sampleRows() []domain.RawRow {
	return []domain.RawRow{
		{"Question", "Option 1", "Option 2", "Option 3", "Option 4", "Correct"},
		{"2 + 2?", "3", "4", "5", "6", "2"},
		{"Capital of France?", "Berlin", "Madrid", "Paris", "Rome", "C"},
		{"Largest planet?", "Mars", "Earth", "Venus", "Jupiter", "option 4"},
		{"Broken row", "a", "", "c", "d", "1"},
	}
}

func newTestBuilder(layout domain.ColumnLayout, seed int64) *Builder {
	return NewBuilder(layout, NewShuffler(rand.NewSource(seed)))
}

func TestBuildEndToEndCounts(t *testing.T) {
	set, stats, err := newTestBuilder(domain.StandardLayout(), 1).Build(sampleRows())
	require.NoError(t, err)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, 1, set.Skipped())
	assert.Equal(t, 1, stats.Skipped())
	assert.Equal(t, 1, stats.HeaderRows)
	assert.Equal(t, 1, stats.Rejected[domain.EmptyOrHeaderRow])
	assert.Equal(t, 1, stats.Rejected[domain.MissingRequiredField])
	require.Len(t, stats.Problems, 1)
	assert.Equal(t, 4, stats.Problems[0].Row)

	want := []string{"4", "Paris", "Jupiter"}
	for i, q := range set.Questions() {
		assert.Equal(t, want[i], q.CorrectText(), "question %d", i)
	}
	q, _ := set.Question(0)
	assert.Equal(t, "2 + 2?", q.Text)
}

func TestBuildPreservesCorrectTextAcrossSeeds(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		set, _, err := newTestBuilder(domain.StandardLayout(), seed).Build(sampleRows())
		require.NoError(t, err)
		for i, want := range []string{"4", "Paris", "Jupiter"} {
			q, ok := set.Question(i)
			require.True(t, ok)
			require.Equal(t, want, q.Options[q.CorrectIndex], "seed %d question %d", seed, i)
		}
	}
}

func TestBuildMarkerEncodingsAgree(t *testing.T) {
	for _, marker := range []string{"3", "C", "option 3", "Option 3"} {
		rows := []domain.RawRow{{"Pick", "w", "x", "y", "z", marker}}
		set, _, err := newTestBuilder(domain.StandardLayout(), 9).Build(rows)
		require.NoError(t, err, marker)
		q, _ := set.Question(0)
		assert.Equal(t, "y", q.CorrectText(), marker)
	}
}

func TestBuildEachBadRowSkipsExactlyOne(t *testing.T) {
	rows := []domain.RawRow{
		{"Q1", "a", "b", "c", "d", "1"},
		{"Q2", "a", "b", "c", "d", "7"},
		{"Q3", "a", "b", "c", "d", "nope"},
		{"", "a", "b", "c", "d", "1"},
		{},
		{"Q4", "a", "b", "c", "d", "D"},
	}
	set, stats, err := newTestBuilder(domain.StandardLayout(), 3).Build(rows)
	require.NoError(t, err)

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, 3, stats.Skipped())
	assert.Equal(t, 1, stats.BlankRows)
	assert.Equal(t, 0, stats.HeaderRows)
	assert.Equal(t, 1, stats.Rejected[domain.MarkerOutOfRange])
	assert.Equal(t, 1, stats.Rejected[domain.UnrecognizedCorrectnessMarker])
	assert.Equal(t, 1, stats.Rejected[domain.MissingRequiredField])
}

func TestBuildConfiguredHeaderRow(t *testing.T) {
	rows := []domain.RawRow{
		{"img", "Prompt", "A", "B", "C", "D", "Answer"},
		{"http://x/1.png", "Which?", "a", "b", "c", "d", "A"},
	}
	set, stats, err := newTestBuilder(domain.ImagedLayout(), 5).Build(rows)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.HeaderRows)
	assert.Equal(t, 0, set.Skipped())
	q, _ := set.Question(0)
	assert.Equal(t, "http://x/1.png", q.Image)
	assert.Equal(t, "a", q.CorrectText())
}

func TestBuildQuestionHeaderBelowConfiguredHeader(t *testing.T) {
	layout := domain.StandardLayout()
	layout.HeaderRowPresent = true
	layout.HeaderRowIndex = 0
	rows := []domain.RawRow{
		{"Quiz title"},
		{"Question", "A", "B", "C", "D", "Answer"},
		{"Which?", "a", "b", "c", "d", "A"},
	}

	set, stats, err := newTestBuilder(layout, 9).Build(rows)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 2, stats.HeaderRows)
	assert.Equal(t, 0, stats.Skipped())
	assert.Empty(t, stats.Problems)
}

func TestBuildEmptyIsFatal(t *testing.T) {
	rows := []domain.RawRow{
		{"Question", "A", "B", "C", "D", "Answer"},
		{"Q", "a", "b", "c", "", "1"},
	}
	_, stats, err := newTestBuilder(domain.StandardLayout(), 1).Build(rows)
	assert.True(t, errors.Is(err, domain.ErrEmptyQuestionSet))
	assert.Equal(t, 1, stats.Skipped())

	_, _, err = newTestBuilder(domain.StandardLayout(), 1).Build(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyQuestionSet)
}

func TestBuildDoesNotMutateRows(t *testing.T) {
	rows := sampleRows()
	before := make([]domain.RawRow, len(rows))
	for i, r := range rows {
		before[i] = append(domain.RawRow(nil), r...)
	}
	_, _, err := newTestBuilder(domain.StandardLayout(), 11).Build(rows)
	require.NoError(t, err)
	assert.Equal(t, before, rows)
}
