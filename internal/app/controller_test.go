package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-runner/internal/app"
	"quiz-runner/internal/domain"
	"quiz-runner/internal/infra/memory"
)

type recordingRenderer struct {
	questions []app.QuestionView
	results   []domain.ScoreReport
	fatal     []error
	skipped   []int
	invalid   []error
}

func (r *recordingRenderer) RenderQuestion(view app.QuestionView) {
	r.questions = append(r.questions, view)
}

func (r *recordingRenderer) RenderResults(report domain.ScoreReport) {
	r.results = append(r.results, report)
}

func (r *recordingRenderer) RenderFatalError(err error) {
	r.fatal = append(r.fatal, err)
}

func (r *recordingRenderer) RenderSkippedRowWarning(count int) {
	r.skipped = append(r.skipped, count)
}

func (r *recordingRenderer) RenderInvalidTransition(err error) {
	r.invalid = append(r.invalid, err)
}

func (r *recordingRenderer) lastQuestion() app.QuestionView {
	return r.questions[len(r.questions)-1]
}

func newTestController(t *testing.T) (*app.Controller, *recordingRenderer, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore()
	renderer := &recordingRenderer{}
	return app.NewController(newTestService(store, nil), renderer), renderer, store
}

func TestControllerFullAttempt(t *testing.T) {
	controller, renderer, _ := newTestController(t)
	controller.OnLogin("user-7")

	require.NoError(t, controller.OnFileSelected(context.Background(), "quiz.xlsx", encode(t, sampleRows())))
	assert.Equal(t, []int{1}, renderer.skipped)
	require.Len(t, renderer.questions, 1)
	assert.Equal(t, 0, renderer.lastQuestion().Index)

	// Correct, wrong, correct.
	for i := 0; i < 3; i++ {
		view := renderer.lastQuestion()
		option := view.Question.CorrectIndex
		if i == 1 {
			option = (option + 1) % domain.OptionCount
		}
		require.NoError(t, controller.OnOptionChosen(view.Index, option))
		if view.Last {
			break
		}
		require.NoError(t, controller.OnAdvanceRequested())
	}
	require.NoError(t, controller.OnSubmitRequested())

	require.Len(t, renderer.results, 1)
	report := renderer.results[0]
	assert.Equal(t, 2, report.Correct)
	assert.Equal(t, 1, report.Wrong)
	assert.Equal(t, 66.67, report.Percentage)
	assert.False(t, report.Perfect())

	transcript, err := controller.OnExportRequested()
	require.NoError(t, err)
	assert.Regexp(t, `^quiz_results_\d+\.txt$`, transcript.Filename)
	assert.Contains(t, transcript.Content, "User: user-7\n")
	assert.Contains(t, transcript.Content, "Score: 66.67%\n")
	assert.Empty(t, renderer.invalid)
}

func TestControllerRejectsInvalidTransitions(t *testing.T) {
	controller, renderer, _ := newTestController(t)

	// Nothing loaded yet.
	assert.ErrorIs(t, controller.OnAdvanceRequested(), domain.ErrSessionNotFound)

	require.NoError(t, controller.OnFileSelected(context.Background(), "quiz.xlsx", encode(t, sampleRows())))
	renderer.invalid = nil

	assert.ErrorIs(t, controller.OnAdvanceRequested(), domain.ErrNoAnswerSelected)
	assert.ErrorIs(t, controller.OnPreviousRequested(), domain.ErrNoPreviousQuestion)
	assert.ErrorIs(t, controller.OnSubmitRequested(), domain.ErrNoAnswerSelected)
	assert.ErrorIs(t, controller.OnOptionChosen(0, domain.OptionCount), domain.ErrOptionNotFound)
	_, err := controller.OnExportRequested()
	assert.ErrorIs(t, err, domain.ErrSessionNotCompleted)

	assert.Len(t, renderer.invalid, 5)
	assert.Len(t, renderer.questions, 1)
	assert.Equal(t, 0, controller.Session().CurrentIndex())
	assert.Equal(t, domain.PhaseInProgress, controller.Session().Phase())
}

func TestControllerTimeExpired(t *testing.T) {
	controller, renderer, _ := newTestController(t)
	require.NoError(t, controller.OnFileSelected(context.Background(), "quiz.xlsx", encode(t, sampleRows())))

	view := renderer.lastQuestion()
	require.NoError(t, controller.OnOptionChosen(view.Index, view.Question.CorrectIndex))
	require.NoError(t, controller.OnTimeExpired())

	require.Len(t, renderer.results, 1)
	report := renderer.results[0]
	assert.Equal(t, 1, report.Correct)
	assert.Equal(t, 33.33, report.Percentage)
	assert.Equal(t, domain.NotAnswered, report.Details[1].ChosenText)

	// A second expiry after completion is a no-op.
	require.NoError(t, controller.OnTimeExpired())
	assert.Len(t, renderer.results, 1)

	assert.ErrorIs(t, controller.OnOptionChosen(0, 0), domain.ErrSessionCompleted)
}

func TestControllerFatalLoadKeepsNoSession(t *testing.T) {
	controller, renderer, store := newTestController(t)

	require.NoError(t, controller.OnFileSelected(context.Background(), "quiz.xlsx", encode(t, sampleRows())))
	require.Equal(t, 1, store.Len())

	err := controller.OnFileSelected(context.Background(), "quiz.xlsx", []byte("garbage"))
	assert.ErrorIs(t, err, domain.ErrParseFailure)
	require.Len(t, renderer.fatal, 1)
	assert.Nil(t, controller.Session())
	assert.Equal(t, 0, store.Len())
}

func TestControllerReloadReplacesSession(t *testing.T) {
	controller, _, store := newTestController(t)
	ctx := context.Background()

	require.NoError(t, controller.OnFileSelected(ctx, "quiz.xlsx", encode(t, sampleRows())))
	first := controller.Session().ID()
	require.NoError(t, controller.OnFileSelected(ctx, "quiz.xlsx", encode(t, sampleRows())))

	assert.NotEqual(t, first, controller.Session().ID())
	assert.Equal(t, 1, store.Len())

	controller.Close()
	assert.Nil(t, controller.Session())
	assert.Equal(t, 0, store.Len())
}

func TestControllerBankSelection(t *testing.T) {
	loader := memory.NewStaticBankLoader(map[string]domain.Bank{
		"b": {ID: "b", Rows: sampleRows()},
	})
	renderer := &recordingRenderer{}
	controller := app.NewController(
		newTestService(memory.NewSessionStore(), memory.NewBankRepository(loader, time.Minute)),
		renderer,
	)

	require.NoError(t, controller.OnBankSelected(context.Background(), "b"))
	assert.Equal(t, 3, controller.Session().Len())

	assert.ErrorIs(t, controller.OnBankSelected(context.Background(), "missing"), domain.ErrBankNotFound)
	assert.Len(t, renderer.fatal, 1)
	assert.Nil(t, controller.Session())
}

func TestControllerSessionDroppedFromRegistry(t *testing.T) {
	controller, renderer, store := newTestController(t)
	require.NoError(t, controller.OnFileSelected(context.Background(), "quiz.xlsx", encode(t, sampleRows())))

	store.Delete(controller.Session().ID())

	assert.Nil(t, controller.Session())
	assert.ErrorIs(t, controller.OnAdvanceRequested(), domain.ErrSessionNotFound)
	require.Len(t, renderer.invalid, 1)
	assert.ErrorIs(t, renderer.invalid[0], domain.ErrSessionNotFound)
}
