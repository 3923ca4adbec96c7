package cli

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-runner/internal/app"
	"quiz-runner/internal/domain"
	"quiz-runner/internal/infra/memory"
	"quiz-runner/internal/ingest"
	"quiz-runner/internal/spreadsheet"
)

func startTerminalQuiz(t *testing.T, out io.Writer) *app.Controller {
	t.Helper()
	service := app.NewQuizService(memory.NewSessionStore(), nil, app.ServiceOptions{
		Layout:   domain.StandardLayout(),
		Shuffler: ingest.NewShuffler(rand.NewSource(3)),
	}, nil)
	controller := app.NewController(service, terminalRenderer{out: out})
	controller.OnLogin("u1")

	workbook, err := spreadsheet.Encode([]domain.RawRow{
		{"Question", "A", "B", "C", "D", "Answer"},
		{"What is 2 + 2?", "3", "4", "5", "6", "2"},
		{"Capital of France?", "Paris", "Rome", "Madrid", "Berlin", "A"},
		{"", "", "", "", "", ""},
		{"Largest planet?", "Mars", "Venus", "Earth", "Jupiter", "D"},
		{"Smallest prime?", "2", "3", "5", "7", "first"},
	})
	require.NoError(t, err)
	require.NoError(t, controller.OnFileSelected(context.Background(), "quiz.xlsx", workbook))
	return controller
}

func TestRunQuizToCompletion(t *testing.T) {
	var out bytes.Buffer
	controller := startTerminalQuiz(t, &out)

	input := strings.Join([]string{"n", "9", "1", "n", "2", "p", "n", "n", "3", "s"}, "\n") + "\n"
	require.NoError(t, runQuiz(context.Background(), controller, strings.NewReader(input), &out, 0))

	text := out.String()
	assert.Contains(t, text, "Warning: 1 row(s) skipped because of invalid data.")
	assert.Contains(t, text, "Question 1 of 3")
	assert.Contains(t, text, "Please select an answer first.")
	assert.Contains(t, text, "Enter 1-4 to choose")
	assert.Contains(t, text, "Total Questions: 3")
	assert.Equal(t, domain.PhaseCompleted, controller.Session().Phase())

	// Every question kept the last answer chosen for it.
	for i, want := range []int{0, 1, 2} {
		got, ok := controller.Session().Response(i)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestRunQuizAbortsOnEOF(t *testing.T) {
	var out bytes.Buffer
	controller := startTerminalQuiz(t, &out)

	err := runQuiz(context.Background(), controller, strings.NewReader("1\nn\n"), &out, 0)
	assert.ErrorIs(t, err, errAborted)
	assert.Equal(t, domain.PhaseInProgress, controller.Session().Phase())
}

func TestRunQuizTimeLimit(t *testing.T) {
	var out bytes.Buffer
	controller := startTerminalQuiz(t, &out)

	pr, pw := io.Pipe()
	defer pw.Close()

	require.NoError(t, runQuiz(context.Background(), controller, pr, &out, 20*time.Millisecond))
	assert.Contains(t, out.String(), "Time is up.")
	assert.Contains(t, out.String(), "Score: 0.00%")

	dir := t.TempDir()
	path, err := exportTranscript(controller, dir)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "User: u1")
	assert.Contains(t, string(content), "Your Answer: "+domain.NotAnswered)
}

func TestExportBeforeCompletionFails(t *testing.T) {
	var out bytes.Buffer
	controller := startTerminalQuiz(t, &out)

	_, err := exportTranscript(controller, t.TempDir())
	assert.ErrorIs(t, err, domain.ErrSessionNotCompleted)
}
