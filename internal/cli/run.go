package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quiz-runner/internal/app"
	"quiz-runner/internal/domain"
	"quiz-runner/internal/logger"
)

var errAborted = errors.New("quiz aborted before submission")

// NewRunCmd takes a quiz in the terminal.
func NewRunCmd(configPath *string) *cobra.Command {
	var (
		userID    string
		outDir    string
		bankID    string
		layout    string
		timeLimit time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run [file.xlsx]",
		Short: "Take a quiz in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && bankID == "" {
				return fmt.Errorf("a workbook path or --bank is required")
			}
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if layout != "" {
				cfg.Quiz.Layout = layout
			}

			ctx := cmd.Context()
			service, cleanup, err := buildService(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			controller := app.NewController(service, terminalRenderer{out: out})
			controller.OnLogin(userID)

			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return domain.NewParseFailure(domain.FailureUnreadable, err)
				}
				err = controller.OnFileSelected(ctx, args[0], data)
				if err != nil {
					return err
				}
			} else if err := controller.OnBankSelected(ctx, bankID); err != nil {
				return err
			}
			defer controller.Close()

			if err := runQuiz(ctx, controller, cmd.InOrStdin(), out, timeLimit); err != nil {
				return err
			}
			if outDir == "" {
				return nil
			}
			path, err := exportTranscript(controller, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nResults saved to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id written into the results file")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory for the results file; empty disables export")
	cmd.Flags().StringVar(&bankID, "bank", "", "stored bank id to load instead of a workbook")
	cmd.Flags().StringVar(&layout, "layout", "", "column layout name")
	cmd.Flags().DurationVar(&timeLimit, "time-limit", 0, "end the attempt after this long (0 = no limit)")
	return cmd
}

// runQuiz feeds terminal input to the controller until the session completes.
func runQuiz(ctx context.Context, c *app.Controller, in io.Reader, out io.Writer, limit time.Duration) error {
	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	var expired <-chan time.Time
	if limit > 0 {
		timer := time.NewTimer(limit)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		session := c.Session()
		if session == nil {
			return domain.ErrSessionNotFound
		}
		if session.Phase() == domain.PhaseCompleted {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-expired:
			fmt.Fprintln(out, "\nTime is up.")
			if err := c.OnTimeExpired(); err != nil {
				return err
			}
		case line, ok := <-lines:
			if !ok {
				return errAborted
			}
			if quit := handleLine(c, out, strings.TrimSpace(line)); quit {
				return errAborted
			}
		}
	}
}

func handleLine(c *app.Controller, out io.Writer, line string) bool {
	switch strings.ToLower(line) {
	case "n", "next":
		_ = c.OnAdvanceRequested()
	case "p", "prev", "previous":
		_ = c.OnPreviousRequested()
	case "s", "submit":
		_ = c.OnSubmitRequested()
	case "q", "quit":
		return true
	default:
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > domain.OptionCount {
			fmt.Fprintf(out, "Enter 1-%d to choose, n for next, p for previous, s to submit, q to quit.\n", domain.OptionCount)
			return false
		}
		session := c.Session()
		if session == nil {
			return false
		}
		if err := c.OnOptionChosen(session.CurrentIndex(), n-1); err == nil {
			fmt.Fprintf(out, "Selected %d.\n", n)
		}
	}
	return false
}

func exportTranscript(c *app.Controller, dir string) (string, error) {
	transcript, err := c.OnExportRequested()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, transcript.Filename)
	if err := os.WriteFile(path, []byte(transcript.Content), 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}

type terminalRenderer struct {
	out io.Writer
}

func (r terminalRenderer) RenderQuestion(view app.QuestionView) {
	q := view.Question
	fmt.Fprintf(r.out, "\nQuestion %d of %d\n", view.Index+1, view.Total)
	if q.Topic != "" {
		fmt.Fprintf(r.out, "Topic: %s\n", q.Topic)
	}
	fmt.Fprintln(r.out, q.Text)
	if q.Image != "" {
		fmt.Fprintf(r.out, "Image: %s\n", q.Image)
	}
	for i, opt := range q.Options {
		mark := " "
		if view.Answered && view.Chosen == i {
			mark = "*"
		}
		fmt.Fprintf(r.out, " [%s] %d) %s\n", mark, i+1, opt)
	}
	if view.Last {
		fmt.Fprintln(r.out, "Last question: choose an answer, then s to submit.")
	}
}

func (r terminalRenderer) RenderResults(report domain.ScoreReport) {
	fmt.Fprintln(r.out, "\nQuiz Results")
	fmt.Fprintf(r.out, "Total Questions: %d\n", report.Total)
	fmt.Fprintf(r.out, "Correct: %d\n", report.Correct)
	fmt.Fprintf(r.out, "Wrong: %d\n", report.Wrong)
	fmt.Fprintf(r.out, "Score: %s%%\n", app.FormatPercentage(report.Percentage))
	if report.Perfect() {
		fmt.Fprintln(r.out, "Perfect score!")
	}
	for i, d := range report.Details {
		verdict := "wrong"
		if d.Correct {
			verdict = "correct"
		}
		fmt.Fprintf(r.out, "%d. %s\n   your answer: %s (%s)\n   correct answer: %s\n",
			i+1, d.QuestionText, d.ChosenText, verdict, d.CorrectText)
	}
}

func (r terminalRenderer) RenderFatalError(err error) {
	fmt.Fprintf(r.out, "Could not load quiz: %v\n", err)
}

func (r terminalRenderer) RenderSkippedRowWarning(count int) {
	fmt.Fprintf(r.out, "Warning: %d row(s) skipped because of invalid data.\n", count)
}

func (r terminalRenderer) RenderInvalidTransition(err error) {
	switch {
	case errors.Is(err, domain.ErrNoAnswerSelected):
		fmt.Fprintln(r.out, "Please select an answer first.")
	case errors.Is(err, domain.ErrLastQuestion):
		fmt.Fprintln(r.out, "This is the last question; press s to submit.")
	case errors.Is(err, domain.ErrNoPreviousQuestion):
		fmt.Fprintln(r.out, "Already at the first question.")
	case errors.Is(err, domain.ErrSessionCompleted):
		fmt.Fprintln(r.out, "The quiz is already finished.")
	default:
		fmt.Fprintf(r.out, "Not allowed: %v\n", err)
	}
}
