package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"quiz-runner/internal/domain"
)

// TranscriptDateLayout renders the export timestamp as date then time.
const TranscriptDateLayout = "01/02/2006 3:04:05 PM"

// Transcript is an exported results file.
type Transcript struct {
	Filename string
	Content  string
}

// Score computes the report of a completed session. Unanswered questions count as wrong.
func Score(s *Session) (domain.ScoreReport, error) {
	set, responses, phase := s.snapshot()
	if phase != domain.PhaseCompleted {
		return domain.ScoreReport{}, domain.ErrSessionNotCompleted
	}

	report := domain.ScoreReport{
		SessionID: s.ID(),
		Total:     set.Len(),
		Details:   make([]domain.QuestionDetail, 0, set.Len()),
	}
	for i, q := range set.Questions() {
		detail := domain.QuestionDetail{
			QuestionText: q.Text,
			ChosenText:   domain.NotAnswered,
			CorrectText:  q.CorrectText(),
		}
		if chosen, ok := responses[i]; ok {
			detail.Answered = true
			detail.ChosenText = q.Options[chosen]
			detail.Correct = chosen == q.CorrectIndex
		}
		if detail.Correct {
			report.Correct++
		}
		report.Details = append(report.Details, detail)
	}
	report.Wrong = report.Total - report.Correct
	report.Percentage = percentage(report.Correct, report.Total)
	return report, nil
}

// percentage is correct/total*100 rounded half-up to two decimals, computed in
// basis points so 2/3 yields exactly 66.67.
func percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	bp := (correct*10000*2 + total) / (2 * total)
	return float64(bp) / 100
}

// FormatPercentage renders a percentage with two decimals.
func FormatPercentage(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

// RenderTranscript lays out a report as the plain-text results file.
func RenderTranscript(report domain.ScoreReport, at time.Time, userID string) string {
	var b strings.Builder
	b.WriteString("Quiz Results\n")
	b.WriteString("-------------------------\n")
	if userID != "" {
		fmt.Fprintf(&b, "User: %s\n", userID)
	}
	fmt.Fprintf(&b, "Date: %s\n", at.Format(TranscriptDateLayout))
	fmt.Fprintf(&b, "Total Questions: %d\n", report.Total)
	fmt.Fprintf(&b, "Correct: %d\n", report.Correct)
	fmt.Fprintf(&b, "Wrong: %d\n", report.Wrong)
	fmt.Fprintf(&b, "Score: %s%%\n", FormatPercentage(report.Percentage))
	b.WriteString("\nDetailed Results:\n")
	for _, d := range report.Details {
		fmt.Fprintf(&b, "\nQuestion: %s\n", d.QuestionText)
		fmt.Fprintf(&b, "Your Answer: %s\n", d.ChosenText)
		fmt.Fprintf(&b, "Correct Answer: %s\n", d.CorrectText)
	}
	return b.String()
}

// TranscriptFilename follows quiz_results_<unix-millis>.txt.
func TranscriptFilename(at time.Time) string {
	return fmt.Sprintf("quiz_results_%d.txt", at.UnixMilli())
}

// NewTranscript renders report into an exportable file.
func NewTranscript(report domain.ScoreReport, at time.Time, userID string) Transcript {
	return Transcript{
		Filename: TranscriptFilename(at),
		Content:  RenderTranscript(report, at, userID),
	}
}
