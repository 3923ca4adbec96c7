package domain

import "time"

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// NotAnswered marks a question the user never answered in score details and transcripts.
const NotAnswered = "Not Answered"

// RawRow is one spreadsheet row as decoded cell text, left to right.
type RawRow []string

// Cell returns the raw value at column i, or "" when the row is shorter.
func (r RawRow) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Question models an MCQ question with exactly one correct option.
// Options are already in display order; Options[CorrectIndex] is the correct text.
type Question struct {
	Topic        string              `json:"topic,omitempty"`
	Text         string              `json:"text"`
	Options      [OptionCount]string `json:"options"`
	CorrectIndex int                 `json:"correctIndex"`
	Image        string              `json:"image,omitempty"`
}

// CorrectText returns the text of the correct option.
func (q Question) CorrectText() string {
	return q.Options[q.CorrectIndex]
}

// QuestionSet is an ordered, read-only collection of questions produced by one build.
type QuestionSet struct {
	questions []Question
	skipped   int
}

// NewQuestionSet copies questions into a new set. skipped is the number of rows
// rejected for data problems while building it.
func NewQuestionSet(questions []Question, skipped int) QuestionSet {
	qs := make([]Question, len(questions))
	copy(qs, questions)
	return QuestionSet{questions: qs, skipped: skipped}
}

// Len returns the number of questions.
func (s QuestionSet) Len() int {
	return len(s.questions)
}

// Question returns the question at index i.
func (s QuestionSet) Question(i int) (Question, bool) {
	if i < 0 || i >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[i], true
}

// Questions returns a copy of all questions in order.
func (s QuestionSet) Questions() []Question {
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Skipped is the count of rows dropped for data problems (headers and blank rows excluded).
func (s QuestionSet) Skipped() int {
	return s.skipped
}

// Phase is the lifecycle phase of a quiz session.
type Phase int

const (
	PhaseInProgress Phase = iota
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseInProgress:
		return "in_progress"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// QuestionDetail is the per-question line of a score report.
type QuestionDetail struct {
	QuestionText string `json:"questionText"`
	ChosenText   string `json:"chosenText"`
	CorrectText  string `json:"correctText"`
	Answered     bool   `json:"answered"`
	Correct      bool   `json:"correct"`
}

// ScoreReport summarizes a completed session.
type ScoreReport struct {
	SessionID  string           `json:"sessionId"`
	Correct    int              `json:"correct"`
	Wrong      int              `json:"wrong"`
	Total      int              `json:"total"`
	Percentage float64          `json:"percentage"`
	Details    []QuestionDetail `json:"details"`
}

// Perfect reports whether every question was answered correctly (100.00%).
func (r ScoreReport) Perfect() bool {
	return r.Total > 0 && r.Correct == r.Total
}

// Bank is a stored spreadsheet of question rows that sessions can be built from.
type Bank struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rows      []RawRow  `json:"rows"`
	CreatedAt time.Time `json:"createdAt"`
}
