package app

import (
	"sync"
	"time"

	"quiz-runner/internal/domain"
)

// Session is one attempt at a question set. All methods are safe for concurrent use;
// a rejected transition never changes state.
type Session struct {
	id          string
	createdAt   time.Time
	completedAt time.Time
	now         func() time.Time

	mu        sync.Mutex
	set       domain.QuestionSet
	current   int
	responses map[int]int
	phase     domain.Phase
}

// QuestionView is what a renderer needs to show the current question.
type QuestionView struct {
	Index    int
	Total    int
	Question domain.Question
	Chosen   int
	Answered bool
	Last     bool
}

// NewSession starts an attempt at set on its first question.
func NewSession(id string, set domain.QuestionSet) (*Session, error) {
	return NewSessionWithClock(id, set, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, set domain.QuestionSet, now func() time.Time) (*Session, error) {
	if set.Len() == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}
	return &Session{
		id:        id,
		createdAt: now(),
		now:       now,
		set:       set,
		responses: make(map[int]int),
		phase:     domain.PhaseInProgress,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// CompletedAt is zero until the session completes.
func (s *Session) CompletedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedAt
}

func (s *Session) Len() int {
	return s.set.Len()
}

func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Response returns the option chosen for question i, if any.
func (s *Session) Response(i int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opt, ok := s.responses[i]
	return opt, ok
}

// View describes the current question and the answer already chosen for it.
func (s *Session) View() QuestionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() QuestionView {
	q, _ := s.set.Question(s.current)
	chosen, answered := s.responses[s.current]
	if !answered {
		chosen = -1
	}
	return QuestionView{
		Index:    s.current,
		Total:    s.set.Len(),
		Question: q,
		Chosen:   chosen,
		Answered: answered,
		Last:     s.current == s.set.Len()-1,
	}
}

// SelectAnswer records option for question index, replacing any earlier choice.
func (s *Session) SelectAnswer(index, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseCompleted {
		return domain.ErrSessionCompleted
	}
	if index < 0 || index >= s.set.Len() {
		return domain.ErrQuestionNotFound
	}
	if option < 0 || option >= domain.OptionCount {
		return domain.ErrOptionNotFound
	}
	s.responses[index] = option
	return nil
}

// Advance moves to the next question. The current question must be answered and
// must not be the last one; the last question is finished with Submit.
func (s *Session) Advance() (QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseCompleted {
		return QuestionView{}, domain.ErrSessionCompleted
	}
	if _, ok := s.responses[s.current]; !ok {
		return QuestionView{}, domain.ErrNoAnswerSelected
	}
	if s.current >= s.set.Len()-1 {
		return QuestionView{}, domain.ErrLastQuestion
	}
	s.current++
	return s.viewLocked(), nil
}

// Previous moves back one question. Recorded responses are kept.
func (s *Session) Previous() (QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseCompleted {
		return QuestionView{}, domain.ErrSessionCompleted
	}
	if s.current == 0 {
		return QuestionView{}, domain.ErrNoPreviousQuestion
	}
	s.current--
	return s.viewLocked(), nil
}

// Submit completes the session from any question, provided the current one is answered.
func (s *Session) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseCompleted {
		return domain.ErrSessionCompleted
	}
	if _, ok := s.responses[s.current]; !ok {
		return domain.ErrNoAnswerSelected
	}
	s.completeLocked()
	return nil
}

// Expire completes the session when the external timer runs out. Unanswered
// questions stay unanswered.
func (s *Session) Expire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseCompleted {
		return domain.ErrSessionCompleted
	}
	s.completeLocked()
	return nil
}

func (s *Session) completeLocked() {
	s.phase = domain.PhaseCompleted
	s.completedAt = s.now()
}

// snapshot copies what scoring needs under the lock.
func (s *Session) snapshot() (domain.QuestionSet, map[int]int, domain.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	responses := make(map[int]int, len(s.responses))
	for k, v := range s.responses {
		responses[k] = v
	}
	return s.set, responses, s.phase
}
