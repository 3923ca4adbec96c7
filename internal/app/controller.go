package app

import (
	"context"
	"errors"
	"time"

	"quiz-runner/internal/domain"
)

// Renderer is the presentation surface a Controller drives.
type Renderer interface {
	RenderQuestion(view QuestionView)
	RenderResults(report domain.ScoreReport)
	RenderFatalError(err error)
	RenderSkippedRowWarning(count int)
	// RenderInvalidTransition prompts the user after a rejected action; state is unchanged.
	RenderInvalidTransition(err error)
}

// Controller turns UI events into session transitions and render calls.
// It holds at most one active session and is meant for a single event loop.
type Controller struct {
	service  *QuizService
	renderer Renderer
	now      func() time.Time

	userID    string
	sessionID string
}

func NewController(service *QuizService, renderer Renderer) *Controller {
	return &Controller{service: service, renderer: renderer, now: time.Now}
}

// Session returns the active session, or nil before a successful load or once
// the registry has dropped it.
func (c *Controller) Session() *Session {
	if c.sessionID == "" {
		return nil
	}
	session, err := c.service.Session(c.sessionID)
	if err != nil {
		return nil
	}
	return session
}

// OnLogin records the user identifier written into transcripts.
func (c *Controller) OnLogin(userID string) {
	c.userID = userID
}

// OnFileSelected loads an uploaded workbook, replacing any previous session.
func (c *Controller) OnFileSelected(ctx context.Context, filename string, data []byte) error {
	c.reset()
	session, stats, err := c.service.LoadFile(ctx, filename, data)
	return c.started(session, stats.Skipped(), err)
}

// OnBankSelected loads a stored bank, replacing any previous session.
func (c *Controller) OnBankSelected(ctx context.Context, bankID string) error {
	c.reset()
	session, stats, err := c.service.LoadBank(ctx, bankID)
	return c.started(session, stats.Skipped(), err)
}

func (c *Controller) started(session *Session, skipped int, err error) error {
	if err != nil {
		c.renderer.RenderFatalError(err)
		return err
	}
	c.sessionID = session.ID()
	if skipped > 0 {
		c.renderer.RenderSkippedRowWarning(skipped)
	}
	c.renderer.RenderQuestion(session.View())
	return nil
}

// Close drops the active session, if any.
func (c *Controller) Close() {
	c.reset()
}

func (c *Controller) reset() {
	if c.sessionID != "" {
		c.service.Close(c.sessionID)
		c.sessionID = ""
	}
}

// OnOptionChosen records an answer without moving.
func (c *Controller) OnOptionChosen(questionIndex, optionIndex int) error {
	session, err := c.active()
	if err != nil {
		return err
	}
	if err := session.SelectAnswer(questionIndex, optionIndex); err != nil {
		c.renderer.RenderInvalidTransition(err)
		return err
	}
	return nil
}

func (c *Controller) OnAdvanceRequested() error {
	session, err := c.active()
	if err != nil {
		return err
	}
	view, err := session.Advance()
	if err != nil {
		c.renderer.RenderInvalidTransition(err)
		return err
	}
	c.renderer.RenderQuestion(view)
	return nil
}

func (c *Controller) OnPreviousRequested() error {
	session, err := c.active()
	if err != nil {
		return err
	}
	view, err := session.Previous()
	if err != nil {
		c.renderer.RenderInvalidTransition(err)
		return err
	}
	c.renderer.RenderQuestion(view)
	return nil
}

func (c *Controller) OnSubmitRequested() error {
	session, err := c.active()
	if err != nil {
		return err
	}
	if err := session.Submit(); err != nil {
		c.renderer.RenderInvalidTransition(err)
		return err
	}
	return c.renderResults(session)
}

// OnTimeExpired ends the attempt when the external countdown fires.
func (c *Controller) OnTimeExpired() error {
	session, err := c.active()
	if err != nil {
		return err
	}
	if err := session.Expire(); err != nil {
		if errors.Is(err, domain.ErrSessionCompleted) {
			return nil
		}
		return err
	}
	return c.renderResults(session)
}

// OnExportRequested renders the transcript of a completed session.
func (c *Controller) OnExportRequested() (Transcript, error) {
	session, err := c.active()
	if err != nil {
		return Transcript{}, err
	}
	report, err := Score(session)
	if err != nil {
		c.renderer.RenderInvalidTransition(err)
		return Transcript{}, err
	}
	return NewTranscript(report, c.now(), c.userID), nil
}

func (c *Controller) renderResults(session *Session) error {
	report, err := c.service.Finish(session)
	if err != nil {
		return err
	}
	c.renderer.RenderResults(report)
	return nil
}

func (c *Controller) active() (*Session, error) {
	session := c.Session()
	if session == nil {
		c.renderer.RenderInvalidTransition(domain.ErrSessionNotFound)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}
