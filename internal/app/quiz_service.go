package app

import (
	"bytes"
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-runner/internal/domain"
	"quiz-runner/internal/ingest"
	"quiz-runner/internal/spreadsheet"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// BankRepository loads stored question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.Bank, error)
}

// ServiceOptions tunes how uploads become sessions.
type ServiceOptions struct {
	Layout         domain.ColumnLayout
	MaxUploadBytes int64
	// Shuffler defaults to a time-seeded one.
	Shuffler *ingest.Shuffler
}

// QuizService contains the load and session use cases.
type QuizService struct {
	sessions SessionRepository
	banks    BankRepository
	opts     ServiceOptions
	log      *zap.Logger
	newID    func() string
}

// NewQuizService wires a service. banks may be nil when no bank store is configured.
func NewQuizService(store SessionRepository, banks BankRepository, opts ServiceOptions, log *zap.Logger) *QuizService {
	if opts.Shuffler == nil {
		opts.Shuffler = ingest.NewRandomShuffler()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &QuizService{
		sessions: store,
		banks:    banks,
		opts:     opts,
		log:      log,
		newID:    uuid.NewString,
	}
}

// Layout returns the column layout uploads are read with.
func (s *QuizService) Layout() domain.ColumnLayout {
	return s.opts.Layout
}

// MaxUploadBytes is the upload size limit in effect.
func (s *QuizService) MaxUploadBytes() int64 {
	if s.opts.MaxUploadBytes <= 0 {
		return spreadsheet.DefaultMaxBytes
	}
	return s.opts.MaxUploadBytes
}

// LoadFile decodes an uploaded workbook and starts a session on it.
func (s *QuizService) LoadFile(_ context.Context, filename string, data []byte) (*Session, ingest.BuildStats, error) {
	rows, err := spreadsheet.Decode(bytes.NewReader(data), spreadsheet.Options{
		MaxBytes: s.MaxUploadBytes(),
		Filename: filename,
	})
	if err != nil {
		s.log.Warn("spreadsheet rejected", zap.String("file", filename), zap.Error(err))
		return nil, ingest.BuildStats{}, err
	}
	return s.start(filename, rows)
}

// LoadBank starts a session on a stored question bank.
func (s *QuizService) LoadBank(ctx context.Context, bankID string) (*Session, ingest.BuildStats, error) {
	if s.banks == nil {
		return nil, ingest.BuildStats{}, domain.ErrBankNotFound
	}
	bank, err := s.banks.GetBank(ctx, bankID)
	if err != nil {
		s.log.Warn("bank load failed", zap.String("bank", bankID), zap.Error(err))
		return nil, ingest.BuildStats{}, err
	}
	return s.start("bank:"+bank.ID, bank.Rows)
}

func (s *QuizService) start(source string, rows []domain.RawRow) (*Session, ingest.BuildStats, error) {
	builder := ingest.NewBuilder(s.opts.Layout, s.opts.Shuffler)
	set, stats, err := builder.Build(rows)
	if err != nil {
		s.log.Warn("question set not built",
			zap.String("source", source),
			zap.Int("rows", stats.Rows),
			zap.Int("skipped", stats.Skipped()),
			zap.Error(err),
		)
		return nil, stats, err
	}

	session, err := NewSession(s.newID(), set)
	if err != nil {
		return nil, stats, err
	}
	s.sessions.Put(session)

	s.log.Info("quiz session started",
		zap.String("session", session.ID()),
		zap.String("source", source),
		zap.Int("questions", stats.Accepted),
		zap.Int("skipped", stats.Skipped()),
		zap.Int("header_rows", stats.HeaderRows),
	)
	return session, stats, nil
}

// Session returns a registered session.
func (s *QuizService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Close drops a session from the registry.
func (s *QuizService) Close(sessionID string) {
	s.sessions.Delete(sessionID)
}

// Finish scores a completed session and logs the outcome.
func (s *QuizService) Finish(session *Session) (domain.ScoreReport, error) {
	report, err := Score(session)
	if err != nil {
		return domain.ScoreReport{}, err
	}
	s.log.Info("quiz session completed",
		zap.String("session", session.ID()),
		zap.Int("correct", report.Correct),
		zap.Int("total", report.Total),
		zap.String("score", FormatPercentage(report.Percentage)),
		zap.Bool("perfect", report.Perfect()),
		zap.Duration("elapsed", session.CompletedAt().Sub(session.CreatedAt())),
	)
	return report, nil
}
