package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-runner/internal/domain"
)

type bankModel struct {
	bun.BaseModel `bun:"table:question_banks"`

	ID        string          `bun:"id,pk"`
	Name      string          `bun:"name,notnull"`
	Rows      []domain.RawRow `bun:"rows,type:jsonb,notnull"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// OpenDB opens a bun handle over the pg driver.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// BankStore writes and lists question banks.
type BankStore struct {
	db *bun.DB
}

func NewBankStore(db *bun.DB) *BankStore {
	return &BankStore{db: db}
}

// SaveBank inserts a bank or replaces the rows of an existing one.
func (s *BankStore) SaveBank(ctx context.Context, bank domain.Bank) error {
	model := &bankModel{
		ID:        bank.ID,
		Name:      bank.Name,
		Rows:      bank.Rows,
		CreatedAt: bank.CreatedAt,
	}
	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("rows = EXCLUDED.rows").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save bank %s: %w", bank.ID, err)
	}
	return nil
}

// ListBanks returns bank metadata, newest first. Rows are not loaded.
func (s *BankStore) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	var models []bankModel
	err := s.db.NewSelect().
		Model(&models).
		Column("id", "name", "created_at").
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	banks := make([]domain.Bank, 0, len(models))
	for _, m := range models {
		banks = append(banks, domain.Bank{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt})
	}
	return banks, nil
}
