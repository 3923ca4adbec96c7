package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-runner/internal/domain"
)

// BankLoader loads question bank rows (JSONB) from Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context, bankID string) (domain.Bank, error) {
	bank := domain.Bank{ID: bankID}
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT name, rows, created_at FROM question_banks WHERE id=$1`, bankID).
		Scan(&bank.Name, &raw, &bank.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Bank{}, fmt.Errorf("load bank %s: %w", bankID, domain.ErrBankNotFound)
	}
	if err != nil {
		return domain.Bank{}, fmt.Errorf("load bank: %w", err)
	}
	if err := json.Unmarshal(raw, &bank.Rows); err != nil {
		return domain.Bank{}, fmt.Errorf("unmarshal bank rows: %w", err)
	}
	return bank, nil
}
