package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-runner/internal/domain"
)

// BankLoader fetches question banks from a backing store (e.g., Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.Bank, error)
}

// BankRepository caches banks in Redis (hash per bank) and falls back to a loader on cache miss.
// Banks are stored as: HSET quiz:bank:{bankID} name {name} rows {json rows} created_at {RFC3339}
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.Bank, error) {
	if bank, ok := r.fromCache(ctx, bankID); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := r.fromCache(ctx, bankID); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.Bank{}, err
		}

		rows, err := json.Marshal(bank.Rows)
		if err != nil {
			return domain.Bank{}, err
		}
		key := r.bankKey(bankID)
		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		pipe.HSet(ctx, key,
			"name", bank.Name,
			"rows", string(rows),
			"created_at", bank.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return bank, nil
	})
	if err != nil {
		return domain.Bank{}, err
	}
	return result.(domain.Bank), nil
}

// Invalidate removes the cached copy of a bank.
func (r *BankRepository) Invalidate(ctx context.Context, bankID string) error {
	return r.client.Del(ctx, r.bankKey(bankID)).Err()
}

func (r *BankRepository) fromCache(ctx context.Context, bankID string) (domain.Bank, bool) {
	fields, err := r.client.HGetAll(ctx, r.bankKey(bankID)).Result()
	if err != nil || len(fields) == 0 {
		return domain.Bank{}, false
	}
	raw, ok := fields["rows"]
	if !ok {
		return domain.Bank{}, false
	}
	var rows []domain.RawRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return domain.Bank{}, false
	}
	bank := domain.Bank{ID: bankID, Name: fields["name"], Rows: rows}
	if created, err := time.Parse(time.RFC3339Nano, fields["created_at"]); err == nil && !created.IsZero() {
		bank.CreatedAt = created
	}
	return bank, true
}

func (r *BankRepository) bankKey(bankID string) string {
	return "quiz:bank:" + bankID
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
