package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-runner/internal/config"
	"quiz-runner/internal/domain"
	"quiz-runner/internal/infra/postgres"
	redisstore "quiz-runner/internal/infra/redis"
	"quiz-runner/internal/ingest"
	"quiz-runner/internal/logger"
	"quiz-runner/internal/spreadsheet"
)

// NewImportCmd stores a workbook as a question bank in Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	var (
		bankID string
		name   string
		sheet  string
		layout string
	)
	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import a workbook as a stored question bank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			bank, stats, err := readBank(cfg, args[0], sheet, layout)
			if err != nil {
				return err
			}
			if bankID != "" {
				bank.ID = bankID
			}
			if name != "" {
				bank.Name = name
			}
			if err := saveBank(cmd.Context(), cfg, log, bank); err != nil {
				return err
			}
			log.Info("bank imported",
				zap.String("bank", bank.ID),
				zap.Int("questions", stats.Accepted),
				zap.Int("skipped", stats.Skipped()),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d questions\t%d rows skipped\n", bank.ID, stats.Accepted, stats.Skipped())
			return nil
		},
	}
	cmd.Flags().StringVar(&bankID, "id", "", "bank id (default: random uuid)")
	cmd.Flags().StringVar(&name, "name", "", "bank name (default: file name)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet to read (default: first sheet)")
	cmd.Flags().StringVar(&layout, "layout", "", "column layout name")
	return cmd
}

// readBank decodes path and checks that it yields at least one question.
func readBank(cfg config.Config, path, sheet, layoutName string) (domain.Bank, ingest.BuildStats, error) {
	layout, err := cfg.Layout(layoutName)
	if err != nil {
		return domain.Bank{}, ingest.BuildStats{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.Bank{}, ingest.BuildStats{}, domain.NewParseFailure(domain.FailureUnreadable, err)
	}
	defer f.Close()

	rows, err := spreadsheet.Decode(f, spreadsheet.Options{
		MaxBytes: cfg.Quiz.MaxUploadBytes,
		Filename: path,
		Sheet:    sheet,
	})
	if err != nil {
		return domain.Bank{}, ingest.BuildStats{}, err
	}
	_, stats, err := ingest.NewBuilder(layout, ingest.NewRandomShuffler()).Build(rows)
	if err != nil {
		return domain.Bank{}, stats, err
	}
	return domain.Bank{
		ID:        uuid.NewString(),
		Name:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Rows:      rows,
		CreatedAt: time.Now().UTC(),
	}, stats, nil
}

func saveBank(ctx context.Context, cfg config.Config, log *zap.Logger, bank domain.Bank) error {
	if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
		return err
	}
	db := postgres.OpenDB(cfg.Postgres.URL)
	defer db.Close()
	if err := postgres.NewBankStore(db).SaveBank(ctx, bank); err != nil {
		return err
	}
	return invalidateCachedBank(ctx, cfg, log, bank.ID)
}

// invalidateCachedBank drops the Redis copy of a bank so servers reload the new rows.
func invalidateCachedBank(ctx context.Context, cfg config.Config, log *zap.Logger, bankID string) error {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	if err := redisstore.NewBankRepository(client, nil, 0).Invalidate(ctx, bankID); err != nil {
		return fmt.Errorf("invalidate cached bank %s: %w", bankID, err)
	}
	log.Debug("cached bank invalidated", zap.String("bank", bankID))
	return nil
}

// NewBanksCmd lists stored question banks.
func NewBanksCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List stored question banks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			db := postgres.OpenDB(cfg.Postgres.URL)
			defer db.Close()
			banks, err := postgres.NewBankStore(db).ListBanks(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range banks {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", b.ID, b.Name, b.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}
