package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnochamados/internal/config"
	"github.com/spec-kit/tecnochamados/internal/observability"
	"github.com/spec-kit/tecnochamados/internal/persistence"
)

var rootCmd = &cobra.Command{
	Use:           "tecnochamados-admin",
	Short:         "TecnoChamados maintenance commands",
	Long:          `Database migrations, development seed data and connectivity checks for TecnoChamados.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(checkUserCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// env holds what every command needs.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pg.PoolHandle() == nil {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}
	return &env{cfg: cfg, logger: logger, pg: pg}, nil
}

func (e *env) Close() {
	e.pg.Close()
	_ = e.logger.Sync()
}
