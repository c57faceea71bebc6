package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/tecnochamados/internal/persistence"
	"github.com/spec-kit/tecnochamados/internal/repository"
	"github.com/spec-kit/tecnochamados/pkg/util"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify database and Redis connectivity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.pg.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		clients, err := repository.NewClientRepository(e.pg.PoolHandle()).Count(ctx)
		if err != nil {
			return fmt.Errorf("postgres query: %w", err)
		}
		cmd.Printf("postgres ok (%d clients)\n", clients)

		redis := persistence.NewRedis(ctx, e.cfg.Redis, e.logger)
		defer redis.Close()
		if err := redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		cmd.Println("redis ok")
		return nil
	},
}

var checkUserCmd = &cobra.Command{
	Use:   "check-user <email>",
	Short: "Show the user rows and account registered for an e-mail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		email := args[0]
		pool := e.pg.PoolHandle()
		rows, err := repository.NewUserRepository(pool).List(ctx, repository.UserFilter{Email: email})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			cmd.Printf("no user rows for %s\n", email)
		}
		for _, u := range rows {
			cmd.Printf("user %s  %s  %s  %s  %s  created %s\n",
				u.ID, u.Name, u.Role, u.Department, u.Status, u.CreatedAt.Format("2006-01-02 15:04"))
		}

		account, err := repository.NewAccountRepository(pool).GetByEmail(ctx, email)
		switch {
		case util.IsNotFound(err):
			cmd.Println("no account")
		case err != nil:
			return err
		default:
			cmd.Printf("account %s  confirmed=%t  needs_reconciliation=%t\n",
				account.ID, account.EmailConfirmed, account.NeedsReconciliation)
		}
		return nil
	},
}
