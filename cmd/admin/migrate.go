package main

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/tecnochamados/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded SQL migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		return persistence.RunMigrations(cmd.Context(), e.pg.PoolHandle(), e.logger)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of every migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		return persistence.MigrationStatus(cmd.Context(), e.pg.PoolHandle())
	},
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
}
