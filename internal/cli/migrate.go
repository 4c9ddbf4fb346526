package cli

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/config"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Create or update the persons, measurements, and rejected_records tables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		m, err := migrate.New("file://"+migrationsDir, cfg.Database.ConnString())
		if err != nil {
			return fmt.Errorf("failed to initialize migrations: %w", err)
		}
		defer m.Close()

		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("Database already up to date")
				return nil
			}
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		fmt.Println("Database migrations completed")
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "migrations", "migrations", "path to the migrations directory")
	rootCmd.AddCommand(migrateCmd)
}
