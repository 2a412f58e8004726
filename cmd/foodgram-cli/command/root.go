package command

// root.go defines the root command for foodgram-cli and the shared database
// bootstrap used by every subcommand.

import (
	"fmt"
	"log/slog"
	"os"

	"foodgram/database"
	"foodgram/internal/config"
	"foodgram/internal/logging"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var databaseURL string // overrides DATABASE_URL

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "foodgram-cli",
	Short: "foodgram-cli - Foodgram administration tool",
	Long: `foodgram-cli runs maintenance tasks against the Foodgram database:
- Migrate the schema
- Import the ingredient and tag catalogs from CSV files
- Grant or revoke the admin role

It reads the same environment (.env, DATABASE_URL, LOG_LEVEL, ...) as the API server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDB connects to the configured database. Tests swap it for SQLite.
var openDB = func() (*gorm.DB, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}

	log, err := logging.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.OpenGorm(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return db, log, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "database URL (defaults to DATABASE_URL)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importIngredientsCmd)
	rootCmd.AddCommand(importTagsCmd)
	rootCmd.AddCommand(setRoleCmd)
}
