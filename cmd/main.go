package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"local-marketplace/internal/config"
	"local-marketplace/internal/logging"
)

const defaultAppName = "marketplace"

var (
	envFile   string
	logLevel  string
	logFormat string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   defaultAppName,
	Short: "Local services marketplace: storefront API, admin tools and data loading",
	Long: `marketplace runs the storefront and admin REST API, applies the database schema,
loads seed data, and drives admin create/edit flows against a running API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil {
			// A missing default .env is normal; a missing explicit one is not.
			if cmd.Flags().Changed("env-file") || !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}

		level, format := logSettings()
		var err error
		logger, err = logging.New(level, format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logger.With(zap.String("app", defaultAppName))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL or "+config.DefaultLogLevel+")")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "json or console (default $LOG_FORMAT or "+config.DefaultLogFormat+")")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, adminCmd, lookupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// logSettings resolves the logger level and format: flags first, then the environment, then the
// same defaults config.Load applies.
func logSettings() (level, format string) {
	level = firstNonEmpty(logLevel, os.Getenv("LOG_LEVEL"), config.DefaultLogLevel)
	format = firstNonEmpty(logFormat, os.Getenv("LOG_FORMAT"), config.DefaultLogFormat)
	return level, format
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// openDB connects to Postgres with the configured pool limits and checks the connection.
func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
