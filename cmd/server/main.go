package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lab-report-ai/internal/config"
	"lab-report-ai/internal/health"
	"lab-report-ai/internal/labreport"
	"lab-report-ai/internal/platform/logging"
	"lab-report-ai/internal/platform/postgres"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "server",
		Short:        "Lab report analysis and health assistant API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(demoCmd())
	rootCmd.AddCommand(classifyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	run := func(apply func(cmd *cobra.Command, db *sql.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			logger := logging.New(cfg.Env, cfg.LogLevel)
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
			if err != nil {
				return err
			}
			defer db.Close()
			return apply(cmd, db)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: run(func(cmd *cobra.Command, db *sql.DB) error {
			if err := postgres.MigrateUp(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: run(func(cmd *cobra.Command, db *sql.DB) error {
			return postgres.MigrateDown(db)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: run(func(cmd *cobra.Command, db *sql.DB) error {
			v, dirty, err := postgres.Version(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", v, dirty)
			return nil
		}),
	})
	return cmd
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Print the demonstration report as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(labreport.DemoReport())
		},
	}
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <metric> <value>",
		Short: "Classify a single metric value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if _, ok := health.Lookup(key); !ok {
				return fmt.Errorf("unknown metric %q (known: %v)", key, health.Keys)
			}
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %g: %s\n", key, value, health.Classify(key, value))
			return nil
		},
	}
}
