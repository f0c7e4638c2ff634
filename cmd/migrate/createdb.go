package main

import (
	"database/sql"
	"fmt"

	"socialapi/internal/config"
	"socialapi/internal/database"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

var createDBCmd = &cobra.Command{
	Use:   "create-db",
	Short: "Create the configured postgres database if it does not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.DBDriver != "" && cfg.DBDriver != "postgres" {
			return fmt.Errorf("create-db requires postgres, got %s", cfg.DBDriver)
		}

		conn, err := sql.Open("pgx", database.MaintenanceDSN(cfg))
		if err != nil {
			return fmt.Errorf("open maintenance database: %w", err)
		}
		defer conn.Close()

		ctx := cmd.Context()
		var exists bool
		if err := conn.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.DBName).Scan(&exists); err != nil {
			return fmt.Errorf("check database: %w", err)
		}
		if exists {
			cmd.Printf("database %s already exists\n", cfg.DBName)
			return nil
		}

		var quoted string
		if err := conn.QueryRowContext(ctx, "SELECT quote_ident($1)", cfg.DBName).Scan(&quoted); err != nil {
			return fmt.Errorf("quote database name: %w", err)
		}
		if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+quoted); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		cmd.Printf("database %s created\n", cfg.DBName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createDBCmd)
}
