package main

import (
	"fmt"
	"strconv"

	"socialapi/internal/config"
	"socialapi/internal/database"
	"socialapi/internal/repository"

	"github.com/spf13/cobra"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending SQL migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(cmd.Context(), db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		cmd.Println("sql migrations applied")
		return nil
	},
}

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Apply the schema with GORM AutoMigrate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, db, err := connect()
		if err != nil {
			return err
		}
		cfg.DBSchemaMode = config.SchemaModeAuto
		if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		cmd.Println("automigrations applied")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schema mode and pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, db, err := connect()
		if err != nil {
			return err
		}
		status, err := database.GetSchemaStatus(cmd.Context(), db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		cmd.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
			status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
			len(status.AppliedVersions), len(status.PendingMigrations))
		for _, m := range status.PendingMigrations {
			cmd.Printf("pending: %06d_%s\n", m.Version, m.Name)
		}
		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down <version>",
	Short: "Roll back one applied migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		_, db, err := connect()
		if err != nil {
			return err
		}
		if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		cmd.Printf("rolled back migration %d\n", version)
		return nil
	},
}

var recountCmd = &cobra.Command{
	Use:   "recount",
	Short: "Recompute tag usage counts from live posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		n, err := repository.NewTagRepository(db).RecountUsage(cmd.Context())
		if err != nil {
			return fmt.Errorf("recount failed: %w", err)
		}
		cmd.Printf("recounted %d tags\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(upCmd, autoCmd, statusCmd, downCmd, recountCmd)
}
