package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var constraintsCmd = &cobra.Command{
	Use:   "constraints [name]",
	Short: "List constraints in the public schema (postgres)",
	Long: `List every constraint in the public schema with its definition.
With a name, only constraints with that name are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		q := db.WithContext(cmd.Context()).
			Table("pg_constraint c").
			Select("r.relname, c.conname, pg_get_constraintdef(c.oid) AS def").
			Joins("JOIN pg_class r ON c.conrelid = r.oid").
			Joins("JOIN pg_namespace n ON n.oid = r.relnamespace").
			Where("n.nspname = ?", "public").
			Order("r.relname, c.conname")
		if len(args) == 1 {
			q = q.Where("c.conname = ?", args[0])
		}

		var rows []struct {
			Relname string `gorm:"column:relname"`
			Conname string `gorm:"column:conname"`
			Def     string `gorm:"column:def"`
		}
		if err := q.Scan(&rows).Error; err != nil {
			return fmt.Errorf("list constraints: %w", err)
		}
		for _, r := range rows {
			cmd.Printf(" - %s on %s: %s\n", r.Conname, r.Relname, r.Def)
		}
		return nil
	},
}

var columnsCmd = &cobra.Command{
	Use:   "columns <table>",
	Short: "Show the columns and constraints of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		table := args[0]
		if !db.Migrator().HasTable(table) {
			return fmt.Errorf("table %q does not exist", table)
		}

		types, err := db.Migrator().ColumnTypes(table)
		if err != nil {
			return fmt.Errorf("read columns: %w", err)
		}
		cmd.Printf("Columns in %s:\n", table)
		for _, col := range types {
			nullable, _ := col.Nullable()
			cmd.Printf(" - %s: %s nullable=%t\n", col.Name(), col.DatabaseTypeName(), nullable)
		}

		if db.Dialector.Name() != "postgres" {
			return nil
		}
		var constraints []struct {
			ConstraintName string `gorm:"column:constraint_name"`
			ConstraintType string `gorm:"column:constraint_type"`
		}
		if err := db.WithContext(cmd.Context()).
			Raw("SELECT constraint_name, constraint_type FROM information_schema.table_constraints WHERE table_name = ?", table).
			Scan(&constraints).Error; err != nil {
			return fmt.Errorf("read constraints: %w", err)
		}
		cmd.Printf("Constraints in %s:\n", table)
		for _, c := range constraints {
			cmd.Printf(" - %s: %s\n", c.ConstraintName, c.ConstraintType)
		}
		return nil
	},
}

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the public schema (postgres, destroys all data)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !resetYes {
			return fmt.Errorf("refusing to drop the schema without --yes")
		}
		cfg, db, err := connect()
		if err != nil {
			return err
		}
		if cfg.IsProduction() {
			return fmt.Errorf("reset is disabled in production")
		}
		if db.Dialector.Name() != "postgres" {
			return fmt.Errorf("reset requires postgres, got %s", db.Dialector.Name())
		}
		if err := db.WithContext(cmd.Context()).Exec("DROP SCHEMA public CASCADE; CREATE SCHEMA public;").Error; err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
		if err := db.WithContext(cmd.Context()).Exec("GRANT ALL ON SCHEMA public TO public;").Error; err != nil {
			return fmt.Errorf("grant schema permissions: %w", err)
		}
		cmd.Println("schema reset")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm that all data may be destroyed")
	rootCmd.AddCommand(constraintsCmd, columnsCmd, resetCmd)
}
