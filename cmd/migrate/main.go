// Command migrate runs schema and maintenance operations against the configured database.
package main

import (
	"fmt"
	"os"

	"socialapi/internal/config"
	"socialapi/internal/database"
	"socialapi/internal/middleware"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Schema and maintenance operations for the social API database",
	Long: `migrate applies and inspects the database schema.

Connection settings come from config.yml, config.<APP_ENV>.yml and the
environment, exactly as for the server.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect loads configuration and opens the database without applying the schema.
func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	middleware.InitLogger(cfg.Env, os.Stderr)

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, db, nil
}
