// Command admin grants and revokes administrator rights.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"socialapi/internal/cache"
	"socialapi/internal/config"
	"socialapi/internal/database"
	"socialapi/internal/middleware"
	"socialapi/internal/models"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "Manage administrator accounts",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connect() (*gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	middleware.InitLogger(cfg.Env, os.Stderr)
	cache.InitRedis(cfg.RedisURL)

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// findUser resolves a numeric ID or a username.
func findUser(db *gorm.DB, ref string) (*models.User, error) {
	var user models.User
	q := db.Model(&models.User{})
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("username = ?", ref)
	}
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q not found", ref)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func setAdmin(cmd *cobra.Command, ref string, admin bool) error {
	db, err := connect()
	if err != nil {
		return err
	}
	user, err := findUser(db, ref)
	if err != nil {
		return err
	}
	if user.IsAdmin == admin {
		cmd.Printf("%s (ID: %d) already has is_admin=%t\n", user.Username, user.ID, admin)
		return nil
	}
	if err := db.Model(user).Update("is_admin", admin).Error; err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	cache.InvalidateUser(cmd.Context(), user.ID)
	cmd.Printf("%s (ID: %d) is_admin=%t\n", user.Username, user.ID, admin)
	return nil
}

var promoteCmd = &cobra.Command{
	Use:   "promote <user_id|username>",
	Short: "Grant administrator rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(cmd, args[0], true)
	},
}

var demoteCmd = &cobra.Command{
	Use:   "demote <user_id|username>",
	Short: "Revoke administrator rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(cmd, args[0], false)
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"list-admins"},
	Short:   "List administrators",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		var admins []models.User
		if err := db.Where("is_admin = ?", true).Order("id").Find(&admins).Error; err != nil {
			return fmt.Errorf("fetch admins: %w", err)
		}
		if len(admins) == 0 {
			cmd.Println("No admins found")
			return nil
		}
		for _, admin := range admins {
			cmd.Printf("ID: %d | Username: %s | Email: %s | Active: %t\n", admin.ID, admin.Username, admin.Email, admin.IsActive)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promoteCmd, demoteCmd, listCmd)
}
