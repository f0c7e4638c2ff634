// Command seed fills the database with fake users, posts, comments and likes.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"socialapi/internal/config"
	"socialapi/internal/database"
	"socialapi/internal/middleware"
	"socialapi/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Build entities without writing them")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store the default password unhashed (faster, users cannot log in)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := middleware.InitLogger(cfg.Env, os.Stdout)
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	logger.Info("seeding database",
		slog.Int("users", *numUsers),
		slog.Int("posts", *numPosts),
		slog.Bool("clean", *shouldClean),
		slog.Bool("dry_run", *dryRun),
	)

	summary, err := seed.NewSeeder(db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *skipBcrypt,
		DryRun:      *dryRun,
	}).Run(context.Background())
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	logger.Info("seeding completed",
		slog.Int("users", summary.Users),
		slog.Int("posts", summary.Posts),
		slog.Int("comments", summary.Comments),
		slog.Int("likes", summary.Likes),
	)
	if !*skipBcrypt {
		logger.Info("seeded users share one password", slog.String("password", seed.DefaultPassword))
	}
}
