package seed

import (
	"context"
	"fmt"
	"log/slog"

	"socialapi/internal/models"
	"socialapi/internal/repository"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Seeder populates a database with a realistic social graph.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a seeder writing to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
}

// Run executes the preset and returns what was created.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	if s.opts.ShouldClean && !s.opts.DryRun {
		if err := ClearData(s.db); err != nil {
			slog.Warn("could not clear existing data, continuing", slog.String("error", err.Error()))
		}
	}

	var (
		categories []models.Category
		tags       []models.Tag
	)
	if !s.opts.DryRun {
		if err := Categories(s.db); err != nil {
			return summary, err
		}
		if err := s.db.Find(&categories).Error; err != nil {
			return summary, err
		}
		if err := s.db.Find(&tags).Error; err != nil {
			return summary, err
		}
	}

	users := make([]*models.User, 0, s.opts.NumUsers)
	for range s.opts.NumUsers {
		user, err := s.factory.CreateUser()
		if err != nil {
			slog.Warn("failed to create user", slog.String("error", err.Error()))
			continue
		}
		users = append(users, user)
	}
	summary.Users = len(users)
	if len(users) == 0 {
		return summary, nil
	}

	posts := make([]*models.Post, 0, s.opts.NumPosts)
	for range s.opts.NumPosts {
		author := users[s.factory.rng.Intn(len(users))]
		posts = append(posts, s.factory.BuildPost(author, func(p *models.Post) {
			if len(categories) > 0 && s.factory.rng.Intn(5) > 0 {
				p.CategoryID = &categories[s.factory.rng.Intn(len(categories))].ID
			}
		}))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return summary, fmt.Errorf("create posts: %w", err)
	}
	summary.Posts = len(posts)

	if err := s.tagPosts(ctx, posts, tags); err != nil {
		return summary, err
	}

	for _, post := range posts {
		if post.Status == models.PostStatusDraft {
			continue
		}
		comments, likes, err := s.engage(post, users)
		if err != nil {
			return summary, err
		}
		summary.Comments += comments
		summary.Likes += likes
	}
	return summary, nil
}

// tagPosts links up to three random tags to each post and refreshes usage counts.
func (s *Seeder) tagPosts(ctx context.Context, posts []*models.Post, tags []models.Tag) error {
	if len(tags) == 0 || s.opts.DryRun {
		return nil
	}
	var rows []map[string]any
	for _, post := range posts {
		picked := lo.Samples(tags, s.factory.rng.Intn(4))
		for _, tag := range picked {
			rows = append(rows, map[string]any{"post_id": post.ID, "tag_id": tag.ID})
		}
	}
	if len(rows) > 0 {
		if err := s.db.Table("post_tags").Create(rows).Error; err != nil {
			return fmt.Errorf("tag posts: %w", err)
		}
	}
	_, err := repository.NewTagRepository(s.db).RecountUsage(ctx)
	return err
}

// engage adds comments, one-level replies and likes from random users.
func (s *Seeder) engage(post *models.Post, users []*models.User) (int, int, error) {
	rng := s.factory.rng
	comments, likes := 0, 0

	for range rng.Intn(4) {
		top, err := s.factory.CreateComment(users[rng.Intn(len(users))], post, nil)
		if err != nil {
			return comments, likes, fmt.Errorf("create comment: %w", err)
		}
		comments++
		for range rng.Intn(3) {
			if _, err := s.factory.CreateComment(users[rng.Intn(len(users))], post, top); err != nil {
				return comments, likes, fmt.Errorf("create reply: %w", err)
			}
			comments++
		}
	}

	for _, user := range lo.Samples(users, rng.Intn(len(users)+1)) {
		if err := s.factory.CreateLike(user, post); err != nil {
			return comments, likes, fmt.Errorf("create like: %w", err)
		}
		likes++
	}
	return comments, likes, nil
}

// ClearData removes all seeded content. Postgres truncates and resets
// identities; other dialects delete row by row.
func ClearData(db *gorm.DB) error {
	slog.Info("clearing existing data")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE post_likes, comments, post_tags, posts, tags, categories, profiles, users RESTART IDENTITY CASCADE`).Error
	}
	for _, table := range []string{"post_likes", "comments", "post_tags", "posts", "tags", "categories", "profiles", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
