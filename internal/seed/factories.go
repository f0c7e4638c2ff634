// Package seed provides helpers to create demo data for development and tests.
package seed

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"socialapi/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plain-text password of every seeded account.
const DefaultPassword = "Password123!"

// Options configure the seeder and its factory.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// SkipBcrypt stores DefaultPassword unhashed; seeded users then cannot log in.
	SkipBcrypt bool
	// DryRun builds entities without writing them.
	DryRun bool
	// MaxDays bounds how far back created_at timestamps are spread.
	MaxDays   int
	BatchSize int
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
	hashed string
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	return &Factory{
		db:     db,
		opts:   opts,
		rng:    rand.New(rand.NewSource(seed)), // #nosec G404: acceptable for seeding
		nextID: 1000,
	}
}

func (f *Factory) password() string {
	if f.opts.SkipBcrypt {
		return DefaultPassword
	}
	if f.hashed == "" {
		hashed, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		f.hashed = string(hashed)
	}
	return f.hashed
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

func (f *Factory) assignID() uint {
	f.nextID++
	return f.nextID
}

// BuildUser returns an unsaved user with a unique username and email.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	username := fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999))
	if len(username) > 30 {
		username = username[len(username)-30:]
	}
	user := &models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		Password:     f.password(),
		Nickname:     gofakeit.FirstName(),
		Bio:          gofakeit.Sentence(10),
		ProfileImage: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		IsActive:     true,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if f.opts.DryRun {
		user.ID = f.assignID()
		slog.Debug("[dry-run] CreateUser", slog.String("username", user.Username))
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post by user. Roughly two thirds are published,
// the rest split between drafts and archived posts.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Title:         gofakeit.Sentence(5),
		Content:       gofakeit.Paragraph(1, 3, 5, "\n"),
		UserID:        user.ID,
		Status:        f.pickStatus(),
		FeaturedImage: fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
		CreatedAt:     f.pastTime(),
	}
	if len(post.Title) > 200 {
		post.Title = post.Title[:200]
	}
	post.Summary = truncate(post.Content, 300)
	if post.Status != models.PostStatusDraft {
		published := post.CreatedAt.Add(time.Duration(f.rng.Intn(120)) * time.Minute)
		post.PublishedAt = &published
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

func (f *Factory) pickStatus() models.PostStatus {
	switch n := f.rng.Intn(12); {
	case n < 8:
		return models.PostStatusPublished
	case n < 10:
		return models.PostStatusDraft
	default:
		return models.PostStatusArchived
	}
}

// CreatePostsBatch persists posts in one statement per batch.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = f.assignID()
		}
		slog.Debug("[dry-run] CreatePostsBatch", slog.Int("posts", len(posts)))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.CreateInBatches(posts, batch).Error
}

// CreateComment persists a comment by user on post, optionally as a reply.
func (f *Factory) CreateComment(user *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		Content:   gofakeit.Sentence(8),
		UserID:    user.ID,
		PostID:    post.ID,
		IsActive:  true,
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rng.Intn(72)+1) * time.Hour),
	}
	if parent != nil {
		comment.ParentID = &parent.ID
		comment.CreatedAt = parent.CreatedAt.Add(time.Duration(f.rng.Intn(60)+1) * time.Minute)
	}
	if f.opts.DryRun {
		comment.ID = f.assignID()
		return comment, nil
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on post.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.PostLike{UserID: user.ID, PostID: post.ID}).Error
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
