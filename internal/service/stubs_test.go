package service

import (
	"context"
	"testing"
	"time"

	"socialapi/internal/models"
	"socialapi/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFieldsFn  func(context.Context, uint, map[string]any) error
	listFn          func(context.Context, repository.Page) ([]models.User, int64, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return s.updateFieldsFn(ctx, id, fields)
}
func (s *userRepoStub) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return s.updateFieldsFn(ctx, id, map[string]any{"last_login_at": at})
}
func (s *userRepoStub) List(ctx context.Context, page repository.Page) ([]models.User, int64, error) {
	return s.listFn(ctx, page)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id, IsActive: true}, nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateFieldsFn:  func(_ context.Context, _ uint, _ map[string]any) error { return nil },
		listFn:          func(_ context.Context, _ repository.Page) ([]models.User, int64, error) { return nil, 0, nil },
	}
}

// profileRepoStub is a stub for repository.ProfileRepository.
type profileRepoStub struct {
	getOrCreateFn func(context.Context, uint) (*models.Profile, error)
	updateFn      func(context.Context, uint, map[string]any) (*models.Profile, error)
}

func (s *profileRepoStub) GetOrCreate(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getOrCreateFn(ctx, userID)
}
func (s *profileRepoStub) Update(ctx context.Context, userID uint, fields map[string]any) (*models.Profile, error) {
	return s.updateFn(ctx, userID, fields)
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn    func(context.Context, *models.Post, []uint) error
	getByIDFn   func(context.Context, uint, uint) (*models.Post, error)
	findByIDFn  func(context.Context, uint) (*models.Post, error)
	listFn      func(context.Context, repository.PostFilter, repository.Page) ([]*models.Post, int64, error)
	updateFn    func(context.Context, *models.Post, *[]uint) error
	incrementFn func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post, tagIDs []uint) error {
	return s.createFn(ctx, post, tagIDs)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.findByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, f repository.PostFilter, p repository.Page) ([]*models.Post, int64, error) {
	return s.listFn(ctx, f, p)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post, tagIDs *[]uint) error {
	return s.updateFn(ctx, post, tagIDs)
}
func (s *postRepoStub) IncrementViewCount(ctx context.Context, id uint) error {
	return s.incrementFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post, _ []uint) error {
			p.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, Status: models.PostStatusPublished}, nil
		},
		findByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, Status: models.PostStatusPublished}, nil
		},
		listFn: func(_ context.Context, _ repository.PostFilter, _ repository.Page) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		updateFn:    func(_ context.Context, _ *models.Post, _ *[]uint) error { return nil },
		incrementFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	createFn      func(context.Context, *models.Category) error
	getByIDFn     func(context.Context, uint) (*models.Category, error)
	listFn        func(context.Context) ([]models.Category, error)
	updateFn      func(context.Context, uint, map[string]any) (*models.Category, error)
	deleteFn      func(context.Context, uint) error
	ancestorIDsFn func(context.Context, uint) ([]uint, error)
	existingIDsFn func(context.Context, []uint) ([]uint, error)
}

func (s *categoryRepoStub) Create(ctx context.Context, c *models.Category) error {
	return s.createFn(ctx, c)
}
func (s *categoryRepoStub) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) List(ctx context.Context) ([]models.Category, error) {
	return s.listFn(ctx)
}
func (s *categoryRepoStub) Update(ctx context.Context, id uint, fields map[string]any) (*models.Category, error) {
	return s.updateFn(ctx, id, fields)
}
func (s *categoryRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *categoryRepoStub) AncestorIDs(ctx context.Context, id uint) ([]uint, error) {
	return s.ancestorIDsFn(ctx, id)
}
func (s *categoryRepoStub) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	return s.existingIDsFn(ctx, ids)
}

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		createFn: func(_ context.Context, c *models.Category) error {
			c.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Category, error) {
			return &models.Category{ID: id, Name: "existing"}, nil
		},
		listFn: func(_ context.Context) ([]models.Category, error) { return nil, nil },
		updateFn: func(_ context.Context, id uint, _ map[string]any) (*models.Category, error) {
			return &models.Category{ID: id}, nil
		},
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
		ancestorIDsFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		existingIDsFn: func(_ context.Context, ids []uint) ([]uint, error) { return ids, nil },
	}
}

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	createFn      func(context.Context, *models.Tag) error
	getByIDFn     func(context.Context, uint) (*models.Tag, error)
	listFn        func(context.Context) ([]models.Tag, error)
	updateFn      func(context.Context, uint, map[string]any) (*models.Tag, error)
	deleteFn      func(context.Context, uint) error
	existingIDsFn func(context.Context, []uint) ([]uint, error)
	findOrCreate  func(context.Context, []string, func(string) string) ([]models.Tag, error)
	recountFn     func(context.Context) (int64, error)
}

func (s *tagRepoStub) Create(ctx context.Context, t *models.Tag) error { return s.createFn(ctx, t) }
func (s *tagRepoStub) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	return s.getByIDFn(ctx, id)
}
func (s *tagRepoStub) List(ctx context.Context) ([]models.Tag, error) { return s.listFn(ctx) }
func (s *tagRepoStub) Update(ctx context.Context, id uint, fields map[string]any) (*models.Tag, error) {
	return s.updateFn(ctx, id, fields)
}
func (s *tagRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *tagRepoStub) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	return s.existingIDsFn(ctx, ids)
}
func (s *tagRepoStub) FindOrCreateByNames(ctx context.Context, names []string, slugify func(string) string) ([]models.Tag, error) {
	return s.findOrCreate(ctx, names, slugify)
}
func (s *tagRepoStub) RecountUsage(ctx context.Context) (int64, error) { return s.recountFn(ctx) }

func noopTagRepo() *tagRepoStub {
	return &tagRepoStub{
		createFn: func(_ context.Context, t *models.Tag) error {
			t.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Tag, error) {
			return &models.Tag{ID: id, Name: "existing"}, nil
		},
		listFn: func(_ context.Context) ([]models.Tag, error) { return nil, nil },
		updateFn: func(_ context.Context, id uint, _ map[string]any) (*models.Tag, error) {
			return &models.Tag{ID: id}, nil
		},
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
		existingIDsFn: func(_ context.Context, ids []uint) ([]uint, error) { return ids, nil },
		findOrCreate: func(_ context.Context, names []string, _ func(string) string) ([]models.Tag, error) {
			out := make([]models.Tag, len(names))
			for i, n := range names {
				out[i] = models.Tag{ID: uint(100 + i), Name: n}
			}
			return out, nil
		},
		recountFn: func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	toggleFn func(context.Context, uint, uint) (models.LikeState, error)
}

func (s *likeRepoStub) Toggle(ctx context.Context, postID, userID uint) (models.LikeState, error) {
	return s.toggleFn(ctx, postID, userID)
}
func (s *likeRepoStub) Count(_ context.Context, _ uint) (int64, error) { return 0, nil }

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint, repository.Page) ([]*models.Comment, int64, error)
	updateFn     func(context.Context, uint, string) error
	deactivateFn func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, p repository.Page) ([]*models.Comment, int64, error) {
	return s.listByPostFn(ctx, postID, p)
}
func (s *commentRepoStub) UpdateContent(ctx context.Context, id uint, content string) error {
	return s.updateFn(ctx, id, content)
}
func (s *commentRepoStub) Deactivate(ctx context.Context, id uint) error {
	return s.deactivateFn(ctx, id)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}

func fixedNow() time.Time {
	return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}
