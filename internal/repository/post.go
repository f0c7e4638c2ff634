package repository

import (
	"context"
	"strings"

	"socialapi/internal/cache"
	"socialapi/internal/models"
	"socialapi/internal/observability"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post listing. Zero values mean "no filter".
type PostFilter struct {
	Status     models.PostStatus
	CategoryID uint
	TagID      uint
	AuthorID   uint
	Query      string
	// ViewerID sees their own drafts; 0 is anonymous.
	ViewerID uint
}

// postColumns are the columns an update may write. view_count is only ever
// changed by IncrementViewCount.
var postColumns = []string{
	"title", "content", "summary", "status", "featured_image",
	"category_id", "published_at", "deleted_at", "updated_at",
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tagIDs []uint) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	FindByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, page Page) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post, tagIDs *[]uint) error
	IncrementViewCount(ctx context.Context, id uint) error
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

// Create inserts the post and links tagIDs, refreshing the usage of those tags.
func (r *postRepository) Create(ctx context.Context, post *models.Post, tagIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		if err := replacePostTags(tx, post.ID, tagIDs); err != nil {
			return err
		}
		return recountTagUsage(tx, tagIDs)
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return writeError(err, "Post could not be created")
	}
	r.log.LogCreate(ctx, map[string]any{"id": post.ID, "status": post.Status})
	if len(tagIDs) > 0 {
		cache.InvalidateTags(ctx)
	}
	return nil
}

// GetByID loads a post with author, category, tags and counters. Deleted posts
// and other users' drafts are reported as not found.
func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := r.withDetails(readDB(r.db).WithContext(ctx), viewerID).
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, lookupError(err, "Post", id)
	}
	if !post.VisibleTo(viewerID) {
		return nil, models.NewNotFoundError("Post", id)
	}
	return &post, nil
}

// FindByID loads the bare post row whatever its status, for ownership checks
// and state changes.
func (r *postRepository) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, lookupError(err, "Post", id)
	}
	return &post, nil
}

// List returns visible posts newest-first with the total count for filter.
func (r *postRepository) List(ctx context.Context, filter PostFilter, page Page) ([]*models.Post, int64, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "List", "posts")
	defer span.End()
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Post{}).Scopes(postFilterScope(filter)).Count(&total).Error; err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, 0, models.NewInternalError(err)
	}

	var posts []*models.Post
	query := r.withDetails(db, filter.ViewerID).
		Scopes(postFilterScope(filter)).
		Order("posts.created_at DESC, posts.id DESC")
	if err := page.apply(query).Find(&posts).Error; err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// Update writes the editable columns of post. A non-nil tagIDs replaces the
// whole tag set. Tag usage is recomputed for every tag touched.
func (r *postRepository) Update(ctx context.Context, post *models.Post, tagIDs *[]uint) error {
	var touched []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before []uint
		if err := tx.Table("post_tags").Where("post_id = ?", post.ID).Pluck("tag_id", &before).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Post{ID: post.ID}).Select(postColumns).Updates(post)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", post.ID)
		}

		touched = before
		if tagIDs != nil {
			if err := replacePostTags(tx, post.ID, *tagIDs); err != nil {
				return err
			}
			touched = append(touched, *tagIDs...)
		}
		return recountTagUsage(tx, touched)
	})
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return writeError(err, "Post could not be updated")
	}
	r.log.LogUpdate(ctx, map[string]any{"id": post.ID, "status": post.Status})
	if len(touched) > 0 {
		cache.InvalidateTags(ctx)
	}
	return nil
}

// IncrementViewCount bumps view_count with a single atomic UPDATE.
func (r *postRepository) IncrementViewCount(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// withDetails selects the computed counters and preloads the nested objects.
// comment_count covers what the thread listing shows: active top-level
// comments and active replies under an active parent.
func (r *postRepository) withDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.is_active = ? " +
		"AND (comments.parent_id IS NULL OR EXISTS (SELECT 1 FROM comments parents WHERE parents.id = comments.parent_id AND parents.is_active = ?))) AS comment_count, " +
		"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) AS like_count, " +
		"EXISTS(SELECT 1 FROM post_likes WHERE post_likes.post_id = posts.id AND post_likes.user_id = ?) AS is_liked"

	return db.Model(&models.Post{}).
		Select(selectQuery, true, true, viewerID).
		Preload("User").
		Preload("Category").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tags.name ASC")
		})
}

// postFilterScope applies visibility rules and the optional filters.
func postFilterScope(f PostFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("posts.status <> ?", models.PostStatusDeleted)
		if f.ViewerID == 0 {
			db = db.Where("posts.status <> ?", models.PostStatusDraft)
		} else {
			db = db.Where("(posts.status <> ? OR posts.user_id = ?)", models.PostStatusDraft, f.ViewerID)
		}

		if f.Status != "" {
			db = db.Where("posts.status = ?", f.Status)
		}
		if f.CategoryID != 0 {
			db = db.Where("posts.category_id = ?", f.CategoryID)
		}
		if f.AuthorID != 0 {
			db = db.Where("posts.user_id = ?", f.AuthorID)
		}
		if f.TagID != 0 {
			db = db.Where("EXISTS (SELECT 1 FROM post_tags WHERE post_tags.post_id = posts.id AND post_tags.tag_id = ?)", f.TagID)
		}
		if q := strings.TrimSpace(f.Query); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			db = db.Where("(LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ?)", like, like)
		}
		return db
	}
}

func replacePostTags(tx *gorm.DB, postID uint, tagIDs []uint) error {
	if err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", postID).Error; err != nil {
		return err
	}
	rows := lo.Map(lo.Uniq(tagIDs), func(tagID uint, _ int) map[string]any {
		return map[string]any{"post_id": postID, "tag_id": tagID}
	})
	if len(rows) == 0 {
		return nil
	}
	return tx.Table("post_tags").Create(rows).Error
}
