package repository

import (
	"context"

	"socialapi/internal/models"
	"socialapi/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, page Page) ([]*models.Comment, int64, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Deactivate(ctx context.Context, id uint) error
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return writeError(err, "Comment could not be created")
	}
	r.log.LogCreate(ctx, map[string]any{"id": comment.ID, "post_id": comment.PostID})
	return nil
}

// GetByID returns the comment including inactive ones; callers decide visibility.
func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Preload("Replies", activeOldestFirst).
		Preload("Replies.User").
		First(&comment, id).Error
	if err != nil {
		return nil, lookupError(err, "Comment", id)
	}
	return &comment, nil
}

// ListByPost returns active top-level comments oldest-first, each with its
// active replies oldest-first.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, page Page) ([]*models.Comment, int64, error) {
	base := readDB(r.db).WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ? AND parent_id IS NULL AND is_active = ?", postID, true)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var comments []*models.Comment
	query := base.
		Preload("User").
		Preload("Replies", activeOldestFirst).
		Preload("Replies.User").
		Order("created_at ASC, id ASC")
	if err := page.apply(query).Find(&comments).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	r.log.LogUpdate(ctx, map[string]any{"id": id})
	return nil
}

// Deactivate hides the comment. Replies stay in the table but are only
// reachable through their parent, so they disappear with it.
func (r *commentRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

func activeOldestFirst(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true).Order("created_at ASC, id ASC")
}
