package repository

import (
	"context"

	"socialapi/internal/models"
	"socialapi/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository toggles post likes.
type LikeRepository interface {
	Toggle(ctx context.Context, postID, userID uint) (models.LikeState, error)
	Count(ctx context.Context, postID uint) (int64, error)
}

type likeRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db, log: observability.NewRepoLogger("post_likes")}
}

// Toggle inserts the like unless (post, user) already exists, in which case the
// existing row is removed. The unique index decides; there is no read first.
func (r *likeRepository) Toggle(ctx context.Context, postID, userID uint) (models.LikeState, error) {
	var state models.LikeState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&models.PostLike{PostID: postID, UserID: userID})
		if res.Error != nil {
			return res.Error
		}

		state.IsLiked = res.RowsAffected == 1
		if !state.IsLiked {
			if err := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{}).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&state.LikeCount).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "toggle")
		return models.LikeState{}, models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]any{"post_id": postID, "user_id": userID, "liked": state.IsLiked})
	return state, nil
}

func (r *likeRepository) Count(ctx context.Context, postID uint) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
