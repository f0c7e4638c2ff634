package repository

import (
	"context"
	"errors"

	"socialapi/internal/models"
	"socialapi/internal/observability"

	"gorm.io/gorm"
)

// ProfileRepository stores the optional one-per-user profile row.
type ProfileRepository interface {
	GetOrCreate(ctx context.Context, userID uint) (*models.Profile, error)
	Update(ctx context.Context, userID uint, fields map[string]any) (*models.Profile, error)
}

type profileRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db, log: observability.NewRepoLogger("profiles")}
}

// GetOrCreate returns the user's profile, inserting the default one on first access.
func (r *profileRepository) GetOrCreate(ctx context.Context, userID uint) (*models.Profile, error) {
	db := r.db.WithContext(ctx)

	var profile models.Profile
	err := db.Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	created := models.NewDefaultProfile(userID)
	if err := db.Create(created).Error; err != nil {
		if !isUniqueConstraintError(err) {
			r.log.LogError(ctx, err, "create")
			return nil, models.NewInternalError(err)
		}
		// A concurrent request created it first.
		if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
		return &profile, nil
	}
	r.log.LogCreate(ctx, map[string]any{"user_id": userID})
	return created, nil
}

// Update merges fields into the profile, creating it first if needed.
func (r *profileRepository) Update(ctx context.Context, userID uint, fields map[string]any) (*models.Profile, error) {
	profile, err := r.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return profile, nil
	}

	db := r.db.WithContext(ctx)
	if err := db.Model(profile).Updates(fields).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return nil, models.NewInternalError(err)
	}
	if err := db.First(profile, profile.ID).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]any{"user_id": userID})
	return profile, nil
}
