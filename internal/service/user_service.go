package service

import (
	"context"
	"strings"
	"time"

	"socialapi/internal/models"
	"socialapi/internal/repository"
	"socialapi/internal/validation"
)

type UserService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
}

// UpdateUserInput carries the self-editable account fields. Nil means unchanged.
type UpdateUserInput struct {
	Username     *string
	Nickname     *string
	Bio          *string
	PhoneNumber  *string
	ProfileImage *string
	BirthDate    *time.Time
}

// UpdateProfileInput carries the profile fields. Nil means unchanged.
type UpdateProfileInput struct {
	Website            *string
	Location           *string
	Company            *string
	JobTitle           *string
	IsPublic           *bool
	EmailNotifications *bool
	PushNotifications  *bool
}

func NewUserService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository) *UserService {
	return &UserService{userRepo: userRepo, profileRepo: profileRepo}
}

func (s *UserService) ListUsers(ctx context.Context, page repository.Page) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, page)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// IsAdmin reports whether userID holds the admin flag.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

// UpdateSelf applies the provided fields to the caller's account.
func (s *UserService) UpdateSelf(ctx context.Context, userID uint, in UpdateUserInput) (*models.User, error) {
	fields := map[string]any{}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewFieldValidationError(err.Error(), map[string]string{"username": err.Error()})
		}
		fields["username"] = username
	}
	if in.Nickname != nil {
		fields["nickname"] = strings.TrimSpace(*in.Nickname)
	}
	if in.Bio != nil {
		fields["bio"] = *in.Bio
	}
	if in.PhoneNumber != nil {
		if err := validation.ValidatePhoneNumber(*in.PhoneNumber); err != nil {
			return nil, models.NewFieldValidationError(err.Error(), map[string]string{"phone_number": err.Error()})
		}
		fields["phone_number"] = validation.FormatPhoneNumber(*in.PhoneNumber)
	}
	if in.ProfileImage != nil {
		fields["profile_image"] = *in.ProfileImage
	}
	if in.BirthDate != nil {
		fields["birth_date"] = *in.BirthDate
	}

	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// Deactivate flips is_active off. The account row is kept.
func (s *UserService) Deactivate(ctx context.Context, userID uint) error {
	return s.userRepo.UpdateFields(ctx, userID, map[string]any{"is_active": false})
}

// GetProfile returns the caller's profile, creating the default one if missing.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.profileRepo.GetOrCreate(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.Profile, error) {
	fields := map[string]any{}
	setString := func(column string, v *string) {
		if v != nil {
			fields[column] = strings.TrimSpace(*v)
		}
	}
	setBool := func(column string, v *bool) {
		if v != nil {
			fields[column] = *v
		}
	}

	setString("website", in.Website)
	setString("location", in.Location)
	setString("company", in.Company)
	setString("job_title", in.JobTitle)
	setBool("is_public", in.IsPublic)
	setBool("email_notifications", in.EmailNotifications)
	setBool("push_notifications", in.PushNotifications)

	return s.profileRepo.Update(ctx, userID, fields)
}
