package service

import (
	"context"
	"testing"

	"socialapi/internal/models"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpdateSelf(t *testing.T) {
	users := noopUserRepo()
	var got map[string]any
	users.updateFieldsFn = func(_ context.Context, _ uint, fields map[string]any) error {
		got = fields
		return nil
	}
	svc := NewUserService(users, nil)
	ctx := context.Background()

	_, err := svc.UpdateSelf(ctx, 1, UpdateUserInput{
		Username:    lo.ToPtr(" new_name "),
		PhoneNumber: lo.ToPtr("01098765432"),
		Bio:         lo.ToPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "new_name", got["username"])
	assert.Equal(t, "010-9876-5432", got["phone_number"])
	assert.Equal(t, "", got["bio"])
	assert.NotContains(t, got, "nickname")

	_, err = svc.UpdateSelf(ctx, 1, UpdateUserInput{Username: lo.ToPtr("_bad")})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.UpdateSelf(ctx, 1, UpdateUserInput{PhoneNumber: lo.ToPtr("12345")})
	assertCode(t, err, models.CodeValidation)
}

func TestUserService_IsAdminAndDeactivate(t *testing.T) {
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, IsAdmin: id == 1}, nil
	}
	var got map[string]any
	users.updateFieldsFn = func(_ context.Context, _ uint, fields map[string]any) error {
		got = fields
		return nil
	}
	svc := NewUserService(users, nil)
	ctx := context.Background()

	admin, err := svc.IsAdmin(ctx, 1)
	require.NoError(t, err)
	assert.True(t, admin)
	admin, err = svc.IsAdmin(ctx, 2)
	require.NoError(t, err)
	assert.False(t, admin)

	require.NoError(t, svc.Deactivate(ctx, 2))
	assert.Equal(t, map[string]any{"is_active": false}, got)
}

func TestUserService_UpdateProfile(t *testing.T) {
	var got map[string]any
	profiles := &profileRepoStub{
		getOrCreateFn: func(_ context.Context, userID uint) (*models.Profile, error) {
			return models.NewDefaultProfile(userID), nil
		},
		updateFn: func(_ context.Context, userID uint, fields map[string]any) (*models.Profile, error) {
			got = fields
			return models.NewDefaultProfile(userID), nil
		},
	}
	svc := NewUserService(noopUserRepo(), profiles)

	profile, err := svc.GetProfile(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, profile.IsPublic)

	_, err = svc.UpdateProfile(context.Background(), 4, UpdateProfileInput{
		Website:  lo.ToPtr(" https://example.com "),
		IsPublic: lo.ToPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"website": "https://example.com", "is_public": false}, got)
}
