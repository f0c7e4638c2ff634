package seed

import (
	"strings"
	"testing"
	"time"

	"socialapi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPost_TimestampsAndStatus(t *testing.T) {
	opts := Options{DryRun: true, MaxDays: 30}
	f := NewFactory(nil, opts)
	user := &models.User{ID: 1}

	for range 50 {
		p := f.BuildPost(user)
		assert.Equal(t, uint(1), p.UserID)
		assert.True(t, p.Status.Valid())
		assert.NotEqual(t, models.PostStatusDeleted, p.Status)
		assert.LessOrEqual(t, len([]rune(p.Summary)), 300)
		assert.Less(t, time.Since(p.CreatedAt), (time.Duration(opts.MaxDays)+1)*24*time.Hour)

		if p.Status == models.PostStatusDraft {
			assert.Nil(t, p.PublishedAt)
		} else {
			require.NotNil(t, p.PublishedAt)
			assert.False(t, p.PublishedAt.Before(p.CreatedAt))
		}
	}
}

func TestBuildUser_PassesAccountRules(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, SkipBcrypt: true})

	for range 20 {
		u := f.BuildUser()
		assert.LessOrEqual(t, len(u.Username), 30)
		assert.True(t, strings.HasSuffix(u.Email, "@example.com"))
		assert.Equal(t, DefaultPassword, u.Password)
	}

	u := f.BuildUser(func(u *models.User) { u.Username = "fixed" })
	assert.Equal(t, "fixed", u.Username)
}

func TestDryRunAssignsSyntheticIDs(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, SkipBcrypt: true})

	user, err := f.CreateUser()
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	posts := []*models.Post{f.BuildPost(user), f.BuildPost(user)}
	require.NoError(t, f.CreatePostsBatch(posts))
	assert.NotEqual(t, posts[0].ID, posts[1].ID)

	comment, err := f.CreateComment(user, posts[0], nil)
	require.NoError(t, err)
	reply, err := f.CreateComment(user, posts[0], comment)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, comment.ID, *reply.ParentID)
	assert.True(t, reply.CreatedAt.After(comment.CreatedAt))
}
