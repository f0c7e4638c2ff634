package service

import (
	"context"
	"testing"

	"socialapi/internal/models"
	"socialapi/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentFixture(comments map[uint]*models.Comment, admins map[uint]bool) (*CommentService, *commentRepoStub, *postRepoStub) {
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		if id > 10 {
			return nil, models.NewNotFoundError("Post", id)
		}
		return &models.Post{ID: id, Status: models.PostStatusPublished}, nil
	}

	repo := &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			c.ID = uint(len(comments) + 100)
			comments[c.ID] = c
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			c, ok := comments[id]
			if !ok {
				return nil, models.NewNotFoundError("Comment", id)
			}
			cp := *c
			return &cp, nil
		},
		listByPostFn: func(_ context.Context, _ uint, _ repository.Page) ([]*models.Comment, int64, error) {
			return nil, 0, nil
		},
		updateFn: func(_ context.Context, id uint, content string) error {
			comments[id].Content = content
			return nil
		},
		deactivateFn: func(_ context.Context, id uint) error {
			comments[id].IsActive = false
			return nil
		},
	}
	svc := NewCommentService(repo, posts, func(_ context.Context, userID uint) (bool, error) {
		return admins[userID], nil
	})
	return svc, repo, posts
}

func uintPtr(v uint) *uint { return &v }

func TestCommentService_CreateAndReply(t *testing.T) {
	comments := map[uint]*models.Comment{}
	svc, _, _ := newCommentFixture(comments, nil)
	ctx := context.Background()

	top, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 2, Content: "  first  "})
	require.NoError(t, err)
	assert.Equal(t, "first", top.Content)
	assert.True(t, top.IsActive)
	assert.Nil(t, top.ParentID)

	reply, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 3, PostID: 2, ParentID: &top.ID, Content: "reply"})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)
}

func TestCommentService_RejectsBadParent(t *testing.T) {
	comments := map[uint]*models.Comment{
		1: {ID: 1, PostID: 2, UserID: 1, IsActive: true},
		2: {ID: 2, PostID: 3, UserID: 1, IsActive: true},
		3: {ID: 3, PostID: 2, UserID: 1, IsActive: false},
		4: {ID: 4, PostID: 2, UserID: 1, IsActive: true, ParentID: uintPtr(1)},
	}
	svc, _, _ := newCommentFixture(comments, nil)

	cases := map[string]uint{
		"does not exist":    99,
		"different post":    2,
		"has been deleted":  3,
		"more than one lev": 4,
	}
	for want, parentID := range cases {
		t.Run(want, func(t *testing.T) {
			_, err := svc.CreateComment(context.Background(), CreateCommentInput{
				UserID: 1, PostID: 2, ParentID: uintPtr(parentID), Content: "x",
			})
			assertCode(t, err, models.CodeValidation)
			assert.Contains(t, err.Error(), want)
		})
	}
}

func TestCommentService_CreateRequiresContentAndVisiblePost(t *testing.T) {
	svc, _, _ := newCommentFixture(map[uint]*models.Comment{}, nil)
	ctx := context.Background()

	_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 2, Content: "   "})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 50, Content: "x"})
	assertCode(t, err, models.CodeNotFound)

	_, _, err = svc.ListComments(ctx, 50, 0, repository.Page{})
	assertCode(t, err, models.CodeNotFound)
}

func TestCommentService_UpdateOnlyByAuthor(t *testing.T) {
	comments := map[uint]*models.Comment{1: {ID: 1, PostID: 2, UserID: 5, IsActive: true, Content: "old"}}
	svc, _, _ := newCommentFixture(comments, map[uint]bool{9: true})
	ctx := context.Background()

	_, err := svc.UpdateComment(ctx, 6, 1, "new")
	assertCode(t, err, models.CodeForbidden)

	_, err = svc.UpdateComment(ctx, 9, 1, "new")
	assertCode(t, err, models.CodeForbidden)

	updated, err := svc.UpdateComment(ctx, 5, 1, " new ")
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Content)
}

func TestCommentService_Delete(t *testing.T) {
	comments := map[uint]*models.Comment{
		1: {ID: 1, PostID: 2, UserID: 5, IsActive: true},
		2: {ID: 2, PostID: 2, UserID: 5, IsActive: true},
	}
	svc, _, _ := newCommentFixture(comments, map[uint]bool{9: true})
	ctx := context.Background()

	assertCode(t, svc.DeleteComment(ctx, 6, 1), models.CodeForbidden)
	require.NoError(t, svc.DeleteComment(ctx, 5, 1))
	assert.False(t, comments[1].IsActive)

	_, err := svc.GetComment(ctx, 1, 5)
	assertCode(t, err, models.CodeNotFound)
	assertCode(t, svc.DeleteComment(ctx, 5, 1), models.CodeNotFound)

	require.NoError(t, svc.DeleteComment(ctx, 9, 2))
	assert.False(t, comments[2].IsActive)
}

func TestCommentService_HiddenPostHidesComments(t *testing.T) {
	comments := map[uint]*models.Comment{
		1: {ID: 1, PostID: 11, UserID: 5, IsActive: true, Content: "on a deleted post"},
		2: {ID: 2, PostID: 3, UserID: 5, IsActive: true, Content: "on a draft"},
	}
	svc, _, posts := newCommentFixture(comments, map[uint]bool{9: true})
	next := posts.getByIDFn
	posts.getByIDFn = func(ctx context.Context, id, viewerID uint) (*models.Post, error) {
		if id == 3 && viewerID != 7 {
			return nil, models.NewNotFoundError("Post", id)
		}
		return next(ctx, id, viewerID)
	}
	ctx := context.Background()

	_, err := svc.GetComment(ctx, 1, 5)
	assertCode(t, err, models.CodeNotFound)
	_, err = svc.UpdateComment(ctx, 5, 1, "edit")
	assertCode(t, err, models.CodeNotFound)
	assertCode(t, svc.DeleteComment(ctx, 9, 1), models.CodeNotFound)
	assert.True(t, comments[1].IsActive)
	assert.Equal(t, "on a deleted post", comments[1].Content)

	_, err = svc.GetComment(ctx, 2, 0)
	assertCode(t, err, models.CodeNotFound)
	_, err = svc.GetComment(ctx, 2, 5)
	assertCode(t, err, models.CodeNotFound)
	got, err := svc.GetComment(ctx, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(2), got.ID)
}
