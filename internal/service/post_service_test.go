package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"socialapi/internal/featureflags"
	"socialapi/internal/models"
	"socialapi/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postFixture struct {
	posts      *postRepoStub
	categories *categoryRepoStub
	tags       *tagRepoStub
	likes      *likeRepoStub
	admins     map[uint]bool
	svc        *PostService
}

func newPostFixture(flags string) *postFixture {
	f := &postFixture{
		posts:      noopPostRepo(),
		categories: noopCategoryRepo(),
		tags:       noopTagRepo(),
		likes: &likeRepoStub{toggleFn: func(_ context.Context, _, _ uint) (models.LikeState, error) {
			return models.LikeState{IsLiked: true, LikeCount: 1}, nil
		}},
		admins: map[uint]bool{},
	}
	f.svc = NewPostService(f.posts, f.categories, f.tags, f.likes, featureflags.NewManager(flags),
		func(_ context.Context, userID uint) (bool, error) { return f.admins[userID], nil })
	f.svc.now = fixedNow
	return f
}

// stored wires FindByID, GetByID and Update to a single in-memory post.
func (f *postFixture) stored(post *models.Post) *[]*models.Post {
	var updates []*models.Post
	f.posts.findByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		if id != post.ID {
			return nil, models.NewNotFoundError("Post", id)
		}
		cp := *post
		return &cp, nil
	}
	f.posts.getByIDFn = func(_ context.Context, id, viewerID uint) (*models.Post, error) {
		if id != post.ID || !post.VisibleTo(viewerID) {
			return nil, models.NewNotFoundError("Post", id)
		}
		cp := *post
		return &cp, nil
	}
	f.posts.updateFn = func(_ context.Context, p *models.Post, _ *[]uint) error {
		cp := *p
		updates = append(updates, &cp)
		*post = cp
		return nil
	}
	return &updates
}

func TestPostService_CreateDefaultsToDraft(t *testing.T) {
	f := newPostFixture("")
	var created *models.Post
	f.posts.createFn = func(_ context.Context, p *models.Post, _ []uint) error {
		p.ID = 9
		created = p
		return nil
	}

	_, err := f.svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, Title: "  Hello ", Content: "body"})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Hello", created.Title)
	assert.Equal(t, models.PostStatusDraft, created.Status)
	assert.Nil(t, created.PublishedAt)
	assert.Equal(t, "body", created.Summary)
}

func TestPostService_CreatePublishedStampsPublishedAt(t *testing.T) {
	f := newPostFixture("")
	var created *models.Post
	f.posts.createFn = func(_ context.Context, p *models.Post, _ []uint) error {
		created = p
		return nil
	}

	_, err := f.svc.CreatePost(context.Background(), CreatePostInput{
		UserID: 1, Title: "t", Content: strings.Repeat("x", 400), Status: models.PostStatusPublished,
	})
	require.NoError(t, err)
	require.NotNil(t, created.PublishedAt)
	assert.Equal(t, fixedNow(), *created.PublishedAt)
	assert.Len(t, []rune(created.Summary), maxSummaryLen)
}

func TestPostService_CreateRejectsBadInput(t *testing.T) {
	f := newPostFixture("")
	ctx := context.Background()

	_, err := f.svc.CreatePost(ctx, CreatePostInput{UserID: 1, Title: "   "})
	assertCode(t, err, models.CodeValidation)

	_, err = f.svc.CreatePost(ctx, CreatePostInput{UserID: 1, Title: "t", Status: models.PostStatusArchived})
	assertCode(t, err, models.CodeValidation)
}

func TestPostService_UnknownTaxonomyIDsAreDropped(t *testing.T) {
	f := newPostFixture("")
	f.categories.existingIDsFn = func(_ context.Context, _ []uint) ([]uint, error) { return nil, nil }
	f.tags.existingIDsFn = func(_ context.Context, ids []uint) ([]uint, error) {
		return []uint{1}, nil
	}
	var gotTags []uint
	var created *models.Post
	f.posts.createFn = func(_ context.Context, p *models.Post, tagIDs []uint) error {
		created, gotTags = p, tagIDs
		return nil
	}

	cat := uint(77)
	_, err := f.svc.CreatePost(context.Background(), CreatePostInput{
		UserID: 1, Title: "t", CategoryID: &cat, TagIDs: []uint{1, 999, 1},
	})
	require.NoError(t, err)
	assert.Nil(t, created.CategoryID)
	assert.Equal(t, []uint{1}, gotTags)
}

func TestPostService_StrictTaxonomyIDs(t *testing.T) {
	f := newPostFixture("strict_taxonomy_ids=on")
	f.tags.existingIDsFn = func(_ context.Context, _ []uint) ([]uint, error) { return []uint{1}, nil }

	_, err := f.svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, Title: "t", TagIDs: []uint{1, 999}})
	assertCode(t, err, models.CodeValidation)

	f.categories.existingIDsFn = func(_ context.Context, _ []uint) ([]uint, error) { return nil, nil }
	cat := uint(5)
	_, err = f.svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, Title: "t", CategoryID: &cat})
	assertCode(t, err, models.CodeValidation)
}

func TestPostService_TagNames(t *testing.T) {
	f := newPostFixture("")
	var gotTags []uint
	f.posts.createFn = func(_ context.Context, _ *models.Post, tagIDs []uint) error {
		gotTags = tagIDs
		return nil
	}

	_, err := f.svc.CreatePost(context.Background(), CreatePostInput{
		UserID: 1, Title: "t", TagIDs: []uint{3}, TagNames: []string{"go", "web"},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 100, 101}, gotTags)

	off := newPostFixture("implicit_tags=off")
	_, err = off.svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, Title: "t", TagNames: []string{"go"}})
	assertCode(t, err, models.CodeValidation)
}

func TestPostService_ListRejectsUnknownStatus(t *testing.T) {
	f := newPostFixture("")
	_, _, err := f.svc.ListPosts(context.Background(), ListPostsInput{
		Filter: repository.PostFilter{Status: "bogus"},
	})
	assertCode(t, err, models.CodeValidation)
}

func TestPostService_GetPostCountsView(t *testing.T) {
	f := newPostFixture("")
	f.stored(&models.Post{ID: 4, UserID: 2, Status: models.PostStatusPublished, ViewCount: 6})
	increments := 0
	f.posts.incrementFn = func(_ context.Context, id uint) error {
		assert.Equal(t, uint(4), id)
		increments++
		return nil
	}

	post, err := f.svc.GetPost(context.Background(), 4, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), post.ViewCount)
	assert.Equal(t, 1, increments)
}

func TestPostService_DraftHiddenFromOthers(t *testing.T) {
	f := newPostFixture("")
	f.stored(&models.Post{ID: 4, UserID: 2, Status: models.PostStatusDraft})

	_, err := f.svc.GetPost(context.Background(), 4, 3)
	assertCode(t, err, models.CodeNotFound)
	_, err = f.svc.GetPost(context.Background(), 4, 0)
	assertCode(t, err, models.CodeNotFound)

	post, err := f.svc.GetPost(context.Background(), 4, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(4), post.ID)
}

func TestPostService_Lifecycle(t *testing.T) {
	f := newPostFixture("")
	stored := &models.Post{ID: 4, UserID: 2, Status: models.PostStatusDraft}
	f.stored(stored)
	ctx := context.Background()

	post, err := f.svc.Publish(ctx, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, post.Status)
	require.NotNil(t, post.PublishedAt)
	publishedAt := *post.PublishedAt

	_, err = f.svc.Publish(ctx, 2, 4)
	assertCode(t, err, models.CodeValidation)

	f.svc.now = func() time.Time { return fixedNow().Add(time.Hour) }
	post, err = f.svc.Archive(ctx, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusArchived, post.Status)
	assert.Equal(t, publishedAt, *post.PublishedAt)

	require.NoError(t, f.svc.Delete(ctx, 2, 4))
	assert.Equal(t, models.PostStatusDeleted, stored.Status)
	require.NotNil(t, stored.DeletedAt)

	_, err = f.svc.GetPost(ctx, 4, 2)
	assertCode(t, err, models.CodeNotFound)

	err = f.svc.Delete(ctx, 2, 4)
	assertCode(t, err, models.CodeValidation)

	post, err = f.svc.Restore(ctx, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, post.Status)
	assert.Nil(t, post.DeletedAt)
	assert.Equal(t, publishedAt, *post.PublishedAt)
}

func TestPostService_ArchiveRequiresPublished(t *testing.T) {
	f := newPostFixture("")
	f.stored(&models.Post{ID: 4, UserID: 2, Status: models.PostStatusDraft})

	_, err := f.svc.Archive(context.Background(), 2, 4)
	assertCode(t, err, models.CodeValidation)
	assert.Contains(t, err.Error(), "from draft to archived")
}

func TestPostService_Ownership(t *testing.T) {
	f := newPostFixture("")
	f.stored(&models.Post{ID: 4, UserID: 2, Status: models.PostStatusPublished})
	ctx := context.Background()
	title := "hijacked"

	_, err := f.svc.UpdatePost(ctx, UpdatePostInput{UserID: 3, PostID: 4, Title: &title})
	assertCode(t, err, models.CodeForbidden)

	_, err = f.svc.Archive(ctx, 3, 4)
	assertCode(t, err, models.CodeForbidden)

	err = f.svc.Delete(ctx, 3, 4)
	assertCode(t, err, models.CodeForbidden)

	f.admins[3] = true
	_, err = f.svc.UpdatePost(ctx, UpdatePostInput{UserID: 3, PostID: 4, Title: &title})
	assertCode(t, err, models.CodeForbidden)
	require.NoError(t, f.svc.Delete(ctx, 3, 4))
}

func TestPostService_OthersDraftIsNotFound(t *testing.T) {
	f := newPostFixture("")
	f.stored(&models.Post{ID: 4, UserID: 2, Status: models.PostStatusDraft})
	title := "x"

	_, err := f.svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 3, PostID: 4, Title: &title})
	assertCode(t, err, models.CodeNotFound)
}

func TestPostService_UpdateFields(t *testing.T) {
	f := newPostFixture("")
	stored := &models.Post{ID: 4, UserID: 2, Status: models.PostStatusDraft, Title: "old", Content: "old"}
	f.stored(stored)
	var gotTags *[]uint
	f.posts.updateFn = func(_ context.Context, p *models.Post, tagIDs *[]uint) error {
		*stored = *p
		gotTags = tagIDs
		return nil
	}

	title, content, zero := "new", "fresh body", uint(0)
	status := models.PostStatusPublished
	stored.CategoryID = new(uint)
	*stored.CategoryID = 8

	post, err := f.svc.UpdatePost(context.Background(), UpdatePostInput{
		UserID: 2, PostID: 4, Title: &title, Content: &content, CategoryID: &zero, Status: &status, TagIDs: []uint{},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", post.Title)
	assert.Equal(t, "fresh body", post.Summary)
	assert.Nil(t, post.CategoryID)
	assert.Equal(t, models.PostStatusPublished, post.Status)
	assert.NotNil(t, post.PublishedAt)
	require.NotNil(t, gotTags)
	assert.Empty(t, *gotTags)

	blank := " "
	_, err = f.svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 2, PostID: 4, Title: &blank})
	assertCode(t, err, models.CodeValidation)
}

func TestPostService_UpdateWithoutTagsKeepsThem(t *testing.T) {
	f := newPostFixture("")
	f.stored(&models.Post{ID: 4, UserID: 2, Status: models.PostStatusDraft})
	called := false
	f.posts.updateFn = func(_ context.Context, _ *models.Post, tagIDs *[]uint) error {
		called = true
		assert.Nil(t, tagIDs)
		return nil
	}
	title := "x"
	_, err := f.svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 2, PostID: 4, Title: &title})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestPostService_ToggleLike(t *testing.T) {
	f := newPostFixture("")
	f.stored(&models.Post{ID: 4, UserID: 2, Status: models.PostStatusPublished})
	liked := map[uint]bool{}
	f.likes.toggleFn = func(_ context.Context, _, userID uint) (models.LikeState, error) {
		liked[userID] = !liked[userID]
		return models.LikeState{IsLiked: liked[userID], LikeCount: int64(len(likedUsers(liked)))}, nil
	}
	ctx := context.Background()

	state, err := f.svc.ToggleLike(ctx, 7, 4)
	require.NoError(t, err)
	assert.True(t, state.IsLiked)
	assert.Equal(t, int64(1), state.LikeCount)

	state, err = f.svc.ToggleLike(ctx, 7, 4)
	require.NoError(t, err)
	assert.False(t, state.IsLiked)
	assert.Equal(t, int64(0), state.LikeCount)

	_, err = f.svc.ToggleLike(ctx, 7, 99)
	assertCode(t, err, models.CodeNotFound)
}

// likedUsers lists the users whose like is currently on.
func likedUsers(liked map[uint]bool) []uint {
	var out []uint
	for id, on := range liked {
		if on {
			out = append(out, id)
		}
	}
	return out
}

func TestTagSlug(t *testing.T) {
	assert.Equal(t, "hello-world", tagSlug("Hello World"))
	assert.True(t, strings.HasPrefix(tagSlug("!!!"), "tag-"))
}
