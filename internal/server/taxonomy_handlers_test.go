package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"socialapi/internal/cache"
	"socialapi/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (a *testAPI) createCategory(token string, body fiber.Map) models.Category {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/posts/categories/", body, token)
	require.Equal(a.t, http.StatusCreated, status, env.Message)
	var c models.Category
	decode(a.t, env, &c)
	return c
}

func TestCategoryWritesRequireAdmin(t *testing.T) {
	api := newTestAPI(t)
	user := api.register("member")

	status, env := api.do(http.MethodPost, "/api/v1/posts/categories/", fiber.Map{"name": "Tech"}, user.Token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Admin access required", env.Message)

	status, _ = api.do(http.MethodPost, "/api/v1/posts/tags/", fiber.Map{"name": "go"}, user.Token)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(http.MethodPost, "/api/v1/posts/categories/", fiber.Map{"name": "Tech"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCategoryTree(t *testing.T) {
	api := newTestAPI(t)
	admin := api.registerAdmin("root")

	tech := api.createCategory(admin.Token, fiber.Map{"name": "Tech News"})
	assert.Equal(t, "tech-news", tech.Slug)
	assert.Equal(t, models.DefaultCategoryColor, tech.Color)
	assert.True(t, tech.IsActive)

	golang := api.createCategory(admin.Token, fiber.Map{"name": "Go", "parent_id": tech.ID, "color": "#00ADD8"})
	api.createCategory(admin.Token, fiber.Map{"name": "Hidden", "is_active": false})

	status, env := api.do(http.MethodGet, "/api/v1/posts/categories/?tree=true", nil, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	var tree []models.Category
	decode(t, env, &tree)
	root, ok := findCategory(tree, tech.ID)
	require.True(t, ok)
	require.Len(t, root.Children, 1)
	assert.Equal(t, golang.ID, root.Children[0].ID)

	status, env = api.do(http.MethodGet, "/api/v1/posts/categories?active=true", nil, "")
	require.Equal(t, http.StatusOK, status)
	var flat []models.Category
	decode(t, env, &flat)
	assert.Len(t, flat, 2)

	status, env = api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/categories/%d/", tech.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	var got models.Category
	decode(t, env, &got)
	assert.Len(t, got.Children, 1)

	// Moving a category under its own child is a cycle.
	status, env = api.do(http.MethodPatch, fmt.Sprintf("/api/v1/posts/categories/%d/", tech.ID),
		fiber.Map{"parent_id": golang.ID}, admin.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, env.ErrorCode)

	status, env = api.do(http.MethodPatch, fmt.Sprintf("/api/v1/posts/categories/%d/", golang.ID),
		fiber.Map{"parent_id": 0, "order": 3}, admin.Token)
	require.Equal(t, http.StatusOK, status, env.Message)
	decode(t, env, &got)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, 3, got.Order)

	status, env = api.do(http.MethodPost, "/api/v1/posts/categories/", fiber.Map{"name": "Bad", "color": "blue"}, admin.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, env.ErrorCode)

	status, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/posts/categories/%d/", tech.ID), nil, admin.Token)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/categories/%d/", tech.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func findCategory(list []models.Category, id uint) (models.Category, bool) {
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

func TestPostCategoryFilter(t *testing.T) {
	api := newTestAPI(t)
	admin := api.registerAdmin("curator")
	news := api.createCategory(admin.Token, fiber.Map{"name": "News"})

	post := api.createPost(admin.Token, fiber.Map{
		"title": "Filed", "content": "c", "status": "published", "category_id": news.ID,
	})
	require.NotNil(t, post.Category)
	assert.Equal(t, "news", post.Category.Slug)
	api.createPost(admin.Token, fiber.Map{"title": "Loose", "content": "c", "status": "published"})

	status, env := api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/?category_id=%d", news.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	var page models.Page[models.PostResponse]
	decode(t, env, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Filed", page.Items[0].Title)
}

func TestTagsAndRecount(t *testing.T) {
	api := newTestAPI(t)
	admin := api.registerAdmin("librarian")
	writer := api.register("scribe")

	status, env := api.do(http.MethodPost, "/api/v1/posts/tags/", fiber.Map{"name": "Databases"}, admin.Token)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var tag models.Tag
	decode(t, env, &tag)
	assert.Equal(t, "databases", tag.Slug)

	status, env = api.do(http.MethodPost, "/api/v1/posts/tags/", fiber.Map{"name": "databases"}, admin.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, env.ErrorCode)

	api.createPost(writer.Token, fiber.Map{"title": "SQL", "content": "c", "status": "published", "tag_ids": []uint{tag.ID}})

	status, env = api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/tags/%d/", tag.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &tag)
	assert.Equal(t, int64(1), tag.UsageCount)

	status, env = api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts?tag_id=%d", tag.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	var page models.Page[models.PostResponse]
	decode(t, env, &page)
	assert.Len(t, page.Items, 1)

	status, env = api.do(http.MethodPatch, fmt.Sprintf("/api/v1/posts/tags/%d/", tag.ID),
		fiber.Map{"description": "Storage engines"}, admin.Token)
	require.Equal(t, http.StatusOK, status, env.Message)
	decode(t, env, &tag)
	assert.Equal(t, "Storage engines", tag.Description)

	require.NoError(t, api.db.Model(&models.Tag{}).Where("id = ?", tag.ID).Update("usage_count", 99).Error)
	status, env = api.do(http.MethodPost, "/api/v1/admin/tags/recount/", nil, admin.Token)
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = api.do(http.MethodGet, "/api/v1/posts/tags/", nil, "")
	require.Equal(t, http.StatusOK, status)
	var tags []models.Tag
	decode(t, env, &tags)
	require.Len(t, tags, 1)
	assert.Equal(t, int64(1), tags[0].UsageCount)

	status, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/posts/tags/%d/", tag.ID), nil, admin.Token)
	assert.Equal(t, http.StatusOK, status)
}

func TestFeatureFlagsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	admin := api.registerAdmin("ops")
	user := api.register("civilian")

	status, _ := api.do(http.MethodGet, "/api/v1/admin/feature-flags/", nil, user.Token)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := api.do(http.MethodGet, "/api/v1/admin/feature-flags/", nil, admin.Token)
	require.Equal(t, http.StatusOK, status)
	var data struct {
		Flags   map[string]string `json:"flags"`
		Enabled map[string]bool   `json:"enabled"`
	}
	decode(t, env, &data)
	assert.Equal(t, "on", data.Flags["implicit_tags"])
	assert.True(t, data.Enabled["implicit_tags"])
	assert.False(t, data.Enabled["strict_taxonomy_ids"])
}

func (a *testAPI) listTags() []models.Tag {
	a.t.Helper()
	status, env := a.do(http.MethodGet, "/api/v1/posts/tags/", nil, "")
	require.Equal(a.t, http.StatusOK, status, env.Message)
	var tags []models.Tag
	decode(a.t, env, &tags)
	return tags
}

// waitForCachedTags blocks until the in-process layer serves the tag list.
func waitForCachedTags(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		var tags []models.Tag
		return cache.Aside(context.Background(), cache.TagListKey, &tags, cache.TaxonomyTTL, func() error {
			return errors.New("not cached")
		}) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestCachedTagListTracksPostTags(t *testing.T) {
	require.NoError(t, cache.InitLocal())
	t.Cleanup(cache.DisableLocal)

	api := newTestAPI(t)
	admin := api.registerAdmin("indexer")
	writer := api.register("blogger")

	status, env := api.do(http.MethodPost, "/api/v1/posts/tags/", fiber.Map{"name": "Caching"}, admin.Token)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var tag models.Tag
	decode(t, env, &tag)

	tags := api.listTags()
	require.Len(t, tags, 1)
	assert.Equal(t, int64(0), tags[0].UsageCount)
	waitForCachedTags(t)

	post := api.createPost(writer.Token, fiber.Map{
		"title": "Warm", "content": "c", "status": "published", "tag_ids": []uint{tag.ID},
	})
	tags = api.listTags()
	require.Len(t, tags, 1)
	assert.Equal(t, int64(1), tags[0].UsageCount)
	waitForCachedTags(t)

	status, env = api.do(http.MethodPatch, postPath(post.ID, ""), fiber.Map{"tag_ids": []uint{}}, writer.Token)
	require.Equal(t, http.StatusOK, status, env.Message)
	tags = api.listTags()
	require.Len(t, tags, 1)
	assert.Equal(t, int64(0), tags[0].UsageCount)
}

func TestTagNamesIgnoreCase(t *testing.T) {
	api := newTestAPI(t)
	admin := api.registerAdmin("namer")

	status, env := api.do(http.MethodPost, "/api/v1/posts/tags/", fiber.Map{"name": "Go"}, admin.Token)
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = api.do(http.MethodPost, "/api/v1/posts/tags/", fiber.Map{"name": "go", "slug": "golang"}, admin.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, env.ErrorCode)

	status, env = api.do(http.MethodPost, "/api/v1/posts/tags/", fiber.Map{"name": "Rust"}, admin.Token)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var rust models.Tag
	decode(t, env, &rust)

	status, env = api.do(http.MethodPatch, fmt.Sprintf("/api/v1/posts/tags/%d/", rust.ID), fiber.Map{"name": "GO"}, admin.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, env.ErrorCode)

	assert.Len(t, api.listTags(), 2)
}
