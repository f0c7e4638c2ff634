package server

import (
	"context"
	"strings"

	"socialapi/internal/models"
	"socialapi/internal/repository"
	"socialapi/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// ListPosts handles GET /api/v1/posts/
// @Summary List posts
// @Description Newest first. Drafts are only listed for their author.
// @Tags posts
// @Produce json
// @Param status query string false "draft, published or archived"
// @Param category_id query int false "Category filter"
// @Param tag_id query int false "Tag filter"
// @Param author_id query int false "Author filter"
// @Param q query string false "Title or content substring"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} models.Envelope
// @Router /posts/ [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePage(c)
	filter := repository.PostFilter{
		Status:     models.PostStatus(strings.ToLower(c.Query("status"))),
		CategoryID: queryUint(c, "category_id"),
		TagID:      queryUint(c, "tag_id"),
		AuthorID:   queryUint(c, "author_id"),
		Query:      strings.TrimSpace(c.Query("q")),
		ViewerID:   callerID(c),
	}

	posts, total, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{Filter: filter, Page: page})
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, "Posts retrieved", postResponses(posts), page, total)
}

// CreatePost handles POST /api/v1/posts/
// @Summary Create a post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createPostRequest true "Post"
// @Success 201 {object} models.Envelope{data=models.PostResponse}
// @Failure 400 {object} models.Envelope
// @Router /posts/ [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:        callerID(c),
		Title:         req.Title,
		Content:       req.Content,
		Summary:       req.Summary,
		Status:        models.PostStatus(req.Status),
		FeaturedImage: req.FeaturedImage,
		CategoryID:    req.CategoryID,
		TagIDs:        req.TagIDs,
		TagNames:      req.TagNames,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "Post created", post.ToResponse())
}

// GetPost handles GET /api/v1/posts/:id/
// @Summary Get a post
// @Description Every retrieval increments view_count.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=models.PostResponse}
// @Failure 404 {object} models.Envelope
// @Router /posts/{id}/ [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id, callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Post retrieved", post.ToResponse())
}

// UpdatePost handles PUT|PATCH /api/v1/posts/:id/
// @Summary Update a post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body updatePostRequest true "Fields to change"
// @Success 200 {object} models.Envelope{data=models.PostResponse}
// @Failure 403 {object} models.Envelope
// @Router /posts/{id}/ [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.UpdatePostInput{
		UserID:        callerID(c),
		PostID:        id,
		Title:         req.Title,
		Content:       req.Content,
		Summary:       req.Summary,
		FeaturedImage: req.FeaturedImage,
		CategoryID:    req.CategoryID,
		TagIDs:        req.TagIDs,
		TagNames:      req.TagNames,
	}
	if req.Status != nil {
		in.Status = lo.ToPtr(models.PostStatus(*req.Status))
	}

	post, err := s.postService.UpdatePost(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Post updated", post.ToResponse())
}

// DeletePost handles DELETE /api/v1/posts/:id/
// @Summary Delete a post
// @Description Soft delete; the post can be restored as a draft.
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope
// @Router /posts/{id}/ [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.Delete(c.UserContext(), callerID(c), id); err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Post deleted", nil)
}

// PublishPost handles POST /api/v1/posts/:id/publish/
// @Summary Publish a draft
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=models.PostResponse}
// @Router /posts/{id}/publish/ [post]
func (s *Server) PublishPost(c *fiber.Ctx) error {
	return s.transitionPost(c, "Post published", s.postService.Publish)
}

// ArchivePost handles POST /api/v1/posts/:id/archive/
// @Summary Archive a published post
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=models.PostResponse}
// @Router /posts/{id}/archive/ [post]
func (s *Server) ArchivePost(c *fiber.Ctx) error {
	return s.transitionPost(c, "Post archived", s.postService.Archive)
}

// RestorePost handles POST /api/v1/posts/:id/restore/
// @Summary Restore a deleted post as a draft
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=models.PostResponse}
// @Router /posts/{id}/restore/ [post]
func (s *Server) RestorePost(c *fiber.Ctx) error {
	return s.transitionPost(c, "Post restored", s.postService.Restore)
}

type postTransition func(ctx context.Context, userID, postID uint) (*models.Post, error)

func (s *Server) transitionPost(c *fiber.Ctx, message string, apply postTransition) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := apply(c.UserContext(), callerID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, message, post.ToResponse())
}

// ToggleLike handles POST /api/v1/posts/:id/like/
// @Summary Like or unlike a post
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=models.LikeState}
// @Failure 404 {object} models.Envelope
// @Router /posts/{id}/like/ [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	state, err := s.postService.ToggleLike(c.UserContext(), callerID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, lo.Ternary(state.IsLiked, "Post liked", "Like removed"), state)
}

func postResponses(posts []*models.Post) []models.PostResponse {
	return lo.Map(posts, func(p *models.Post, _ int) models.PostResponse { return p.ToResponse() })
}

// queryUint reads a positive integer query parameter; anything else is 0 (no filter).
func queryUint(c *fiber.Ctx, key string) uint {
	v := c.QueryInt(key, 0)
	if v <= 0 {
		return 0
	}
	return uint(v)
}
