package server

import (
	"socialapi/internal/models"
	"socialapi/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// ListComments handles GET /api/v1/posts/:id/comments/
// @Summary List a post's comments
// @Description Top-level comments, oldest first, each with its active replies.
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /posts/{id}/comments/ [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePage(c)
	comments, total, err := s.commentService.ListComments(c.UserContext(), postID, callerID(c), page)
	if err != nil {
		return respondError(c, err)
	}
	items := lo.Map(comments, func(cm *models.Comment, _ int) models.CommentResponse { return cm.ToResponse() })
	return respondPage(c, "Comments retrieved", items, page, total)
}

// CreateComment handles POST /api/v1/posts/:id/comments/
// @Summary Comment on a post
// @Description parent_id must name an active top-level comment on the same post.
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body commentRequest true "Comment"
// @Success 201 {object} models.Envelope{data=models.CommentResponse}
// @Failure 400 {object} models.Envelope
// @Router /posts/{id}/comments/ [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:   callerID(c),
		PostID:   postID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "Comment created", comment.ToResponse())
}

// GetComment handles GET /api/v1/posts/comments/:id/
// @Summary Get a comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Envelope{data=models.CommentResponse}
// @Failure 404 {object} models.Envelope
// @Router /posts/comments/{id}/ [get]
func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.GetComment(c.UserContext(), id, callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Comment retrieved", comment.ToResponse())
}

// UpdateComment handles PUT|PATCH /api/v1/posts/comments/:id/
// @Summary Edit a comment
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body updateCommentRequest true "New content"
// @Success 200 {object} models.Envelope{data=models.CommentResponse}
// @Failure 403 {object} models.Envelope
// @Router /posts/comments/{id}/ [patch]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.commentService.UpdateComment(c.UserContext(), callerID(c), id, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Comment updated", comment.ToResponse())
}

// DeleteComment handles DELETE /api/v1/posts/comments/:id/
// @Summary Delete a comment
// @Description Soft delete by the author or an admin.
// @Tags comments
// @Security BearerAuth
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Envelope
// @Router /posts/comments/{id}/ [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), callerID(c), id); err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Comment deleted", nil)
}
