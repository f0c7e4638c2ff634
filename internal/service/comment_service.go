package service

import (
	"context"
	"strings"

	"socialapi/internal/models"
	"socialapi/internal/observability"
	"socialapi/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo, isAdmin: isAdmin}
}

// ListComments returns the active thread of a post the viewer can see.
func (s *CommentService) ListComments(ctx context.Context, postID, viewerID uint, page repository.Page) ([]*models.Comment, int64, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, viewerID); err != nil {
		return nil, 0, err
	}
	return s.commentRepo.ListByPost(ctx, postID, page)
}

// CreateComment adds a comment or a one-level reply. Author and post always
// come from the caller's context.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewFieldValidationError("content is required", map[string]string{"content": "is required"})
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		if err := s.checkParent(ctx, in.PostID, *in.ParentID); err != nil {
			return nil, err
		}
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		UserID:   in.UserID,
		ParentID: in.ParentID,
		Content:  content,
		IsActive: true,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	kind := "comment"
	if in.ParentID != nil {
		kind = "reply"
	}
	observability.CommentsCreated.WithLabelValues(kind).Inc()
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// checkParent requires an active top-level comment on the same post.
func (s *CommentService) checkParent(ctx context.Context, postID, parentID uint) error {
	invalid := func(msg string) error {
		return models.NewFieldValidationError(msg, map[string]string{"parent_id": msg})
	}

	parent, err := s.commentRepo.GetByID(ctx, parentID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return invalid("parent comment does not exist")
		}
		return err
	}
	switch {
	case parent.PostID != postID:
		return invalid("parent comment belongs to a different post")
	case !parent.IsActive:
		return invalid("parent comment has been deleted")
	case parent.ParentID != nil:
		return invalid("replies cannot be nested more than one level")
	}
	return nil
}

// GetComment returns an active comment on a post viewerID can see. A comment
// under a deleted post or someone else's draft is reported as not found.
func (s *CommentService) GetComment(ctx context.Context, id, viewerID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !comment.IsActive {
		return nil, models.NewNotFoundError("Comment", id)
	}
	if _, err := s.postRepo.GetByID(ctx, comment.PostID, viewerID); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, userID, id uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewFieldValidationError("content is required", map[string]string{"content": "is required"})
	}
	comment, err := s.GetComment(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	if err := s.commentRepo.UpdateContent(ctx, id, content); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, id)
}

// DeleteComment deactivates the comment. Admins may delete any comment.
func (s *CommentService) DeleteComment(ctx context.Context, userID, id uint) error {
	comment, err := s.GetComment(ctx, id, userID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		admin := false
		if s.isAdmin != nil {
			if admin, err = s.isAdmin(ctx, userID); err != nil {
				return err
			}
		}
		if !admin {
			return models.NewForbiddenError("You can only delete your own comments")
		}
	}
	return s.commentRepo.Deactivate(ctx, id)
}
