package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"socialapi/internal/featureflags"
	"socialapi/internal/models"
	"socialapi/internal/observability"
	"socialapi/internal/repository"
	"socialapi/internal/validation"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
)

const maxSummaryLen = 300

type PostService struct {
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
	tagRepo      repository.TagRepository
	likeRepo     repository.LikeRepository
	flags        *featureflags.Manager
	isAdmin      func(ctx context.Context, userID uint) (bool, error)
	now          func() time.Time
}

type CreatePostInput struct {
	UserID        uint
	Title         string
	Content       string
	Summary       string
	Status        models.PostStatus
	FeaturedImage string
	CategoryID    *uint
	TagIDs        []uint
	TagNames      []string
}

type ListPostsInput struct {
	Filter repository.PostFilter
	Page   repository.Page
}

// UpdatePostInput is a partial update; nil fields are left alone. A CategoryID
// pointing at 0 clears the category. Non-nil TagIDs or TagNames replace the tag set.
type UpdatePostInput struct {
	UserID        uint
	PostID        uint
	Title         *string
	Content       *string
	Summary       *string
	FeaturedImage *string
	Status        *models.PostStatus
	CategoryID    *uint
	TagIDs        []uint
	TagNames      []string
}

func NewPostService(
	postRepo repository.PostRepository,
	categoryRepo repository.CategoryRepository,
	tagRepo repository.TagRepository,
	likeRepo repository.LikeRepository,
	flags *featureflags.Manager,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		tagRepo:      tagRepo,
		likeRepo:     likeRepo,
		flags:        flags,
		isAdmin:      isAdmin,
		now:          time.Now,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.CreatePost")
	defer func() {
		span.SetError(err)
		span.End()
	}()
	span.AddAttributes(attribute.Int("user.id", int(in.UserID)), attribute.String("post.status", string(in.Status)))

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewFieldValidationError("title is required", map[string]string{"title": "is required"})
	}

	status := in.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if status != models.PostStatusDraft && status != models.PostStatusPublished {
		return nil, models.NewFieldValidationError("New posts must be draft or published",
			map[string]string{"status": "must be one of: draft published"})
	}

	categoryID, err := s.resolveCategory(ctx, in.UserID, in.CategoryID)
	if err != nil {
		return nil, err
	}
	tagIDs, err := s.resolveTags(ctx, in.UserID, in.TagIDs, in.TagNames)
	if err != nil {
		return nil, err
	}

	post = &models.Post{
		Title:         title,
		Content:       in.Content,
		Summary:       summarize(in.Summary, in.Content),
		Status:        status,
		FeaturedImage: in.FeaturedImage,
		UserID:        in.UserID,
		CategoryID:    categoryID,
	}
	if status == models.PostStatusPublished {
		at := s.now().UTC()
		post.PublishedAt = &at
	}

	if err := s.postRepo.Create(ctx, post, tagIDs); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, int64, error) {
	if in.Filter.Status != "" && (!in.Filter.Status.Valid() || in.Filter.Status == models.PostStatusDeleted) {
		return nil, 0, models.NewFieldValidationError("Invalid status filter",
			map[string]string{"status": "must be one of: draft published archived"})
	}
	return s.postRepo.List(ctx, in.Filter, in.Page)
}

// GetPost returns a visible post and counts the view. Every call counts.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.postRepo.IncrementViewCount(ctx, postID); err != nil {
		return nil, err
	}
	post.ViewCount++
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.loadOwned(ctx, in.UserID, in.PostID, false)
	if err != nil {
		return nil, err
	}
	if post.IsDeleted() {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewFieldValidationError("title is required", map[string]string{"title": "is required"})
		}
		post.Title = title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	switch {
	case in.Summary != nil:
		post.Summary = summarize(*in.Summary, post.Content)
	case in.Content != nil && post.Summary == "":
		post.Summary = summarize("", post.Content)
	}
	if in.FeaturedImage != nil {
		post.FeaturedImage = *in.FeaturedImage
	}
	if in.CategoryID != nil {
		if *in.CategoryID == 0 {
			post.CategoryID = nil
		} else if post.CategoryID, err = s.resolveCategory(ctx, in.UserID, in.CategoryID); err != nil {
			return nil, err
		}
	}

	from := post.Status
	if in.Status != nil && *in.Status != post.Status {
		if err := s.applyTransition(post, *in.Status); err != nil {
			return nil, err
		}
	}

	var tagIDs *[]uint
	if in.TagIDs != nil || in.TagNames != nil {
		resolved, err := s.resolveTags(ctx, in.UserID, in.TagIDs, in.TagNames)
		if err != nil {
			return nil, err
		}
		tagIDs = &resolved
	}

	if err := s.postRepo.Update(ctx, post, tagIDs); err != nil {
		return nil, err
	}
	if from != post.Status {
		observability.PostTransitions.WithLabelValues(string(from), string(post.Status)).Inc()
	}
	if post.IsDeleted() {
		return post, nil
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// Publish moves a draft to published.
func (s *PostService) Publish(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return s.transition(ctx, userID, postID, models.PostStatusPublished)
}

// Archive moves a published post to archived.
func (s *PostService) Archive(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return s.transition(ctx, userID, postID, models.PostStatusArchived)
}

// Restore brings a deleted post back as a draft.
func (s *PostService) Restore(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return s.transition(ctx, userID, postID, models.PostStatusDraft)
}

// Delete soft-deletes the post. Admins may delete any post.
func (s *PostService) Delete(ctx context.Context, userID, postID uint) error {
	_, err := s.transition(ctx, userID, postID, models.PostStatusDeleted)
	return err
}

// ToggleLike likes or unlikes a visible post for userID.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (models.LikeState, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, userID); err != nil {
		return models.LikeState{}, err
	}
	state, err := s.likeRepo.Toggle(ctx, postID, userID)
	if err != nil {
		return models.LikeState{}, err
	}
	observability.LikeToggles.WithLabelValues(lo.Ternary(state.IsLiked, "liked", "unliked")).Inc()
	return state, nil
}

func (s *PostService) transition(ctx context.Context, userID, postID uint, to models.PostStatus) (*models.Post, error) {
	post, err := s.loadOwned(ctx, userID, postID, to == models.PostStatusDeleted)
	if err != nil {
		return nil, err
	}

	from := post.Status
	if err := s.applyTransition(post, to); err != nil {
		return nil, err
	}
	if err := s.postRepo.Update(ctx, post, nil); err != nil {
		return nil, err
	}
	observability.PostTransitions.WithLabelValues(string(from), string(to)).Inc()

	if to == models.PostStatusDeleted {
		return post, nil
	}
	return s.postRepo.GetByID(ctx, post.ID, userID)
}

// applyTransition moves post to status to, maintaining published_at and deleted_at.
func (s *PostService) applyTransition(post *models.Post, to models.PostStatus) error {
	if !to.Valid() {
		return models.NewFieldValidationError("Invalid status",
			map[string]string{"status": "must be one of: draft published archived deleted"})
	}
	if !post.Status.CanTransitionTo(to) {
		return models.NewValidationError(fmt.Sprintf("Cannot change post status from %s to %s", post.Status, to))
	}

	now := s.now().UTC()
	switch to {
	case models.PostStatusPublished:
		if post.PublishedAt == nil {
			post.PublishedAt = &now
		}
	case models.PostStatusDeleted:
		post.DeletedAt = &now
	case models.PostStatusDraft:
		post.DeletedAt = nil
	}
	post.Status = to
	return nil
}

// loadOwned fetches a post for mutation by userID, including deleted ones so
// they can be restored. Posts the caller cannot see are reported as missing.
func (s *PostService) loadOwned(ctx context.Context, userID, postID uint, adminAllowed bool) (*models.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID == userID {
		return post, nil
	}

	if adminAllowed && s.isAdmin != nil {
		admin, err := s.isAdmin(ctx, userID)
		if err != nil {
			return nil, err
		}
		if admin {
			return post, nil
		}
	}
	if !post.VisibleTo(userID) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return nil, models.NewForbiddenError("You can only modify your own posts")
}

// resolveCategory drops an unknown category id unless strict ids are enabled.
func (s *PostService) resolveCategory(ctx context.Context, userID uint, id *uint) (*uint, error) {
	if id == nil || *id == 0 {
		return nil, nil
	}
	found, err := s.categoryRepo.ExistingIDs(ctx, []uint{*id})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		if s.flags.Enabled(featureflags.StrictTaxonomyIDs, userID) {
			return nil, models.NewFieldValidationError("Unknown category",
				map[string]string{"category_id": fmt.Sprintf("category %d does not exist", *id)})
		}
		return nil, nil
	}
	category := found[0]
	return &category, nil
}

// resolveTags keeps the tag ids that exist and adds tags named in names.
func (s *PostService) resolveTags(ctx context.Context, userID uint, ids []uint, names []string) ([]uint, error) {
	out := []uint{}
	if len(ids) > 0 {
		found, err := s.tagRepo.ExistingIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		if missing, _ := lo.Difference(lo.Uniq(ids), found); len(missing) > 0 &&
			s.flags.Enabled(featureflags.StrictTaxonomyIDs, userID) {
			return nil, models.NewFieldValidationError("Unknown tags",
				map[string]string{"tag_ids": fmt.Sprintf("tags %v do not exist", missing)})
		}
		// Keep the caller's order.
		out = lo.Filter(lo.Uniq(ids), func(id uint, _ int) bool { return lo.Contains(found, id) })
	}

	if len(names) > 0 {
		if !s.flags.Enabled(featureflags.ImplicitTags, userID) {
			return nil, models.NewFieldValidationError("Creating tags by name is disabled",
				map[string]string{"tag_names": "is not allowed"})
		}
		tags, err := s.tagRepo.FindOrCreateByNames(ctx, names, tagSlug)
		if err != nil {
			return nil, err
		}
		out = lo.Uniq(append(out, lo.Map(tags, func(t models.Tag, _ int) uint { return t.ID })...))
	}
	return out, nil
}

// tagSlug falls back to a random slug for names with no latin characters.
func tagSlug(name string) string {
	if slug := validation.Slugify(name); slug != "" {
		return slug
	}
	return "tag-" + uuid.NewString()[:8]
}

func summarize(summary, content string) string {
	if s := strings.TrimSpace(summary); s != "" {
		return validation.TruncateText(s, maxSummaryLen)
	}
	return validation.TruncateText(content, maxSummaryLen)
}
