package service

import (
	"context"
	"strings"

	"socialapi/internal/cache"
	"socialapi/internal/models"
	"socialapi/internal/repository"
	"socialapi/internal/validation"

	"github.com/samber/lo"
)

// TaxonomyService manages categories and tags. Writes are admin-only and
// gated by the HTTP layer.
type TaxonomyService struct {
	categoryRepo repository.CategoryRepository
	tagRepo      repository.TagRepository
}

// CategoryInput carries category fields. Nil pointers mean unchanged on update;
// a ParentID pointing at 0 detaches the category to the root.
type CategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
	Color       *string
	ParentID    *uint
	Order       *int
	IsActive    *bool
}

// TagInput carries tag fields. Nil pointers mean unchanged on update.
type TagInput struct {
	Name        *string
	Slug        *string
	Description *string
}

func NewTaxonomyService(categoryRepo repository.CategoryRepository, tagRepo repository.TagRepository) *TaxonomyService {
	return &TaxonomyService{categoryRepo: categoryRepo, tagRepo: tagRepo}
}

func (s *TaxonomyService) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if activeOnly {
		categories = lo.Filter(categories, func(c models.Category, _ int) bool { return c.IsActive })
	}
	return categories, nil
}

// CategoryTree returns root categories with their descendants nested in Children.
func (s *TaxonomyService) CategoryTree(ctx context.Context) ([]models.Category, error) {
	var tree []models.Category
	err := cache.Aside(ctx, cache.CategoryTreeKey, &tree, cache.TaxonomyTTL, func() error {
		flat, err := s.categoryRepo.List(ctx)
		if err != nil {
			return err
		}
		tree = buildCategoryTree(flat)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func buildCategoryTree(flat []models.Category) []models.Category {
	byParent := lo.GroupBy(flat, func(c models.Category) uint {
		if c.ParentID == nil {
			return 0
		}
		return *c.ParentID
	})

	var attach func(parentID uint, depth int) []models.Category
	attach = func(parentID uint, depth int) []models.Category {
		children := byParent[parentID]
		if len(children) == 0 || depth > maxTreeDepth {
			return []models.Category{}
		}
		out := make([]models.Category, len(children))
		for i, c := range children {
			c.Children = attach(c.ID, depth+1)
			out[i] = c
		}
		return out
	}
	return attach(0, 0)
}

const maxTreeDepth = 64

// GetCategory returns a category with its direct children.
func (s *TaxonomyService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	category.Children = lo.Filter(all, func(c models.Category, _ int) bool {
		return c.ParentID != nil && *c.ParentID == id
	})
	return category, nil
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(lo.FromPtr(in.Name))
	if name == "" {
		return nil, models.NewFieldValidationError("name is required", map[string]string{"name": "is required"})
	}
	slug, err := resolveSlug(name, in.Slug)
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        name,
		Slug:        slug,
		Description: lo.FromPtr(in.Description),
		Color:       lo.CoalesceOrEmpty(lo.FromPtr(in.Color), models.DefaultCategoryColor),
		Order:       lo.FromPtr(in.Order),
		IsActive:    lo.FromPtrOr(in.IsActive, true),
	}
	if in.ParentID != nil && *in.ParentID != 0 {
		if _, err := s.categoryRepo.GetByID(ctx, *in.ParentID); err != nil {
			return nil, parentError(err)
		}
		category.ParentID = in.ParentID
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	if !category.IsActive {
		// The column default would otherwise win over the zero value.
		return s.categoryRepo.Update(ctx, category.ID, map[string]any{"is_active": false})
	}
	return category, nil
}

func (s *TaxonomyService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	existing, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, models.NewFieldValidationError("name may not be blank", map[string]string{"name": "may not be blank"})
		}
		fields["name"] = name
	}
	if in.Slug != nil {
		slug, err := resolveSlug(lo.CoalesceOrEmpty(lo.FromPtr(in.Name), existing.Name), in.Slug)
		if err != nil {
			return nil, err
		}
		fields["slug"] = slug
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Color != nil {
		fields["color"] = lo.CoalesceOrEmpty(*in.Color, models.DefaultCategoryColor)
	}
	if in.Order != nil {
		fields["sort_order"] = *in.Order
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.ParentID != nil {
		if *in.ParentID == 0 {
			fields["parent_id"] = nil
		} else {
			if err := s.checkNoCycle(ctx, id, *in.ParentID); err != nil {
				return nil, err
			}
			fields["parent_id"] = *in.ParentID
		}
	}

	return s.categoryRepo.Update(ctx, id, fields)
}

// checkNoCycle rejects a parent that is the category itself or one of its descendants.
func (s *TaxonomyService) checkNoCycle(ctx context.Context, id, parentID uint) error {
	cycle := models.NewFieldValidationError("Category cannot be its own ancestor",
		map[string]string{"parent_id": "would create a cycle"})
	if parentID == id {
		return cycle
	}
	if _, err := s.categoryRepo.GetByID(ctx, parentID); err != nil {
		return parentError(err)
	}
	ancestors, err := s.categoryRepo.AncestorIDs(ctx, parentID)
	if err != nil {
		return err
	}
	if lo.Contains(ancestors, id) {
		return cycle
	}
	return nil
}

func (s *TaxonomyService) DeleteCategory(ctx context.Context, id uint) error {
	return s.categoryRepo.Delete(ctx, id)
}

func (s *TaxonomyService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.tagRepo.List(ctx)
}

func (s *TaxonomyService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	return s.tagRepo.GetByID(ctx, id)
}

func (s *TaxonomyService) CreateTag(ctx context.Context, in TagInput) (*models.Tag, error) {
	name := strings.TrimSpace(lo.FromPtr(in.Name))
	if name == "" {
		return nil, models.NewFieldValidationError("name is required", map[string]string{"name": "is required"})
	}
	slug, err := resolveSlug(name, in.Slug)
	if err != nil {
		return nil, err
	}
	tag := &models.Tag{Name: name, Slug: slug, Description: lo.FromPtr(in.Description)}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *TaxonomyService) UpdateTag(ctx context.Context, id uint, in TagInput) (*models.Tag, error) {
	existing, err := s.tagRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, models.NewFieldValidationError("name may not be blank", map[string]string{"name": "may not be blank"})
		}
		fields["name"] = name
	}
	if in.Slug != nil {
		slug, err := resolveSlug(lo.CoalesceOrEmpty(lo.FromPtr(in.Name), existing.Name), in.Slug)
		if err != nil {
			return nil, err
		}
		fields["slug"] = slug
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	return s.tagRepo.Update(ctx, id, fields)
}

func (s *TaxonomyService) DeleteTag(ctx context.Context, id uint) error {
	return s.tagRepo.Delete(ctx, id)
}

// RecountTagUsage recomputes every tag's usage_count from post links.
func (s *TaxonomyService) RecountTagUsage(ctx context.Context) (int64, error) {
	return s.tagRepo.RecountUsage(ctx)
}

// resolveSlug validates an explicit slug or derives one from name.
func resolveSlug(name string, explicit *string) (string, error) {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		slug := strings.TrimSpace(*explicit)
		if err := validation.ValidateSlug(slug); err != nil {
			return "", models.NewFieldValidationError(err.Error(), map[string]string{"slug": err.Error()})
		}
		return slug, nil
	}
	slug := validation.Slugify(name)
	if slug == "" {
		return "", models.NewFieldValidationError("A slug could not be derived from the name",
			map[string]string{"slug": "is required for this name"})
	}
	return slug, nil
}

func parentError(err error) error {
	if models.IsCode(err, models.CodeNotFound) {
		return models.NewFieldValidationError("Parent category does not exist",
			map[string]string{"parent_id": "does not exist"})
	}
	return err
}
