package repository

import (
	"context"
	"errors"
	"strings"

	"socialapi/internal/cache"
	"socialapi/internal/models"
	"socialapi/internal/observability"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxCategoryDepth bounds ancestor walks so a corrupted tree cannot loop forever.
const maxCategoryDepth = 64

// CategoryRepository stores the category tree.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, id uint, fields map[string]any) (*models.Category, error)
	Delete(ctx context.Context, id uint) error
	AncestorIDs(ctx context.Context, id uint) ([]uint, error)
	ExistingIDs(ctx context.Context, ids []uint) ([]uint, error)
}

type categoryRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db, log: observability.NewRepoLogger("categories")}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(category).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return writeError(err, "Category with this name or slug already exists")
	}
	r.log.LogCreate(ctx, map[string]any{"id": category.ID, "slug": category.Slug})
	cache.InvalidateCategories(ctx)
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := readDB(r.db).WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, lookupError(err, "Category", id)
	}
	return &category, nil
}

// List returns every category ordered by (order, name), through the taxonomy cache.
func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := cache.Aside(ctx, cache.CategoryListKey, &categories, cache.TaxonomyTTL, func() error {
		return readDB(r.db).WithContext(ctx).
			Order("sort_order ASC, name ASC, id ASC").
			Find(&categories).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, id uint, fields map[string]any) (*models.Category, error) {
	db := r.db.WithContext(ctx)
	if len(fields) > 0 {
		res := db.Model(&models.Category{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			r.log.LogError(ctx, res.Error, "update")
			return nil, writeError(res.Error, "Category with this name or slug already exists")
		}
		if res.RowsAffected == 0 {
			return nil, models.NewNotFoundError("Category", id)
		}
		r.log.LogUpdate(ctx, map[string]any{"id": id})
		cache.InvalidateCategories(ctx)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the category and its whole subtree. Posts in any removed
// category keep existing with no category.
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return models.NewNotFoundError("Category", id)
		}

		ids := []uint{id}
		frontier := []uint{id}
		for len(frontier) > 0 {
			var children []uint
			if err := tx.Model(&models.Category{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return err
			}
			children = lo.Without(children, ids...)
			ids = append(ids, children...)
			frontier = children
		}

		if err := tx.Model(&models.Post{}).Where("category_id IN ?", ids).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Category{}).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return writeError(err, "Category could not be deleted")
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	cache.InvalidateCategories(ctx)
	return nil
}

// AncestorIDs walks parent links upward from id, nearest first.
func (r *categoryRepository) AncestorIDs(ctx context.Context, id uint) ([]uint, error) {
	db := readDB(r.db).WithContext(ctx)
	var out []uint
	current := id
	for range maxCategoryDepth {
		var row models.Category
		if err := db.Select("id", "parent_id").First(&row, current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return out, nil
			}
			return nil, models.NewInternalError(err)
		}
		if row.ParentID == nil || lo.Contains(out, *row.ParentID) {
			return out, nil
		}
		out = append(out, *row.ParentID)
		current = *row.ParentID
	}
	return out, nil
}

func (r *categoryRepository) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	return existingIDs(readDB(r.db).WithContext(ctx), &models.Category{}, ids)
}

// TagRepository stores tags and maintains their usage counters.
type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
	Update(ctx context.Context, id uint, fields map[string]any) (*models.Tag, error)
	Delete(ctx context.Context, id uint) error
	ExistingIDs(ctx context.Context, ids []uint) ([]uint, error)
	FindOrCreateByNames(ctx context.Context, names []string, slugify func(string) string) ([]models.Tag, error)
	RecountUsage(ctx context.Context) (int64, error)
}

type tagRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db, log: observability.NewRepoLogger("tags")}
}

// Create inserts tag. Names are unique ignoring case, matching how
// FindOrCreateByNames resolves them.
func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTagName(tx, tag.Name, 0); err != nil {
			return err
		}
		return tx.Create(tag).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return writeError(err, "Tag with this name or slug already exists")
	}
	r.log.LogCreate(ctx, map[string]any{"id": tag.ID, "slug": tag.Slug})
	cache.InvalidateTags(ctx)
	return nil
}

func (r *tagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := readDB(r.db).WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, lookupError(err, "Tag", id)
	}
	return &tag, nil
}

// List returns tags most-used first, then by name.
func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := cache.Aside(ctx, cache.TagListKey, &tags, cache.TaxonomyTTL, func() error {
		return readDB(r.db).WithContext(ctx).
			Order("usage_count DESC, name ASC, id ASC").
			Find(&tags).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

func (r *tagRepository) Update(ctx context.Context, id uint, fields map[string]any) (*models.Tag, error) {
	if len(fields) > 0 {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if name, ok := fields["name"].(string); ok {
				if err := checkTagName(tx, name, id); err != nil {
					return err
				}
			}
			res := tx.Model(&models.Tag{}).Where("id = ?", id).Updates(fields)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.NewNotFoundError("Tag", id)
			}
			return nil
		})
		if err != nil {
			r.log.LogError(ctx, err, "update")
			return nil, writeError(err, "Tag with this name or slug already exists")
		}
		r.log.LogUpdate(ctx, map[string]any{"id": id})
		cache.InvalidateTags(ctx)
	}
	return r.GetByID(ctx, id)
}

func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Tag{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Tag", id)
		}
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return writeError(err, "Tag could not be deleted")
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	cache.InvalidateTags(ctx)
	return nil
}

func (r *tagRepository) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	return existingIDs(readDB(r.db).WithContext(ctx), &models.Tag{}, ids)
}

// FindOrCreateByNames resolves tag names case-insensitively, creating the missing ones.
func (r *tagRepository) FindOrCreateByNames(ctx context.Context, names []string, slugify func(string) string) ([]models.Tag, error) {
	names = lo.Uniq(lo.FilterMap(names, func(name string, _ int) (string, bool) {
		name = strings.TrimSpace(name)
		return name, name != ""
	}))
	if len(names) == 0 {
		return nil, nil
	}

	out := make([]models.Tag, 0, len(names))
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			var tag models.Tag
			err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).First(&tag).Error
			if err == nil {
				out = append(out, tag)
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			tag = models.Tag{Name: name, Slug: slugify(name)}
			if err := tx.Create(&tag).Error; err != nil {
				return err
			}
			created = true
			out = append(out, tag)
		}
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "find_or_create")
		return nil, writeError(err, "Tag with this name or slug already exists")
	}
	if created {
		cache.InvalidateTags(ctx)
	}
	return lo.UniqBy(out, func(t models.Tag) uint { return t.ID }), nil
}

// checkTagName rejects name when another tag already uses it in any case.
func checkTagName(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	err := tx.Model(&models.Tag{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(strings.TrimSpace(name)), exceptID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return models.NewFieldValidationError("Tag with this name already exists",
			map[string]string{"name": "already exists"})
	}
	return nil
}

// RecountUsage recomputes usage_count for every tag from post_tags.
func (r *tagRepository) RecountUsage(ctx context.Context) (int64, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "RecountUsage", "tags")
	defer span.End()

	res := r.db.WithContext(ctx).Exec(recountTagUsageSQL)
	if res.Error != nil {
		observability.RecordErrorInContext(ctx, res.Error)
		r.log.LogError(ctx, res.Error, "recount")
		return 0, models.NewInternalError(res.Error)
	}
	cache.InvalidateTags(ctx)
	return res.RowsAffected, nil
}

const recountTagUsageSQL = `UPDATE tags SET usage_count = (
	SELECT COUNT(*) FROM post_tags
	JOIN posts ON posts.id = post_tags.post_id
	WHERE post_tags.tag_id = tags.id AND posts.status <> 'deleted'
)`

// recountTagUsage refreshes usage_count of the given tags inside tx.
func recountTagUsage(tx *gorm.DB, tagIDs []uint) error {
	tagIDs = lo.Uniq(tagIDs)
	if len(tagIDs) == 0 {
		return nil
	}
	return tx.Exec(recountTagUsageSQL+" WHERE id IN ?", tagIDs).Error
}

func existingIDs(db *gorm.DB, model any, ids []uint) ([]uint, error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := db.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return found, nil
}
