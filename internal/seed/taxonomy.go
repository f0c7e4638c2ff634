package seed

import (
	"fmt"

	"socialapi/internal/models"
	"socialapi/internal/validation"

	"gorm.io/gorm"
)

// CategorySeed describes a built-in category and its subcategories.
type CategorySeed struct {
	Name        string
	Description string
	Color       string
	Children    []CategorySeed
}

// BuiltInCategories is the default category tree.
var BuiltInCategories = []CategorySeed{
	{Name: "Technology", Description: "Software, hardware and the people who build them", Color: "#1E88E5", Children: []CategorySeed{
		{Name: "Programming", Color: "#3949AB"},
		{Name: "DevOps", Color: "#00897B"},
		{Name: "AI", Color: "#8E24AA"},
	}},
	{Name: "Lifestyle", Description: "Everyday life", Color: "#F4511E", Children: []CategorySeed{
		{Name: "Food", Color: "#FB8C00"},
		{Name: "Travel", Color: "#43A047"},
		{Name: "Fitness", Color: "#E53935"},
	}},
	{Name: "Culture", Description: "Books, film, music and art", Color: "#6D4C41", Children: []CategorySeed{
		{Name: "Books", Color: "#5D4037"},
		{Name: "Movies", Color: "#546E7A"},
		{Name: "Music", Color: "#D81B60"},
	}},
	{Name: "General", Description: "Everything else", Color: models.DefaultCategoryColor},
}

// BuiltInTags are created alongside the built-in categories.
var BuiltInTags = []string{"golang", "postgres", "redis", "docker", "kubernetes", "recipes", "hiking", "reading", "news", "tips"}

// Categories ensures the built-in category tree and tags exist. It is idempotent:
// existing rows are matched by slug and left untouched.
func Categories(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for i, c := range BuiltInCategories {
			if err := ensureCategory(tx, c, nil, i); err != nil {
				return err
			}
		}
		for _, name := range BuiltInTags {
			tag := models.Tag{Name: name, Slug: validation.Slugify(name)}
			if err := tx.Where(models.Tag{Slug: tag.Slug}).FirstOrCreate(&tag).Error; err != nil {
				return fmt.Errorf("seed tag %q: %w", name, err)
			}
		}
		return nil
	})
}

func ensureCategory(tx *gorm.DB, seed CategorySeed, parentID *uint, order int) error {
	category := models.Category{
		Name:        seed.Name,
		Slug:        validation.Slugify(seed.Name),
		Description: seed.Description,
		Color:       seed.Color,
		ParentID:    parentID,
		Order:       order,
		IsActive:    true,
	}
	if category.Color == "" {
		category.Color = models.DefaultCategoryColor
	}
	if err := tx.Where(models.Category{Slug: category.Slug}).Attrs(category).FirstOrCreate(&category).Error; err != nil {
		return fmt.Errorf("seed category %q: %w", seed.Name, err)
	}
	for i, child := range seed.Children {
		if err := ensureCategory(tx, child, &category.ID, i); err != nil {
			return err
		}
	}
	return nil
}
