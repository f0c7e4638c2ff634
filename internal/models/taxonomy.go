package models

import "time"

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#000000"

// Category is a node in the post category tree.
type Category struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Slug        string     `gorm:"uniqueIndex;size:60;not null" json:"slug"`
	Description string     `gorm:"type:text" json:"description"`
	Color       string     `gorm:"size:7;not null;default:'#000000'" json:"color"`
	ParentID    *uint      `gorm:"index" json:"parent_id"`
	Parent      *Category  `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	Children    []Category `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"children,omitempty"`
	Order       int        `gorm:"column:sort_order;not null;default:0" json:"order"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CategorySummary is the nested category representation embedded in posts.
type CategorySummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// Summary returns the compact nested representation of c.
func (c Category) Summary() CategorySummary {
	return CategorySummary{ID: c.ID, Name: c.Name, Slug: c.Slug, Color: c.Color}
}

// Tag is a free-form label attached to posts.
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:60;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	UsageCount  int64     `gorm:"not null;default:0" json:"usage_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TagSummary is the nested tag representation embedded in posts.
type TagSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Summary returns the compact nested representation of t.
func (t Tag) Summary() TagSummary {
	return TagSummary{ID: t.ID, Name: t.Name, Slug: t.Slug}
}
