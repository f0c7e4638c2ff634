package models

import (
	"time"
)

// PostStatus represents the lifecycle state of a post.
type PostStatus string

const (
	// PostStatusDraft is visible only to the author.
	PostStatusDraft PostStatus = "draft"
	// PostStatusPublished is publicly visible.
	PostStatusPublished PostStatus = "published"
	// PostStatusArchived is still readable but no longer promoted.
	PostStatusArchived PostStatus = "archived"
	// PostStatusDeleted hides the post everywhere. It is the only deletion marker.
	PostStatusDeleted PostStatus = "deleted"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived, PostStatusDeleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s PostStatus) CanTransitionTo(next PostStatus) bool {
	switch next {
	case PostStatusPublished:
		return s == PostStatusDraft
	case PostStatusArchived:
		return s == PostStatusPublished
	case PostStatusDeleted:
		return s != PostStatusDeleted
	case PostStatusDraft:
		return s == PostStatusDeleted
	}
	return false
}

// Post represents an authored piece of content.
type Post struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	Summary       string     `gorm:"size:300" json:"summary"`
	Status        PostStatus `gorm:"type:varchar(20);not null;default:'draft';index:idx_posts_status_created,priority:1" json:"status"`
	ViewCount     int64      `gorm:"not null;default:0" json:"view_count"`
	FeaturedImage string     `gorm:"size:500" json:"featured_image"`
	UserID        uint       `gorm:"not null;index" json:"-"`
	User          User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CategoryID    *uint      `gorm:"index" json:"-"`
	Category      *Category  `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`
	Tags          []Tag      `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE" json:"-"`
	// LikeCount is not persisted; computed at query time
	LikeCount int64 `gorm:"->" json:"like_count"`
	// CommentCount is not persisted; computed at query time
	CommentCount int64 `gorm:"->" json:"comment_count"`
	// IsLiked indicates whether the requesting user liked this post (computed)
	IsLiked     bool       `gorm:"->" json:"is_liked"`
	PublishedAt *time.Time `json:"published_at"`
	DeletedAt   *time.Time `json:"-"`
	CreatedAt   time.Time  `gorm:"index:idx_posts_status_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsDeleted reports whether the post has been soft deleted.
func (p *Post) IsDeleted() bool {
	return p.Status == PostStatusDeleted
}

// VisibleTo reports whether viewerID (0 for anonymous) may read the post.
func (p *Post) VisibleTo(viewerID uint) bool {
	switch p.Status {
	case PostStatusDeleted:
		return false
	case PostStatusDraft:
		return viewerID != 0 && viewerID == p.UserID
	}
	return true
}

// PostResponse is the serialized form of a post with nested author, category and tags.
type PostResponse struct {
	ID            uint             `json:"id"`
	Title         string           `json:"title"`
	Content       string           `json:"content"`
	Summary       string           `json:"summary"`
	Status        PostStatus       `json:"status"`
	ViewCount     int64            `json:"view_count"`
	FeaturedImage string           `json:"featured_image"`
	Author        UserSummary      `json:"author"`
	Category      *CategorySummary `json:"category"`
	Tags          []TagSummary     `json:"tags"`
	LikeCount     int64            `json:"like_count"`
	CommentCount  int64            `json:"comment_count"`
	IsLiked       bool             `json:"is_liked"`
	PublishedAt   *time.Time       `json:"published_at"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ToResponse builds the nested read representation of p.
func (p *Post) ToResponse() PostResponse {
	resp := PostResponse{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		Summary:       p.Summary,
		Status:        p.Status,
		ViewCount:     p.ViewCount,
		FeaturedImage: p.FeaturedImage,
		Author:        p.User.Summary(),
		LikeCount:     p.LikeCount,
		CommentCount:  p.CommentCount,
		IsLiked:       p.IsLiked,
		PublishedAt:   p.PublishedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Tags:          make([]TagSummary, 0, len(p.Tags)),
	}
	if p.Category != nil {
		summary := p.Category.Summary()
		resp.Category = &summary
	}
	for _, tag := range p.Tags {
		resp.Tags = append(resp.Tags, tag.Summary())
	}
	return resp
}
