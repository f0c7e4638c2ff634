package models

import "time"

// PostLike records that a user liked a post. At most one row per (post, user).
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user,priority:1" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user,priority:2;index" json:"user_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeState is returned by a like toggle.
type LikeState struct {
	IsLiked   bool  `json:"is_liked"`
	LikeCount int64 `json:"like_count"`
}

// Comment is a reply to a post, optionally nested one level under another comment.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index:idx_comments_post_created,priority:1" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	Parent    *Comment  `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	Replies   []Comment `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"index:idx_comments_post_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentResponse is the serialized form of a comment.
type CommentResponse struct {
	ID        uint              `json:"id"`
	Content   string            `json:"content"`
	Author    UserSummary       `json:"author"`
	Post      uint              `json:"post"`
	ParentID  *uint             `json:"parent_id"`
	Replies   []CommentResponse `json:"replies,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ToResponse builds the read representation of c including loaded replies.
func (c *Comment) ToResponse() CommentResponse {
	resp := CommentResponse{
		ID:        c.ID,
		Content:   c.Content,
		Author:    c.User.Summary(),
		Post:      c.PostID,
		ParentID:  c.ParentID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if len(c.Replies) > 0 {
		resp.Replies = make([]CommentResponse, 0, len(c.Replies))
		for i := range c.Replies {
			resp.Replies = append(resp.Replies, c.Replies[i].ToResponse())
		}
	}
	return resp
}
