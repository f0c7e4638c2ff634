// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents an account holder.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Username     string     `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Password     string     `gorm:"not null" json:"-"`
	Nickname     string     `gorm:"size:50" json:"nickname"`
	PhoneNumber  string     `gorm:"size:20" json:"phone_number"`
	BirthDate    *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	ProfileImage string     `gorm:"size:500" json:"profile_image"`
	Bio          string     `gorm:"size:500" json:"bio"`
	IsVerified   bool       `gorm:"not null;default:false" json:"is_verified"`
	IsActive     bool       `gorm:"not null;default:true;index" json:"is_active"`
	IsAdmin      bool       `gorm:"not null;default:false" json:"is_admin"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DisplayName returns the nickname when set, otherwise the username.
func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// UserResponse is the public representation of a User.
type UserResponse struct {
	User
	DisplayName string `json:"display_name"`
}

// ToResponse attaches computed fields for serialization.
func (u User) ToResponse() UserResponse {
	return UserResponse{User: u, DisplayName: u.DisplayName()}
}

// UserSummary is the nested author representation embedded in posts and comments.
type UserSummary struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Nickname     string `json:"nickname"`
	DisplayName  string `json:"display_name"`
	ProfileImage string `json:"profile_image"`
}

// Summary returns the compact nested representation of u.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		Username:     u.Username,
		Nickname:     u.Nickname,
		DisplayName:  u.DisplayName(),
		ProfileImage: u.ProfileImage,
	}
}

// Profile holds optional per-user settings. One row per user, created lazily.
type Profile struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User               *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Website            string    `gorm:"size:200" json:"website"`
	Location           string    `gorm:"size:100" json:"location"`
	Company            string    `gorm:"size:100" json:"company"`
	JobTitle           string    `gorm:"size:100" json:"job_title"`
	IsPublic           bool      `gorm:"not null;default:true" json:"is_public"`
	EmailNotifications bool      `gorm:"not null;default:true" json:"email_notifications"`
	PushNotifications  bool      `gorm:"not null;default:true" json:"push_notifications"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewDefaultProfile returns the profile a user gets on first access.
func NewDefaultProfile(userID uint) *Profile {
	return &Profile{
		UserID:             userID,
		IsPublic:           true,
		EmailNotifications: true,
		PushNotifications:  true,
	}
}
