package server

import (
	"time"

	"socialapi/internal/models"
)

const dateLayout = "2006-01-02"

type registerRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Username        string `json:"username" validate:"required,username"`
	Password        string `json:"password" validate:"required,password"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
	Nickname        string `json:"nickname" validate:"max=50"`
	PhoneNumber     string `json:"phone_number" validate:"omitempty,phone"`
	BirthDate       string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateMeRequest struct {
	Username     *string `json:"username" validate:"omitempty,username"`
	Nickname     *string `json:"nickname" validate:"omitempty,max=50"`
	Bio          *string `json:"bio" validate:"omitempty,max=500"`
	PhoneNumber  *string `json:"phone_number" validate:"omitempty,phone"`
	ProfileImage *string `json:"profile_image" validate:"omitempty,max=500"`
	BirthDate    *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
}

type updateProfileRequest struct {
	Website            *string `json:"website" validate:"omitempty,max=200"`
	Location           *string `json:"location" validate:"omitempty,max=100"`
	Company            *string `json:"company" validate:"omitempty,max=100"`
	JobTitle           *string `json:"job_title" validate:"omitempty,max=100"`
	IsPublic           *bool   `json:"is_public"`
	EmailNotifications *bool   `json:"email_notifications"`
	PushNotifications  *bool   `json:"push_notifications"`
}

type createPostRequest struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Content       string   `json:"content" validate:"required"`
	Summary       string   `json:"summary" validate:"max=300"`
	Status        string   `json:"status" validate:"omitempty,oneof=draft published"`
	FeaturedImage string   `json:"featured_image" validate:"max=500"`
	CategoryID    *uint    `json:"category_id"`
	TagIDs        []uint   `json:"tag_ids" validate:"max=50,dive,gt=0"`
	TagNames      []string `json:"tag_names" validate:"max=20,dive,required,max=50"`
}

// updatePostRequest is a partial update. A category_id of 0 clears the
// category; a present tag_ids (even empty) replaces the tag set.
type updatePostRequest struct {
	Title         *string  `json:"title" validate:"omitempty,max=200"`
	Content       *string  `json:"content"`
	Summary       *string  `json:"summary" validate:"omitempty,max=300"`
	Status        *string  `json:"status" validate:"omitempty,oneof=draft published archived deleted"`
	FeaturedImage *string  `json:"featured_image" validate:"omitempty,max=500"`
	CategoryID    *uint    `json:"category_id"`
	TagIDs        []uint   `json:"tag_ids" validate:"max=50,dive,gt=0"`
	TagNames      []string `json:"tag_names" validate:"max=20,dive,required,max=50"`
}

type commentRequest struct {
	Content  string `json:"content" validate:"required,max=5000"`
	ParentID *uint  `json:"parent_id"`
}

type updateCommentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

type categoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=50"`
	Slug        *string `json:"slug" validate:"omitempty,slug"`
	Description *string `json:"description"`
	Color       *string `json:"color" validate:"omitempty,hexcolor,len=7"`
	ParentID    *uint   `json:"parent_id"`
	Order       *int    `json:"order"`
	IsActive    *bool   `json:"is_active"`
}

type tagRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=50"`
	Slug        *string `json:"slug" validate:"omitempty,slug"`
	Description *string `json:"description"`
}

// parseDate parses an already validated YYYY-MM-DD value.
func parseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, models.NewFieldValidationError(field+" must be a date formatted as YYYY-MM-DD",
			map[string]string{field: "must be a date formatted as YYYY-MM-DD"})
	}
	return &t, nil
}
