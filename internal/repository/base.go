// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"socialapi/internal/database"
	"socialapi/internal/models"

	"gorm.io/gorm"
)

// Page is an offset window into a list query.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip for p.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Size <= 0 {
		return db
	}
	return db.Limit(p.Size).Offset(p.Offset())
}

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// lookupError maps a single-row lookup failure to an AppError.
func lookupError(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// writeError maps a write failure; unique violations become validation errors.
func writeError(err error, duplicateMsg string) error {
	if isUniqueConstraintError(err) {
		return models.NewValidationError(duplicateMsg)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
