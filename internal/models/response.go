package models

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the uniform JSON body of every API response.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// Clock is swapped in tests that assert on timestamps.
var Clock = time.Now

func now() string {
	return Clock().UTC().Format(time.RFC3339Nano)
}

// RespondOK writes a success envelope with the given status.
func RespondOK(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{
		Success:   true,
		Message:   message,
		Timestamp: now(),
		Data:      data,
	})
}

// PageMeta describes the position of a page within a listing.
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	PageSize    int   `json:"page_size"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// NewPageMeta computes page metadata from a total count.
func NewPageMeta(page, pageSize int, total int64) PageMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PageMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		PageSize:    pageSize,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// Page is the data payload of a paginated listing.
type Page[T any] struct {
	Items      []T      `json:"items"`
	Pagination PageMeta `json:"pagination"`
}

// NewPage pairs items with their page metadata. A nil slice is encoded as [].
func NewPage[T any](items []T, page, pageSize int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Pagination: NewPageMeta(page, pageSize, total)}
}
