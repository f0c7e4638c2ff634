package server

import (
	"errors"
	"strings"
	"unicode"

	"socialapi/internal/models"
	"socialapi/internal/repository"
	"socialapi/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// respondError writes err as an envelope with the status implied by its code.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}

// parsePage reads page and page_size, clamping page_size to maxPageSize.
func parsePage(c *fiber.Ctx) repository.Page {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	size := c.QueryInt("page_size", defaultPageSize)
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return repository.Page{Number: page, Size: size}
}

// respondPage writes a paginated listing envelope.
func respondPage[T any](c *fiber.Ctx, message string, items []T, page repository.Page, total int64) error {
	return models.RespondOK(c, fiber.StatusOK, message, models.NewPage(items, page.Number, page.Size, total))
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = respondError(c, models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseBody decodes the JSON body into req and runs its validate tags.
// On failure it writes a 400 response and returns errResponseWritten.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		_ = respondError(c, models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	if err := validation.Struct(req); err != nil {
		_ = respondError(c, err)
		return errResponseWritten
	}
	return nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "postId" -> "post ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "Id"); ok {
		return strings.ToLower(strings.Join(splitCamel(prefix), " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}
