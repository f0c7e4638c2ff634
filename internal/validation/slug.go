package validation

import (
	"errors"
	"strings"

	"github.com/gosimple/slug"
)

const maxSlugLength = 60

// Slugify derives a URL slug from a display name. Non-latin names are
// transliterated; names with no usable characters produce an empty string.
func Slugify(name string) string {
	s := slug.Make(strings.TrimSpace(name))
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}

// ValidateSlug checks an explicitly supplied slug.
func ValidateSlug(s string) error {
	if s == "" {
		return nil
	}
	if len(s) > maxSlugLength {
		return errors.New("slug must not exceed 60 characters")
	}
	if !slug.IsSlug(s) {
		return errors.New("slug may only contain lowercase letters, numbers, hyphens, and underscores")
	}
	return nil
}
