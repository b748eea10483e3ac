package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// slugRegex matches the canonical node slug shape: lowercase segments of
// letters and digits joined by single hyphens.
var slugRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateSlug validates a node slug for safety and correctness.
//
// The validation rules are intentionally conservative:
//   - No empty slugs
//   - Maximum length of 128 characters
//   - Lowercase letters, digits and single hyphens only
func ValidateSlug(slug string) error {
	if slug == "" {
		return New(ErrCodeInvalidSlug, "slug cannot be empty")
	}

	if len(slug) > 128 {
		return New(ErrCodeInvalidSlug, "slug too long (max 128 characters)")
	}

	if !slugRegex.MatchString(slug) {
		return New(ErrCodeInvalidSlug, "invalid slug: %q", slug)
	}

	return nil
}

// ValidateTitle validates a node title.
//
// Validation rules:
//   - Title cannot be empty or whitespace-only
//   - Maximum length of 256 characters
//   - No control characters
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return New(ErrCodeInvalidInput, "title cannot be empty")
	}

	if len(title) > 256 {
		return New(ErrCodeInvalidInput, "title too long (max 256 characters)")
	}

	for _, r := range title {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "title contains invalid control characters")
		}
	}

	return nil
}

// ValidateVariantKey validates an implementation variant key. Keys follow
// the same shape as slugs but are shorter.
func ValidateVariantKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "variant key cannot be empty")
	}

	if len(key) > 64 {
		return New(ErrCodeInvalidInput, "variant key too long (max 64 characters)")
	}

	if !slugRegex.MatchString(key) {
		return New(ErrCodeInvalidInput, "invalid variant key: %q", key)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
