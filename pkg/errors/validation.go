package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxSourceRefLength bounds plain references. Data URLs are exempt since
// they carry the encoded image itself.
const maxSourceRefLength = 2048

// ValidateSourceRef validates an opaque image source reference as accepted
// by the booth: a local path, an http(s) URL, or a data:image URL.
//
// The validation rules are intentionally conservative:
//   - No empty references
//   - No control characters or null bytes
//   - Maximum length of 2048 characters (except data URLs)
//   - Only http, https and data schemes when a scheme is present
func ValidateSourceRef(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidInput, "image source cannot be empty")
	}

	if strings.HasPrefix(ref, "data:") {
		if !strings.HasPrefix(ref, "data:image/") {
			return New(ErrCodeInvalidInput, "data URL must carry an image media type")
		}
		if !strings.Contains(ref, ",") {
			return New(ErrCodeInvalidInput, "data URL has no payload")
		}
		return nil
	}

	if len(ref) > maxSourceRefLength {
		return New(ErrCodeInvalidInput, "image source too long (max %d characters)", maxSourceRefLength)
	}

	for _, r := range ref {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "image source contains invalid control characters")
		}
	}

	if i := strings.Index(ref, "://"); i > 0 {
		return ValidateURL(ref)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// hexColorRegex matches #rgb, #rrggbb and #rrggbbaa colors.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidateHexColor validates a CSS-style hex color used by the theme.
func ValidateHexColor(s string) error {
	if !hexColorRegex.MatchString(s) {
		return New(ErrCodeInvalidInput, "invalid hex color: %q", s)
	}
	return nil
}
