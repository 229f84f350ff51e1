package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateTaxonName validates a taxon label for use in matrices and Newick output.
//
// The rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No Newick metacharacters ( ) , : ; [ ]
//   - Maximum length of 128 characters
func ValidateTaxonName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "taxon name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "taxon name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "taxon name contains invalid control characters")
		}
	}

	if i := strings.IndexAny(name, "(),:;[]"); i >= 0 {
		return New(ErrCodeInvalidInput, "taxon name contains reserved character %q", name[i])
	}

	return nil
}

// ValidatePath validates an output path relative to a working directory.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// resultIDRegex matches canonical lowercase UUID strings.
var resultIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateResultID validates an archived result identifier.
func ValidateResultID(id string) error {
	if !resultIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid result id: %q", id)
	}
	return nil
}
