// Package validation provides request and upload validation helpers.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"scoutlens/pkg/contracts/domain"
)

// ErrUnsupportedExtension marks rejections caused by a file extension
// the parser cannot handle, as opposed to a malformed request.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// UploadValidator validates uploaded spreadsheet files before they are
// accepted into storage.
type UploadValidator struct {
	maxBytes int64
}

// NewUploadValidator creates a validator enforcing the given size limit.
func NewUploadValidator(maxBytes int64) *UploadValidator {
	return &UploadValidator{maxBytes: maxBytes}
}

// UploadError describes why an upload was rejected. Err, when set,
// carries a sentinel callers can match with errors.Is.
type UploadError struct {
	Field  string
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ValidateUpload checks the file name, size and category of an incoming
// upload and returns the detected file kind.
func (v *UploadValidator) ValidateUpload(filename string, size int64, category string) (domain.FileKind, domain.Category, error) {
	if strings.TrimSpace(filename) == "" {
		return "", "", &UploadError{Field: "file", Reason: "file name is required"}
	}

	if size <= 0 {
		return "", "", &UploadError{Field: "file", Reason: "file is empty"}
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		return "", "", &UploadError{
			Field:  "file",
			Reason: fmt.Sprintf("file size %d exceeds limit of %d bytes", size, v.maxBytes),
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	kind, err := domain.ParseFileKind(ext)
	if err != nil {
		return "", "", &UploadError{
			Field:  "file",
			Reason: fmt.Sprintf("unsupported file extension %q, expected csv, xlsx or xls", ext),
			Err:    ErrUnsupportedExtension,
		}
	}

	cat := domain.Category(category)
	if !cat.Valid() {
		return "", "", &UploadError{
			Field:  "category",
			Reason: fmt.Sprintf("invalid category %q, expected %s or %s", category, domain.CategoryOwnTeam, domain.CategoryOpponent),
		}
	}

	return kind, cat, nil
}

// SanitizeFilename strips path components and characters that are unsafe
// for storage paths, keeping the original extension.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		return "upload"
	}
	return name
}
