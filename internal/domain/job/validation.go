package job

import (
	"fmt"
	"io"
	"strings"

	apperrors "github.com/secureops/secureops-client/internal/errors"
)

const mebibyte = 1024 * 1024

// Default per-category size limits.
const (
	DefaultMaxImageBytes int64 = 10 * mebibyte
	DefaultMaxPDFBytes   int64 = 50 * mebibyte
	DefaultMaxVideoBytes int64 = 100 * mebibyte
)

// ValidationRule constrains the files accepted for one category.
// Exactly one of MimePrefix and MimeExact is normally set.
type ValidationRule struct {
	MaxSizeBytes int64
	MimePrefix   string
	MimeExact    string
}

// Accepts reports whether the declared content type satisfies the rule.
// Parameters such as "; charset=" are ignored and matching is case-insensitive.
func (r ValidationRule) Accepts(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" {
		return false
	}
	if r.MimeExact != "" {
		return ct == strings.ToLower(r.MimeExact)
	}
	return r.MimePrefix != "" && strings.HasPrefix(ct, strings.ToLower(r.MimePrefix))
}

func (r ValidationRule) expected() string {
	if r.MimeExact != "" {
		return r.MimeExact
	}
	return r.MimePrefix + "*"
}

// Rules is the static per-category configuration.
type Rules map[Category]ValidationRule

// DefaultRules returns the stock limits: images up to 10MB, PDFs up to 50MB, videos up to 100MB.
func DefaultRules() Rules {
	return NewRules(DefaultMaxImageBytes, DefaultMaxPDFBytes, DefaultMaxVideoBytes)
}

// NewRules builds rules with custom size limits and the stock type constraints.
func NewRules(maxImage, maxPDF, maxVideo int64) Rules {
	return Rules{
		CategoryImage:    {MaxSizeBytes: maxImage, MimePrefix: "image/"},
		CategoryDocument: {MaxSizeBytes: maxPDF, MimeExact: "application/pdf"},
		CategoryVideo:    {MaxSizeBytes: maxVideo, MimePrefix: "video/"},
	}
}

// File is a candidate upload. ContentType is the declared type; the file
// name's extension plays no part in validation.
type File struct {
	Name        string
	Size        int64
	ContentType string
	// Open returns a fresh reader over the content. It may be called more
	// than once when a request is retried.
	Open func() (io.ReadCloser, error)
}

// Validate checks the candidate files against the category rule.
// It returns a validation error for a wrong file count, an oversize file, or a type mismatch.
func (r Rules) Validate(files []File, c Category) error {
	rule, ok := r[c]
	if !ok {
		return apperrors.ValidationField("category", fmt.Sprintf("Invalid upload type %q. Must be 'image', 'pdf', or 'video'.", c))
	}
	if len(files) != 1 {
		return apperrors.ValidationField("files", "Please upload exactly one file.")
	}

	f := files[0]
	if rule.MaxSizeBytes > 0 && f.Size > rule.MaxSizeBytes {
		return apperrors.ValidationField("size",
			fmt.Sprintf("File too large. %s limit is %dMB", c.Label(), rule.MaxSizeBytes/mebibyte))
	}
	if !rule.Accepts(f.ContentType) {
		return apperrors.ValidationField("content_type",
			fmt.Sprintf("Invalid file type for %s. Expected %s", c, rule.expected()))
	}
	return nil
}
