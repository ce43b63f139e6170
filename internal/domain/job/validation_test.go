package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/secureops/secureops-client/internal/errors"
)

func TestRules_Validate(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name      string
		files     []File
		category  Category
		wantErr   bool
		wantField string
		wantMsg   string
	}{
		{
			name:     "png under limit",
			files:    []File{{Name: "site.png", Size: 2 * mebibyte, ContentType: "image/png"}},
			category: CategoryImage,
		},
		{
			name:      "image over 10MB",
			files:     []File{{Name: "big.jpg", Size: 10*mebibyte + 1, ContentType: "image/jpeg"}},
			category:  CategoryImage,
			wantErr:   true,
			wantField: "size",
			wantMsg:   "File too large. Image limit is 10MB",
		},
		{
			name:     "image exactly at limit",
			files:    []File{{Name: "edge.jpg", Size: 10 * mebibyte, ContentType: "image/jpeg"}},
			category: CategoryImage,
		},
		{
			name:      "image extension with pdf type",
			files:     []File{{Name: "photo.jpg", Size: 100, ContentType: "application/pdf"}},
			category:  CategoryImage,
			wantErr:   true,
			wantField: "content_type",
			wantMsg:   "Invalid file type for image. Expected image/*",
		},
		{
			name:     "image type with odd extension",
			files:    []File{{Name: "scan.dat", Size: 100, ContentType: "image/bmp"}},
			category: CategoryImage,
		},
		{
			name:     "pdf 2MB",
			files:    []File{{Name: "policy.pdf", Size: 2 * mebibyte, ContentType: "application/pdf"}},
			category: CategoryDocument,
		},
		{
			name:      "pdf prefix is not enough",
			files:     []File{{Name: "policy.pdf", Size: 10, ContentType: "application/pdfx"}},
			category:  CategoryDocument,
			wantErr:   true,
			wantField: "content_type",
		},
		{
			name:      "pdf over 50MB",
			files:     []File{{Name: "huge.pdf", Size: 51 * mebibyte, ContentType: "application/pdf"}},
			category:  CategoryDocument,
			wantErr:   true,
			wantField: "size",
			wantMsg:   "File too large. PDF limit is 50MB",
		},
		{
			name:     "video with parameters",
			files:    []File{{Name: "site.mp4", Size: 90 * mebibyte, ContentType: "Video/MP4; codecs=avc1"}},
			category: CategoryVideo,
		},
		{
			name:      "missing content type",
			files:     []File{{Name: "site.mp4", Size: 10}},
			category:  CategoryVideo,
			wantErr:   true,
			wantField: "content_type",
		},
		{
			name: "two files",
			files: []File{
				{Name: "a.png", Size: 1, ContentType: "image/png"},
				{Name: "b.png", Size: 1, ContentType: "image/png"},
			},
			category:  CategoryImage,
			wantErr:   true,
			wantField: "files",
			wantMsg:   "Please upload exactly one file.",
		},
		{
			name:      "no files",
			files:     nil,
			category:  CategoryImage,
			wantErr:   true,
			wantField: "files",
		},
		{
			name:      "unknown category",
			files:     []File{{Name: "a.png", Size: 1, ContentType: "image/png"}},
			category:  Category("audio"),
			wantErr:   true,
			wantField: "category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rules.Validate(tt.files, tt.category)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.wantField, apperrors.GetField(err))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}
}

func TestNewRules_CustomLimits(t *testing.T) {
	rules := NewRules(1*mebibyte, 2*mebibyte, 3*mebibyte)
	err := rules.Validate([]File{{Size: 2 * mebibyte, ContentType: "image/png"}}, CategoryImage)
	require.Error(t, err)
	assert.Equal(t, "File too large. Image limit is 1MB", err.Error())
}
