package storage

import (
	"fmt"
	"strings"

	"rideshare_backend/platform/apperr"
)

// AllowedContentTypes are the formats accepted for registration documents and
// vehicle photos.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
	"application/pdf": true,
}

// ValidateUpload checks content type and size before anything is signed.
func (s *MinIOService) ValidateUpload(contentType string, sizeBytes int64) error {
	return validateUpload(contentType, sizeBytes, s.maxFileSize)
}

func validateUpload(contentType string, sizeBytes, maxFileSize int64) error {
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	if !AllowedContentTypes[normalized] {
		return apperr.Validation(fmt.Sprintf("content type %q is not allowed", contentType))
	}
	if sizeBytes <= 0 {
		return apperr.Validation("file size must be greater than 0")
	}
	if maxFileSize > 0 && sizeBytes > maxFileSize {
		return apperr.Validation(fmt.Sprintf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxFileSize))
	}
	return nil
}
