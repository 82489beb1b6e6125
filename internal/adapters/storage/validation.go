package storage

import (
	"fmt"
	"strings"

	"b2b_marketplace_backend/platform/apperr"
)

// AllowedContentTypes lists the MIME types accepted as quote attachments:
// drawings, spec sheets, price lists and photos.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,

	"application/pdf":                                                         true,
	"application/msword":                                                      true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel":                                                true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"application/zip":                                                         true,
	"text/plain":                                                              true,
	"text/csv":                                                                true,
}

// ValidateContentType checks if the content type is allowed.
func ValidateContentType(contentType string) error {
	// parameters like charset are ignored
	normalized := strings.Split(contentType, ";")[0]
	normalized = strings.TrimSpace(strings.ToLower(normalized))

	if !AllowedContentTypes[normalized] {
		return apperr.Validation(fmt.Sprintf("content type %q is not allowed", contentType))
	}
	return nil
}

// ValidateFileSize checks sizeBytes against maxBytes. A non-positive
// maxBytes disables the upper bound.
func ValidateFileSize(sizeBytes, maxBytes int64) error {
	if sizeBytes <= 0 {
		return apperr.Validation("file size must be greater than 0")
	}
	if maxBytes > 0 && sizeBytes > maxBytes {
		return apperr.Validation(fmt.Sprintf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxBytes))
	}
	return nil
}
