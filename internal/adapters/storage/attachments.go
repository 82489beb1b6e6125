package storage

import (
	"context"

	"b2b_marketplace_backend/internal/quotes/ports"
)

// AttachmentPresigner adapts an ObjectStore bucket to the quotes attachment port.
type AttachmentPresigner struct {
	store  ObjectStore
	bucket string
}

// NewAttachmentPresigner creates a presigner writing into bucket.
func NewAttachmentPresigner(store ObjectStore, bucket string) *AttachmentPresigner {
	return &AttachmentPresigner{store: store, bucket: bucket}
}

// PresignUpload implements ports.AttachmentPresigner.
func (p *AttachmentPresigner) PresignUpload(ctx context.Context, folder, fileName, contentType string, sizeBytes int64) (ports.AttachmentUpload, error) {
	url, err := p.store.GenerateUploadURL(ctx, p.bucket, folder, fileName, contentType, sizeBytes)
	if err != nil {
		return ports.AttachmentUpload{}, err
	}
	return ports.AttachmentUpload{
		URL:       url.URL,
		FileKey:   url.FileKey,
		ExpiresAt: url.ExpiresAt,
	}, nil
}

var _ ports.AttachmentPresigner = (*AttachmentPresigner)(nil)
