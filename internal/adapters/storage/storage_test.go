package storage

import (
	"context"
	"testing"
	"time"

	"b2b_marketplace_backend/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "quotes/RFQ-2026-000001/drawing_abcd1234.pdf",
		ObjectKey("quotes/RFQ-2026-000001", "drawing.pdf", "abcd1234"))
	assert.Equal(t, "quotes/RFQ-2026-000001/passwd_abcd1234",
		ObjectKey("quotes/RFQ-2026-000001", "../../etc/passwd", "abcd1234"))
	assert.Equal(t, "quotes/RFQ-2026-000001/file_abcd1234.png",
		ObjectKey("quotes/RFQ-2026-000001", ".png", "abcd1234"))
}

func TestValidation(t *testing.T) {
	assert.NoError(t, ValidateContentType("application/pdf"))
	assert.NoError(t, ValidateContentType("text/plain; charset=utf-8"))
	assert.True(t, apperr.Is(ValidateContentType("application/x-msdownload"), apperr.KindValidation))

	assert.NoError(t, ValidateFileSize(10, 100))
	assert.NoError(t, ValidateFileSize(10, 0))
	assert.True(t, apperr.Is(ValidateFileSize(0, 100), apperr.KindValidation))
	assert.True(t, apperr.Is(ValidateFileSize(101, 100), apperr.KindValidation))
}

type stubStore struct {
	bucket, folder string
}

func (s *stubStore) GenerateUploadURL(_ context.Context, bucket, folder, fileName, _ string, _ int64) (*PresignedURL, error) {
	s.bucket, s.folder = bucket, folder
	return &PresignedURL{URL: "https://minio.test/put", FileKey: folder + "/" + fileName, ExpiresAt: time.Unix(1700000000, 0)}, nil
}

func (s *stubStore) GenerateDownloadURL(context.Context, string, string) (*PresignedURL, error) {
	return nil, nil
}

func (s *stubStore) EnsureBucketExists(context.Context, string) error { return nil }

func TestAttachmentPresigner(t *testing.T) {
	store := &stubStore{}
	p := NewAttachmentPresigner(store, "quote-attachments")

	upload, err := p.PresignUpload(context.Background(), "quotes/RFQ-2026-000001", "a.pdf", "application/pdf", 10)
	require.NoError(t, err)
	assert.Equal(t, "quote-attachments", store.bucket)
	assert.Equal(t, "quotes/RFQ-2026-000001/a.pdf", upload.FileKey)
	assert.Equal(t, int64(1700000000), upload.ExpiresAt.Unix())
}
