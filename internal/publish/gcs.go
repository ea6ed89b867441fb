package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSConfig captures the parameters required to connect to GCS.
type GCSConfig struct {
	Bucket string
}

// GCSBlobStore uploads guide files to a configured GCS bucket.
type GCSBlobStore struct {
	client *storage.Client
	bucket string
}

// NewGCSBlobStore creates a GCS-backed blob store.
func NewGCSBlobStore(client *storage.Client, cfg GCSConfig) (*GCSBlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCSBlobStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Upload copies the local file to the bucket and returns the public object
// URL.
func (s *GCSBlobStore) Upload(ctx context.Context, localPath, remotePath, contentType string) (string, error) {
	if strings.TrimSpace(remotePath) == "" {
		return "", fmt.Errorf("remote path is required")
	}
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open local file: %w", err)
	}
	defer src.Close()

	writer := s.client.Bucket(s.bucket).Object(remotePath).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, src); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, remotePath), nil
}
