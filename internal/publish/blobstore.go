// Package publish pushes a finished Gold record to production: audio and
// subtitle files go to durable object storage, then the place row and its
// audio-guide children are replaced in the database.
package publish

import "context"

// BlobStore uploads one local file to durable object storage and returns the
// public URL clients will fetch it from.
type BlobStore interface {
	Upload(ctx context.Context, localPath, remotePath, contentType string) (string, error)
}
