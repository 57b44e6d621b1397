// Package storage writes blobs to public buckets and builds their URLs.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// BucketChatFiles holds chat attachments. Other portal buckets are written
// by their own services through the same ObjectStore.
const BucketChatFiles = "chat-files"

var ErrObjectNotFound = errors.New("object not found")

type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	PublicURL(bucket, key string) string
}

func joinURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.TrimLeft(key, "/")
}
