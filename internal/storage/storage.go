// Package storage keeps uploaded assets (profile photos, product images,
// resumes) in an object store and serves them back by key.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// immutableCacheControl is stamped on every upload. Asset keys are never
// reused, so a stored object never changes.
const immutableCacheControl = "public, max-age=31536000, immutable"

// Object is an opened stored object. The caller must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
	ETag        string
	ModTime     time.Time
}

// ObjectStorage is a single bucket of write-once objects.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}
