package storage

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/startup-vidyapith/apiserver/config"
	"google.golang.org/api/option"
)

// GCSClient stores assets in a Google Cloud Storage bucket.
type GCSClient struct {
	bucket    *storage.BucketHandle
	client    *storage.Client
	name      string
	projectID string
}

func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSClient{
		bucket:    client.Bucket(cfg.Bucket),
		client:    client,
		name:      cfg.Bucket,
		projectID: cfg.ProjectID,
	}, nil
}

// EnsureBucket creates the bucket when missing, which needs a project id.
func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	_, err := g.bucket.Attrs(ctx)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, storage.ErrBucketNotExist):
		return err
	case strings.TrimSpace(g.projectID) == "":
		return errors.New("gcs project id is required to create bucket")
	}
	return g.bucket.Create(ctx, g.projectID, nil)
}

// Put writes data in a single request. The precondition refuses to
// overwrite an existing key.
func (g *GCSClient) Put(ctx context.Context, key string, data []byte, contentType string) error {
	w := g.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ChunkSize = 0
	w.ContentType = contentType
	w.CacheControl = immutableCacheControl
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (g *GCSClient) Get(ctx context.Context, key string) (Object, error) {
	r, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return Object{}, ErrObjectNotFound
		}
		return Object{}, err
	}
	return Object{
		Body:        r,
		ContentType: r.Attrs.ContentType,
		Size:        r.Attrs.Size,
		ETag:        strconv.FormatInt(r.Attrs.Generation, 10),
		ModTime:     r.Attrs.LastModified,
	}, nil
}

// Delete removes key. A missing key is not an error.
func (g *GCSClient) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCSClient) Bucket() string { return g.name }
