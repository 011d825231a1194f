package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/startup-vidyapith/apiserver/config"
)

// Open builds the backend selected by cfg.Storage.Backend and ensures its bucket exists.
func Open(ctx context.Context, cfg config.Config) (ObjectStorage, error) {
	var objects ObjectStorage
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case "", "memory":
		objects = NewMemoryClient(cfg.Minio.Bucket)
	case "minio":
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		objects = client
	case "gcs":
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		objects = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if err := objects.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", objects.Bucket(), err)
	}
	return objects, nil
}
