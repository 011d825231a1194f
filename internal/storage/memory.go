package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
	etag        string
	modTime     time.Time
}

// MemoryClient keeps objects in process memory.
type MemoryClient struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject
}

func NewMemoryClient(bucket string) *MemoryClient {
	return &MemoryClient{bucket: bucket, objects: make(map[string]memoryObject)}
}

func (m *MemoryClient) EnsureBucket(context.Context) error { return nil }

func (m *MemoryClient) Put(_ context.Context, key string, data []byte, contentType string) error {
	sum := md5.Sum(data)
	obj := memoryObject{
		data:        bytes.Clone(data),
		contentType: contentType,
		etag:        hex.EncodeToString(sum[:]),
		modTime:     time.Now().UTC(),
	}
	m.mu.Lock()
	m.objects[key] = obj
	m.mu.Unlock()
	return nil
}

func (m *MemoryClient) Get(_ context.Context, key string) (Object, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	return Object{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
		ETag:        obj.etag,
		ModTime:     obj.modTime,
	}, nil
}

func (m *MemoryClient) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryClient) Bucket() string { return m.bucket }
