package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
}

// Memory keeps objects in process. It backs STORAGE_DRIVER=memory and the
// tests; objects are served back through the /storage route.
type Memory struct {
	base string

	mu      sync.RWMutex
	objects map[string]Object
	uploads int
}

func NewMemory(base string) *Memory {
	return &Memory{base: base, objects: make(map[string]Object)}
}

func (m *Memory) Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if size >= 0 && n != size {
		return fmt.Errorf("short body: got %d bytes, want %d", n, size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = Object{Data: buf.Bytes(), ContentType: contentType}
	m.uploads++
	return nil
}

func (m *Memory) PublicURL(bucket, key string) string {
	return joinURL(m.base, bucket, key)
}

func (m *Memory) Get(bucket, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	return obj, nil
}

// Open resolves a URL produced by PublicURL back to its object.
func (m *Memory) Open(url string) (Object, error) {
	prefix := strings.TrimRight(m.base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return Object{}, ErrObjectNotFound
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(url, prefix), "/")
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	return m.Get(bucket, key)
}

// Uploads reports how many Upload calls succeeded.
func (m *Memory) Uploads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uploads
}
