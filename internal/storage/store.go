package storage

import (
	"context"
	"strings"
	"sync"
)

// BlobStore abstracts the photo/thumbnail bucket so services and tests do
// not depend on a live GCS project.
type BlobStore interface {
	Upload(ctx context.Context, object, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, object string) error
}

// ObjectName recovers the object path inside a folder from a public URL.
// Upload writes under "<folder>/<file>", so the last URL segment is the file.
func ObjectName(folder, url string) string {
	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx == len(url)-1 {
		return ""
	}
	return folder + "/" + url[idx+1:]
}

// Memory is the dev and test fallback used when no bucket is configured.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

func (m *Memory) Upload(_ context.Context, object, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[object] = data
	return "https://storage.example/" + object, nil
}

func (m *Memory) Delete(_ context.Context, object string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, object)
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
