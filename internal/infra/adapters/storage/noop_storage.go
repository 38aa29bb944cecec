package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fashion-ai-studio/internal/domain/ports/adapter"
)

var _ adapter.ObjectStorage = (*NoopStorage)(nil)

// NoopStorage implements the storage port in memory for local/dev runs.
// Signed URLs are fake but stable, so flows can be exercised end to end.
type NoopStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewNoopStorage() *NoopStorage {
	return &NoopStorage{objects: map[string][]byte{}}
}

func (s *NoopStorage) SignReadURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.invalid/%s/%s?ttl=%d", bucket, path, int(ttl.Seconds())), nil
}

func (s *NoopStorage) PutObject(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+path] = data
	return path, nil
}
