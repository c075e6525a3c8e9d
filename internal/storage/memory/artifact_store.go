// Package memory holds artifacts in process memory for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Object is a stored artifact.
type Object struct {
	Data        []byte
	ContentType string
}

// ArtifactStore implements audit.ArtifactStore with a map. Signed URLs are
// synthetic but stable, so tests can assert on them.
type ArtifactStore struct {
	mu      sync.Mutex
	objects map[string]Object
	deleted []string

	// UploadErr, SignErr and DeleteErr, when set, are returned by the
	// corresponding operation.
	UploadErr error
	SignErr   error
	DeleteErr error
}

// NewArtifactStore returns an empty store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{objects: make(map[string]Object)}
}

func (s *ArtifactStore) Upload(_ context.Context, key string, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil {
		return s.UploadErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = Object{Data: buf, ContentType: contentType}
	return nil
}

func (s *ArtifactStore) SignedURL(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SignErr != nil {
		return "", s.SignErr
	}
	return fmt.Sprintf("https://storage.invalid/%s?signed", key), nil
}

func (s *ArtifactStore) Delete(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	for _, key := range keys {
		delete(s.objects, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

// Object returns the stored artifact for key, if present.
func (s *ArtifactStore) Object(key string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Keys lists the keys currently stored.
func (s *ArtifactStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		keys = append(keys, key)
	}
	return keys
}

// Deleted reports every key passed to Delete, in call order.
func (s *ArtifactStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.deleted))
	copy(out, s.deleted)
	return out
}
