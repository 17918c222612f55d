package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// MemoryObjectStorage is an in-process object store with the same
// semantics as S3ObjectStorage. It backs local development and tests.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStorage creates an empty MemoryObjectStorage
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{objects: make(map[string]memoryObject)}
}

// PutObject stores a copy of data under key
func (s *MemoryObjectStorage) PutObject(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// GetObject returns a copy of the object stored under key
func (s *MemoryObjectStorage) GetObject(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte{}, obj.data...), nil
}

// ContentType returns the content type the object under key was stored with
func (s *MemoryObjectStorage) ContentType(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.contentType, ok
}

// ListObjects returns the keys beginning with prefix in lexical order
func (s *MemoryObjectStorage) ListObjects(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// DeleteObject removes the object under key. Removing a missing key succeeds.
func (s *MemoryObjectStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// ObjectExists reports whether key has an object
func (s *MemoryObjectStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}
