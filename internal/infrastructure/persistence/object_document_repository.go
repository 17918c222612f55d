package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rxforms/backend/internal/domain/document"
	"github.com/rxforms/backend/internal/infrastructure/storage"
)

const (
	// DefaultDocumentObjectPrefix is the object key prefix documents are
	// stored under
	DefaultDocumentObjectPrefix = "documents/"
	documentContentType         = "application/json"
)

// ObjectStore is the subset of an object storage client the document
// repository needs. GetObject returns storage.ErrObjectNotFound for a
// missing key.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	ListObjects(ctx context.Context, prefix string) ([]string, error)
	DeleteObject(ctx context.Context, key string) error
}

var _ document.Repository = (*ObjectDocumentRepository)(nil)

// ObjectDocumentRepository stores each document as one object in a bucket
type ObjectDocumentRepository struct {
	store  ObjectStore
	prefix string
}

// NewObjectDocumentRepository creates a repository storing documents under
// prefix. An empty prefix uses DefaultDocumentObjectPrefix.
func NewObjectDocumentRepository(store ObjectStore, prefix string) *ObjectDocumentRepository {
	if prefix == "" {
		prefix = DefaultDocumentObjectPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &ObjectDocumentRepository{store: store, prefix: prefix}
}

func (r *ObjectDocumentRepository) objectKey(name string) string {
	return r.prefix + document.Key(name)
}

// List returns every stored document ordered by key. Objects removed
// between listing and fetching are skipped.
func (r *ObjectDocumentRepository) List(ctx context.Context) ([]document.Record, error) {
	objectKeys, err := r.store.ListObjects(ctx, r.prefix+document.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Strings(objectKeys)

	records := make([]document.Record, 0, len(objectKeys))
	for _, objectKey := range objectKeys {
		name, ok := document.NameFromKey(strings.TrimPrefix(objectKey, r.prefix))
		if !ok {
			continue
		}
		data, err := r.store.GetObject(ctx, objectKey)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to fetch document %q: %w", name, err)
		}
		records = append(records, document.Record{Name: name, Data: data})
	}
	return records, nil
}

// Get returns the stored bytes for name
func (r *ObjectDocumentRepository) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := r.store.GetObject(ctx, r.objectKey(name))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, document.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get document %q: %w", name, err)
	}
	return data, nil
}

// Put uploads data as the object for name, replacing any previous version
func (r *ObjectDocumentRepository) Put(ctx context.Context, name string, data []byte) error {
	if err := r.store.PutObject(ctx, r.objectKey(name), data, documentContentType); err != nil {
		return fmt.Errorf("failed to put document %q: %w", name, err)
	}
	return nil
}

// Delete removes the object for name. Deleting an absent object succeeds.
func (r *ObjectDocumentRepository) Delete(ctx context.Context, name string) error {
	if err := r.store.DeleteObject(ctx, r.objectKey(name)); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("failed to delete document %q: %w", name, err)
	}
	return nil
}
