package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/rxforms/backend/internal/domain/document"
)

var _ document.Repository = (*MemoryDocumentRepository)(nil)

// MemoryDocumentRepository keeps documents in process memory. Contents are
// lost on restart.
type MemoryDocumentRepository struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryDocumentRepository creates an empty MemoryDocumentRepository
func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{records: make(map[string][]byte)}
}

// List returns every stored document ordered by key
func (r *MemoryDocumentRepository) List(_ context.Context) ([]document.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.records))
	for k := range r.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]document.Record, 0, len(keys))
	for _, k := range keys {
		name, _ := document.NameFromKey(k)
		records = append(records, document.Record{Name: name, Data: cloneBytes(r.records[k])})
	}
	return records, nil
}

// Get returns a copy of the stored bytes for name
func (r *MemoryDocumentRepository) Get(_ context.Context, name string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.records[document.Key(name)]
	if !ok {
		return nil, document.ErrRecordNotFound
	}
	return cloneBytes(data), nil
}

// Put stores a copy of data for name
func (r *MemoryDocumentRepository) Put(_ context.Context, name string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[document.Key(name)] = cloneBytes(data)
	return nil
}

// Delete removes the record for name
func (r *MemoryDocumentRepository) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, document.Key(name))
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
