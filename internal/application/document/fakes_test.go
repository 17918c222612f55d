package document_test

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/rxforms/backend/internal/domain/document"
)

// memRepo is an in-memory document.Repository
type memRepo struct {
	mu      sync.Mutex
	records map[string][]byte
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[string][]byte)}
}

func (r *memRepo) List(_ context.Context) ([]document.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.records))
	for name := range r.records {
		keys = append(keys, document.Key(name))
	}
	sort.Strings(keys)
	out := make([]document.Record, 0, len(keys))
	for _, k := range keys {
		name, _ := document.NameFromKey(k)
		out = append(out, document.Record{Name: name, Data: append([]byte(nil), r.records[name]...)})
	}
	return out, nil
}

func (r *memRepo) Get(_ context.Context, name string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.records[name]
	if !ok {
		return nil, document.ErrRecordNotFound
	}
	return append([]byte(nil), data...), nil
}

func (r *memRepo) Put(_ context.Context, name string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[name] = append([]byte(nil), data...)
	return nil
}

func (r *memRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, name)
	return nil
}

func (r *memRepo) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.records))
	for name := range r.records {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MockRepository is a testify mock of document.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context) ([]document.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Record), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRepository) Put(ctx context.Context, name string, data []byte) error {
	args := m.Called(ctx, name, data)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// staticCatalog is a fixed document.Catalog
type staticCatalog struct {
	entries []document.Info
}

func newCatalog(entries ...document.Info) *staticCatalog {
	for i := range entries {
		entries[i].Source = document.SourceBundled
	}
	return &staticCatalog{entries: entries}
}

func (c *staticCatalog) IsBundled(name string) bool {
	_, ok := c.Get(name)
	return ok
}

func (c *staticCatalog) Get(name string) (document.Info, bool) {
	for _, e := range c.entries {
		if e.Name == name {
			e.Data = e.Data.Clone()
			return e, true
		}
	}
	return document.Info{}, false
}

func (c *staticCatalog) All() []document.Info {
	out := make([]document.Info, len(c.entries))
	for i, e := range c.entries {
		e.Data = e.Data.Clone()
		out[i] = e
	}
	return out
}
