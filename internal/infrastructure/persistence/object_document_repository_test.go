package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxforms/backend/internal/domain/document"
	"github.com/rxforms/backend/internal/infrastructure/storage"
)

// flakyStore fails GetObject for the configured keys
type flakyStore struct {
	*storage.MemoryObjectStorage
	fail map[string]error
}

func (s *flakyStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	if err, ok := s.fail[key]; ok {
		return nil, err
	}
	return s.MemoryObjectStorage.GetObject(ctx, key)
}

func TestObjectDocumentRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("stores documents under the prefix as JSON", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		repo := NewObjectDocumentRepository(store, "clinic-a")
		require.NoError(t, repo.Put(ctx, "Receita", []byte(`{"objects":[]}`)))

		key := "clinic-a/" + document.Key("Receita")
		ct, ok := store.ContentType(key)
		require.True(t, ok)
		assert.Equal(t, "application/json", ct)
	})

	t.Run("list ignores objects outside the keyspace", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		require.NoError(t, store.PutObject(ctx, "documents/readme.txt", []byte("x"), "text/plain"))
		require.NoError(t, store.PutObject(ctx, "prints/2024/01/a.pdf", []byte("x"), "application/pdf"))
		repo := NewObjectDocumentRepository(store, "")
		require.NoError(t, repo.Put(ctx, "Receita", []byte(`{"objects":[]}`)))

		records, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Receita", records[0].Name)
	})

	t.Run("list skips objects deleted after listing", func(t *testing.T) {
		mem := storage.NewMemoryObjectStorage()
		store := &flakyStore{MemoryObjectStorage: mem, fail: map[string]error{
			DefaultDocumentObjectPrefix + document.Key("Gone"): storage.ErrObjectNotFound,
		}}
		repo := NewObjectDocumentRepository(store, "")
		require.NoError(t, repo.Put(ctx, "Gone", []byte(`{"objects":[]}`)))
		require.NoError(t, repo.Put(ctx, "Kept", []byte(`{"objects":[]}`)))

		records, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Kept", records[0].Name)
	})

	t.Run("other fetch errors fail the listing", func(t *testing.T) {
		boom := errors.New("boom")
		mem := storage.NewMemoryObjectStorage()
		store := &flakyStore{MemoryObjectStorage: mem, fail: map[string]error{
			DefaultDocumentObjectPrefix + document.Key("Broken"): boom,
		}}
		repo := NewObjectDocumentRepository(store, "")
		require.NoError(t, repo.Put(ctx, "Broken", []byte(`{"objects":[]}`)))

		_, err := repo.List(ctx)
		assert.ErrorIs(t, err, boom)
		_, err = repo.Get(ctx, "Broken")
		assert.ErrorIs(t, err, boom)
	})
}

func TestMemoryDocumentRepository_CopiesBytes(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDocumentRepository()
	data := []byte(`{"objects":[]}`)
	require.NoError(t, repo.Put(ctx, "Receita", data))
	data[0] = 'X'

	got, err := repo.Get(ctx, "Receita")
	require.NoError(t, err)
	assert.Equal(t, `{"objects":[]}`, string(got))

	got[0] = 'Y'
	again, err := repo.Get(ctx, "Receita")
	require.NoError(t, err)
	assert.Equal(t, `{"objects":[]}`, string(again))
}
