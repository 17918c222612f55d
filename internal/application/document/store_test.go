package document_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	app "github.com/rxforms/backend/internal/application/document"
	"github.com/rxforms/backend/internal/domain/document"
)

func mustEncode(t *testing.T, m document.Model) []byte {
	t.Helper()
	data, err := document.Encode(m)
	require.NoError(t, err)
	return data
}

func TestStore_List_SkipsUnreadableRecords(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	require.NoError(t, repo.Put(ctx, "Corrompido", []byte(`{"title":"x","objects":`)))
	require.NoError(t, repo.Put(ctx, "Sem objetos", []byte(`{"title":"x"}`)))
	require.NoError(t, repo.Put(ctx, "Valido", mustEncode(t, document.Model{Title: "Valido", Objects: []document.Object{}})))

	store := app.NewStore(repo, newCatalog(), nil)
	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "Valido", infos[0].Name)
	assert.Equal(t, document.SourceLocal, infos[0].Source)

	// the unreadable records are left in place
	assert.ElementsMatch(t, []string{"Corrompido", "Sem objetos", "Valido"}, repo.names())
}

func TestStore_List_ReadsLegacyRecords(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	legacy := `{"title":"Legado","objects":[{"id":"a","x":"10","y":"20","width":"100","height":"30"}],` +
		`"createdAt":"2024-05-01","fontSize":"14","pageMargin":"10","author":"dr"}`
	require.NoError(t, repo.Put(ctx, "Legado", []byte(legacy)))

	store := app.NewStore(repo, newCatalog(), nil)
	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)

	m := infos[0].Data
	assert.Equal(t, "Legado", infos[0].Name)
	assert.Equal(t, 14.0, m.FontSize)
	assert.Equal(t, 10.0, m.PageMargin)
	require.NotNil(t, m.CreatedAt)
	assert.Equal(t, 2024, m.CreatedAt.Year())
	require.Len(t, m.Objects, 1)
	assert.Equal(t, 100.0, m.Objects[0].Width)

	got, err := store.Get(ctx, "Legado")
	require.NoError(t, err)
	assert.Equal(t, "Legado", got.Title)
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	require.NoError(t, repo.Put(ctx, "Quebrado", []byte(`nope`)))
	store := app.NewStore(repo, newCatalog(), nil)

	t.Run("absent record", func(t *testing.T) {
		_, err := store.Get(ctx, "Nada")
		var nf *document.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "Nada", nf.Name)
	})

	t.Run("unreadable record", func(t *testing.T) {
		_, err := store.Get(ctx, "Quebrado")
		var pe *document.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, document.CodeParse, pe.ErrorCode())
	})
}

func TestStore_PutAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	catalog := newCatalog(document.Info{Name: "Atestado", Data: document.Model{Title: "Atestado", Objects: []document.Object{}}})
	store := app.NewStore(repo, catalog, nil)

	t.Run("put over a bundled name is refused", func(t *testing.T) {
		err := store.Put(ctx, "Atestado", document.Model{Objects: []document.Object{}})
		var pe *document.PermissionError
		require.ErrorAs(t, err, &pe)
		assert.Empty(t, repo.names())
	})

	t.Run("put with an empty name is refused", func(t *testing.T) {
		err := store.Put(ctx, "  ", document.Model{Objects: []document.Object{}})
		var ve *document.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("put overwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "Receita", document.Model{Title: "v1", Objects: []document.Object{}}))
		require.NoError(t, store.Put(ctx, "Receita", document.Model{Title: "v2", Objects: []document.Object{}}))
		m, err := store.Get(ctx, "Receita")
		require.NoError(t, err)
		assert.Equal(t, "v2", m.Title)
	})

	t.Run("delete of a bundled name is refused", func(t *testing.T) {
		err := store.Delete(ctx, "Atestado")
		var pe *document.PermissionError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "delete", pe.Op)
		assert.True(t, catalog.IsBundled("Atestado"))
		assert.Equal(t, []string{"Receita"}, repo.names())
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "Receita"))
		require.NoError(t, store.Delete(ctx, "Receita"))
		assert.Empty(t, repo.names())
	})
}

func TestStore_GenerateUniqueName(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	catalog := newCatalog(document.Info{Name: "Receita", Data: document.Model{Objects: []document.Object{}}})
	store := app.NewStore(repo, catalog, nil)

	name, err := store.GenerateUniqueName(ctx, "Nova", document.SuffixCounter)
	require.NoError(t, err)
	assert.Equal(t, "Nova", name)

	// collisions are counted across catalog and store, unreadable records included
	require.NoError(t, repo.Put(ctx, "Receita (1)", []byte("garbage")))
	name, err = store.GenerateUniqueName(ctx, "Receita", document.SuffixCounter)
	require.NoError(t, err)
	assert.Equal(t, "Receita (2)", name)

	name, err = store.GenerateUniqueName(ctx, "Receita", document.SuffixCopy)
	require.NoError(t, err)
	assert.Equal(t, "Receita (cópia 1)", name)

	name, err = store.GenerateUniqueName(ctx, "", document.SuffixCounter)
	require.NoError(t, err)
	assert.Equal(t, document.DefaultBaseName, name)
}

func TestStore_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")

	repo := new(MockRepository)
	repo.On("List", mock.Anything).Return(nil, boom)
	repo.On("Get", mock.Anything, "x").Return(nil, boom)
	repo.On("Put", mock.Anything, "x", mock.Anything).Return(boom)
	repo.On("Delete", mock.Anything, "x").Return(boom)

	store := app.NewStore(repo, newCatalog(), nil)

	_, err := store.List(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = store.Get(ctx, "x")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, store.Put(ctx, "x", document.Model{Objects: []document.Object{}}), boom)
	assert.ErrorIs(t, store.Delete(ctx, "x"), boom)
	_, err = store.GenerateUniqueName(ctx, "x", document.SuffixCounter)
	assert.ErrorIs(t, err, boom)
	_, err = store.Exists(ctx, "x")
	assert.ErrorIs(t, err, boom)

	repo.AssertExpectations(t)
}
