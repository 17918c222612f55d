package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxforms/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add documents index", "add_documents_index"},
		{"Add-Documents-Index", "add_documents_index"},
		{"ADD__DOCUMENTS", "add_documents"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create documents", "Documents table")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_documents.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_documents.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: create documents")
	assert.Contains(t, string(up), "-- Description: Documents table")

	second, err := CreateMigration(dir, "add updated index", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_later.up.sql":       {},
		"000010_later.down.sql":     {},
		"000002_second.up.sql":      {},
		"000002_second.down.sql":    {},
		"000001_first.up.sql":       {},
		"README.md":                 {},
		"notes.up.sql":              {},
		"000003_dir/keep.up.sql":    {},
		"000004_only_down.down.sql": {},
	}

	got, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_first", "000002_second", "000010_later"}, got)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	got, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	assert.Equal(t, "000001_create_documents", ups[0])

	for _, base := range ups {
		_, err := migrations.FS.ReadFile(base + ".down.sql")
		assert.NoError(t, err, "missing rollback for %s", base)
	}
}
