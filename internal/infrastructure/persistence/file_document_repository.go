package persistence

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/rxforms/backend/internal/domain/document"
)

const documentFileExt = ".record"

var _ document.Repository = (*FileDocumentRepository)(nil)

// FileDocumentRepository stores one file per document in a directory.
// A file is named after the SHA-256 of the document key, which keeps names
// short and distinct on case-insensitive file systems. Its first line is
// the quoted key; the record bytes follow unchanged.
type FileDocumentRepository struct {
	dir string
}

// NewFileDocumentRepository creates the directory if needed and returns a
// repository rooted at it
func NewFileDocumentRepository(dir string) (*FileDocumentRepository, error) {
	if dir == "" {
		return nil, errors.New("document directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	return &FileDocumentRepository{dir: dir}, nil
}

func documentFileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + documentFileExt
}

func (r *FileDocumentRepository) path(name string) string {
	return filepath.Join(r.dir, documentFileName(document.Key(name)))
}

// encodeDocumentFile prefixes data with the key line
func encodeDocumentFile(key string, data []byte) []byte {
	header := strconv.Quote(key)
	out := make([]byte, 0, len(header)+1+len(data))
	out = append(out, header...)
	out = append(out, '\n')
	return append(out, data...)
}

// decodeDocumentFile splits a stored file into its key and record bytes
func decodeDocumentFile(raw []byte) (string, []byte, bool) {
	line, data, found := bytes.Cut(raw, []byte{'\n'})
	if !found {
		return "", nil, false
	}
	key, err := strconv.Unquote(string(line))
	if err != nil {
		return "", nil, false
	}
	return key, data, true
}

// List returns every stored document ordered by key. Files that do not
// hold a document key under their own file name are ignored.
func (r *FileDocumentRepository) List(ctx context.Context) ([]document.Record, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read document directory: %w", err)
	}

	type keyed struct {
		key    string
		record document.Record
	}
	found := make([]keyed, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), documentFileExt) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read document file %q: %w", entry.Name(), err)
		}
		key, data, ok := decodeDocumentFile(raw)
		if !ok || documentFileName(key) != entry.Name() {
			continue
		}
		name, ok := document.NameFromKey(key)
		if !ok {
			continue
		}
		found = append(found, keyed{key: key, record: document.Record{Name: name, Data: data}})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].key < found[j].key })
	records := make([]document.Record, len(found))
	for i, f := range found {
		records[i] = f.record
	}
	return records, nil
}

// Get returns the stored bytes for name
func (r *FileDocumentRepository) Get(_ context.Context, name string) ([]byte, error) {
	raw, err := os.ReadFile(r.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, document.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read document %q: %w", name, err)
	}
	key, data, ok := decodeDocumentFile(raw)
	if !ok || key != document.Key(name) {
		return nil, fmt.Errorf("document file for %q is corrupt", name)
	}
	return data, nil
}

// Put writes the record through a temporary file and rename, so readers
// never observe a partial document
func (r *FileDocumentRepository) Put(_ context.Context, name string, data []byte) error {
	raw := encodeDocumentFile(document.Key(name), data)
	if err := atomic.WriteFile(r.path(name), bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("failed to write document %q: %w", name, err)
	}
	return nil
}

// Delete removes the record for name. Deleting an absent record succeeds.
func (r *FileDocumentRepository) Delete(_ context.Context, name string) error {
	if err := os.Remove(r.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete document %q: %w", name, err)
	}
	return nil
}
