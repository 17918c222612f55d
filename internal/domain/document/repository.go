package document

import (
	"context"
	"strings"
)

// KeyPrefix is prepended to a document name to form its persisted key.
// The name is used verbatim: names that differ only by case or accents
// map to distinct keys.
const KeyPrefix = "rxforms.document:"

// Key returns the persisted key for a document name
func Key(name string) string {
	return KeyPrefix + name
}

// NameFromKey returns the document name encoded in a persisted key.
// It reports false for keys outside the document keyspace.
func NameFromKey(key string) (string, bool) {
	return strings.CutPrefix(key, KeyPrefix)
}

// Record is a persisted document as stored: its name and undecoded bytes
type Record struct {
	Name string
	Data []byte
}

// Repository is the storage port for local documents. Implementations map
// each name to Key(name), overwrite atomically on Put, treat Delete of an
// absent name as success, and return ErrRecordNotFound from Get when no
// record exists. List returns records in ascending key order.
type Repository interface {
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// Catalog is the read-only set of bundled documents
type Catalog interface {
	// IsBundled reports whether name belongs to the catalog
	IsBundled(name string) bool
	// Get returns the bundled document for name, with a copy of its model
	Get(name string) (Info, bool)
	// All returns every bundled document in catalog order
	All() []Info
}
