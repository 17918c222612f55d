// Package catalog provides the bundled, read-only document set that ships
// with the binary.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rxforms/backend/internal/domain/document"
)

//go:embed templates/*
var templateFS embed.FS

const manifestFile = "manifest.yaml"

// idNamespace seeds the stable entry IDs
var idNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8") // URL namespace

// Entry is a bundled document with its catalog metadata
type Entry struct {
	ID          string
	Name        string
	Description string
	File        string
	Model       document.Model
}

// Config configures the catalog
type Config struct {
	// ExternalDir is a directory whose files replace the content of
	// embedded entries by file name, so a deployment can restyle its
	// bundled documents. The manifest always comes from the template tree:
	// the set of bundled names and their order are fixed at build time.
	// Missing files fall back to the embedded copies.
	ExternalDir string
}

type manifest struct {
	Templates []manifestEntry `yaml:"templates"`
}

type manifestEntry struct {
	Name        string `yaml:"name"`
	File        string `yaml:"file"`
	Description string `yaml:"description"`
}

// Catalog is the bundled document set. It implements document.Catalog.
type Catalog struct {
	fsys        fs.FS
	externalDir string
	logger      *zap.Logger

	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

var _ document.Catalog = (*Catalog)(nil)

// Option configures a Catalog
type Option func(*Catalog)

// WithLogger sets the catalog logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFS replaces the embedded template tree. The tree must contain a
// templates/ directory with a manifest.
func WithFS(fsys fs.FS) Option {
	return func(c *Catalog) {
		if fsys != nil {
			c.fsys = fsys
		}
	}
}

// New loads the catalog. It fails if the manifest is invalid or any entry
// does not decode.
func New(cfg *Config, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		fsys:   templateFS,
		logger: zap.NewNop(),
	}
	if cfg != nil {
		c.externalDir = cfg.ExternalDir
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads every entry, picking up changed files in the external
// directory. On failure the previous entries are kept.
func (c *Catalog) Reload() error {
	if err := c.load(); err != nil {
		c.logger.Warn("document catalog reload failed, keeping previous entries", zap.Error(err))
		return err
	}
	return nil
}

func (c *Catalog) load() error {
	raw, err := fs.ReadFile(c.fsys, path.Join("templates", manifestFile))
	if err != nil {
		return fmt.Errorf("failed to read catalog manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("failed to parse catalog manifest: %w", err)
	}

	entries := make([]Entry, 0, len(m.Templates))
	index := make(map[string]int, len(m.Templates))
	for _, t := range m.Templates {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("catalog entry %q has no name", t.File)
		}
		if _, dup := index[t.Name]; dup {
			return fmt.Errorf("catalog entry %q is listed twice", t.Name)
		}

		data, err := c.readFile(t.File)
		if err != nil {
			return fmt.Errorf("failed to read catalog entry %q: %w", t.Name, err)
		}
		model, err := decodeEntry(t.File, data)
		if err != nil {
			return fmt.Errorf("failed to decode catalog entry %q: %w", t.Name, err)
		}

		index[t.Name] = len(entries)
		entries = append(entries, Entry{
			ID:          generateEntryID(t.Name),
			Name:        t.Name,
			Description: t.Description,
			File:        t.File,
			Model:       model,
		})
	}

	c.mu.Lock()
	c.entries = entries
	c.index = index
	c.mu.Unlock()

	c.logger.Info("document catalog loaded", zap.Int("entries", len(entries)))
	return nil
}

// readFile returns a file from the external directory when present,
// otherwise from the template tree.
func (c *Catalog) readFile(name string) ([]byte, error) {
	if c.externalDir != "" {
		external := filepath.Join(c.externalDir, filepath.Base(name))
		if data, err := os.ReadFile(external); err == nil {
			c.logger.Debug("using external catalog file", zap.String("path", external))
			return data, nil
		}
	}
	return fs.ReadFile(c.fsys, path.Join("templates", name))
}

// decodeEntry decodes a JSON or YAML entry. YAML is converted to JSON
// first so both go through document.Decode.
func decodeEntry(file string, data []byte) (document.Model, error) {
	switch strings.ToLower(path.Ext(file)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return document.Model{}, err
		}
		converted, err := json.Marshal(v)
		if err != nil {
			return document.Model{}, err
		}
		data = converted
	case ".json":
	default:
		return document.Model{}, fmt.Errorf("unsupported entry format %q", path.Ext(file))
	}
	return document.Decode(data)
}

// generateEntryID returns a UUID v5 derived from the entry name, so an
// entry keeps its ID across builds.
func generateEntryID(name string) string {
	return uuid.NewSHA1(idNamespace, []byte("rxforms-catalog:"+name)).String()
}

// IsBundled reports whether name belongs to the catalog
func (c *Catalog) IsBundled(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[name]
	return ok
}

// Get returns the bundled document for name, with a copy of its model
func (c *Catalog) Get(name string) (document.Info, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[name]
	if !ok {
		return document.Info{}, false
	}
	return c.entries[i].info(), true
}

// All returns every bundled document in catalog order
func (c *Catalog) All() []document.Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	infos := make([]document.Info, len(c.entries))
	for i, e := range c.entries {
		infos[i] = e.info()
	}
	return infos
}

func (e Entry) info() document.Info {
	return document.Info{
		Name:      e.Name,
		Data:      e.Model.Clone(),
		Source:    document.SourceBundled,
		CatalogID: e.ID,
	}
}

// Entries returns the catalog metadata in catalog order
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		e.Model = e.Model.Clone()
		result[i] = e
	}
	return result
}

// GetByID returns the entry with the given ID
func (c *Catalog) GetByID(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.ID == id {
			e.Model = e.Model.Clone()
			return e, true
		}
	}
	return Entry{}, false
}
