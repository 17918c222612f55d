package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rxforms/backend/internal/domain/document"
	"go.uber.org/zap"
)

// Store persists local documents through a document.Repository and guards
// the names owned by the bundled catalog.
type Store struct {
	repo    document.Repository
	catalog document.Catalog
	logger  *zap.Logger
}

// NewStore creates a new Store
func NewStore(repo document.Repository, catalog document.Catalog, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		repo:    repo,
		catalog: catalog,
		logger:  logger.Named("document_store"),
	}
}

// List returns every readable local document in repository scan order.
// Records that fail to decode are logged and skipped.
func (s *Store) List(ctx context.Context) ([]document.Info, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	infos := make([]document.Info, 0, len(records))
	for _, rec := range records {
		model, err := document.Decode(rec.Data)
		if err != nil {
			s.logger.Warn("skipping unreadable document",
				zap.String("name", rec.Name),
				zap.Error(document.NewParseError(rec.Name, err)))
			continue
		}
		infos = append(infos, document.Info{Name: rec.Name, Data: model, Source: document.SourceLocal})
	}
	return infos, nil
}

// Get returns the local document stored under name
func (s *Store) Get(ctx context.Context, name string) (document.Model, error) {
	data, err := s.repo.Get(ctx, name)
	if err != nil {
		if errors.Is(err, document.ErrRecordNotFound) {
			return document.Model{}, document.NewNotFoundError(name)
		}
		return document.Model{}, fmt.Errorf("failed to get document: %w", err)
	}
	model, err := document.Decode(data)
	if err != nil {
		return document.Model{}, document.NewParseError(name, err)
	}
	return model, nil
}

// Put stores model under name, replacing any previous record
func (s *Store) Put(ctx context.Context, name string, model document.Model) error {
	if strings.TrimSpace(name) == "" {
		return document.NewValidationError(name, "name is empty", nil)
	}
	if s.catalog.IsBundled(name) {
		return document.NewPermissionError(name, "overwrite")
	}

	data, err := document.Encode(model)
	if err != nil {
		return document.NewValidationError(name, "document cannot be encoded", err)
	}
	if err := s.repo.Put(ctx, name, data); err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

// Delete removes the local document stored under name. Removing an
// absent document succeeds; removing a bundled one never does.
func (s *Store) Delete(ctx context.Context, name string) error {
	if s.catalog.IsBundled(name) {
		return document.NewPermissionError(name, "delete")
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Exists reports whether name is used by the catalog or by a stored record,
// readable or not.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if s.catalog.IsBundled(name) {
		return true, nil
	}
	_, err := s.repo.Get(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, document.ErrRecordNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check document: %w", err)
	}
}

// GenerateUniqueName returns base, or the first policy-decorated variant of
// base, that is used neither by the catalog nor by a stored record.
// Unreadable records still hold their name.
func (s *Store) GenerateUniqueName(ctx context.Context, base string, policy document.SuffixPolicy) (string, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list documents: %w", err)
	}
	stored := make(map[string]struct{}, len(records))
	for _, rec := range records {
		stored[rec.Name] = struct{}{}
	}

	name := document.UniqueName(base, policy, func(candidate string) bool {
		if s.catalog.IsBundled(candidate) {
			return true
		}
		_, ok := stored[candidate]
		return ok
	})
	return name, nil
}
