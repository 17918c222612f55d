package document

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rxforms/backend/internal/domain/document"
	"github.com/rxforms/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// Service merges the bundled catalog with the local store and implements
// the document operations exposed to clients.
//
// Name resolution and the write that claims the name run under one mutex,
// so two callers in the same process never obtain the same name.
type Service struct {
	store   *Store
	catalog document.Catalog
	logger  *zap.Logger
	metrics *telemetry.PrintMetrics
	now     func() time.Time

	mu sync.Mutex
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithClock overrides the time source used to stamp documents
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics records write operations on m
func WithMetrics(m *telemetry.PrintMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new Service
func NewService(store *Store, catalog document.Catalog, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:   store,
		catalog: catalog,
		logger:  logger.Named("document_service"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Merge returns the bundled documents in catalog order followed by the
// local documents, most recently changed first. A local document whose
// name is bundled is hidden, not removed.
func (s *Service) Merge(ctx context.Context) ([]document.Info, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "merge")
	defer span.End()

	bundled := s.catalog.All()
	local, err := s.store.List(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	merged := make([]document.Info, 0, len(bundled)+len(local))
	seen := make(map[string]struct{}, len(bundled)+len(local))
	for _, info := range bundled {
		if _, dup := seen[info.Name]; dup {
			continue
		}
		seen[info.Name] = struct{}{}
		merged = append(merged, info)
	}

	visible := make([]document.Info, 0, len(local))
	for _, info := range local {
		if _, dup := seen[info.Name]; dup {
			s.logger.Debug("local document shadowed by bundled entry", zap.String("name", info.Name))
			continue
		}
		seen[info.Name] = struct{}{}
		visible = append(visible, info)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Data.EffectiveTime().After(visible[j].Data.EffectiveTime())
	})

	merged = append(merged, visible...)
	telemetry.SetAttribute(span, telemetry.SpanAttrDocumentCount, len(merged))
	return merged, nil
}

// Filter returns the merged documents whose name or title contains query,
// ignoring case. An empty query matches everything. Merge order is kept.
func (s *Service) Filter(ctx context.Context, query string) ([]document.Info, error) {
	merged, err := s.Merge(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return merged, nil
	}

	fold := cases.Fold()
	needle := fold.String(query)
	matches := make([]document.Info, 0, len(merged))
	for _, info := range merged {
		if strings.Contains(fold.String(info.Name), needle) || strings.Contains(fold.String(info.Data.Title), needle) {
			matches = append(matches, info)
		}
	}
	return matches, nil
}

// Get returns the merged entry for name. Bundled entries take precedence;
// an unreadable local record is reported as absent.
func (s *Service) Get(ctx context.Context, name string) (document.Info, error) {
	if info, ok := s.catalog.Get(name); ok {
		return info, nil
	}

	model, err := s.store.Get(ctx, name)
	if err != nil {
		var perr *document.ParseError
		if errors.As(err, &perr) {
			s.logger.Warn("unreadable document requested", zap.String("name", name), zap.Error(err))
			return document.Info{}, document.NewNotFoundError(name)
		}
		return document.Info{}, err
	}
	return document.Info{Name: name, Data: model, Source: document.SourceLocal}, nil
}

// Import decodes raw and stores it under a fresh name derived from its
// title, or from suggestedBaseName when the title is blank. It returns the
// name the document was stored under.
func (s *Service) Import(ctx context.Context, raw []byte, suggestedBaseName string) (_ string, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "import")
	defer span.End()
	defer func() { s.metrics.RecordDocumentOperation(ctx, "import", err) }()

	model, err := document.Decode(raw)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}

	base := model.Title
	if strings.TrimSpace(base) == "" {
		base = suggestedBaseName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := s.store.GenerateUniqueName(ctx, base, document.SuffixCounter)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}
	model.Touch(s.now())
	if err := s.store.Put(ctx, name, model); err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDocumentName, name,
		telemetry.SpanAttrObjectsCount, len(model.Objects),
	)
	s.logger.Info("document imported", zap.String("name", name), zap.Int("objects", len(model.Objects)))
	return name, nil
}

// Duplicate copies the document called name, bundled or local, into a new
// local document and returns the new name. The copy is titled after its
// name and stamped as created now.
func (s *Service) Duplicate(ctx context.Context, name string) (_ string, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "duplicate")
	defer span.End()
	defer func() { s.metrics.RecordDocumentOperation(ctx, "duplicate", err) }()

	src, err := s.Get(ctx, name)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newName, err := s.store.GenerateUniqueName(ctx, name, document.SuffixCopy)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}

	dup := src.Data.Clone()
	now := s.now()
	dup.Title = newName
	dup.CreatedAt = document.NewTimestamp(now)
	dup.UpdatedAt = document.NewTimestamp(now)
	if err := s.store.Put(ctx, newName, dup); err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}

	s.logger.Info("document duplicated",
		zap.String("source", name),
		zap.String("source_kind", src.Source.String()),
		zap.String("name", newName))
	return newName, nil
}

// Export returns the interchange bytes of the document called name
func (s *Service) Export(ctx context.Context, name string) ([]byte, error) {
	info, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	data, err := document.Encode(info.Data)
	if err != nil {
		return nil, document.NewValidationError(name, "document cannot be encoded", err)
	}
	return data, nil
}

// Save overwrites, or creates, the local document called name. The
// creation time of an existing record is kept when model does not carry one.
func (s *Service) Save(ctx context.Context, name string, model document.Model) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "save")
	defer span.End()
	defer func() { s.metrics.RecordDocumentOperation(ctx, "save", err) }()

	if s.catalog.IsBundled(name) {
		err := document.NewPermissionError(name, "save")
		telemetry.RecordError(span, err)
		return err
	}
	if model.Objects == nil {
		return document.NewValidationError(name, "objects is not an array", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if model.CreatedAt == nil {
		existing, err := s.store.Get(ctx, name)
		switch {
		case err == nil:
			model.CreatedAt = existing.CreatedAt
		case isNotFound(err), isParseError(err):
		default:
			telemetry.RecordError(span, err)
			return err
		}
	}
	model.Touch(s.now())

	if err := s.store.Put(ctx, name, model); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.logger.Info("document saved", zap.String("name", name))
	return nil
}

// Rename moves the local document from to the unused name to. The new
// record is written before the old one is removed.
func (s *Service) Rename(ctx context.Context, from, to string) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "rename")
	defer span.End()
	defer func() { s.metrics.RecordDocumentOperation(ctx, "rename", err) }()

	if s.catalog.IsBundled(from) {
		err := document.NewPermissionError(from, "rename")
		telemetry.RecordError(span, err)
		return err
	}
	if strings.TrimSpace(to) == "" {
		return document.NewValidationError(to, "new name is empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	model, err := s.store.Get(ctx, from)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	taken, err := s.store.Exists(ctx, to)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if taken {
		return document.NewValidationError(to, "name is already in use", nil)
	}

	if err := s.store.Put(ctx, to, model); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := s.store.Delete(ctx, from); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.logger.Info("document renamed", zap.String("from", from), zap.String("to", to))
	return nil
}

// Delete removes the local document called name
func (s *Service) Delete(ctx context.Context, name string) error {
	err := s.store.Delete(ctx, name)
	s.metrics.RecordDocumentOperation(ctx, "delete", err)
	if err != nil {
		return err
	}
	s.logger.Info("document deleted", zap.String("name", name))
	return nil
}

func isNotFound(err error) bool {
	var nf *document.NotFoundError
	return errors.As(err, &nf)
}

func isParseError(err error) bool {
	var pe *document.ParseError
	return errors.As(err, &pe)
}
