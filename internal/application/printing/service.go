package printing

import (
	"context"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rxforms/backend/internal/domain/document"
	"github.com/rxforms/backend/internal/domain/printing"
	infra "github.com/rxforms/backend/internal/infrastructure/printing"
	"github.com/rxforms/backend/internal/infrastructure/telemetry"
)

// DocumentResolver finds a document of the merged set by name.
// document.Service satisfies it.
type DocumentResolver interface {
	Get(ctx context.Context, name string) (document.Info, error)
}

// OutputSelector returns the back end for a format. infra.Outputs
// satisfies it.
type OutputSelector interface {
	For(format printing.Format) (infra.Output, bool)
}

// Service prints documents: it resolves the model, fills its placeholders,
// renders it with the output for the requested format and archives the
// result when an archive is configured.
type Service struct {
	documents     DocumentResolver
	outputs       OutputSelector
	archive       infra.Archive
	metrics       *telemetry.PrintMetrics
	defaultFormat printing.Format
	logger        *zap.Logger
	now           func() time.Time
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithArchive keeps a copy of every print in archive
func WithArchive(archive infra.Archive) ServiceOption {
	return func(s *Service) {
		s.archive = archive
	}
}

// WithMetrics records renders on m
func WithMetrics(m *telemetry.PrintMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDefaultFormat sets the format used when a request names none
func WithDefaultFormat(f printing.Format) ServiceOption {
	return func(s *Service) {
		if f.IsValid() {
			s.defaultFormat = f
		}
	}
}

// WithClock overrides the time source for print dates and archive folders
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new Service
func NewService(documents DocumentResolver, outputs OutputSelector, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		documents:     documents,
		outputs:       outputs,
		defaultFormat: printing.FormatPDF,
		logger:        logger.Named("print_service"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Print renders the requested document and archives the result
func (s *Service) Print(ctx context.Context, req PrintRequest) (*PrintResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "printing", "print")
	defer span.End()

	format, err := s.format(req.Format)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	jobID := uuid.New()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPrintJobID, jobID.String(),
		telemetry.SpanAttrPrintFormat, format.String(),
	)

	result, err := s.render(ctx, req, format)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("print failed",
			zap.String("job_id", jobID.String()),
			zap.String("format", format.String()),
			zap.Error(err))
		return nil, err
	}

	out := &PrintResult{JobID: jobID, Result: result}
	if s.archive != nil {
		path, err := s.archive.Store(ctx, &infra.ArchiveRequest{
			JobID:  jobID,
			Result: result,
			Time:   s.now(),
		})
		if err != nil {
			telemetry.RecordError(span, err)
			s.logger.Error("print archive failed", zap.String("job_id", jobID.String()), zap.Error(err))
			return nil, err
		}
		out.ArchivePath = path
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrOutputBytes, result.Size())
	s.logger.Info("document printed",
		zap.String("job_id", jobID.String()),
		zap.String("document", documentLabel(req)),
		zap.String("format", format.String()),
		zap.Int("bytes", result.Size()),
		zap.Int("pages", result.Pages),
		zap.String("archive_path", out.ArchivePath))
	return out, nil
}

// Preview renders the requested document as HTML. Previews are never
// archived and the request format is ignored.
func (s *Service) Preview(ctx context.Context, req PrintRequest) (*infra.Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "printing", "preview")
	defer span.End()

	result, err := s.render(ctx, req, printing.FormatHTML)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

func (s *Service) render(ctx context.Context, req PrintRequest, format printing.Format) (*infra.Result, error) {
	output, ok := s.outputs.For(format)
	if !ok {
		return nil, document.NewValidationError(req.Name, "output format "+format.String()+" is not available", nil)
	}

	model, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	page, err := printing.Assemble(model, s.variables(req))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := output.Render(ctx, page)
	s.metrics.RecordRender(ctx, format.String(), time.Since(start), result.Size(), err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) resolve(ctx context.Context, req PrintRequest) (document.Model, error) {
	if req.Model != nil {
		return req.Model.Clone(), nil
	}
	if strings.TrimSpace(req.Name) == "" {
		return document.Model{}, document.NewValidationError("", "a document name or model is required", nil)
	}
	info, err := s.documents.Get(ctx, req.Name)
	if err != nil {
		return document.Model{}, err
	}
	return info.Data, nil
}

func (s *Service) variables(req PrintRequest) map[string]string {
	vars := make(map[string]string, len(req.Variables)+5)
	if req.Patient != nil {
		maps.Copy(vars, BuildVariables(*req.Patient, req.Prescription, s.now()))
	} else if req.Prescription != "" {
		vars[VarPrescription] = req.Prescription
	}
	maps.Copy(vars, req.Variables)
	return vars
}

func (s *Service) format(requested string) (printing.Format, error) {
	if requested == "" {
		return s.defaultFormat, nil
	}
	f := printing.Format(strings.ToLower(strings.TrimSpace(requested)))
	if !f.IsValid() {
		return "", document.NewValidationError("", "unsupported output format "+requested, nil)
	}
	return f, nil
}

func documentLabel(req PrintRequest) string {
	if req.Model != nil {
		return req.Model.Title
	}
	return req.Name
}
