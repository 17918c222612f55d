package printing

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/rxforms/backend/internal/domain/printing"
	"github.com/rxforms/backend/internal/infrastructure/config"
	"github.com/rxforms/backend/internal/infrastructure/storage"
)

// Outputs holds one back end per format
type Outputs struct {
	byFormat map[printing.Format]Output
	closers  []io.Closer
}

// NewOutputs wires the back ends selected by cfg. HTML and PNG are always
// available; PDF uses chromedp or gofpdf.
func NewOutputs(cfg config.PrintingConfig, logger *zap.Logger) *Outputs {
	if logger == nil {
		logger = zap.NewNop()
	}
	fetcher := NewBackgroundFetcher(cfg)
	markup := NewMarkupBuilder(WithMarkupImageFetcher(fetcher))
	o := &Outputs{byFormat: map[printing.Format]Output{
		printing.FormatHTML: NewHTMLOutput(markup),
		printing.FormatPNG:  NewRasterOutput(WithRasterLogger(logger), WithRasterImageFetcher(fetcher)),
	}}

	switch cfg.PDFEngine {
	case config.PDFEngineGofpdf:
		o.byFormat[printing.FormatPDF] = NewPDFOutput(WithPDFLogger(logger), WithPDFImageFetcher(fetcher))
	default:
		chrome := NewChromedpOutput(ChromedpConfig{
			Timeout:   cfg.RenderTimeout,
			RemoteURL: cfg.ChromeRemoteURL,
			ExecPath:  cfg.ChromePath,
			Headless:  cfg.Headless,
			NoSandbox: cfg.NoSandbox,
			Logger:    logger.Named("chromedp"),
		}, markup)
		o.byFormat[printing.FormatPDF] = chrome
		o.closers = append(o.closers, chrome)
	}
	return o
}

// NewBackgroundFetcher builds the fetcher shared by every back end from
// the background settings of cfg
func NewBackgroundFetcher(cfg config.PrintingConfig) SourceFetcher {
	return NewSourceFetcher(
		WithFetchTimeout(cfg.FetchTimeout),
		WithAllowedHosts(cfg.AllowedBackgroundHosts...),
		WithBackgroundDir(cfg.BackgroundDir),
	)
}

// NewOutputsFrom builds an Outputs from explicit back ends
func NewOutputsFrom(byFormat map[printing.Format]Output) *Outputs {
	o := &Outputs{byFormat: make(map[printing.Format]Output, len(byFormat))}
	for f, out := range byFormat {
		o.byFormat[f] = out
		if c, ok := out.(io.Closer); ok {
			o.closers = append(o.closers, c)
		}
	}
	return o
}

// For returns the back end for format
func (o *Outputs) For(format printing.Format) (Output, bool) {
	out, ok := o.byFormat[format]
	return out, ok
}

// Close releases back ends that hold resources
func (o *Outputs) Close() error {
	var errs []error
	for _, c := range o.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewArchive returns the archive selected by cfg.Printing.ArchiveDriver, or
// nil when archiving is disabled
func NewArchive(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Archive, error) {
	switch cfg.Printing.ArchiveDriver {
	case config.ArchiveDriverNone, "":
		return nil, nil
	case config.ArchiveDriverFile:
		archive, err := NewFileSystemArchive(cfg.Printing.ArchiveDir, logger)
		if err != nil {
			return nil, err
		}
		return archive, nil
	case config.ArchiveDriverS3:
		store, err := storage.NewS3ObjectStorage(&cfg.S3, storage.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return NewObjectArchive(store, cfg.Printing.ArchivePrefix, logger), nil
	}
	return nil, fmt.Errorf("unsupported archive driver %q", cfg.Printing.ArchiveDriver)
}
