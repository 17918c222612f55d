package printing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/rxforms/backend/internal/domain/document"
	"github.com/rxforms/backend/internal/domain/printing"
)

const (
	defaultChromeTimeout = 30 * time.Second

	// closeGraceDelay keeps a finished target open briefly so a print
	// spooler attached to it can finish reading
	closeGraceDelay = 2 * time.Second

	chromeTargetName = "chromedp"
)

// waitForImages resolves once every image in the document has loaded or
// failed
const waitForImages = `Promise.all(Array.from(document.images).map(function (img) {
	return img.complete ? null : new Promise(function (resolve) { img.onload = img.onerror = resolve; });
}))`

// ChromedpConfig contains configuration for the chromedp output
type ChromedpConfig struct {
	// Timeout bounds a single render
	Timeout time.Duration
	// RemoteURL is the DevTools websocket URL of a running browser.
	// If empty, a local browser is launched.
	RemoteURL string
	// ExecPath overrides the browser binary
	ExecPath string
	// Headless mode
	Headless bool
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpOutput prints pages to PDF through the Chrome DevTools Protocol.
// Every render opens its own browser target.
type ChromedpOutput struct {
	config      ChromedpConfig
	markup      *MarkupBuilder
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpOutput creates a chromedp-based PDF output
func NewChromedpOutput(config ChromedpConfig, markup *MarkupBuilder) *ChromedpOutput {
	if config.Timeout <= 0 {
		config.Timeout = defaultChromeTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if markup == nil {
		markup = NewMarkupBuilder()
	}

	o := &ChromedpOutput{
		config: config,
		markup: markup,
		logger: logger,
	}
	o.initAllocator()
	return o
}

func (o *ChromedpOutput) initAllocator() {
	if o.config.RemoteURL != "" {
		o.allocCtx, o.allocCancel = chromedp.NewRemoteAllocator(context.Background(), o.config.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if o.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if o.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.config.ExecPath))
	}
	o.allocCtx, o.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// Render implements Output. A target that cannot be acquired yields a
// *document.PlatformError and nothing is printed.
func (o *ChromedpOutput) Render(ctx context.Context, p *printing.Page) (*Result, error) {
	if err := validatePage(p); err != nil {
		return nil, err
	}
	markup, err := o.markup.Build(ctx, p)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	targetCtx, closeTarget := chromedp.NewContext(o.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			o.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	runCtx, cancelRun := context.WithTimeout(targetCtx, o.config.Timeout)
	stop := context.AfterFunc(ctx, cancelRun)
	release := func() {
		stop()
		cancelRun()
		closeTarget()
	}

	// Running no actions only allocates the browser and the target
	if err := chromedp.Run(runCtx); err != nil {
		release()
		return nil, document.NewPlatformError(chromeTargetName, err)
	}

	params := buildPrintParams(p)
	var pdfData []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, string(markup)).Do(ctx)
		}),
		chromedp.Evaluate(waitForImages, nil, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(params.paperWidth).
				WithPaperHeight(params.paperHeight).
				WithMarginTop(0).
				WithMarginRight(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfData = data
			return nil
		}),
	)
	if err != nil {
		timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)
		release()
		switch {
		case timedOut:
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF rendering timed out after %v", o.config.Timeout), err)
		case ctx.Err() != nil:
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", ctx.Err())
		}
		o.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}
	if len(pdfData) == 0 {
		release()
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	go closeAfterGrace(ctx, release)

	duration := time.Since(start)
	pages := estimatePageCount(pdfData)
	o.logger.Debug("PDF rendered",
		zap.Int("bytes", len(pdfData)),
		zap.Int("pages", pages),
		zap.Duration("duration", duration))

	return &Result{
		Data:        pdfData,
		ContentType: printing.FormatPDF.ContentType(),
		Extension:   "pdf",
		Pages:       pages,
		Duration:    duration,
	}, nil
}

// closeAfterGrace closes a finished target after the grace delay, or as
// soon as ctx is cancelled
func closeAfterGrace(ctx context.Context, closeTarget func()) {
	timer := time.NewTimer(closeGraceDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	closeTarget()
}

// printParams holds the page size sent to printToPDF, in inches
type printParams struct {
	paperWidth  float64
	paperHeight float64
}

// buildPrintParams sizes the sheet from the page. The page dimensions are
// already oriented, so landscape is never requested separately.
func buildPrintParams(p *printing.Page) printParams {
	return printParams{
		paperWidth:  printing.MMToInches(p.WidthMM),
		paperHeight: printing.MMToInches(p.HeightMM),
	}
}

// Close releases the browser allocator
func (o *ChromedpOutput) Close() error {
	if o.allocCancel != nil {
		o.allocCancel()
	}
	return nil
}

var _ Output = (*ChromedpOutput)(nil)
