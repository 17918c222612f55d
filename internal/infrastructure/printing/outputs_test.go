package printing

import (
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxforms/backend/internal/domain/document"
	domain "github.com/rxforms/backend/internal/domain/printing"
	"github.com/rxforms/backend/internal/infrastructure/config"
)

func TestNewOutputs(t *testing.T) {
	t.Run("gofpdf engine", func(t *testing.T) {
		o := NewOutputs(config.PrintingConfig{PDFEngine: config.PDFEngineGofpdf}, nil)
		defer func() { _ = o.Close() }()

		pdf, ok := o.For(domain.FormatPDF)
		require.True(t, ok)
		assert.IsType(t, &PDFOutput{}, pdf)

		html, ok := o.For(domain.FormatHTML)
		require.True(t, ok)
		assert.IsType(t, &HTMLOutput{}, html)

		png, ok := o.For(domain.FormatPNG)
		require.True(t, ok)
		assert.IsType(t, &RasterOutput{}, png)
	})

	t.Run("chromedp engine is the default", func(t *testing.T) {
		o := NewOutputs(config.PrintingConfig{}, nil)
		pdf, ok := o.For(domain.FormatPDF)
		require.True(t, ok)
		assert.IsType(t, &ChromedpOutput{}, pdf)
		assert.NoError(t, o.Close())
	})

	t.Run("unknown format", func(t *testing.T) {
		o := NewOutputs(config.PrintingConfig{PDFEngine: config.PDFEngineGofpdf}, nil)
		_, ok := o.For(domain.Format("docx"))
		assert.False(t, ok)
	})
}

func TestNewOutputs_BackgroundHosts(t *testing.T) {
	ctx := context.Background()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(pngBytes(t, 2, 2, color.White))
	}))
	defer srv.Close()

	page := samplePage(t, document.OrientationPortrait)
	page.Background = &domain.Background{Source: srv.URL + "/bg.png", Opacity: 1}

	t.Run("hosts that are not allowed are never contacted", func(t *testing.T) {
		o := NewOutputs(config.PrintingConfig{PDFEngine: config.PDFEngineGofpdf}, nil)
		for _, format := range []domain.Format{domain.FormatPDF, domain.FormatPNG, domain.FormatHTML} {
			out, ok := o.For(format)
			require.True(t, ok)
			res, err := out.Render(ctx, page)
			require.NoError(t, err, format)
			assert.NotEmpty(t, res.Data)
		}
		assert.Zero(t, hits.Load())
	})

	t.Run("allowed hosts are inlined into the markup", func(t *testing.T) {
		o := NewOutputs(config.PrintingConfig{
			PDFEngine:              config.PDFEngineGofpdf,
			AllowedBackgroundHosts: []string{"127.0.0.1"},
			FetchTimeout:           time.Second,
		}, nil)
		out, ok := o.For(domain.FormatHTML)
		require.True(t, ok)
		res, err := out.Render(ctx, page)
		require.NoError(t, err)
		assert.Contains(t, string(res.Data), `src="data:image/png;base64,`)
		assert.Equal(t, int32(1), hits.Load())
	})
}

func TestNewBackgroundFetcher(t *testing.T) {
	f := NewBackgroundFetcher(config.PrintingConfig{
		AllowedBackgroundHosts: []string{"*.clinica.org"},
		BackgroundDir:          "/srv/fundos",
		FetchTimeout:           3 * time.Second,
	})
	assert.True(t, f.hostAllowed("img.clinica.org"))
	assert.False(t, f.hostAllowed("169.254.169.254"))
	assert.Equal(t, "/srv/fundos", f.dir)
	assert.Equal(t, 3*time.Second, f.client.Timeout)
}

type closingOutput struct {
	HTMLOutput
	err error
}

func (c *closingOutput) Close() error { return c.err }

func TestNewOutputsFrom_ClosesClosers(t *testing.T) {
	o := NewOutputsFrom(map[domain.Format]Output{
		domain.FormatHTML: NewHTMLOutput(nil),
		domain.FormatPDF:  &closingOutput{err: errors.New("browser gone")},
	})
	_, ok := o.For(domain.FormatPDF)
	assert.True(t, ok)
	assert.ErrorContains(t, o.Close(), "browser gone")
}

func TestNewArchive(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		for _, driver := range []string{"", config.ArchiveDriverNone} {
			archive, err := NewArchive(ctx, &config.Config{Printing: config.PrintingConfig{ArchiveDriver: driver}}, nil)
			require.NoError(t, err)
			assert.Nil(t, archive)
		}
	})

	t.Run("file", func(t *testing.T) {
		cfg := &config.Config{Printing: config.PrintingConfig{
			ArchiveDriver: config.ArchiveDriverFile,
			ArchiveDir:    t.TempDir(),
		}}
		archive, err := NewArchive(ctx, cfg, nil)
		require.NoError(t, err)
		assert.IsType(t, &FileSystemArchive{}, archive)
	})

	t.Run("file without directory", func(t *testing.T) {
		cfg := &config.Config{Printing: config.PrintingConfig{ArchiveDriver: config.ArchiveDriverFile}}
		archive, err := NewArchive(ctx, cfg, nil)
		require.Error(t, err)
		assert.Nil(t, archive)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &config.Config{Printing: config.PrintingConfig{ArchiveDriver: "ftp"}}
		_, err := NewArchive(ctx, cfg, nil)
		assert.ErrorContains(t, err, `unsupported archive driver "ftp"`)
	})
}
