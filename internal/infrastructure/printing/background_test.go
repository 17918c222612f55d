package printing

import (
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	t.Run("base64", func(t *testing.T) {
		data, err := decodeDataURI("data:text/plain;base64,b2zDoQ==")
		require.NoError(t, err)
		assert.Equal(t, "olá", string(data))
	})

	t.Run("base64 without padding", func(t *testing.T) {
		data, err := decodeDataURI("data:text/plain;base64,b2zDoQ")
		require.NoError(t, err)
		assert.Equal(t, "olá", string(data))
	})

	t.Run("percent encoded", func(t *testing.T) {
		data, err := decodeDataURI("data:image/svg+xml,%3Csvg%2F%3E")
		require.NoError(t, err)
		assert.Equal(t, "<svg/>", string(data))
	})

	t.Run("missing comma", func(t *testing.T) {
		_, err := decodeDataURI("data:image/png;base64")
		assert.Error(t, err)
	})

	t.Run("corrupt base64", func(t *testing.T) {
		_, err := decodeDataURI("data:image/png;base64,@@@")
		assert.Error(t, err)
	})
}

func TestSourceFetcher_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes data URIs", func(t *testing.T) {
		uri := pngDataURI(t, 2, 2, color.White)
		data, err := SourceFetcher{}.Fetch(ctx, uri)
		require.NoError(t, err)
		_, format, err := decodeImage(data)
		require.NoError(t, err)
		assert.Equal(t, "png", format)
	})

	t.Run("downloads from allowed hosts", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/bg.png" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte("image-bytes"))
		}))
		defer srv.Close()

		f := NewSourceFetcher(WithHTTPClient(srv.Client()), WithAllowedHosts("127.0.0.1"))
		data, err := f.Fetch(ctx, srv.URL+"/bg.png")
		require.NoError(t, err)
		assert.Equal(t, "image-bytes", string(data))

		_, err = f.Fetch(ctx, srv.URL+"/missing.png")
		assert.ErrorContains(t, err, "status 404")
	})

	t.Run("skips hosts that are not allowed", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte("image-bytes"))
		}))
		defer srv.Close()

		for _, f := range []SourceFetcher{
			{},
			NewSourceFetcher(WithHTTPClient(srv.Client())),
			NewSourceFetcher(WithHTTPClient(srv.Client()), WithAllowedHosts("cdn.example.com")),
		} {
			_, err := f.Fetch(ctx, srv.URL+"/bg.png")
			assert.ErrorIs(t, err, errSourceNotAllowed)
		}
		_, err := NewSourceFetcher().Fetch(ctx, "http://169.254.169.254/latest/meta-data/")
		assert.ErrorIs(t, err, errSourceNotAllowed)
		assert.Zero(t, hits.Load())
	})

	t.Run("does not follow redirects off the allowed hosts", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "http://169.254.169.254/latest/meta-data/", http.StatusFound)
		}))
		defer srv.Close()

		f := NewSourceFetcher(WithHTTPClient(srv.Client()), WithAllowedHosts("127.0.0.1"))
		_, err := f.Fetch(ctx, srv.URL+"/bg.png")
		assert.ErrorIs(t, err, errSourceNotAllowed)
	})

	t.Run("reads local files below the background directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "fundos"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "fundos", "receita.png"), []byte("png"), 0o644))
		f := NewSourceFetcher(WithBackgroundDir(dir))

		for _, src := range []string{
			"fundos/receita.png",
			"file:fundos/receita.png",
			"file://" + filepath.ToSlash(filepath.Join(dir, "fundos", "receita.png")),
		} {
			data, err := f.Fetch(ctx, src)
			require.NoError(t, err, src)
			assert.Equal(t, "png", string(data), src)
		}

		for _, src := range []string{"../segredo.png", "file:///etc/passwd", "fundos/../../segredo.png"} {
			_, err := f.Fetch(ctx, src)
			assert.Error(t, err, src)
		}
	})

	t.Run("local files need a background directory", func(t *testing.T) {
		_, err := NewSourceFetcher().Fetch(ctx, "fundos/receita.png")
		assert.ErrorIs(t, err, errSourceNotAllowed)
	})

	t.Run("rejects other schemes", func(t *testing.T) {
		for _, src := range []string{"ftp://host/a.png", "javascript:alert(1)", "  "} {
			_, err := NewSourceFetcher(WithBackgroundDir(t.TempDir())).Fetch(ctx, src)
			assert.True(t, errors.Is(err, errUnsupportedSource), src)
		}
	})
}

func TestSourceFetcher_HostAllowed(t *testing.T) {
	f := NewSourceFetcher(WithAllowedHosts("CDN.example.com", "*.clinica.org", " "))

	assert.True(t, f.hostAllowed("cdn.example.com"))
	assert.True(t, f.hostAllowed("img.clinica.org"))
	assert.True(t, f.hostAllowed("a.b.clinica.org"))
	assert.False(t, f.hostAllowed("clinica.org"))
	assert.False(t, f.hostAllowed("evilclinica.org"))
	assert.False(t, f.hostAllowed("example.com"))
	assert.False(t, f.hostAllowed(""))
}

func TestInlineImage(t *testing.T) {
	uri, ok := inlineImage(pngBytes(t, 1, 1, color.Black))
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	_, ok = inlineImage([]byte("<script>alert(1)</script>"))
	assert.False(t, ok)
}

func TestDecodeImage_RejectsGarbage(t *testing.T) {
	_, _, err := decodeImage([]byte("not an image"))
	assert.Error(t, err)
}
