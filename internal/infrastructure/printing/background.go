package printing

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoding
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/webp" // register WebP decoding
)

const (
	// maxBackgroundBytes bounds a downloaded or read background image
	maxBackgroundBytes = 20 << 20

	// DefaultFetchTimeout bounds one background download
	DefaultFetchTimeout = 10 * time.Second

	maxFetchRedirects = 5
)

var (
	errUnsupportedSource = errors.New("unsupported image source")
	errSourceNotAllowed  = errors.New("image source is not allowed")
)

// ImageFetcher loads the bytes of a background image source
type ImageFetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// SourceFetcher loads background images. Data URIs are always decoded.
// http(s) sources are downloaded only from allowed hosts, and file: or
// relative sources are read only from below the background directory. The
// zero value accepts data URIs only.
type SourceFetcher struct {
	client       *http.Client
	allowedHosts []string
	dir          string
}

// SourceFetcherOption configures a SourceFetcher
type SourceFetcherOption func(*SourceFetcher)

// WithAllowedHosts sets the hosts backgrounds may be downloaded from. An
// entry "*.example.com" matches every subdomain of example.com.
func WithAllowedHosts(hosts ...string) SourceFetcherOption {
	return func(f *SourceFetcher) {
		for _, h := range hosts {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				f.allowedHosts = append(f.allowedHosts, h)
			}
		}
	}
}

// WithBackgroundDir sets the directory file: and relative sources are read
// from
func WithBackgroundDir(dir string) SourceFetcherOption {
	return func(f *SourceFetcher) {
		f.dir = dir
	}
}

// WithHTTPClient sets the client used for downloads. Its redirect policy
// is replaced so redirects stay on allowed hosts.
func WithHTTPClient(client *http.Client) SourceFetcherOption {
	return func(f *SourceFetcher) {
		if client != nil {
			c := *client
			f.client = &c
		}
	}
}

// WithFetchTimeout sets the timeout of the default download client
func WithFetchTimeout(d time.Duration) SourceFetcherOption {
	return func(f *SourceFetcher) {
		if d > 0 {
			f.client = &http.Client{Timeout: d}
		}
	}
}

// NewSourceFetcher creates a SourceFetcher
func NewSourceFetcher(opts ...SourceFetcherOption) SourceFetcher {
	f := SourceFetcher{client: &http.Client{Timeout: DefaultFetchTimeout}}
	for _, opt := range opts {
		opt(&f)
	}
	f.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxFetchRedirects {
			return errors.New("too many redirects")
		}
		if !f.hostAllowed(req.URL.Hostname()) {
			return fmt.Errorf("redirect to %s: %w", req.URL.Host, errSourceNotAllowed)
		}
		return nil
	}
	return f
}

// Fetch implements ImageFetcher
func (f SourceFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errUnsupportedSource
	}
	if strings.HasPrefix(strings.ToLower(source), "data:") {
		return decodeDataURI(source)
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, errUnsupportedSource
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return f.download(ctx, u)
	case "file", "":
		return f.readLocal(u)
	}
	return nil, errUnsupportedSource
}

func (f SourceFetcher) download(ctx context.Context, u *url.URL) ([]byte, error) {
	if f.client == nil || !f.hostAllowed(u.Hostname()) {
		return nil, fmt.Errorf("background host %q: %w", u.Hostname(), errSourceNotAllowed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download background: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download background: status %d", resp.StatusCode)
	}
	return readLimited(resp.Body)
}

// readLocal reads a file below the background directory. os.Root refuses
// paths and symlinks that lead outside it.
func (f SourceFetcher) readLocal(u *url.URL) ([]byte, error) {
	if f.dir == "" {
		return nil, fmt.Errorf("local background: %w", errSourceNotAllowed)
	}
	if u.Scheme != "" && u.Host != "" && u.Host != "localhost" {
		return nil, errUnsupportedSource
	}
	name := u.Path
	if u.Opaque != "" {
		name = u.Opaque
	}
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) {
		base, err := filepath.Abs(f.dir)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(base, name)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("local background %q: %w", name, errSourceNotAllowed)
		}
		name = rel
	}

	root, err := os.OpenRoot(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open background directory: %w", err)
	}
	defer func() { _ = root.Close() }()

	file, err := root.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open background: %w", err)
	}
	defer func() { _ = file.Close() }()
	return readLimited(file)
}

func (f SourceFetcher) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	if host == "" {
		return false
	}
	for _, allowed := range f.allowedHosts {
		if suffix, ok := strings.CutPrefix(allowed, "*."); ok {
			if strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBackgroundBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read background: %w", err)
	}
	if len(data) > maxBackgroundBytes {
		return nil, errors.New("background image is too large")
	}
	return data, nil
}

// decodeDataURI returns the payload of a data URI. Base64 payloads are
// decoded; others are percent-decoded.
func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, errors.New("invalid data URI format")
	}
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop the padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data URI: %w", err)
		}
		return data, nil
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid data URI payload: %w", err)
	}
	return []byte(decoded), nil
}

// inlineImage encodes image bytes as a data URI. Anything that does not
// sniff as an image is refused.
func inlineImage(data []byte) (string, bool) {
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", false
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), true
}

// decodeImage decodes a background in any registered format and returns
// the format name
func decodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode background: %w", err)
	}
	return img, format, nil
}
