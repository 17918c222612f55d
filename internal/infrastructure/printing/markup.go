package printing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/rxforms/backend/internal/domain/printing"
)

const (
	defaultFontFamily = "Arial, Helvetica, sans-serif"
	defaultFontSizePx = 14.0
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
@page { size: {{.Width}} {{.Height}}; margin: 0; }
html, body { margin: 0; padding: 0; }
.page { position: relative; width: {{.Width}}; height: {{.Height}}; overflow: hidden; font-family: {{.FontFamily}}; font-size: {{.FontSize}}; }
.page-bg { position: absolute; left: 0; top: 0; width: 100%; height: 100%; object-fit: fill; }
.page-body { position: absolute; left: {{.Margin}}; top: {{.Margin}}; right: 0; bottom: 0; }
.obj { position: absolute; box-sizing: border-box; display: flex; flex-direction: column; white-space: pre-wrap; word-wrap: break-word; overflow: hidden; }
</style>
</head>
<body>
<div class="page">
{{- with .Background}}
<img class="page-bg" src="{{.Source}}" style="opacity: {{.Opacity}};" alt="">
{{- end}}
<div class="page-body">
{{- range .Objects}}
<div class="obj" data-id="{{.ID}}" style="{{.Style}}">{{.Text}}</div>
{{- end}}
</div>
</div>
</body>
</html>
`

// MarkupBuilder turns a page into a standalone HTML document. Text is
// escaped by html/template; style values are produced from validated
// numbers and colors only. The background is inlined as a data URI, so
// the document never references anything outside itself.
type MarkupBuilder struct {
	tmpl    *template.Template
	fetcher ImageFetcher
}

// MarkupOption configures a MarkupBuilder
type MarkupOption func(*MarkupBuilder)

// WithMarkupImageFetcher sets how background images are loaded
func WithMarkupImageFetcher(f ImageFetcher) MarkupOption {
	return func(b *MarkupBuilder) {
		if f != nil {
			b.fetcher = f
		}
	}
}

// NewMarkupBuilder creates a MarkupBuilder. Without a fetcher only data
// URI backgrounds are drawn.
func NewMarkupBuilder(opts ...MarkupOption) *MarkupBuilder {
	b := &MarkupBuilder{
		tmpl:    template.Must(template.New("page").Parse(pageTemplate)),
		fetcher: NewSourceFetcher(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type markupView struct {
	Title      string
	Width      template.CSS
	Height     template.CSS
	Margin     template.CSS
	FontFamily template.CSS
	FontSize   template.CSS
	Background *markupBackground
	Objects    []markupObject
}

type markupBackground struct {
	Source  template.URL
	Opacity template.CSS
}

type markupObject struct {
	ID    string
	Style template.CSS
	Text  string
}

// Build renders page as HTML. A background that cannot be loaded is left
// out.
func (b *MarkupBuilder) Build(ctx context.Context, page *printing.Page) ([]byte, error) {
	if err := validatePage(page); err != nil {
		return nil, err
	}

	fontSize := page.FontSize
	if fontSize <= 0 {
		fontSize = defaultFontSizePx
	}
	view := markupView{
		Title:      page.Title,
		Width:      template.CSS(mm(page.WidthMM)),
		Height:     template.CSS(mm(page.HeightMM)),
		Margin:     template.CSS(px(page.Margin)),
		FontFamily: template.CSS(cssFontFamily(page.FontFamily)),
		FontSize:   template.CSS(px(fontSize)),
		Objects:    make([]markupObject, 0, len(page.Commands)),
	}
	if bg := page.Background; bg != nil {
		if src, ok := b.backgroundSource(ctx, bg.Source); ok {
			view.Background = &markupBackground{
				Source:  template.URL(src),
				Opacity: template.CSS(num(bg.Opacity)),
			}
		}
	}
	for _, cmd := range page.Commands {
		obj := markupObject{ID: cmd.ID, Style: template.CSS(objectStyle(cmd))}
		if cmd.HasText() {
			obj.Text = cmd.Text
		}
		view.Objects = append(view.Objects, obj)
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, view); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to build markup", err)
	}
	return buf.Bytes(), nil
}

func objectStyle(cmd printing.DrawCommand) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "left: %s; top: %s; width: %s; height: %s;",
		px(cmd.Rect.X), px(cmd.Rect.Y), px(cmd.Rect.Width), px(cmd.Rect.Height))
	fmt.Fprintf(&sb, " justify-content: %s; text-align: %s;", flexJustify(cmd.VAlign), textAlign(cmd.HAlign))
	if fill, ok := cssColor(cmd.Fill); ok {
		fmt.Fprintf(&sb, " background-color: %s;", fill)
	}
	if stroke, ok := cssColor(cmd.Stroke); ok && cmd.StrokeWidth > 0 {
		fmt.Fprintf(&sb, " border: %s solid %s;", px(cmd.StrokeWidth), stroke)
	}
	return sb.String()
}

func flexJustify(j printing.Justify) string {
	switch j {
	case printing.JustifyStart:
		return "flex-start"
	case printing.JustifyEnd:
		return "flex-end"
	default:
		return "center"
	}
}

func textAlign(j printing.Justify) string {
	switch j {
	case printing.JustifyCenter:
		return "center"
	case printing.JustifyEnd:
		return "right"
	default:
		return "left"
	}
}

// cssFontFamily drops characters that could end the declaration
func cssFontFamily(family string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '\\', '"', '(', ')', '\n', '\r':
			return -1
		}
		return r
	}, family)
	if strings.TrimSpace(cleaned) == "" {
		return defaultFontFamily
	}
	return cleaned
}

// backgroundSource returns src as a data URI of an image
func (b *MarkupBuilder) backgroundSource(ctx context.Context, src string) (string, bool) {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(strings.ToLower(src), "data:image/") {
		return src, true
	}
	data, err := b.fetcher.Fetch(ctx, src)
	if err != nil {
		return "", false
	}
	return inlineImage(data)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func px(v float64) string {
	return num(v) + "px"
}

func mm(v float64) string {
	return num(v) + "mm"
}

// HTMLOutput renders a page as HTML markup
type HTMLOutput struct {
	builder *MarkupBuilder
}

// NewHTMLOutput creates an HTMLOutput
func NewHTMLOutput(builder *MarkupBuilder) *HTMLOutput {
	if builder == nil {
		builder = NewMarkupBuilder()
	}
	return &HTMLOutput{builder: builder}
}

// Render implements Output
func (o *HTMLOutput) Render(ctx context.Context, page *printing.Page) (*Result, error) {
	start := time.Now()
	data, err := o.builder.Build(ctx, page)
	if err != nil {
		return nil, err
	}
	return &Result{
		Data:        data,
		ContentType: printing.FormatHTML.ContentType(),
		Extension:   "html",
		Pages:       1,
		Duration:    time.Since(start),
	}, nil
}

var _ Output = (*HTMLOutput)(nil)
