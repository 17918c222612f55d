package printing

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/rxforms/backend/internal/domain/printing"
)

// RasterOutput paints pages into a PNG at 96 DPI, one image pixel per CSS
// pixel. Text uses a fixed bitmap face, so the page font size is not
// honoured.
type RasterOutput struct {
	fetcher ImageFetcher
	logger  *zap.Logger
	face    font.Face
}

// RasterOutputOption configures a RasterOutput
type RasterOutputOption func(*RasterOutput)

// WithRasterImageFetcher sets how background images are loaded
func WithRasterImageFetcher(f ImageFetcher) RasterOutputOption {
	return func(o *RasterOutput) {
		o.fetcher = f
	}
}

// WithRasterLogger sets the logger
func WithRasterLogger(l *zap.Logger) RasterOutputOption {
	return func(o *RasterOutput) {
		o.logger = l
	}
}

// NewRasterOutput creates a RasterOutput
func NewRasterOutput(opts ...RasterOutputOption) *RasterOutput {
	o := &RasterOutput{
		fetcher: NewSourceFetcher(),
		logger:  zap.NewNop(),
		face:    basicfont.Face7x13,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Render implements Output
func (o *RasterOutput) Render(ctx context.Context, p *printing.Page) (*Result, error) {
	if err := validatePage(p); err != nil {
		return nil, err
	}
	start := time.Now()

	bounds := image.Rect(0, 0, int(math.Round(p.WidthPx())), int(math.Round(p.HeightPx())))
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, image.White, image.Point{}, draw.Src)

	o.drawBackground(ctx, dst, p.Background)

	margin := int(math.Round(p.Margin))
	for _, cmd := range p.Commands {
		if err := ctx.Err(); err != nil {
			return nil, NewRenderError(ErrCodeRenderTimeout, "raster rendering was cancelled", err)
		}
		box := image.Rect(
			margin+int(math.Round(cmd.Rect.X)),
			margin+int(math.Round(cmd.Rect.Y)),
			margin+int(math.Round(cmd.Rect.X+cmd.Rect.Width)),
			margin+int(math.Round(cmd.Rect.Y+cmd.Rect.Height)),
		)
		inset := paintBox(dst, box, cmd)
		if cmd.HasText() {
			o.paintText(dst, box.Inset(inset), cmd)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to encode PNG", err)
	}
	return &Result{
		Data:        buf.Bytes(),
		ContentType: printing.FormatPNG.ContentType(),
		Extension:   "png",
		Pages:       1,
		Duration:    time.Since(start),
	}, nil
}

// drawBackground scales the background over the whole sheet and blends it
// at the page opacity
func (o *RasterOutput) drawBackground(ctx context.Context, dst *image.RGBA, bg *printing.Background) {
	if bg == nil || bg.Opacity <= 0 {
		return
	}
	data, err := o.fetcher.Fetch(ctx, bg.Source)
	if err != nil {
		o.logger.Warn("Skipping background image", zap.Error(err))
		return
	}
	src, _, err := decodeImage(data)
	if err != nil {
		o.logger.Warn("Skipping background image", zap.Error(err))
		return
	}

	scaled := image.NewRGBA(dst.Bounds())
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)
	mask := image.NewUniform(color.Alpha{A: uint8(clampUnit(bg.Opacity)*255 + 0.5)})
	draw.DrawMask(dst, dst.Bounds(), scaled, image.Point{}, mask, image.Point{}, draw.Over)
}

// paintBox fills and strokes box and returns the border width in pixels
func paintBox(dst *image.RGBA, box image.Rectangle, cmd printing.DrawCommand) int {
	if fill, ok := parseColor(cmd.Fill); ok {
		draw.Draw(dst, box, image.NewUniform(fill), image.Point{}, draw.Over)
	}

	stroke, ok := parseColor(cmd.Stroke)
	if !ok || cmd.StrokeWidth <= 0 {
		return 0
	}
	sw := max(int(math.Round(cmd.StrokeWidth)), 1)
	src := image.NewUniform(stroke)
	edges := []image.Rectangle{
		image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+sw),
		image.Rect(box.Min.X, box.Max.Y-sw, box.Max.X, box.Max.Y),
		image.Rect(box.Min.X, box.Min.Y+sw, box.Min.X+sw, box.Max.Y-sw),
		image.Rect(box.Max.X-sw, box.Min.Y+sw, box.Max.X, box.Max.Y-sw),
	}
	for _, edge := range edges {
		draw.Draw(dst, edge.Intersect(box), src, image.Point{}, draw.Over)
	}
	return sw
}

func (o *RasterOutput) paintText(dst *image.RGBA, box image.Rectangle, cmd printing.DrawCommand) {
	measure := func(s string) int {
		return font.MeasureString(o.face, s).Ceil()
	}
	lines := wrapText(cmd.Text, box.Dx(), measure)
	if len(lines) == 0 {
		return
	}

	metrics := o.face.Metrics()
	lineH := metrics.Height.Ceil()
	blockH := lineH * len(lines)
	top := box.Min.Y
	switch cmd.VAlign {
	case printing.JustifyCenter:
		top = box.Min.Y + (box.Dy()-blockH)/2
	case printing.JustifyEnd:
		top = box.Max.Y - blockH
	}

	d := &font.Drawer{Dst: dst, Src: image.Black, Face: o.face}
	for i, line := range lines {
		x := box.Min.X
		switch cmd.HAlign {
		case printing.JustifyCenter:
			x = box.Min.X + (box.Dx()-measure(line))/2
		case printing.JustifyEnd:
			x = box.Max.X - measure(line)
		}
		d.Dot = fixed.P(x, top+i*lineH+metrics.Ascent.Ceil())
		d.DrawString(line)
	}
}

// wrapText breaks text into lines no wider than width. Explicit newlines
// are kept; a word wider than the line is split between characters.
func wrapText(text string, width int, measure func(string) int) []string {
	if text == "" {
		return nil
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if measure(candidate) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
			line = ""
			for _, chunk := range splitWord(word, width, measure) {
				if line != "" {
					lines = append(lines, line)
				}
				line = chunk
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func splitWord(word string, width int, measure func(string) int) []string {
	if measure(word) <= width {
		return []string{word}
	}
	var chunks []string
	var current []rune
	for _, r := range word {
		if len(current) > 0 && measure(string(append(current, r))) > width {
			chunks = append(chunks, string(current))
			current = current[:0]
		}
		current = append(current, r)
	}
	if len(current) > 0 {
		chunks = append(chunks, string(current))
	}
	return chunks
}

var _ Output = (*RasterOutput)(nil)
