package printing

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/rxforms/backend/internal/domain/printing"
)

const (
	// pdfCoreFont is a standard PDF font, so no font files are needed
	pdfCoreFont = "Helvetica"
	// lineHeightFactor spaces wrapped lines relative to the font size
	lineHeightFactor = 1.2
	backgroundImage  = "background"
)

// PDFOutput writes pages as PDF directly, without a browser. Text uses a
// core font with cp1252 encoding, which covers Portuguese.
type PDFOutput struct {
	fetcher ImageFetcher
	logger  *zap.Logger
	// creationDate replaces the current time in the document info
	creationDate time.Time
}

// PDFOutputOption configures a PDFOutput
type PDFOutputOption func(*PDFOutput)

// WithPDFImageFetcher sets how background images are loaded
func WithPDFImageFetcher(f ImageFetcher) PDFOutputOption {
	return func(o *PDFOutput) {
		o.fetcher = f
	}
}

// WithPDFLogger sets the logger
func WithPDFLogger(l *zap.Logger) PDFOutputOption {
	return func(o *PDFOutput) {
		o.logger = l
	}
}

// WithPDFCreationDate fixes the creation and modification dates written
// to the document info
func WithPDFCreationDate(t time.Time) PDFOutputOption {
	return func(o *PDFOutput) {
		o.creationDate = t
	}
}

// NewPDFOutput creates a PDFOutput
func NewPDFOutput(opts ...PDFOutputOption) *PDFOutput {
	o := &PDFOutput{
		fetcher: NewSourceFetcher(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Render implements Output
func (o *PDFOutput) Render(ctx context.Context, p *printing.Page) (*Result, error) {
	if err := validatePage(p); err != nil {
		return nil, err
	}
	start := time.Now()

	// The page size is already oriented; "L" would swap it back
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: p.WidthMM, Ht: p.HeightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCellMargin(0)
	pdf.SetTitle(p.Title, true)
	pdf.SetCreator("rxforms", true)
	if !o.creationDate.IsZero() {
		pdf.SetCreationDate(o.creationDate)
		pdf.SetModificationDate(o.creationDate)
	}
	pdf.AddPage()

	o.drawBackground(ctx, pdf, p)

	fontSizePx := p.FontSize
	if fontSizePx <= 0 {
		fontSizePx = defaultFontSizePx
	}
	pdf.SetFont(pdfCoreFont, "", printing.PxToPt(fontSizePx))
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	margin := printing.PxToMM(p.Margin)

	for _, cmd := range p.Commands {
		if err := ctx.Err(); err != nil {
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
		}
		x := margin + printing.PxToMM(cmd.Rect.X)
		y := margin + printing.PxToMM(cmd.Rect.Y)
		w := printing.PxToMM(cmd.Rect.Width)
		h := printing.PxToMM(cmd.Rect.Height)

		drawBox(pdf, cmd, x, y, w, h)
		if cmd.HasText() {
			drawText(pdf, translate(cmd.Text), cmd, x, y, w, h, printing.PxToMM(fontSizePx))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to write PDF", err)
	}

	return &Result{
		Data:        buf.Bytes(),
		ContentType: printing.FormatPDF.ContentType(),
		Extension:   "pdf",
		Pages:       pdf.PageCount(),
		Duration:    time.Since(start),
	}, nil
}

// drawBackground stretches the background over the whole sheet. A
// background that cannot be loaded is skipped with a warning.
func (o *PDFOutput) drawBackground(ctx context.Context, pdf *gofpdf.Fpdf, p *printing.Page) {
	bg := p.Background
	if bg == nil || bg.Opacity <= 0 {
		return
	}
	data, err := o.fetcher.Fetch(ctx, bg.Source)
	if err != nil {
		o.logger.Warn("Skipping background image", zap.Error(err))
		return
	}
	imageType, data, err := pdfImage(data)
	if err != nil {
		o.logger.Warn("Skipping background image", zap.Error(err))
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(backgroundImage, opts, bytes.NewReader(data))
	if pdf.Err() {
		o.logger.Warn("Skipping background image", zap.Error(pdf.Error()))
		pdf.ClearError()
		return
	}
	pdf.SetAlpha(bg.Opacity, "Normal")
	pdf.ImageOptions(backgroundImage, 0, 0, p.WidthMM, p.HeightMM, false, opts, 0, "")
	pdf.SetAlpha(1, "Normal")
}

// pdfImage returns data in a format gofpdf can embed. JPEG, PNG and GIF
// pass through; other decodable formats are converted to PNG.
func pdfImage(data []byte) (string, []byte, error) {
	img, format, err := decodeImage(data)
	if err != nil {
		return "", nil, err
	}
	switch format {
	case "jpeg":
		return "JPG", data, nil
	case "png":
		return "PNG", data, nil
	case "gif":
		return "GIF", data, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", nil, fmt.Errorf("failed to convert %s background: %w", format, err)
	}
	return "PNG", buf.Bytes(), nil
}

func drawBox(pdf *gofpdf.Fpdf, cmd printing.DrawCommand, x, y, w, h float64) {
	fill, hasFill := parseColor(cmd.Fill)
	stroke, hasStroke := parseColor(cmd.Stroke)
	hasStroke = hasStroke && cmd.StrokeWidth > 0

	if hasFill {
		pdf.SetAlpha(float64(fill.A)/255, "Normal")
		pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
		pdf.Rect(x, y, w, h, "F")
		pdf.SetAlpha(1, "Normal")
	}
	if hasStroke {
		lw := printing.PxToMM(cmd.StrokeWidth)
		pdf.SetDrawColor(int(stroke.R), int(stroke.G), int(stroke.B))
		pdf.SetLineWidth(lw)
		// CSS borders sit inside the box
		pdf.Rect(x+lw/2, y+lw/2, w-lw, h-lw, "D")
	}
}

// drawText wraps text to the box width and places the block per the
// command's alignment. Lines that do not fit the box height still print.
func drawText(pdf *gofpdf.Fpdf, text string, cmd printing.DrawCommand, x, y, w, h, fontSizeMM float64) {
	inset := 0.0
	if cmd.StrokeWidth > 0 {
		inset = printing.PxToMM(cmd.StrokeWidth)
	}
	innerW := math.Max(w-2*inset, 0)
	lines := pdf.SplitLines([]byte(text), innerW)
	if len(lines) == 0 {
		return
	}

	lineH := fontSizeMM * lineHeightFactor
	blockH := lineH * float64(len(lines))
	top := y + inset
	switch cmd.VAlign {
	case printing.JustifyCenter:
		top = y + (h-blockH)/2
	case printing.JustifyEnd:
		top = y + h - inset - blockH
	}

	align := "L"
	switch cmd.HAlign {
	case printing.JustifyCenter:
		align = "C"
	case printing.JustifyEnd:
		align = "R"
	}

	pdf.SetTextColor(0, 0, 0)
	for i, line := range lines {
		pdf.SetXY(x+inset, top+float64(i)*lineH)
		pdf.CellFormat(innerW, lineH, string(line), "", 0, align+"M", false, 0, "")
	}
}

// estimatePageCount counts page objects in a PDF. It is a heuristic:
// "/Type /Page" also prefixes the "/Type /Pages" tree nodes.
func estimatePageCount(pdfData []byte) int {
	count := bytes.Count(pdfData, []byte("/Type /Page"))
	count -= bytes.Count(pdfData, []byte("/Type /Pages"))
	return max(count, 1)
}

var _ Output = (*PDFOutput)(nil)
