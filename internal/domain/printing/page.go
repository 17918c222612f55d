package printing

import "github.com/rxforms/backend/internal/domain/document"

// CSS reference pixel density
const (
	PixelsPerInch = 96.0
	mmPerInch     = 25.4
	pointsPerInch = 72.0
)

// PxToMM converts CSS pixels to millimeters
func PxToMM(px float64) float64 {
	return px * mmPerInch / PixelsPerInch
}

// MMToPx converts millimeters to CSS pixels
func MMToPx(mm float64) float64 {
	return mm * PixelsPerInch / mmPerInch
}

// PxToPt converts CSS pixels to typographic points
func PxToPt(px float64) float64 {
	return px * pointsPerInch / PixelsPerInch
}

// MMToInches converts millimeters to inches
func MMToInches(mm float64) float64 {
	return mm / mmPerInch
}

// Rect is an axis-aligned box in page-local pixels
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Background is an image painted under every draw command
type Background struct {
	Source  string  `json:"source"`  // URI or data URI
	Opacity float64 `json:"opacity"` // 0..1
}

// DrawCommand is one positioned element of a page
type DrawCommand struct {
	ID          string              `json:"id"`
	Kind        document.ObjectType `json:"kind"`
	Rect        Rect                `json:"rect"`
	Text        string              `json:"text,omitempty"` // substituted, unescaped
	HAlign      Justify             `json:"hAlign"`
	VAlign      Justify             `json:"vAlign"`
	Fill        string              `json:"fill,omitempty"`
	Stroke      string              `json:"stroke,omitempty"`
	StrokeWidth float64             `json:"strokeWidth,omitempty"`
}

// HasText reports whether the command paints text
func (c DrawCommand) HasText() bool {
	return c.Kind.CarriesText() && c.Text != ""
}

// Page is a fully resolved printable page
type Page struct {
	Title       string               `json:"title"`
	Paper       PaperSize            `json:"paper"`
	Orientation document.Orientation `json:"orientation"`
	WidthMM     float64              `json:"widthMm"`
	HeightMM    float64              `json:"heightMm"`
	FontFamily  string               `json:"fontFamily,omitempty"`
	FontSize    float64              `json:"fontSize,omitempty"` // px
	Margin      float64              `json:"margin,omitempty"`   // px
	Background  *Background          `json:"background,omitempty"`
	Commands    []DrawCommand        `json:"commands"`
}

// WidthPx returns the page width in CSS pixels
func (p *Page) WidthPx() float64 {
	return MMToPx(p.WidthMM)
}

// HeightPx returns the page height in CSS pixels
func (p *Page) HeightPx() float64 {
	return MMToPx(p.HeightMM)
}
