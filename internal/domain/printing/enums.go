package printing

import "github.com/rxforms/backend/internal/domain/document"

// PaperSize represents the paper size for printing
type PaperSize string

const (
	PaperSizeA4 PaperSize = "A4" // 210mm x 297mm
)

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	return p == PaperSizeA4
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// Dimensions returns the paper dimensions in millimeters (width, height)
// for the given orientation. Landscape swaps the portrait sides.
func (p PaperSize) Dimensions(o document.Orientation) (width, height float64) {
	width, height = 210, 297
	if o.IsLandscape() {
		return height, width
	}
	return width, height
}

// Justify positions content along one axis of its box
type Justify string

const (
	JustifyStart  Justify = "start"
	JustifyCenter Justify = "center"
	JustifyEnd    Justify = "end"
)

// IsValid checks if the Justify is a valid value
func (j Justify) IsValid() bool {
	switch j {
	case JustifyStart, JustifyCenter, JustifyEnd:
		return true
	}
	return false
}

// String returns the string representation of Justify
func (j Justify) String() string {
	return string(j)
}

// HorizontalJustify maps a text alignment to its horizontal placement.
// Unknown and unset values align to the start.
func HorizontalJustify(a document.TextAlign) Justify {
	switch a {
	case document.TextAlignRight:
		return JustifyEnd
	case document.TextAlignCenter:
		return JustifyCenter
	default:
		return JustifyStart
	}
}

// VerticalJustify maps a vertical alignment to its placement.
// Unknown and unset values are centered.
func VerticalJustify(a document.VerticalAlign) Justify {
	switch a {
	case document.VerticalAlignTop:
		return JustifyStart
	case document.VerticalAlignBottom:
		return JustifyEnd
	default:
		return JustifyCenter
	}
}

// Format is the encoding an output back end produces
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatPNG  Format = "png"
)

// IsValid checks if the Format is a valid value
func (f Format) IsValid() bool {
	switch f {
	case FormatPDF, FormatHTML, FormatPNG:
		return true
	}
	return false
}

// String returns the string representation of Format
func (f Format) String() string {
	return string(f)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPNG:
		return "image/png"
	default:
		return "application/pdf"
	}
}

// AllFormats returns all valid Format values
func AllFormats() []Format {
	return []Format{FormatPDF, FormatHTML, FormatPNG}
}
