package printing

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rxforms/backend/internal/domain/document"
	"github.com/rxforms/backend/internal/domain/printing"
)

// pngDataURI returns a w x h PNG filled with c as a data URI
func pngDataURI(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, w, h, c))
}

// pngBytes returns a w x h PNG filled with c
func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// samplePage assembles a small prescription page
func samplePage(t *testing.T, orientation document.Orientation) *printing.Page {
	t.Helper()
	model := document.Model{
		Title:           "Receita <Simples>",
		PageOrientation: orientation,
		FontFamily:      "Arial",
		FontSize:        16,
		Objects: []document.Object{
			{ID: "box", Type: document.ObjectTypeShape, X: 10, Y: 10, Width: 50, Height: 50,
				BgColor: "#ff0000", BorderColor: "#0000ff", BorderWidth: 2},
			{ID: "name", Type: document.ObjectTypeText, X: 100, Y: 100, Width: 300, Height: 40,
				Text: "Paciente: {{paciente}}", TextAlign: document.TextAlignRight, TextVAlign: document.VerticalAlignTop},
		},
	}
	page, err := printing.Assemble(model, map[string]string{"{{paciente}}": "Maria <b>Silva</b>"})
	require.NoError(t, err)
	return page
}
