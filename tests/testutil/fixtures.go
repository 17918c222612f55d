package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rxforms/backend/internal/domain/document"
)

// TextObject returns a text element at the given position.
func TextObject(id, text string, x, y, width, height float64) document.Object {
	return document.Object{
		ID:     id,
		Type:   document.ObjectTypeText,
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
		Text:   text,
	}
}

// ShapeObject returns a filled rectangle.
func ShapeObject(id, bgColor string, x, y, width, height float64) document.Object {
	return document.Object{
		ID:      id,
		Type:    document.ObjectTypeShape,
		X:       x,
		Y:       y,
		Width:   width,
		Height:  height,
		BgColor: bgColor,
	}
}

// PrescriptionModel returns a one-page prescription with a patient line and
// a prescription body.
func PrescriptionModel(title string) document.Model {
	return document.Model{
		Title: title,
		Objects: []document.Object{
			TextObject("paciente", "Paciente: {{paciente}}", 40, 40, 400, 24),
			TextObject("receita", "{{receita}}", 40, 80, 400, 200),
		},
	}
}

// ModelPayload returns the interchange form of m as a generic JSON value,
// ready to be embedded in a request body.
func ModelPayload(t *testing.T, m document.Model) map[string]any {
	t.Helper()

	data, err := document.Encode(m)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}
