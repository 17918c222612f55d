package document

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("decodes a minimal document", func(t *testing.T) {
		m, err := Decode([]byte(`{"title":"Teste","objects":[]}`))
		require.NoError(t, err)
		assert.Equal(t, "Teste", m.Title)
		assert.NotNil(t, m.Objects)
		assert.Empty(t, m.Objects)
		assert.Nil(t, m.Extra)
	})

	t.Run("decodes objects and typography", func(t *testing.T) {
		payload := `{
			"title": "Receita",
			"pageOrientation": "landscape",
			"fontFamily": "Arial",
			"fontSize": 14,
			"backgroundOpacity": 40,
			"objects": [
				{"id": "o1", "type": "text", "x": 10, "y": 20, "width": 300, "height": 40,
				 "text": "Paciente: {{paciente}}", "textAlign": "right", "textVAlign": "bottom"},
				{"id": "o2", "type": "shape", "x": 0, "y": 0, "width": 5, "height": 5,
				 "bgColor": "#eeeeee", "borderColor": "#000", "borderWidth": 1}
			]
		}`
		m, err := Decode([]byte(payload))
		require.NoError(t, err)

		assert.Equal(t, OrientationLandscape, m.PageOrientation)
		assert.Equal(t, 14.0, m.FontSize)
		assert.InDelta(t, 0.4, m.Opacity(), 0.0001)
		require.Len(t, m.Objects, 2)
		assert.Equal(t, "Paciente: {{paciente}}", m.Objects[0].Text)
		assert.Equal(t, TextAlignRight, m.Objects[0].TextAlign)
		assert.Equal(t, VerticalAlignBottom, m.Objects[0].TextVAlign)
		assert.Equal(t, ObjectTypeShape, m.Objects[1].Type)
		assert.Equal(t, 1.0, m.Objects[1].BorderWidth)
	})

	invalid := []struct {
		name    string
		payload string
	}{
		{"not JSON", `{"title":`},
		{"JSON array", `[]`},
		{"JSON null", `null`},
		{"missing objects", `{"title":"x"}`},
		{"objects is an object", `{"title":"x","objects":{}}`},
		{"objects is a string", `{"title":"x","objects":"[]"}`},
		{"objects is null", `{"title":"x","objects":null}`},
		{"object entry is a number", `{"title":"x","objects":[1]}`},
	}
	for _, tt := range invalid {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			require.Error(t, err)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
			assert.Equal(t, CodeValidation, verr.ErrorCode())
		})
	}
}

func TestEncode_RoundTripPreservesUnknownFields(t *testing.T) {
	payload := `{"title":"Receita","objects":[{"id":"a","type":"text","x":1,"y":2,"width":3,"height":4,"text":"Olá","rotation":15}],"author":{"crm":"1234"},"version":2}`

	first, err := Decode([]byte(payload))
	require.NoError(t, err)
	require.Contains(t, first.Extra, "author")
	require.Contains(t, first.Objects[0].Extra, "rotation")

	encoded, err := Encode(first)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(encoded))

	second, err := Decode(encoded)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestEncode_RoundTripNormalizesUnknownFieldFormatting(t *testing.T) {
	payload := `{"title":"x","objects":[],"note": { "html" : "<b>ok</b>" }}`

	first, err := Decode([]byte(payload))
	require.NoError(t, err)

	encoded, err := Encode(first)
	require.NoError(t, err)

	second, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, first.Extra, second.Extra)
}

func TestEncode_NilObjectsBecomeEmptyArray(t *testing.T) {
	encoded, err := Encode(Model{Title: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x","objects":[]}`, string(encoded))
}

func TestTimestamp_JSON(t *testing.T) {
	t.Run("reads RFC 3339", func(t *testing.T) {
		m, err := Decode([]byte(`{"objects":[],"createdAt":"2024-03-01T10:00:00-03:00"}`))
		require.NoError(t, err)
		require.NotNil(t, m.CreatedAt)
		assert.True(t, m.CreatedAt.Time.Equal(time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)))
	})

	t.Run("reads epoch milliseconds", func(t *testing.T) {
		m, err := Decode([]byte(`{"objects":[],"updatedAt":1709298000000}`))
		require.NoError(t, err)
		require.NotNil(t, m.UpdatedAt)
		assert.Equal(t, int64(1709298000000), m.UpdatedAt.UnixMilli())
	})

	t.Run("writes RFC 3339 in UTC", func(t *testing.T) {
		m := Model{Objects: []Object{}, CreatedAt: NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))}
		encoded, err := Encode(m)
		require.NoError(t, err)
		assert.Contains(t, string(encoded), `"createdAt":"2024-01-02T03:04:05Z"`)
	})

	t.Run("reads dates without a zone as UTC", func(t *testing.T) {
		m, err := Decode([]byte(`{"objects":[],"createdAt":"2024-05-01","updatedAt":"2024-05-02T08:30:00"}`))
		require.NoError(t, err)
		require.NotNil(t, m.CreatedAt)
		require.NotNil(t, m.UpdatedAt)
		assert.True(t, m.CreatedAt.Time.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
		assert.True(t, m.UpdatedAt.Time.Equal(time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)))
		assert.Nil(t, m.Extra)
	})

	t.Run("reads epoch milliseconds given as a string", func(t *testing.T) {
		m, err := Decode([]byte(`{"objects":[],"updatedAt":"1709298000000"}`))
		require.NoError(t, err)
		require.NotNil(t, m.UpdatedAt)
		assert.Equal(t, int64(1709298000000), m.UpdatedAt.UnixMilli())
	})

	t.Run("keeps an unreadable date as written", func(t *testing.T) {
		payload := `{"title":"x","objects":[],"updatedAt":"yesterday"}`
		m, err := Decode([]byte(payload))
		require.NoError(t, err)
		assert.Nil(t, m.UpdatedAt)
		assert.Equal(t, json.RawMessage(`"yesterday"`), m.Extra["updatedAt"])
		assert.Equal(t, time.Unix(0, 0).UTC(), m.EffectiveTime())

		encoded, err := Encode(m)
		require.NoError(t, err)
		assert.JSONEq(t, payload, string(encoded))
	})
}

func TestDecode_NumbersWrittenAsStrings(t *testing.T) {
	payload := `{
		"title": "Legado",
		"fontSize": "14",
		"pageMargin": " 10.5 ",
		"backgroundOpacity": "40",
		"totalPages": "2",
		"objects": [{"id": "a", "x": "1", "y": "2.5", "width": "300", "height": "40", "borderWidth": "1"}]
	}`
	m, err := Decode([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, 14.0, m.FontSize)
	assert.Equal(t, 10.5, m.PageMargin)
	assert.InDelta(t, 0.4, m.Opacity(), 0.0001)
	assert.Equal(t, 2, m.TotalPages)
	require.Len(t, m.Objects, 1)
	o := m.Objects[0]
	assert.Equal(t, []float64{1, 2.5, 300, 40, 1}, []float64{o.X, o.Y, o.Width, o.Height, o.BorderWidth})
	assert.Nil(t, m.Extra)
	assert.Nil(t, o.Extra)
}

func TestDecode_UnreadableKnownFieldsRoundTrip(t *testing.T) {
	payload := `{"title":12,"fontSize":"grande","pageOrientation":true,"totalPages":1.5,` +
		`"objects":[{"id":7,"type":"text","x":"esquerda","y":0,"width":10,"height":10,"text":["a"]}]}`

	m, err := Decode([]byte(payload))
	require.NoError(t, err)
	assert.Empty(t, m.Title)
	assert.Zero(t, m.FontSize)
	assert.Equal(t, json.RawMessage(`12`), m.Extra["title"])
	assert.Equal(t, json.RawMessage(`"grande"`), m.Extra["fontSize"])
	assert.Equal(t, json.RawMessage(`true`), m.Extra["pageOrientation"])
	assert.Equal(t, json.RawMessage(`1.5`), m.Extra["totalPages"])
	require.Len(t, m.Objects, 1)
	assert.Equal(t, json.RawMessage(`"esquerda"`), m.Objects[0].Extra["x"])
	assert.Equal(t, json.RawMessage(`7`), m.Objects[0].Extra["id"])

	encoded, err := Encode(m)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(encoded))

	t.Run("a value set afterwards replaces the unreadable one", func(t *testing.T) {
		c := m.Clone()
		c.Title = "Novo"
		encoded, err := Encode(c)
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(encoded, &fields))
		assert.Equal(t, "Novo", fields["title"])
	})
}

func TestDecode_FieldNamesMatchCaseInsensitively(t *testing.T) {
	m, err := Decode([]byte(`{"Title":"Receita","objects":[],"FONTSIZE":12}`))
	require.NoError(t, err)
	assert.Equal(t, "Receita", m.Title)
	assert.Equal(t, 12.0, m.FontSize)
	assert.Nil(t, m.Extra)

	t.Run("an exact match wins and the duplicate is kept", func(t *testing.T) {
		m, err := Decode([]byte(`{"title":"a","Title":"b","objects":[]}`))
		require.NoError(t, err)
		assert.Equal(t, "a", m.Title)
		assert.Equal(t, json.RawMessage(`"b"`), m.Extra["Title"])
	})
}
