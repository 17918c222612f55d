package document

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Decode parses an interchange payload into a Model.
//
// The payload must be a JSON object whose "objects" member is an array of
// objects; any other shape yields a *ValidationError. Known members are
// read leniently: numbers may be written as strings and dates in several
// layouts. A known member that still cannot be read is kept in Extra under
// its field name, as are members the model does not know.
func Decode(data []byte) (Model, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return Model{}, NewValidationError("", "payload is not a JSON object", err)
	}

	raw, ok := fields["objects"]
	if !ok || !isJSONArray(raw) {
		return Model{}, NewValidationError("", "objects is not an array", nil)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return Model{}, NewValidationError("", "objects must hold JSON objects", err)
	}
	return m, nil
}

// Encode serializes a Model to its canonical interchange bytes.
func Encode(m Model) ([]byte, error) {
	return json.Marshal(m)
}

// MarshalJSON implements json.Marshaler
func (m Model) MarshalJSON() ([]byte, error) {
	type plain Model
	p := plain(m)
	if p.Objects == nil {
		p.Objects = []Object{}
	}
	known, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return withExtra(known, m.Extra)
}

// UnmarshalJSON implements json.Unmarshaler. Only a malformed object list
// is an error.
func (m *Model) UnmarshalJSON(data []byte) error {
	var p Model
	var objectsErr error
	extra, err := decodeFields(data, map[string]fieldSetter{
		"title":             textField(&p.Title),
		"pageOrientation":   textField(&p.PageOrientation),
		"fontFamily":        textField(&p.FontFamily),
		"fontSize":          numberField(&p.FontSize),
		"pageMargin":        numberField(&p.PageMargin),
		"backgroundImage":   textField(&p.BackgroundImage),
		"backgroundOpacity": optionalNumberField(&p.BackgroundOpacity),
		"content":           textField(&p.Content),
		"totalPages":        integerField(&p.TotalPages),
		"createdAt":         timestampField(&p.CreatedAt),
		"updatedAt":         timestampField(&p.UpdatedAt),
		"objects": func(raw json.RawMessage) bool {
			objectsErr = json.Unmarshal(raw, &p.Objects)
			return true
		},
	})
	if err != nil {
		return err
	}
	if objectsErr != nil {
		return objectsErr
	}
	p.Extra = extra
	*m = p
	return nil
}

// MarshalJSON implements json.Marshaler
func (o Object) MarshalJSON() ([]byte, error) {
	type plain Object
	known, err := json.Marshal(plain(o))
	if err != nil {
		return nil, err
	}
	return withExtra(known, o.Extra)
}

// UnmarshalJSON implements json.Unmarshaler. Anything but a JSON object
// or null is an error.
func (o *Object) UnmarshalJSON(data []byte) error {
	var p Object
	extra, err := decodeFields(data, map[string]fieldSetter{
		"id":          textField(&p.ID),
		"type":        textField(&p.Type),
		"x":           numberField(&p.X),
		"y":           numberField(&p.Y),
		"width":       numberField(&p.Width),
		"height":      numberField(&p.Height),
		"bgColor":     textField(&p.BgColor),
		"borderColor": textField(&p.BorderColor),
		"borderWidth": numberField(&p.BorderWidth),
		"text":        textField(&p.Text),
		"textAlign":   textField(&p.TextAlign),
		"textVAlign":  textField(&p.TextVAlign),
	})
	if err != nil {
		return err
	}
	p.Extra = extra
	*o = p
	return nil
}

// fieldSetter stores a member into its field and reports whether the value
// could be read
type fieldSetter func(raw json.RawMessage) bool

// decodeFields feeds every member of a JSON object to the setter of the
// field it names and returns what is left over. Names match
// case-insensitively, like encoding/json, with an exact match winning over
// a differently cased duplicate.
func decodeFields(data []byte, setters map[string]fieldSetter) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	canonical := make(map[string]string, len(setters))
	for name := range setters {
		canonical[strings.ToLower(name)] = name
	}

	extra := make(map[string]json.RawMessage)
	for key, raw := range all {
		name, known := canonical[strings.ToLower(key)]
		if known && key != name {
			if _, exact := all[name]; exact {
				known = false
			}
		}
		if !known {
			extra[key] = compact(raw)
			continue
		}
		if isJSONNull(raw) {
			continue
		}
		if !setters[name](raw) {
			extra[name] = compact(raw)
		}
	}
	if len(extra) == 0 {
		return nil, nil
	}
	return extra, nil
}

func textField[T ~string](dst *T) fieldSetter {
	return func(raw json.RawMessage) bool {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		*dst = T(s)
		return true
	}
}

func numberField(dst *float64) fieldSetter {
	return func(raw json.RawMessage) bool {
		v, ok := parseNumber(raw)
		if ok {
			*dst = v
		}
		return ok
	}
}

func optionalNumberField(dst **float64) fieldSetter {
	return func(raw json.RawMessage) bool {
		v, ok := parseNumber(raw)
		if ok {
			*dst = &v
		}
		return ok
	}
}

func integerField(dst *int) fieldSetter {
	return func(raw json.RawMessage) bool {
		v, ok := parseNumber(raw)
		if !ok || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return false
		}
		*dst = int(v)
		return true
	}
}

func timestampField(dst **Timestamp) fieldSetter {
	return func(raw json.RawMessage) bool {
		var ts Timestamp
		if err := ts.UnmarshalJSON(raw); err != nil {
			return false
		}
		*dst = &ts
		return true
	}
}

// parseNumber reads a JSON number, or a string holding one
func parseNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

// withExtra merges preserved members into an encoded object. A known
// member wins unless it holds its zero value, in which case the preserved
// raw value is what the field was read from.
func withExtra(known []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return known, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if cur, ok := fields[k]; ok && !isZeroJSON(cur) {
			continue
		}
		fields[k] = v
	}
	return json.Marshal(fields)
}

// compact stores a member in the form Encode writes it, so a decoded
// document and its re-decoded export compare equal
func compact(raw json.RawMessage) json.RawMessage {
	normalized, err := json.Marshal(raw)
	if err != nil {
		return append(json.RawMessage(nil), raw...)
	}
	return normalized
}

func isZeroJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case `""`, `0`, `null`, `false`:
		return true
	}
	return false
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
