package document

import (
	"encoding/json"
	"time"
)

// DefaultOpacity is the background opacity used when a model does not set one
const DefaultOpacity = 100.0

// Model is the schema of a printable page template.
//
// Fields the model does not know about are preserved in Extra so that a
// document survives an import/export round trip unchanged.
type Model struct {
	Title             string      `json:"title"`
	PageOrientation   Orientation `json:"pageOrientation,omitempty"`
	FontFamily        string      `json:"fontFamily,omitempty"`
	FontSize          float64     `json:"fontSize,omitempty"`   // px
	PageMargin        float64     `json:"pageMargin,omitempty"` // px
	BackgroundImage   string      `json:"backgroundImage,omitempty"`
	BackgroundOpacity *float64    `json:"backgroundOpacity,omitempty"` // 0-100
	Content           string      `json:"content,omitempty"`
	Objects           []Object    `json:"objects"`
	TotalPages        int         `json:"totalPages,omitempty"`
	CreatedAt         *Timestamp  `json:"createdAt,omitempty"`
	UpdatedAt         *Timestamp  `json:"updatedAt,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Object is a positioned element of a page. Geometry is expressed in
// page-local pixels and is used as authored.
type Object struct {
	ID          string        `json:"id"`
	Type        ObjectType    `json:"type,omitempty"`
	X           float64       `json:"x"`
	Y           float64       `json:"y"`
	Width       float64       `json:"width"`
	Height      float64       `json:"height"`
	BgColor     string        `json:"bgColor,omitempty"`
	BorderColor string        `json:"borderColor,omitempty"`
	BorderWidth float64       `json:"borderWidth,omitempty"`
	Text        string        `json:"text,omitempty"`
	TextAlign   TextAlign     `json:"textAlign,omitempty"`
	TextVAlign  VerticalAlign `json:"textVAlign,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Info is a named document of the merged set together with its source.
// CatalogID is the stable ID of a bundled entry and empty otherwise.
type Info struct {
	Name      string `json:"name"`
	Data      Model  `json:"data"`
	Source    Source `json:"source"`
	CatalogID string `json:"catalogId,omitempty"`
}

// IsBundled reports whether the document comes from the bundled catalog
func (i Info) IsBundled() bool {
	return i.Source == SourceBundled
}

// Opacity returns the background opacity as a fraction in [0, 1].
func (m Model) Opacity() float64 {
	v := DefaultOpacity
	if m.BackgroundOpacity != nil {
		v = *m.BackgroundOpacity
	}
	switch {
	case v < 0:
		v = 0
	case v > 100:
		v = 100
	}
	return v / 100
}

// EffectiveTime returns the timestamp used to order local documents:
// updatedAt, else createdAt, else the Unix epoch.
func (m Model) EffectiveTime() time.Time {
	if m.UpdatedAt != nil && !m.UpdatedAt.IsZero() {
		return m.UpdatedAt.Time
	}
	if m.CreatedAt != nil && !m.CreatedAt.IsZero() {
		return m.CreatedAt.Time
	}
	return time.Unix(0, 0).UTC()
}

// Touch stamps updatedAt with now and fills createdAt when it is missing.
func (m *Model) Touch(now time.Time) {
	if m.CreatedAt == nil || m.CreatedAt.IsZero() {
		m.CreatedAt = NewTimestamp(now)
	}
	m.UpdatedAt = NewTimestamp(now)
}

// Clone returns a deep copy of the model.
func (m Model) Clone() Model {
	c := m
	if m.BackgroundOpacity != nil {
		v := *m.BackgroundOpacity
		c.BackgroundOpacity = &v
	}
	if m.Objects != nil {
		c.Objects = make([]Object, len(m.Objects))
		for i, o := range m.Objects {
			c.Objects[i] = o.Clone()
		}
	}
	c.CreatedAt = m.CreatedAt.clone()
	c.UpdatedAt = m.UpdatedAt.clone()
	c.Extra = cloneExtra(m.Extra)
	return c
}

// Clone returns a deep copy of the object.
func (o Object) Clone() Object {
	c := o
	c.Extra = cloneExtra(o.Extra)
	return c
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	c := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		c[k] = append(json.RawMessage(nil), v...)
	}
	return c
}
