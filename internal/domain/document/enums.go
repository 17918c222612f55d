package document

// Orientation represents the page orientation of a document
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// IsValid checks if the Orientation is a valid value
func (o Orientation) IsValid() bool {
	switch o {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// IsLandscape reports whether the page is laid out wider than tall.
// Anything other than landscape, including an unset value, is portrait.
func (o Orientation) IsLandscape() bool {
	return o == OrientationLandscape
}

// String returns the string representation of Orientation
func (o Orientation) String() string {
	return string(o)
}

// ObjectType represents the kind of a positioned object
type ObjectType string

const (
	ObjectTypeText  ObjectType = "text"
	ObjectTypeShape ObjectType = "shape"
)

// IsValid checks if the ObjectType is a valid value
func (t ObjectType) IsValid() bool {
	switch t {
	case ObjectTypeText, ObjectTypeShape:
		return true
	}
	return false
}

// CarriesText reports whether objects of this type render text.
// Untyped objects are treated as text objects.
func (t ObjectType) CarriesText() bool {
	return t != ObjectTypeShape
}

// String returns the string representation of ObjectType
func (t ObjectType) String() string {
	return string(t)
}

// TextAlign is the horizontal alignment of an object's text
type TextAlign string

const (
	TextAlignLeft   TextAlign = "left"
	TextAlignCenter TextAlign = "center"
	TextAlignRight  TextAlign = "right"
)

// IsValid checks if the TextAlign is a valid value
func (a TextAlign) IsValid() bool {
	switch a {
	case TextAlignLeft, TextAlignCenter, TextAlignRight:
		return true
	}
	return false
}

// VerticalAlign is the vertical alignment of an object's text
type VerticalAlign string

const (
	VerticalAlignTop    VerticalAlign = "top"
	VerticalAlignCenter VerticalAlign = "center"
	VerticalAlignBottom VerticalAlign = "bottom"
)

// IsValid checks if the VerticalAlign is a valid value
func (a VerticalAlign) IsValid() bool {
	switch a {
	case VerticalAlignTop, VerticalAlignCenter, VerticalAlignBottom:
		return true
	}
	return false
}

// Source tells where a document comes from
type Source string

const (
	SourceBundled Source = "bundled" // shipped with the binary, read-only
	SourceLocal   Source = "local"   // persisted in the document store
)

// IsValid checks if the Source is a valid value
func (s Source) IsValid() bool {
	switch s {
	case SourceBundled, SourceLocal:
		return true
	}
	return false
}

// String returns the string representation of Source
func (s Source) String() string {
	return string(s)
}
