package printing

import (
	"sort"
	"strings"

	"github.com/rxforms/backend/internal/domain/document"
)

// Assemble resolves a document model and a placeholder map into a Page.
//
// It is a pure function: the model is not modified and no I/O happens.
// A model without an objects array is rejected with a *document.ValidationError.
func Assemble(model document.Model, variables map[string]string) (*Page, error) {
	if model.Objects == nil {
		return nil, document.NewValidationError(model.Title, "objects is missing", nil)
	}

	width, height := PaperSizeA4.Dimensions(model.PageOrientation)
	orientation := document.OrientationPortrait
	if model.PageOrientation.IsLandscape() {
		orientation = document.OrientationLandscape
	}

	page := &Page{
		Title:       model.Title,
		Paper:       PaperSizeA4,
		Orientation: orientation,
		WidthMM:     width,
		HeightMM:    height,
		FontFamily:  model.FontFamily,
		FontSize:    model.FontSize,
		Margin:      model.PageMargin,
		Commands:    make([]DrawCommand, 0, len(model.Objects)),
	}

	if model.BackgroundImage != "" {
		page.Background = &Background{
			Source:  model.BackgroundImage,
			Opacity: model.Opacity(),
		}
	}

	sub := NewSubstituter(variables)
	for _, obj := range model.Objects {
		cmd := DrawCommand{
			ID:   obj.ID,
			Kind: obj.Type,
			Rect: Rect{
				X:      obj.X,
				Y:      obj.Y,
				Width:  obj.Width,
				Height: obj.Height,
			},
			HAlign:      HorizontalJustify(obj.TextAlign),
			VAlign:      VerticalJustify(obj.TextVAlign),
			Fill:        obj.BgColor,
			Stroke:      obj.BorderColor,
			StrokeWidth: obj.BorderWidth,
		}
		if obj.Type.CarriesText() {
			cmd.Text = sub.Replace(obj.Text)
		}
		page.Commands = append(page.Commands, cmd)
	}

	return page, nil
}

// Substituter replaces literal placeholder keys in text
type Substituter struct {
	replacer *strings.Replacer
}

// NewSubstituter builds a Substituter for the given key/value pairs.
//
// Keys are matched literally. At any position the longest matching key wins,
// and replacement values are never scanned again. Empty keys are ignored.
func NewSubstituter(variables map[string]string) *Substituter {
	keys := make([]string, 0, len(variables))
	for k := range variables {
		if k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return &Substituter{}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, variables[k])
	}
	return &Substituter{replacer: strings.NewReplacer(pairs...)}
}

// Replace returns text with every occurrence of every key replaced.
// Tokens without a matching key are left as they are.
func (s *Substituter) Replace(text string) string {
	if s == nil || s.replacer == nil || text == "" {
		return text
	}
	return s.replacer.Replace(text)
}

// Substitute is a convenience wrapper around NewSubstituter(variables).Replace(text).
func Substitute(text string, variables map[string]string) string {
	return NewSubstituter(variables).Replace(text)
}
