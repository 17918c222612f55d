package printing

import (
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

var (
	hexColorPattern  = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	funcColorPattern = regexp.MustCompile(`^rgba?\(\s*([0-9.]+)\s*,\s*([0-9.]+)\s*,\s*([0-9.]+)\s*(?:,\s*([0-9.]+)\s*)?\)$`)
)

// namedColors covers the CSS keywords the document editor offers
var namedColors = map[string]color.NRGBA{
	"black":  {0, 0, 0, 255},
	"white":  {255, 255, 255, 255},
	"red":    {255, 0, 0, 255},
	"green":  {0, 128, 0, 255},
	"blue":   {0, 0, 255, 255},
	"gray":   {128, 128, 128, 255},
	"grey":   {128, 128, 128, 255},
	"silver": {192, 192, 192, 255},
	"yellow": {255, 255, 0, 255},
	"orange": {255, 165, 0, 255},
	"navy":   {0, 0, 128, 255},
	"maroon": {128, 0, 0, 255},
}

// parseColor reads a CSS color. It reports false for empty, transparent
// and unrecognized values, which callers treat as "paint nothing".
func parseColor(s string) (color.NRGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "transparent" || s == "none" {
		return color.NRGBA{}, false
	}
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if hexColorPattern.MatchString(s) {
		return parseHexColor(s[1:]), true
	}
	if m := funcColorPattern.FindStringSubmatch(s); m != nil {
		c := color.NRGBA{
			R: clampByte(m[1]),
			G: clampByte(m[2]),
			B: clampByte(m[3]),
			A: 255,
		}
		if m[4] != "" {
			a, _ := strconv.ParseFloat(m[4], 64)
			c.A = uint8(clampUnit(a)*255 + 0.5)
		}
		if c.A == 0 {
			return color.NRGBA{}, false
		}
		return c, true
	}
	return color.NRGBA{}, false
}

func parseHexColor(h string) color.NRGBA {
	if len(h) == 3 || len(h) == 4 {
		var expanded strings.Builder
		for _, r := range h {
			expanded.WriteRune(r)
			expanded.WriteRune(r)
		}
		h = expanded.String()
	}
	v, _ := strconv.ParseUint(h, 16, 32)
	if len(h) == 6 {
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

// cssColor returns s when it is a color parseColor accepts, so it can be
// emitted into a style attribute verbatim
func cssColor(s string) (string, bool) {
	if _, ok := parseColor(s); !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func clampByte(s string) uint8 {
	v, _ := strconv.ParseFloat(s, 64)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v + 0.5)
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
