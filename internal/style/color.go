// internal/style/color.go
package style

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Color represents an RGBA color.
type Color struct {
	R, G, B, A uint8
}

func (Color) isValue() {}

func (c Color) String() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

var namedColors = map[string]Color{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor accepts named colors, #rgb, #rgba, #rrggbb, #rrggbbaa and rgb()/rgba().
func ParseColor(value string) (Color, bool) {
	value = strings.TrimSpace(strings.ToLower(value))

	if color, ok := namedColors[value]; ok {
		return color, true
	}
	if strings.HasPrefix(value, "#") {
		return parseHexColor(value)
	}
	if strings.HasPrefix(value, "rgb") {
		return parseRGBColor(value)
	}
	return Color{}, false
}

func parseHexColor(hex string) (Color, bool) {
	hex = strings.TrimPrefix(hex, "#")
	for i := 0; i < len(hex); i++ {
		if _, ok := hexDigit(hex[i]); !ok {
			return Color{}, false
		}
	}
	d := func(i int) uint8 { v, _ := hexDigit(hex[i]); return v }

	var r, g, b, a uint8 = 0, 0, 0, 255
	switch len(hex) {
	case 3, 4:
		r, g, b = d(0)*17, d(1)*17, d(2)*17
		if len(hex) == 4 {
			a = d(3) * 17
		}
	case 6, 8:
		r, g, b = d(0)<<4|d(1), d(2)<<4|d(3), d(4)<<4|d(5)
		if len(hex) == 8 {
			a = d(6)<<4 | d(7)
		}
	default:
		return Color{}, false
	}
	return Color{R: r, G: g, B: b, A: a}, true
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

var rgbRegex = regexp.MustCompile(`^rgba?\((.*?)\)$`)

func parseRGBColor(value string) (Color, bool) {
	matches := rgbRegex.FindStringSubmatch(value)
	if len(matches) != 2 {
		return Color{}, false
	}

	parts := strings.FieldsFunc(matches[1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(parts) < 3 || len(parts) > 4 {
		return Color{}, false
	}

	var out [4]uint8
	out[3] = 255
	for i, p := range parts {
		v, ok := parseColorComponent(p, i == 3)
		if !ok {
			return Color{}, false
		}
		out[i] = v
	}
	return Color{R: out[0], G: out[1], B: out[2], A: out[3]}, true
}

func parseColorComponent(value string, isAlpha bool) (uint8, bool) {
	value = strings.TrimSpace(value)

	if strings.HasSuffix(value, "%") {
		percent, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return 0, false
		}
		return uint8(clamp(percent/100.0*255.0+0.5, 0, 255)), true
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	if isAlpha {
		return uint8(clamp(val*255.0+0.5, 0, 255)), true
	}
	return uint8(clamp(val+0.5, 0, 255)), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
