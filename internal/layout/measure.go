// internal/layout/measure.go
package layout

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Measurer reports the intrinsic content size of a measurable leaf.
// Available extents are +Inf when unbounded. Implementations must not
// mutate the tree or start a layout pass.
type Measurer interface {
	MeasureContent(b *Box, availWidth, availHeight float64) (width, height float64)
}

// MeasureFunc adapts a function to the Measurer interface.
type MeasureFunc func(b *Box, availWidth, availHeight float64) (float64, float64)

func (f MeasureFunc) MeasureContent(b *Box, availWidth, availHeight float64) (float64, float64) {
	return f(b, availWidth, availHeight)
}

// IntrinsicMeasurer reports the intrinsic size set on the node and zero for
// everything else. It is the fallback when a Context has no Measurer.
type IntrinsicMeasurer struct{}

func (IntrinsicMeasurer) MeasureContent(b *Box, _, _ float64) (float64, float64) {
	return b.intrinsic.Width, b.intrinsic.Height
}

// TextMeasurer sizes text on a monospace grid: every display cell is
// CellWidth wide and every line LineHeight tall. East Asian wide runes
// take two cells. Images fall back to their intrinsic size.
type TextMeasurer struct {
	CellWidth  float64
	LineHeight float64
}

// NewTextMeasurer returns a measurer with sane defaults for zero arguments.
func NewTextMeasurer(cellWidth, lineHeight float64) TextMeasurer {
	if cellWidth <= 0 {
		cellWidth = 8
	}
	if lineHeight <= 0 {
		lineHeight = 16
	}
	return TextMeasurer{CellWidth: cellWidth, LineHeight: lineHeight}
}

func (m TextMeasurer) MeasureContent(b *Box, availWidth, _ float64) (float64, float64) {
	switch b.Kind() {
	case KindImage:
		return b.intrinsic.Width, b.intrinsic.Height
	case KindInput:
		// Single line; newlines are not rendered.
		cells := runewidth.StringWidth(strings.ReplaceAll(b.Text(), "\n", " "))
		return m.fit(float64(cells)*m.CellWidth, availWidth), m.LineHeight
	case KindText, KindTextarea:
		lines := strings.Split(b.Text(), "\n")
		widest := 0
		for _, l := range lines {
			if w := runewidth.StringWidth(l); w > widest {
				widest = w
			}
		}
		if b.Text() == "" && b.Kind() == KindText {
			return 0, 0
		}
		return m.fit(float64(widest)*m.CellWidth, availWidth), float64(len(lines)) * m.LineHeight
	}
	return 0, 0
}

// fit limits a single-line width to the available space. Text is not
// re-wrapped, so the height is unaffected.
func (m TextMeasurer) fit(w, avail float64) float64 {
	if isUnbounded(avail) {
		return w
	}
	return math.Min(w, math.Max(0, avail))
}
