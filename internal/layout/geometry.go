// internal/layout/geometry.go
package layout

import (
	"fmt"
	"math"
)

// Axis represents a layout direction.
type Axis int

const (
	// Horizontal axis for layout calculations.
	Horizontal Axis = iota
	// Vertical axis for layout calculations.
	Vertical
)

// Cross returns the perpendicular axis.
func (a Axis) Cross() Axis {
	if a == Horizontal {
		return Vertical
	}
	return Horizontal
}

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Extent is a width/height pair.
type Extent struct {
	Width, Height float64
}

// Get is an axis-agnostic accessor.
func (e Extent) Get(axis Axis) float64 {
	if axis == Horizontal {
		return e.Width
	}
	return e.Height
}

// Set is an axis-agnostic mutator.
func (e *Extent) Set(axis Axis, v float64) {
	if axis == Horizontal {
		e.Width = v
	} else {
		e.Height = v
	}
}

// Rect is a border-box rectangle. X and Y are relative to the parent's border box.
type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) Size() Extent { return Extent{Width: r.Width, Height: r.Height} }

// Start is the leading coordinate on axis.
func (r Rect) Start(axis Axis) float64 {
	if axis == Horizontal {
		return r.X
	}
	return r.Y
}

func (r *Rect) SetStart(axis Axis, pos float64) {
	if axis == Horizontal {
		r.X = pos
	} else {
		r.Y = pos
	}
}

// Length is the extent on axis.
func (r Rect) Length(axis Axis) float64 {
	if axis == Horizontal {
		return r.Width
	}
	return r.Height
}

func (r *Rect) SetLength(axis Axis, v float64) {
	if axis == Horizontal {
		r.Width = v
	} else {
		r.Height = v
	}
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Scale multiplies every component by f.
func (r Rect) Scale(f float64) Rect {
	return Rect{X: r.X * f, Y: r.Y * f, Width: r.Width * f, Height: r.Height * f}
}

// Contains reports whether the point lies inside r (right and bottom edges excluded).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.X, r.Y, r.Width, r.Height)
}

// Edges holds per-side lengths such as margins and paddings.
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Leading is the edge at the start of axis (left or top).
func (e Edges) Leading(axis Axis) float64 {
	if axis == Horizontal {
		return e.Left
	}
	return e.Top
}

// Trailing is the edge at the end of axis (right or bottom).
func (e Edges) Trailing(axis Axis) float64 {
	if axis == Horizontal {
		return e.Right
	}
	return e.Bottom
}

// Sum is the total of both edges on axis.
func (e Edges) Sum(axis Axis) float64 {
	return e.Leading(axis) + e.Trailing(axis)
}

// epsilon absorbs float noise when comparing accumulated lengths.
const epsilon = 1e-6

func isUnbounded(v float64) bool { return math.IsInf(v, 1) }

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
