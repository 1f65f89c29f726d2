// internal/style/props.go
package style

import (
	"fmt"
	"sort"
	"strings"
)

// Property identifies a style property understood by the layout engine.
type Property uint8

const (
	PropWidth Property = iota
	PropHeight
	PropMinWidth
	PropMaxWidth
	PropMinHeight
	PropMaxHeight
	PropMarginTop
	PropMarginRight
	PropMarginBottom
	PropMarginLeft
	PropPaddingTop
	PropPaddingRight
	PropPaddingBottom
	PropPaddingLeft
	PropFlexDirection
	PropFlexWrap
	PropJustifyContent
	PropAlignItems
	PropAlignSelf
	PropAlignContent
	PropFlexGrow
	PropFlexShrink
	PropFlexBasis
	PropBackground
	PropVisible

	propCount
)

var propertyNames = [propCount]string{
	PropWidth:          "width",
	PropHeight:         "height",
	PropMinWidth:       "min-width",
	PropMaxWidth:       "max-width",
	PropMinHeight:      "min-height",
	PropMaxHeight:      "max-height",
	PropMarginTop:      "margin-top",
	PropMarginRight:    "margin-right",
	PropMarginBottom:   "margin-bottom",
	PropMarginLeft:     "margin-left",
	PropPaddingTop:     "padding-top",
	PropPaddingRight:   "padding-right",
	PropPaddingBottom:  "padding-bottom",
	PropPaddingLeft:    "padding-left",
	PropFlexDirection:  "flex-direction",
	PropFlexWrap:       "flex-wrap",
	PropJustifyContent: "justify-content",
	PropAlignItems:     "align-items",
	PropAlignSelf:      "align-self",
	PropAlignContent:   "align-content",
	PropFlexGrow:       "flex-grow",
	PropFlexShrink:     "flex-shrink",
	PropFlexBasis:      "flex-basis",
	PropBackground:     "background",
	PropVisible:        "visible",
}

var propertyByName = func() map[string]Property {
	m := make(map[string]Property, propCount+1)
	for i, name := range propertyNames {
		m[name] = Property(i)
	}
	m["background-color"] = PropBackground
	return m
}()

func (p Property) String() string {
	if p < propCount {
		return propertyNames[p]
	}
	return fmt.Sprintf("Property(%d)", p)
}

// LookupProperty maps a longhand property name to its id.
func LookupProperty(name string) (Property, bool) {
	p, ok := propertyByName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Value is a typed property value. The set of implementations is closed.
type Value interface {
	isValue()
	String() string
}

// Number is a unitless value (flex-grow, flex-shrink).
type Number float64

func (Number) isValue() {}
func (n Number) String() string {
	return fmt.Sprintf("%g", float64(n))
}

// Bool is a boolean flag value.
type Bool bool

func (Bool) isValue() {}
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// -- Enumerated values --

type FlexDirection uint8

const (
	DirectionRow FlexDirection = iota
	DirectionRowReverse
	DirectionColumn
	DirectionColumnReverse
)

func (FlexDirection) isValue() {}
func (d FlexDirection) String() string {
	switch d {
	case DirectionRowReverse:
		return "row-reverse"
	case DirectionColumn:
		return "column"
	case DirectionColumnReverse:
		return "column-reverse"
	}
	return "row"
}

// IsRow reports whether the main axis is horizontal.
func (d FlexDirection) IsRow() bool { return d == DirectionRow || d == DirectionRowReverse }

// IsReverse reports whether children are placed from the trailing edge.
func (d FlexDirection) IsReverse() bool {
	return d == DirectionRowReverse || d == DirectionColumnReverse
}

type FlexWrap uint8

const (
	NoWrap FlexWrap = iota
	WrapForward
	WrapReverse
)

func (FlexWrap) isValue() {}
func (w FlexWrap) String() string {
	switch w {
	case WrapForward:
		return "wrap"
	case WrapReverse:
		return "wrap-reverse"
	}
	return "nowrap"
}

// Justify controls main-axis distribution of leftover space.
type Justify uint8

const (
	JustifyStart Justify = iota
	JustifyEnd
	JustifyCenter
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

func (Justify) isValue() {}
func (j Justify) String() string {
	switch j {
	case JustifyEnd:
		return "flex-end"
	case JustifyCenter:
		return "center"
	case JustifySpaceBetween:
		return "space-between"
	case JustifySpaceAround:
		return "space-around"
	case JustifySpaceEvenly:
		return "space-evenly"
	}
	return "flex-start"
}

// ItemAlign is used by align-items and align-self. AlignAuto is only
// meaningful for align-self and defers to the container.
type ItemAlign uint8

const (
	AlignAuto ItemAlign = iota
	AlignStart
	AlignEnd
	AlignCenter
	AlignStretch
	AlignBaseline
)

func (ItemAlign) isValue() {}
func (a ItemAlign) String() string {
	switch a {
	case AlignStart:
		return "flex-start"
	case AlignEnd:
		return "flex-end"
	case AlignCenter:
		return "center"
	case AlignStretch:
		return "stretch"
	case AlignBaseline:
		return "baseline"
	}
	return "auto"
}

// ContentAlign is used by align-content.
type ContentAlign uint8

const (
	ContentStart ContentAlign = iota
	ContentEnd
	ContentCenter
	ContentSpaceBetween
	ContentSpaceAround
	ContentSpaceEvenly
	ContentStretch
)

func (ContentAlign) isValue() {}
func (c ContentAlign) String() string {
	switch c {
	case ContentEnd:
		return "flex-end"
	case ContentCenter:
		return "center"
	case ContentSpaceBetween:
		return "space-between"
	case ContentSpaceAround:
		return "space-around"
	case ContentSpaceEvenly:
		return "space-evenly"
	case ContentStretch:
		return "stretch"
	}
	return "flex-start"
}

// PropertyMap is a resolved or partial set of declarations.
type PropertyMap map[Property]Value

// Clone returns a shallow copy. Values are immutable so this is a full copy.
func (m PropertyMap) Clone() PropertyMap {
	out := make(PropertyMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge overwrites entries in m with those in other.
func (m PropertyMap) Merge(other PropertyMap) {
	for k, v := range other {
		m[k] = v
	}
}

// Equal reports whether both maps hold identical values.
func (m PropertyMap) Equal(other PropertyMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (m PropertyMap) String() string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", Property(k), m[Property(k)])
	}
	return b.String()
}

// -- Typed accessors. Missing or mistyped entries fall back to the engine defaults. --

func (m PropertyMap) Size(p Property) Size {
	if v, ok := m[p].(Size); ok {
		return v
	}
	if d, ok := defaults[p].(Size); ok {
		return d
	}
	return Size{}
}

// Length returns an absolute length, used for margins and paddings.
func (m PropertyMap) Length(p Property) float64 {
	if v, ok := m[p].(Size); ok && v.Kind == SizeAbsolute {
		return v.Value
	}
	return 0
}

func (m PropertyMap) Number(p Property) float64 {
	if v, ok := m[p].(Number); ok {
		return float64(v)
	}
	if d, ok := defaults[p].(Number); ok {
		return float64(d)
	}
	return 0
}

func (m PropertyMap) Direction() FlexDirection {
	if v, ok := m[PropFlexDirection].(FlexDirection); ok {
		return v
	}
	return DirectionRow
}

func (m PropertyMap) Wrap() FlexWrap {
	if v, ok := m[PropFlexWrap].(FlexWrap); ok {
		return v
	}
	return NoWrap
}

func (m PropertyMap) JustifyContent() Justify {
	if v, ok := m[PropJustifyContent].(Justify); ok {
		return v
	}
	return JustifyStart
}

// AlignItems never returns AlignAuto.
func (m PropertyMap) AlignItems() ItemAlign {
	if v, ok := m[PropAlignItems].(ItemAlign); ok && v != AlignAuto {
		return v
	}
	return AlignStretch
}

func (m PropertyMap) AlignSelf() ItemAlign {
	if v, ok := m[PropAlignSelf].(ItemAlign); ok {
		return v
	}
	return AlignAuto
}

func (m PropertyMap) AlignContent() ContentAlign {
	if v, ok := m[PropAlignContent].(ContentAlign); ok {
		return v
	}
	return ContentStretch
}

func (m PropertyMap) Visible() bool {
	if v, ok := m[PropVisible].(Bool); ok {
		return bool(v)
	}
	return true
}

func (m PropertyMap) Background() (Color, bool) {
	c, ok := m[PropBackground].(Color)
	return c, ok
}

var defaults = PropertyMap{
	PropWidth:          Wrap(),
	PropHeight:         Wrap(),
	PropMinWidth:       Size{Kind: SizeNone},
	PropMaxWidth:       Size{Kind: SizeNone},
	PropMinHeight:      Size{Kind: SizeNone},
	PropMaxHeight:      Size{Kind: SizeNone},
	PropMarginTop:      Absolute(0),
	PropMarginRight:    Absolute(0),
	PropMarginBottom:   Absolute(0),
	PropMarginLeft:     Absolute(0),
	PropPaddingTop:     Absolute(0),
	PropPaddingRight:   Absolute(0),
	PropPaddingBottom:  Absolute(0),
	PropPaddingLeft:    Absolute(0),
	PropFlexDirection:  DirectionRow,
	PropFlexWrap:       NoWrap,
	PropJustifyContent: JustifyStart,
	PropAlignItems:     AlignStretch,
	PropAlignSelf:      AlignAuto,
	PropAlignContent:   ContentStretch,
	PropFlexGrow:       Number(0),
	PropFlexShrink:     Number(1),
	PropFlexBasis:      Auto(),
	PropVisible:        Bool(true),
}

// Defaults returns a copy of the initial value of every property.
func Defaults() PropertyMap { return defaults.Clone() }
