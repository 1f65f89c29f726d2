// internal/style/value.go
package style

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SizeKind tags how a Size is interpreted.
type SizeKind uint8

const (
	// SizeNone means the property is unset (used by min/max limits).
	SizeNone SizeKind = iota
	// SizeAuto lets content decide, same as wrap for boxes.
	SizeAuto
	// SizeWrap sizes the node to the union of its children.
	SizeWrap
	// SizeAbsolute is a density-independent length.
	SizeAbsolute
	// SizeRatio is a fraction of the parent extent (50% is stored as 0.5).
	SizeRatio
	// SizeMatch fills the parent extent minus the node's own margins.
	SizeMatch
	// SizeMinus is the parent extent minus a fixed length.
	SizeMinus
)

var sizeKindNames = [...]string{
	SizeNone:     "none",
	SizeAuto:     "auto",
	SizeWrap:     "wrap",
	SizeAbsolute: "absolute",
	SizeRatio:    "ratio",
	SizeMatch:    "match",
	SizeMinus:    "minus",
}

func (k SizeKind) String() string {
	if int(k) < len(sizeKindNames) {
		return sizeKindNames[k]
	}
	return fmt.Sprintf("SizeKind(%d)", k)
}

// Size is a unit-tagged length used by size and position properties.
type Size struct {
	Kind  SizeKind
	Value float64
}

func (Size) isValue() {}

// Absolute returns an absolute length.
func Absolute(v float64) Size { return Size{Kind: SizeAbsolute, Value: v} }

// Ratio returns a fraction of the parent extent.
func Ratio(r float64) Size { return Size{Kind: SizeRatio, Value: r} }

// Minus returns "parent extent minus v".
func Minus(v float64) Size { return Size{Kind: SizeMinus, Value: v} }

// Match returns a match-parent size.
func Match() Size { return Size{Kind: SizeMatch} }

// Wrap returns a wrap-content size.
func Wrap() Size { return Size{Kind: SizeWrap} }

// Auto returns an auto size.
func Auto() Size { return Size{Kind: SizeAuto} }

// IsContentSized reports whether the size is decided by the node's content.
func (s Size) IsContentSized() bool {
	return s.Kind == SizeAuto || s.Kind == SizeWrap || s.Kind == SizeNone
}

// IsParentRelative reports whether the size needs the parent extent to resolve.
func (s Size) IsParentRelative() bool {
	return s.Kind == SizeRatio || s.Kind == SizeMatch || s.Kind == SizeMinus
}

// Resolve computes the length against the parent extent on the same axis.
// margin is the node's own margin sum on that axis and only affects match-parent.
//
// ok is false when the value does not produce a length: content-sized kinds
// never do, and parent-relative kinds cannot while the parent extent is unknown.
func (s Size) Resolve(parentExtent float64, parentKnown bool, margin float64) (v float64, ok bool) {
	switch s.Kind {
	case SizeAbsolute:
		return s.Value, true
	case SizeRatio:
		if !parentKnown {
			return 0, false
		}
		return math.Max(0, parentExtent*s.Value), true
	case SizeMatch:
		if !parentKnown {
			return 0, false
		}
		return math.Max(0, parentExtent-margin), true
	case SizeMinus:
		if !parentKnown {
			return 0, false
		}
		return math.Max(0, parentExtent-s.Value), true
	}
	return 0, false
}

func (s Size) String() string {
	switch s.Kind {
	case SizeAbsolute:
		return strconv.FormatFloat(s.Value, 'f', -1, 64)
	case SizeRatio:
		return strconv.FormatFloat(s.Value*100, 'f', -1, 64) + "%"
	case SizeMinus:
		return strconv.FormatFloat(s.Value, 'f', -1, 64) + "!"
	}
	return s.Kind.String()
}

// ParseSize parses the textual form of a Size.
//
//	auto | wrap | wrap-content | match | match-parent | none
//	12 | 12px | 12dp   absolute
//	50%                ratio
//	20!                parent minus 20
func ParseSize(raw string) (Size, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "":
		return Size{}, fmt.Errorf("%w: empty size", ErrInvalidValue)
	case "auto":
		return Auto(), nil
	case "wrap", "wrap-content":
		return Wrap(), nil
	case "match", "match-parent":
		return Match(), nil
	case "none":
		return Size{Kind: SizeNone}, nil
	}

	switch {
	case strings.HasSuffix(v, "%"):
		n, err := parseNumber(strings.TrimSuffix(v, "%"))
		if err != nil {
			return Size{}, fmt.Errorf("%w: ratio %q", ErrInvalidValue, raw)
		}
		return Ratio(n / 100), nil
	case strings.HasSuffix(v, "!"):
		n, err := parseNumber(strings.TrimSuffix(v, "!"))
		if err != nil {
			return Size{}, fmt.Errorf("%w: minus %q", ErrInvalidValue, raw)
		}
		return Minus(n), nil
	}

	v = strings.TrimSuffix(strings.TrimSuffix(v, "px"), "dp")
	n, err := parseNumber(v)
	if err != nil {
		return Size{}, fmt.Errorf("%w: length %q", ErrInvalidValue, raw)
	}
	return Absolute(n), nil
}

// ParseLength parses an absolute length. Margins and paddings only accept these.
func ParseLength(raw string) (float64, error) {
	sz, err := ParseSize(raw)
	if err != nil {
		return 0, err
	}
	if sz.Kind != SizeAbsolute {
		return 0, fmt.Errorf("%w: %q is not an absolute length", ErrInvalidValue, raw)
	}
	return sz.Value, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return n, nil
}
