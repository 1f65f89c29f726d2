// internal/style/declaration.go
package style

import (
	"fmt"
	"strings"
)

// ParseDeclaration converts one textual declaration into typed entries.
// Shorthands (margin, padding, flex) expand into their longhands.
func ParseDeclaration(name, raw string) (PropertyMap, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	raw = strings.TrimSpace(raw)
	out := PropertyMap{}

	switch name {
	case "margin":
		return out, expand1To4(out, raw, PropMarginTop, PropMarginRight, PropMarginBottom, PropMarginLeft)
	case "padding":
		return out, expand1To4(out, raw, PropPaddingTop, PropPaddingRight, PropPaddingBottom, PropPaddingLeft)
	case "flex":
		return out, expandFlex(out, raw)
	}

	prop, ok := LookupProperty(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	v, err := ParseValue(prop, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out[prop] = v
	return out, nil
}

// ParseValue parses raw as the value type of prop.
func ParseValue(prop Property, raw string) (Value, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch prop {
	case PropWidth, PropHeight, PropFlexBasis:
		return ParseSize(v)
	case PropMinWidth, PropMaxWidth, PropMinHeight, PropMaxHeight:
		sz, err := ParseSize(v)
		if err != nil {
			return nil, err
		}
		if sz.Kind != SizeNone && sz.Kind != SizeAbsolute && sz.Kind != SizeRatio {
			return nil, fmt.Errorf("%w: limit must be a length, ratio or none, got %q", ErrInvalidValue, raw)
		}
		return sz, nil
	case PropMarginTop, PropMarginRight, PropMarginBottom, PropMarginLeft,
		PropPaddingTop, PropPaddingRight, PropPaddingBottom, PropPaddingLeft:
		n, err := ParseLength(v)
		if err != nil {
			return nil, err
		}
		return Absolute(n), nil
	case PropFlexGrow, PropFlexShrink:
		n, err := parseNumber(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q must be a non-negative number", ErrInvalidValue, raw)
		}
		return Number(n), nil
	case PropFlexDirection:
		switch v {
		case "row":
			return DirectionRow, nil
		case "row-reverse":
			return DirectionRowReverse, nil
		case "column":
			return DirectionColumn, nil
		case "column-reverse":
			return DirectionColumnReverse, nil
		}
	case PropFlexWrap:
		switch v {
		case "nowrap", "no-wrap":
			return NoWrap, nil
		case "wrap":
			return WrapForward, nil
		case "wrap-reverse":
			return WrapReverse, nil
		}
	case PropJustifyContent:
		switch v {
		case "flex-start", "start":
			return JustifyStart, nil
		case "flex-end", "end":
			return JustifyEnd, nil
		case "center":
			return JustifyCenter, nil
		case "space-between":
			return JustifySpaceBetween, nil
		case "space-around":
			return JustifySpaceAround, nil
		case "space-evenly":
			return JustifySpaceEvenly, nil
		}
	case PropAlignItems, PropAlignSelf:
		switch v {
		case "auto":
			if prop == PropAlignSelf {
				return AlignAuto, nil
			}
		case "flex-start", "start":
			return AlignStart, nil
		case "flex-end", "end":
			return AlignEnd, nil
		case "center":
			return AlignCenter, nil
		case "stretch":
			return AlignStretch, nil
		case "baseline":
			return AlignBaseline, nil
		}
	case PropAlignContent:
		switch v {
		case "flex-start", "start":
			return ContentStart, nil
		case "flex-end", "end":
			return ContentEnd, nil
		case "center":
			return ContentCenter, nil
		case "space-between":
			return ContentSpaceBetween, nil
		case "space-around":
			return ContentSpaceAround, nil
		case "space-evenly":
			return ContentSpaceEvenly, nil
		case "stretch":
			return ContentStretch, nil
		}
	case PropBackground:
		if c, ok := ParseColor(v); ok {
			return c, nil
		}
	case PropVisible:
		switch v {
		case "true", "visible", "yes", "1":
			return Bool(true), nil
		case "false", "hidden", "gone", "no", "0":
			return Bool(false), nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, prop)
	}
	return nil, fmt.Errorf("%w: %q for %s", ErrInvalidValue, raw, prop)
}

func expand1To4(out PropertyMap, raw string, top, right, bottom, left Property) error {
	parts := strings.Fields(raw)
	vals := make([]Size, len(parts))
	for i, p := range parts {
		n, err := ParseLength(p)
		if err != nil {
			return err
		}
		vals[i] = Absolute(n)
	}
	switch len(vals) {
	case 1:
		out[top], out[right], out[bottom], out[left] = vals[0], vals[0], vals[0], vals[0]
	case 2:
		out[top], out[right], out[bottom], out[left] = vals[0], vals[1], vals[0], vals[1]
	case 3:
		out[top], out[right], out[bottom], out[left] = vals[0], vals[1], vals[2], vals[1]
	case 4:
		out[top], out[right], out[bottom], out[left] = vals[0], vals[1], vals[2], vals[3]
	default:
		return fmt.Errorf("%w: expected 1 to 4 lengths, got %q", ErrInvalidValue, raw)
	}
	return nil
}

func expandFlex(out PropertyMap, raw string) error {
	grow, shrink, basis := Number(0), Number(1), Auto()
	parts := strings.Fields(strings.ToLower(raw))

	isNumber := func(s string) (Number, bool) {
		n, err := parseNumber(s)
		if err != nil || n < 0 {
			return 0, false
		}
		return Number(n), true
	}

	switch len(parts) {
	case 1:
		switch parts[0] {
		case "none":
			grow, shrink = 0, 0
		case "auto":
			grow, shrink = 1, 1
		default:
			if n, ok := isNumber(parts[0]); ok {
				grow, basis = n, Absolute(0)
				break
			}
			sz, err := ParseSize(parts[0])
			if err != nil {
				return err
			}
			grow, shrink, basis = 1, 1, sz
		}
	case 2:
		g, ok := isNumber(parts[0])
		if !ok {
			return fmt.Errorf("%w: flex grow %q", ErrInvalidValue, parts[0])
		}
		grow = g
		if n, ok := isNumber(parts[1]); ok {
			shrink, basis = n, Absolute(0)
			break
		}
		sz, err := ParseSize(parts[1])
		if err != nil {
			return err
		}
		basis = sz
	case 3:
		g, ok1 := isNumber(parts[0])
		s, ok2 := isNumber(parts[1])
		if !ok1 || !ok2 {
			return fmt.Errorf("%w: flex %q", ErrInvalidValue, raw)
		}
		sz, err := ParseSize(parts[2])
		if err != nil {
			return err
		}
		grow, shrink, basis = g, s, sz
	default:
		return fmt.Errorf("%w: flex %q", ErrInvalidValue, raw)
	}

	out[PropFlexGrow] = grow
	out[PropFlexShrink] = shrink
	out[PropFlexBasis] = basis
	return nil
}
