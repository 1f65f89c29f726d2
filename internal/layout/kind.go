// internal/layout/kind.go
package layout

import (
	"fmt"
	"strings"
)

// Kind is the widget variant of a Box.
type Kind uint8

const (
	KindBox Kind = iota
	KindText
	KindInput
	KindTextarea
	KindScroll
	KindImage
)

// Capability is a bit set describing what a Kind supports.
type Capability uint8

const (
	// Measurable leaves get their content size from the Measurer.
	Measurable Capability = 1 << iota
	// Scrollable nodes record the extent of their content.
	Scrollable
	// AcceptsText nodes hold editable text.
	AcceptsText
)

var kindNames = [...]string{
	KindBox:      "box",
	KindText:     "text",
	KindInput:    "input",
	KindTextarea: "textarea",
	KindScroll:   "scroll",
	KindImage:    "image",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind maps an element name to a Kind.
func ParseKind(name string) (Kind, bool) {
	switch strings.ToLower(name) {
	case "box", "div", "view":
		return KindBox, true
	case "text", "span", "label":
		return KindText, true
	case "input":
		return KindInput, true
	case "textarea":
		return KindTextarea, true
	case "scroll":
		return KindScroll, true
	case "image", "img":
		return KindImage, true
	}
	return KindBox, false
}

// Capabilities returns the capability set of the variant.
func (k Kind) Capabilities() Capability {
	switch k {
	case KindText:
		return Measurable
	case KindInput:
		return Measurable | AcceptsText
	case KindTextarea:
		return Measurable | Scrollable | AcceptsText
	case KindScroll:
		return Scrollable
	case KindImage:
		return Measurable
	}
	return 0
}

// Has reports whether k has every capability in c.
func (k Kind) Has(c Capability) bool {
	return k.Capabilities()&c == c
}
