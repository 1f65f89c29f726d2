// internal/style/errors.go
package style

import "errors"

var (
	// ErrUnknownProperty is returned for declarations naming a property the engine does not model.
	ErrUnknownProperty = errors.New("style: unknown property")
	// ErrInvalidValue is returned when a declaration value cannot be parsed for its property.
	ErrInvalidValue = errors.New("style: invalid value")
	// ErrUnsupportedSelector is returned for selectors outside the class/state subset.
	ErrUnsupportedSelector = errors.New("style: unsupported selector")
)
