package filter

import "errors"

var (
	// ErrInvalidOrder indicates a negative filter order.
	ErrInvalidOrder = errors.New("filter: order must not be negative")

	// ErrInvalidPadeOrder indicates a Pade order other than 4 or 5 for
	// the log-spectrum approximation families.
	ErrInvalidPadeOrder = errors.New("filter: pade order must be 4 or 5")

	// ErrInvalidStage indicates a gamma-family filter with fewer than one stage.
	ErrInvalidStage = errors.New("filter: stage must be at least 1")

	// ErrUnknownFamily indicates an unrecognised Family value.
	ErrUnknownFamily = errors.New("filter: unknown family")

	// ErrUnknownStructure indicates an unrecognised Structure value.
	ErrUnknownStructure = errors.New("filter: unknown structure")
)
