package itemtree

import "errors"

// Sentinel errors reported by the item tree. Callers match them with
// errors.Is; messages wrapped around them name the failing operation.
var (
	// ErrInvalidArgument is returned when a nil or invalid handle is
	// passed into an item tree operation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrValueAlreadySet is returned when a destination already
	// carries a value, such as a second root folder descriptor.
	ErrValueAlreadySet = errors.New("value already set")

	// ErrValueOutOfBounds is returned when a recursion depth or an
	// identifier exceeds its maximum.
	ErrValueOutOfBounds = errors.New("value out of bounds")

	// ErrValueMissing is returned when an expected value is absent,
	// such as a tree node carrying no item descriptor.
	ErrValueMissing = errors.New("value missing")
)
