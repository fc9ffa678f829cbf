package protocol

import "errors"

// Cursor errors.
var (
	// ErrInsufficientData is returned when a read needs more bytes than remain.
	// The cursor position is left unchanged.
	ErrInsufficientData = errors.New("protocol: insufficient data")

	// ErrInvalidByteOrder is returned when a byte order is not defined for
	// the requested width (Middle orders on a short, for example).
	ErrInvalidByteOrder = errors.New("protocol: byte order invalid for width")

	// ErrInvalidTransform is returned for an out-of-range Transform.
	ErrInvalidTransform = errors.New("protocol: invalid transform")

	// ErrBitAccess is returned by byte-aligned operations while bit access
	// is active, and by bit operations while it is not.
	ErrBitAccess = errors.New("protocol: wrong access mode")

	// ErrBitCount is returned when a bit count is outside 1..32.
	ErrBitCount = errors.New("protocol: bit count out of range")
)

// Frame errors.
var (
	// ErrPayloadSize is returned when a payload does not fit its frame shape
	// or does not match a fixed table length.
	ErrPayloadSize = errors.New("protocol: payload size mismatch")

	// ErrInvalidLength is returned for a length table entry outside the
	// accepted range.
	ErrInvalidLength = errors.New("protocol: invalid length table entry")
)
