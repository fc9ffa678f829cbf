package protocol

// ByteOrder selects the wire position of each byte of a multi-byte integer.
type ByteOrder uint8

const (
	// Big stores the most significant byte first.
	Big ByteOrder = iota

	// Little stores the least significant byte first.
	Little

	// Middle stores a 32-bit value as b1 b0 b3 b2 (b0 least significant).
	// Only valid for 4 and 8 byte values.
	Middle

	// InverseMiddle stores a 32-bit value as b2 b3 b0 b1.
	// Only valid for 4 and 8 byte values.
	InverseMiddle
)

// String returns the string representation of the byte order.
func (o ByteOrder) String() string {
	switch o {
	case Big:
		return "Big"
	case Little:
		return "Little"
	case Middle:
		return "Middle"
	case InverseMiddle:
		return "InverseMiddle"
	default:
		return "Unknown"
	}
}

// Wire layouts indexed by width. Each entry maps a wire position to the
// significance of the byte stored there, 0 being the least significant.
var (
	layoutByte = [...]int{0}

	layoutShortBig    = [...]int{1, 0}
	layoutShortLittle = [...]int{0, 1}

	layoutIntBig           = [...]int{3, 2, 1, 0}
	layoutIntLittle        = [...]int{0, 1, 2, 3}
	layoutIntMiddle        = [...]int{1, 0, 3, 2}
	layoutIntInverseMiddle = [...]int{2, 3, 0, 1}

	layoutLongBig           = [...]int{7, 6, 5, 4, 3, 2, 1, 0}
	layoutLongLittle        = [...]int{0, 1, 2, 3, 4, 5, 6, 7}
	layoutLongMiddle        = [...]int{5, 4, 7, 6, 1, 0, 3, 2}
	layoutLongInverseMiddle = [...]int{6, 7, 4, 5, 2, 3, 0, 1}
)

// layout returns the wire layout for a value of the given width.
func (o ByteOrder) layout(width int) ([]int, error) {
	switch width {
	case 1:
		return layoutByte[:], nil
	case 2:
		switch o {
		case Big:
			return layoutShortBig[:], nil
		case Little:
			return layoutShortLittle[:], nil
		}
	case 4:
		switch o {
		case Big:
			return layoutIntBig[:], nil
		case Little:
			return layoutIntLittle[:], nil
		case Middle:
			return layoutIntMiddle[:], nil
		case InverseMiddle:
			return layoutIntInverseMiddle[:], nil
		}
	case 8:
		switch o {
		case Big:
			return layoutLongBig[:], nil
		case Little:
			return layoutLongLittle[:], nil
		case Middle:
			return layoutLongMiddle[:], nil
		case InverseMiddle:
			return layoutLongInverseMiddle[:], nil
		}
	}
	return nil, ErrInvalidByteOrder
}

// Transform is a fixed per-byte encoding the legacy client applies to
// selected fields. Exactly one byte of a value is transformed: the least
// significant one, except for PreNegativeOffset which targets the last byte
// on the wire.
type Transform uint8

const (
	// None leaves the byte unchanged.
	None Transform = iota

	// Offset stores raw+128 ("type A" fields).
	Offset

	// NegativeOffset stores 128-raw ("type S" fields).
	NegativeOffset

	// PostNegativeOffset applies NegativeOffset to the least significant
	// byte after the value is assembled.
	PostNegativeOffset

	// PreNegativeOffset applies NegativeOffset to the last wire byte before
	// the value is assembled.
	PreNegativeOffset

	// Inverted stores -raw ("type C" fields).
	Inverted

	// Negative stores the bitwise complement of raw.
	Negative
)

// String returns the string representation of the transform.
func (t Transform) String() string {
	switch t {
	case None:
		return "None"
	case Offset:
		return "Offset"
	case NegativeOffset:
		return "NegativeOffset"
	case PostNegativeOffset:
		return "PostNegativeOffset"
	case PreNegativeOffset:
		return "PreNegativeOffset"
	case Inverted:
		return "Inverted"
	case Negative:
		return "Negative"
	default:
		return "Unknown"
	}
}

func (t Transform) valid() bool {
	return t <= Negative
}

// targets reports whether the byte at wire position pos, holding the byte of
// the given significance, receives the transform.
func (t Transform) targets(pos, significance, width int) bool {
	switch t {
	case None:
		return false
	case PreNegativeOffset:
		return pos == width-1
	default:
		return significance == 0
	}
}

// decode turns a stored byte into its raw value.
func (t Transform) decode(b byte) byte {
	switch t {
	case Offset:
		return b - 128
	case NegativeOffset, PostNegativeOffset, PreNegativeOffset:
		return 128 - b
	case Inverted:
		return -b
	case Negative:
		return ^b
	default:
		return b
	}
}

// encode is the inverse of decode.
func (t Transform) encode(b byte) byte {
	switch t {
	case Offset:
		return b + 128
	case NegativeOffset, PostNegativeOffset, PreNegativeOffset:
		return 128 - b
	case Inverted:
		return -b
	case Negative:
		return ^b
	default:
		return b
	}
}
