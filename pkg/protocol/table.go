package protocol

import "fmt"

// Special length table entries.
const (
	// VariableLength marks an opcode whose frame carries one extra unsigned
	// length byte after the header.
	VariableLength = -1

	// Undefined marks an opcode the table does not describe. Frames with
	// such an opcode cannot be sized and are rejected.
	Undefined = -2

	// MaxFixedLength is the largest fixed length a table entry may declare.
	MaxFixedLength = 255
)

// LengthTable maps each opcode to its declared payload length.
// A table is immutable once built and safe to share between connections.
type LengthTable struct {
	revision int
	lengths  [256]int
}

// NewLengthTable builds a table from a dense list of lengths. Opcodes beyond
// the end of lengths are Undefined.
func NewLengthTable(revision int, lengths []int) (*LengthTable, error) {
	if len(lengths) > 256 {
		return nil, fmt.Errorf("%w: %d entries", ErrInvalidLength, len(lengths))
	}
	t := &LengthTable{revision: revision}
	for i := range t.lengths {
		t.lengths[i] = Undefined
	}
	for op, n := range lengths {
		if err := checkLength(n); err != nil {
			return nil, fmt.Errorf("opcode %d: %w", op, err)
		}
		t.lengths[op] = n
	}
	return t, nil
}

// NewLengthTableFromMap builds a table from sparse entries. Missing opcodes
// are Undefined.
func NewLengthTableFromMap(revision int, lengths map[uint8]int) (*LengthTable, error) {
	t := &LengthTable{revision: revision}
	for i := range t.lengths {
		t.lengths[i] = Undefined
	}
	for op, n := range lengths {
		if err := checkLength(n); err != nil {
			return nil, fmt.Errorf("opcode %d: %w", op, err)
		}
		t.lengths[op] = n
	}
	return t, nil
}

func checkLength(n int) error {
	if n < VariableLength || n > MaxFixedLength {
		return fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	return nil
}

// Revision returns the client revision the table was built for.
func (t *LengthTable) Revision() int {
	return t.revision
}

// Length returns the declared length for opcode: a fixed size,
// VariableLength, or Undefined.
func (t *LengthTable) Length(opcode uint8) int {
	return t.lengths[opcode]
}

// Defined reports whether the table describes opcode.
func (t *LengthTable) Defined(opcode uint8) bool {
	return t.lengths[opcode] != Undefined
}

// Entries returns a copy of all 256 entries.
func (t *LengthTable) Entries() [256]int {
	return t.lengths
}

// ShapeFor returns the frame shape an encoder must use so that a decoder
// reading with this table accepts the frame.
func (t *LengthTable) ShapeFor(opcode uint8) (Shape, error) {
	switch n := t.lengths[opcode]; n {
	case Undefined:
		return 0, fmt.Errorf("%w: opcode %d undefined", ErrInvalidLength, opcode)
	case VariableLength:
		return VariableByte, nil
	default:
		return Fixed, nil
	}
}

// DefaultRevision is the client build the default table describes.
const DefaultRevision = 317

// defaultLengths lists inbound frame sizes for the 317 client.
var defaultLengths = [256]int{
	0, 0, 0, 1, -1, 0, 0, 0, 0, 0, // 0
	0, 0, 0, 0, 8, 0, 6, 2, 2, 0, // 10
	0, 2, 0, 6, 0, 12, 0, 0, 0, 0, // 20
	0, 0, 0, 0, 0, 8, 4, 0, 0, 2, // 30
	2, 6, 0, 6, 0, -1, 0, 0, 0, 0, // 40
	0, 0, 0, 12, 0, 0, 0, 8, 0, 0, // 50
	0, 8, 0, 0, 0, 0, 0, 0, 0, 0, // 60
	6, 0, 2, 2, 8, 6, 0, -1, 0, 6, // 70
	0, 0, 0, 0, 0, 1, 4, 6, 0, 0, // 80
	0, 0, 0, 0, 0, 3, 0, 0, -1, 0, // 90
	0, 13, 0, -1, 0, 0, 0, 0, 0, 0, // 100
	0, 0, 0, 0, 0, 0, 0, 6, 0, 0, // 110
	1, 0, 6, 0, 0, 0, -1, 0, 2, 6, // 120
	0, 4, 6, 8, 0, 6, 0, 0, 0, 2, // 130
	0, 0, 0, 0, 0, 6, 0, 0, 0, 0, // 140
	0, 0, 1, 2, 0, 2, 6, 0, 0, 0, // 150
	0, 0, 0, 0, -1, -1, 0, 0, 0, 0, // 160
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 170
	0, 8, 0, 3, 0, 2, 0, 0, 8, 1, // 180
	0, 0, 12, 0, 0, 0, 0, 0, 0, 0, // 190
	2, 0, 0, 0, 0, 0, 0, 0, 4, 0, // 200
	4, 0, 0, 0, 7, 8, 0, 0, 10, 0, // 210
	0, 0, 0, 0, 0, 0, -1, 0, 6, 0, // 220
	1, 0, 0, 0, 6, 0, 6, 8, 1, 0, // 230
	0, 4, 0, 0, 0, 0, -1, 0, -1, 4, // 240
	0, 0, 6, 6, 0, 0, // 250
}

// DefaultLengthTable is the inbound length table of the 317 client.
var DefaultLengthTable = &LengthTable{revision: DefaultRevision, lengths: defaultLengths}
