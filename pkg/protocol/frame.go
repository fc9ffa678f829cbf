package protocol

import (
	"fmt"
	"math"
)

// Frame is one decoded inbound message.
//
// The embedded Decoder reads the payload; handlers consume fields in the
// opcode's layout directly from the frame.
type Frame struct {
	Opcode  uint8
	Length  int
	Payload []byte

	Decoder
}

// NewFrame creates a frame whose cursor starts at the beginning of payload.
func NewFrame(opcode uint8, payload []byte) *Frame {
	return &Frame{
		Opcode:  opcode,
		Length:  len(payload),
		Payload: payload,
		Decoder: Decoder{buf: payload},
	}
}

// Rewind moves the payload cursor back to the start.
func (f *Frame) Rewind() {
	f.Decoder = Decoder{buf: f.Payload}
}

// String formats the frame for diagnostics.
func (f *Frame) String() string {
	return fmt.Sprintf("Frame{opcode=%d length=%d payload=%x}", f.Opcode, f.Length, f.Payload)
}

// Shape selects how an outbound frame is delimited on the wire.
type Shape uint8

const (
	// Fixed frames carry the header byte and a payload whose size the
	// client already knows.
	Fixed Shape = iota

	// VariableByte frames carry the header byte and a one byte length.
	VariableByte

	// VariableShort frames carry the header byte and a two byte Big length.
	VariableShort

	// Raw frames are written as-is, without header or cipher. Used before
	// the ciphers exist, during login.
	Raw
)

// String returns the string representation of the shape.
func (s Shape) String() string {
	switch s {
	case Fixed:
		return "Fixed"
	case VariableByte:
		return "VariableByte"
	case VariableShort:
		return "VariableShort"
	case Raw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// Builder assembles one outbound frame. The payload is written through the
// embedded Encoder.
//
//	b := protocol.NewBuilder(97, protocol.Fixed)
//	b.WriteUint16(id, protocol.None, protocol.Big)
//	err := writer.Write(b)
type Builder struct {
	Opcode uint8
	Shape  Shape

	Encoder
}

// NewBuilder creates a builder for the given opcode and shape.
func NewBuilder(opcode uint8, shape Shape) *Builder {
	return &Builder{
		Opcode:  opcode,
		Shape:   shape,
		Encoder: Encoder{buf: make([]byte, 0, 16)},
	}
}

// NewRawBuilder creates a builder for a headerless frame.
func NewRawBuilder() *Builder {
	return NewBuilder(0, Raw)
}

// Keyed reports whether the frame has a header byte that consumes one
// keystream byte.
func (b *Builder) Keyed() bool {
	return b.Shape != Raw
}

// Validate reports payload errors and payloads too large for the shape.
func (b *Builder) Validate() error {
	if err := b.Err(); err != nil {
		return err
	}
	if b.bits {
		return ErrBitAccess
	}
	n := b.Len()
	switch b.Shape {
	case Fixed, Raw:
		return nil
	case VariableByte:
		if n > math.MaxUint8 {
			return fmt.Errorf("%w: %d bytes in a %s frame", ErrPayloadSize, n, b.Shape)
		}
	case VariableShort:
		if n > math.MaxUint16 {
			return fmt.Errorf("%w: %d bytes in a %s frame", ErrPayloadSize, n, b.Shape)
		}
	default:
		return fmt.Errorf("protocol: unknown frame shape %d", b.Shape)
	}
	return nil
}

// AppendTo appends the wire form of the frame to dst. key is the keystream
// byte added to the opcode and is ignored for Raw frames. The builder must
// have passed Validate.
func (b *Builder) AppendTo(dst []byte, key byte) []byte {
	p := b.Bytes()
	switch b.Shape {
	case Raw:
		return append(dst, p...)
	case VariableByte:
		dst = append(dst, b.Opcode+key, byte(len(p)))
	case VariableShort:
		dst = append(dst, b.Opcode+key, byte(len(p)>>8), byte(len(p)))
	default:
		dst = append(dst, b.Opcode+key)
	}
	return append(dst, p...)
}
