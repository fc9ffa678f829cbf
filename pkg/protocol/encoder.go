package protocol

// Encoder appends typed values to an internal buffer.
//
// Write methods do not return errors. The first misuse (an invalid byte
// order for the width, a byte write during bit access) is kept and reported
// by Err; later writes are ignored.
type Encoder struct {
	buf    []byte
	bitPos int
	bits   bool
	err    error
}

// NewEncoder creates a new encoder with a default initial capacity.
func NewEncoder() *Encoder {
	return &Encoder{
		buf: make([]byte, 0, 256),
	}
}

// NewEncoderWithCap creates a new encoder with the specified initial capacity.
func NewEncoderWithCap(cap int) *Encoder {
	return &Encoder{
		buf: make([]byte, 0, cap),
	}
}

// Reset resets the encoder to empty state, reusing the underlying buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
	e.bitPos = 0
	e.bits = false
	e.err = nil
}

// Bytes returns the encoded bytes. The returned slice is valid until
// the next call to Reset or any Write method.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes currently encoded.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Err returns the first error recorded by a write.
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// ok reports whether a byte-aligned write may proceed.
func (e *Encoder) ok() bool {
	if e.err != nil {
		return false
	}
	if e.bits {
		e.fail(ErrBitAccess)
		return false
	}
	return true
}

// WriteByte appends a single untransformed byte.
// Note: This intentionally doesn't return error (unlike io.ByteWriter);
// misuse is reported through Err.
func (e *Encoder) WriteByte(b byte) {
	if e.ok() {
		e.buf = append(e.buf, b)
	}
}

// WriteBytes appends raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	if e.ok() {
		e.buf = append(e.buf, b...)
	}
}

// WriteBytesReverse appends b in reverse order, applying t to each byte.
func (e *Encoder) WriteBytesReverse(b []byte, t Transform) {
	if !e.ok() {
		return
	}
	if !t.valid() {
		e.fail(ErrInvalidTransform)
		return
	}
	for i := len(b) - 1; i >= 0; i-- {
		v := b[i]
		if t != None {
			v = t.encode(v)
		}
		e.buf = append(e.buf, v)
	}
}

// WriteUint8 appends an unsigned byte.
func (e *Encoder) WriteUint8(v uint8, t Transform) {
	e.write(1, uint64(v), t, Big)
}

// WriteInt8 appends a signed byte.
func (e *Encoder) WriteInt8(v int8, t Transform) {
	e.write(1, uint64(v), t, Big)
}

// WriteUint16 appends an unsigned short. Only Big and Little are valid orders.
func (e *Encoder) WriteUint16(v uint16, t Transform, o ByteOrder) {
	e.write(2, uint64(v), t, o)
}

// WriteInt16 appends a signed short. Only Big and Little are valid orders.
func (e *Encoder) WriteInt16(v int16, t Transform, o ByteOrder) {
	e.write(2, uint64(v), t, o)
}

// WriteUint32 appends an unsigned int.
func (e *Encoder) WriteUint32(v uint32, t Transform, o ByteOrder) {
	e.write(4, uint64(v), t, o)
}

// WriteInt32 appends a signed int.
func (e *Encoder) WriteInt32(v int32, t Transform, o ByteOrder) {
	e.write(4, uint64(v), t, o)
}

// WriteUint64 appends an unsigned long.
func (e *Encoder) WriteUint64(v uint64, t Transform, o ByteOrder) {
	e.write(8, v, t, o)
}

// WriteInt64 appends a signed long.
func (e *Encoder) WriteInt64(v int64, t Transform, o ByteOrder) {
	e.write(8, uint64(v), t, o)
}

// WriteString appends s followed by StringTerminator.
func (e *Encoder) WriteString(s string) {
	if e.ok() {
		e.buf = append(e.buf, s...)
		e.buf = append(e.buf, StringTerminator)
	}
}

func (e *Encoder) write(width int, v uint64, t Transform, o ByteOrder) {
	if !e.ok() {
		return
	}
	if !t.valid() {
		e.fail(ErrInvalidTransform)
		return
	}
	layout, err := o.layout(width)
	if err != nil {
		e.fail(err)
		return
	}
	for i, sig := range layout {
		b := byte(v >> (8 * sig))
		if t.targets(i, sig, width) {
			b = t.encode(b)
		}
		e.buf = append(e.buf, b)
	}
}
