package protocol

// StringTerminator ends every string on the wire.
const StringTerminator = 10

// Decoder reads typed values from a byte buffer.
//
// Every multi-byte read takes a Transform and a ByteOrder. A failed read
// leaves the position unchanged, so callers can retry once more data is
// available.
type Decoder struct {
	buf    []byte
	pos    int
	bitPos int
	bits   bool
}

// NewDecoder creates a new decoder from the given byte slice.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// EOF returns true if all bytes have been read.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.buf)
}

// Position returns the current read position.
func (d *Decoder) Position() int {
	return d.pos
}

// Skip advances the position by n bytes.
func (d *Decoder) Skip(n int) error {
	if d.bits {
		return ErrBitAccess
	}
	if n < 0 || d.pos+n > len(d.buf) {
		return ErrInsufficientData
	}
	d.pos += n
	return nil
}

// ReadByte reads a single untransformed byte.
func (d *Decoder) ReadByte() (byte, error) {
	v, err := d.read(1, None, Big)
	return byte(v), err
}

// ReadBytes reads exactly n bytes and returns them.
// The returned slice references the decoder's buffer; do not modify.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if d.bits {
		return nil, ErrBitAccess
	}
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, ErrInsufficientData
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadBytesReverse reads n bytes stored in reverse order, applying t to each.
// The result is a fresh slice.
func (d *Decoder) ReadBytesReverse(n int, t Transform) ([]byte, error) {
	if !t.valid() {
		return nil, ErrInvalidTransform
	}
	raw, err := d.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i, b := range raw {
		if t != None {
			b = t.decode(b)
		}
		out[n-1-i] = b
	}
	return out, nil
}

// ReadUint8 reads an unsigned byte.
func (d *Decoder) ReadUint8(t Transform) (uint8, error) {
	v, err := d.read(1, t, Big)
	return uint8(v), err
}

// ReadInt8 reads a signed byte.
func (d *Decoder) ReadInt8(t Transform) (int8, error) {
	v, err := d.read(1, t, Big)
	return int8(v), err
}

// ReadUint16 reads an unsigned short. Only Big and Little are valid orders.
func (d *Decoder) ReadUint16(t Transform, o ByteOrder) (uint16, error) {
	v, err := d.read(2, t, o)
	return uint16(v), err
}

// ReadInt16 reads a signed short. Only Big and Little are valid orders.
func (d *Decoder) ReadInt16(t Transform, o ByteOrder) (int16, error) {
	v, err := d.read(2, t, o)
	return int16(v), err
}

// ReadUint32 reads an unsigned int.
func (d *Decoder) ReadUint32(t Transform, o ByteOrder) (uint32, error) {
	v, err := d.read(4, t, o)
	return uint32(v), err
}

// ReadInt32 reads a signed int.
func (d *Decoder) ReadInt32(t Transform, o ByteOrder) (int32, error) {
	v, err := d.read(4, t, o)
	return int32(v), err
}

// ReadUint64 reads an unsigned long.
func (d *Decoder) ReadUint64(t Transform, o ByteOrder) (uint64, error) {
	return d.read(8, t, o)
}

// ReadInt64 reads a signed long.
func (d *Decoder) ReadInt64(t Transform, o ByteOrder) (int64, error) {
	v, err := d.read(8, t, o)
	return int64(v), err
}

// ReadString reads bytes up to the next StringTerminator and consumes the
// terminator.
func (d *Decoder) ReadString() (string, error) {
	if d.bits {
		return "", ErrBitAccess
	}
	for i := d.pos; i < len(d.buf); i++ {
		if d.buf[i] == StringTerminator {
			s := string(d.buf[d.pos:i])
			d.pos = i + 1
			return s, nil
		}
	}
	return "", ErrInsufficientData
}

func (d *Decoder) read(width int, t Transform, o ByteOrder) (uint64, error) {
	if d.bits {
		return 0, ErrBitAccess
	}
	if !t.valid() {
		return 0, ErrInvalidTransform
	}
	layout, err := o.layout(width)
	if err != nil {
		return 0, err
	}
	if d.Remaining() < width {
		return 0, ErrInsufficientData
	}

	var v uint64
	for i, sig := range layout {
		b := d.buf[d.pos+i]
		if t.targets(i, sig, width) {
			b = t.decode(b)
		}
		v |= uint64(b) << (8 * sig)
	}
	d.pos += width
	return v, nil
}
