package protocol

// BitMasks holds (1 << i) - 1 for i in 0..31.
var BitMasks = func() [32]uint32 {
	var m [32]uint32
	for i := range m {
		m[i] = (1 << i) - 1
	}
	return m
}()

func checkBitCount(n int) error {
	if n < 1 || n > 32 {
		return ErrBitCount
	}
	return nil
}

// StartBitAccess switches the encoder to bit-level writes starting at the
// next whole byte.
func (e *Encoder) StartBitAccess() {
	if !e.ok() {
		return
	}
	e.bitPos = len(e.buf) * 8
	e.bits = true
}

// WriteBits writes the low n bits of v, most significant bit first.
func (e *Encoder) WriteBits(n int, v uint32) {
	if e.err != nil {
		return
	}
	if !e.bits {
		e.fail(ErrBitAccess)
		return
	}
	if err := checkBitCount(n); err != nil {
		e.fail(err)
		return
	}

	for need := (e.bitPos + n + 7) / 8; len(e.buf) < need; {
		e.buf = append(e.buf, 0)
	}

	pos := e.bitPos >> 3
	offset := 8 - (e.bitPos & 7)
	e.bitPos += n

	for ; n > offset; offset = 8 {
		e.buf[pos] &^= byte(BitMasks[offset])
		e.buf[pos] |= byte((v >> (n - offset)) & BitMasks[offset])
		pos++
		n -= offset
	}
	if n == offset {
		e.buf[pos] &^= byte(BitMasks[offset])
		e.buf[pos] |= byte(v & BitMasks[offset])
	} else {
		shift := offset - n
		e.buf[pos] &^= byte(BitMasks[n] << shift)
		e.buf[pos] |= byte((v & BitMasks[n]) << shift)
	}
}

// WriteBit writes a single bit.
func (e *Encoder) WriteBit(set bool) {
	var v uint32
	if set {
		v = 1
	}
	e.WriteBits(1, v)
}

// FinishBitAccess pads the bit cursor to a whole byte and returns to
// byte-aligned writes.
func (e *Encoder) FinishBitAccess() {
	if e.err != nil {
		return
	}
	if !e.bits {
		e.fail(ErrBitAccess)
		return
	}
	e.buf = e.buf[:(e.bitPos+7)/8]
	e.bits = false
}

// StartBitAccess switches the decoder to bit-level reads at the current
// position.
func (d *Decoder) StartBitAccess() error {
	if d.bits {
		return ErrBitAccess
	}
	d.bitPos = d.pos * 8
	d.bits = true
	return nil
}

// ReadBits reads n bits, most significant bit first.
func (d *Decoder) ReadBits(n int) (uint32, error) {
	if !d.bits {
		return 0, ErrBitAccess
	}
	if err := checkBitCount(n); err != nil {
		return 0, err
	}
	if d.bitPos+n > len(d.buf)*8 {
		return 0, ErrInsufficientData
	}

	pos := d.bitPos >> 3
	offset := 8 - (d.bitPos & 7)
	d.bitPos += n

	var v uint32
	for ; n > offset; offset = 8 {
		v |= (uint32(d.buf[pos]) & BitMasks[offset]) << (n - offset)
		pos++
		n -= offset
	}
	if n == offset {
		v |= uint32(d.buf[pos]) & BitMasks[offset]
	} else {
		v |= (uint32(d.buf[pos]) >> (offset - n)) & BitMasks[n]
	}
	return v, nil
}

// FinishBitAccess skips to the next whole byte and returns to byte-aligned
// reads.
func (d *Decoder) FinishBitAccess() error {
	if !d.bits {
		return ErrBitAccess
	}
	d.pos = (d.bitPos + 7) / 8
	d.bits = false
	return nil
}
