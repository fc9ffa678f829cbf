// Package isaac implements the ISAAC pseudorandom generator used to mask
// frame opcodes.
//
// Each connection owns two generators, one per direction, seeded from the
// same four words exchanged at login. The outbound generator adds
// EncodeKeyOffset to each word, matching the client.
package isaac

import "errors"

const (
	sizeLog = 8
	size    = 1 << sizeLog
	mask    = (size - 1) << 2
	golden  = 0x9e3779b9

	// EncodeKeyOffset is added to every key word to seed the outbound
	// generator.
	EncodeKeyOffset = 50
)

// ErrUninitialized is returned by a Cipher that was never seeded.
var ErrUninitialized = errors.New("isaac: cipher used before seeding")

// Key is the four word seed agreed during login.
type Key [4]uint32

// Cipher is an ISAAC generator. The zero value is unseeded and fails every
// call with ErrUninitialized.
//
// A Cipher is not safe for concurrent use and cannot be rewound: every
// value handed out is gone for good.
type Cipher struct {
	rsl    [size]uint32
	mem    [size]uint32
	a      uint32
	b      uint32
	c      uint32
	count  int
	seeded bool
}

// New returns a generator seeded with up to 256 words.
func New(seed []uint32) *Cipher {
	c := &Cipher{}
	copy(c.rsl[:], seed)
	c.init()
	return c
}

// NewPair returns the inbound (decode) and outbound (encode) generators for
// a connection.
func NewPair(key Key) (decode, encode *Cipher) {
	enc := key
	for i := range enc {
		enc[i] += EncodeKeyOffset
	}
	return New(key[:]), New(enc[:])
}

// Seeded reports whether the generator can produce values.
func (c *Cipher) Seeded() bool {
	return c != nil && c.seeded
}

// Next returns the next 32-bit value of the keystream.
func (c *Cipher) Next() (uint32, error) {
	if !c.Seeded() {
		return 0, ErrUninitialized
	}
	if c.count == 0 {
		c.generate()
		c.count = size
	}
	c.count--
	return c.rsl[c.count], nil
}

// NextByte returns the low byte of the next keystream value.
func (c *Cipher) NextByte() (byte, error) {
	v, err := c.Next()
	return byte(v), err
}

func (c *Cipher) generate() {
	c.c++
	c.b += c.c

	j := size / 2
	for i := 0; i < size; {
		// The second half of mem pairs with the first.
		if i == size/2 {
			j = 0
		}
		c.round(&i, &j, c.a<<13)
		c.round(&i, &j, c.a>>6)
		c.round(&i, &j, c.a<<2)
		c.round(&i, &j, c.a>>16)
	}
}

func (c *Cipher) round(i, j *int, mix uint32) {
	x := c.mem[*i]
	c.a ^= mix
	c.a += c.mem[*j]
	*j++
	y := c.mem[(x&mask)>>2] + c.a + c.b
	c.mem[*i] = y
	c.b = c.mem[((y>>sizeLog)&mask)>>2] + x
	c.rsl[*i] = c.b
	*i++
}

func (c *Cipher) init() {
	var v [8]uint32
	for i := range v {
		v[i] = golden
	}
	for i := 0; i < 4; i++ {
		scramble(&v)
	}

	for i := 0; i < size; i += 8 {
		for k := range v {
			v[k] += c.rsl[i+k]
		}
		scramble(&v)
		copy(c.mem[i:i+8], v[:])
	}
	for i := 0; i < size; i += 8 {
		for k := range v {
			v[k] += c.mem[i+k]
		}
		scramble(&v)
		copy(c.mem[i:i+8], v[:])
	}

	c.generate()
	c.count = size
	c.seeded = true
}

func scramble(v *[8]uint32) {
	a, b, cc, d, e, f, g, h := v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7]

	a ^= b << 11
	d += a
	b += cc
	b ^= cc >> 2
	e += b
	cc += d
	cc ^= d << 8
	f += cc
	d += e
	d ^= e >> 16
	g += d
	e += f
	e ^= f << 10
	h += e
	f += g
	f ^= g >> 4
	a += f
	g += h
	g ^= h << 8
	b += g
	h += a
	h ^= a >> 9
	cc += h
	a += b

	*v = [8]uint32{a, b, cc, d, e, f, g, h}
}
