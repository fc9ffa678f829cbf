package server

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vango-dev/runewire/pkg/isaac"
	"github.com/vango-dev/runewire/pkg/protocol"
)

var testKey = isaac.Key{0x01020304, 0x05060708, 0x090a0b0c, 0x0d0e0f10}

type testFrame struct {
	opcode  uint8
	payload []byte
}

// clientStream encodes frames the way the client does: each header is
// masked with the next byte of a generator seeded with key.
func clientStream(t testing.TB, table *protocol.LengthTable, key isaac.Key, frames ...testFrame) []byte {
	t.Helper()
	c := isaac.New(key[:])
	var out []byte
	for _, f := range frames {
		shape, err := table.ShapeFor(f.opcode)
		if err != nil {
			t.Fatalf("ShapeFor(%d): %v", f.opcode, err)
		}
		b := protocol.NewBuilder(f.opcode, shape)
		b.WriteBytes(f.payload)
		if err := b.Validate(); err != nil {
			t.Fatalf("Validate(%d): %v", f.opcode, err)
		}
		k, err := c.NextByte()
		if err != nil {
			t.Fatal(err)
		}
		out = b.AppendTo(out, k)
	}
	return out
}

// fullTable defines every opcode: multiples of three are variable and the
// rest fixed at opcode%50 bytes.
func fullTable(t testing.TB) *protocol.LengthTable {
	t.Helper()
	lengths := make([]int, 256)
	for op := range lengths {
		if op%3 == 0 {
			lengths[op] = protocol.VariableLength
		} else {
			lengths[op] = op % 50
		}
	}
	table, err := protocol.NewLengthTable(1, lengths)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func allOpcodeFrames(table *protocol.LengthTable) []testFrame {
	frames := make([]testFrame, 0, 256)
	for op := 0; op < 256; op++ {
		n := table.Length(uint8(op))
		if n == protocol.VariableLength {
			n = op // covers length bytes 0 through 255
		}
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(op + i)
		}
		frames = append(frames, testFrame{opcode: uint8(op), payload: payload})
	}
	return frames
}

func drainReader(t *testing.T, r *FrameReader) []*protocol.Frame {
	t.Helper()
	var out []*protocol.Frame
	for {
		f, err := r.Next()
		if errors.Is(err, ErrNotReady) {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, f)
	}
}

func checkFrames(t *testing.T, got []*protocol.Frame, want []testFrame) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("decoded %d frames, want %d", len(got), len(want))
	}
	for i, f := range got {
		if f.Opcode != want[i].opcode {
			t.Fatalf("frame %d: opcode %d, want %d", i, f.Opcode, want[i].opcode)
		}
		if f.Length != len(want[i].payload) {
			t.Fatalf("frame %d: length %d, want %d", i, f.Length, len(want[i].payload))
		}
		if !bytes.Equal(f.Payload, want[i].payload) {
			t.Fatalf("frame %d: payload %x, want %x", i, f.Payload, want[i].payload)
		}
	}
}

func TestFrameReaderAllOpcodes(t *testing.T) {
	table := fullTable(t)
	frames := allOpcodeFrames(table)
	stream := clientStream(t, table, testKey, frames...)

	r := NewFrameReader(table, isaac.New(testKey[:]))
	r.Feed(stream)
	checkFrames(t, drainReader(t, r), frames)

	if r.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", r.Buffered())
	}
}

func TestFrameReaderByteAtATime(t *testing.T) {
	table := fullTable(t)
	frames := allOpcodeFrames(table)
	stream := clientStream(t, table, testKey, frames...)

	r := NewFrameReader(table, isaac.New(testKey[:]))
	var got []*protocol.Frame
	for _, b := range stream {
		r.Feed([]byte{b})
		got = append(got, drainReader(t, r)...)
	}
	checkFrames(t, got, frames)
}

func TestFrameReaderSplitPoints(t *testing.T) {
	table := protocol.DefaultLengthTable
	frames := []testFrame{
		{opcode: 0},
		{opcode: 4, payload: []byte("hello")},
		{opcode: 14, payload: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{opcode: 3, payload: []byte{1}},
	}
	stream := clientStream(t, table, testKey, frames...)

	for split := 0; split <= len(stream); split++ {
		r := NewFrameReader(table, isaac.New(testKey[:]))
		r.Feed(stream[:split])
		got := drainReader(t, r)
		r.Feed(stream[split:])
		got = append(got, drainReader(t, r)...)
		checkFrames(t, got, frames)
	}
}

func TestFrameReaderStates(t *testing.T) {
	table := protocol.DefaultLengthTable
	stream := clientStream(t, table, testKey, testFrame{opcode: 4, payload: []byte("abc")})

	r := NewFrameReader(table, isaac.New(testKey[:]))
	if r.State() != AwaitingHeader {
		t.Fatalf("initial state = %s", r.State())
	}

	r.Feed(stream[:1])
	if _, err := r.Next(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Next() error = %v, want ErrNotReady", err)
	}
	if r.State() != AwaitingLength {
		t.Fatalf("state after header = %s, want AwaitingLength", r.State())
	}

	r.Feed(stream[1:3])
	if _, err := r.Next(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Next() error = %v, want ErrNotReady", err)
	}
	if r.State() != AwaitingPayload {
		t.Fatalf("state after length = %s, want AwaitingPayload", r.State())
	}

	r.Feed(stream[3:])
	f, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if string(f.Payload) != "abc" {
		t.Errorf("payload = %q", f.Payload)
	}
	if r.State() != Dispatching {
		t.Fatalf("state after payload = %s, want Dispatching", r.State())
	}

	if _, err := r.Next(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Next() error = %v, want ErrNotReady", err)
	}
	if r.State() != AwaitingHeader {
		t.Fatalf("state = %s, want AwaitingHeader", r.State())
	}

	r.Close()
	if r.State() != Disconnected {
		t.Fatalf("state after Close = %s", r.State())
	}
	r.Feed([]byte{1, 2, 3})
	if _, err := r.Next(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Next() after Close error = %v", err)
	}
}

func TestFrameReaderKeystreamOncePerHeader(t *testing.T) {
	table := protocol.DefaultLengthTable
	frames := []testFrame{{opcode: 4, payload: []byte("x")}, {opcode: 0}}
	stream := clientStream(t, table, testKey, frames...)

	counter := &countingKeystream{c: isaac.New(testKey[:])}
	r := NewFrameReader(table, counter)
	for _, b := range stream {
		r.Feed([]byte{b})
		for {
			if _, err := r.Next(); err != nil {
				break
			}
		}
	}
	if counter.n != len(frames) {
		t.Errorf("keystream consumed %d times, want %d", counter.n, len(frames))
	}
}

type countingKeystream struct {
	c *isaac.Cipher
	n int
}

func (k *countingKeystream) NextByte() (byte, error) {
	k.n++
	return k.c.NextByte()
}

func TestFrameReaderMaskingIsOrderDependent(t *testing.T) {
	table := protocol.DefaultLengthTable
	a := testFrame{opcode: 0}
	b := testFrame{opcode: 3, payload: []byte{9}}

	c := isaac.New(testKey[:])
	k1, _ := c.NextByte()
	k2, _ := c.NextByte()

	// The i-th header is masked with the i-th keystream byte whatever the
	// opcode.
	ab := clientStream(t, table, testKey, a, b)
	if ab[0] != a.opcode+k1 || ab[1] != b.opcode+k2 {
		t.Errorf("a,b headers = %x %x, want %x %x", ab[0], ab[1], a.opcode+k1, b.opcode+k2)
	}
	ba := clientStream(t, table, testKey, b, a)
	if ba[0] != b.opcode+k1 || ba[2] != a.opcode+k2 {
		t.Errorf("b,a headers = %x %x, want %x %x", ba[0], ba[2], b.opcode+k1, a.opcode+k2)
	}

	for _, order := range [][]testFrame{{a, b}, {b, a}, {a, a}} {
		r := NewFrameReader(table, isaac.New(testKey[:]))
		r.Feed(clientStream(t, table, testKey, order...))
		checkFrames(t, drainReader(t, r), order)
	}
}

func TestFrameReaderUnknownOpcode(t *testing.T) {
	table, err := protocol.NewLengthTableFromMap(1, map[uint8]int{0: 0, 4: protocol.VariableLength})
	if err != nil {
		t.Fatal(err)
	}
	encoder, err := protocol.NewLengthTableFromMap(1, map[uint8]int{0: 0, 7: 0})
	if err != nil {
		t.Fatal(err)
	}

	// Opcode 7 is undefined for the reader; the heartbeat after it still
	// decodes because the reader resumes at the next byte.
	stream := clientStream(t, encoder, testKey, testFrame{opcode: 7}, testFrame{opcode: 0})

	r := NewFrameReader(table, isaac.New(testKey[:]))
	r.Feed(stream)

	_, err = r.Next()
	var pe *ProtocolError
	if !errors.As(err, &pe) || !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("Next() error = %v, want ProtocolError(ErrUnknownOpcode)", err)
	}
	if pe.Opcode != 7 {
		t.Errorf("Opcode = %d, want 7", pe.Opcode)
	}
	if r.State() != AwaitingHeader {
		t.Errorf("state = %s, want AwaitingHeader", r.State())
	}

	f, err := r.Next()
	if err != nil {
		t.Fatalf("Next() after unknown opcode: %v", err)
	}
	if f.Opcode != 0 {
		t.Errorf("Opcode = %d, want 0", f.Opcode)
	}
}

func TestFrameReaderCipherErrors(t *testing.T) {
	tests := []struct {
		name   string
		cipher Keystream
	}{
		{"nil", nil},
		{"unseeded", &isaac.Cipher{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewFrameReader(nil, tt.cipher)
			r.Feed([]byte{0})
			_, err := r.Next()
			var ce *CipherError
			if !errors.As(err, &ce) {
				t.Fatalf("Next() error = %v, want *CipherError", err)
			}
			if !errors.Is(err, isaac.ErrUninitialized) {
				t.Errorf("error %v does not wrap ErrUninitialized", err)
			}
		})
	}
}

func TestFrameReaderCopiesPayload(t *testing.T) {
	table := protocol.DefaultLengthTable
	stream := clientStream(t, table, testKey, testFrame{opcode: 4, payload: []byte("abc")})

	r := NewFrameReader(table, isaac.New(testKey[:]))
	r.Feed(stream)
	f, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	for i := range stream {
		stream[i] = 0
	}
	if string(f.Payload) != "abc" {
		t.Errorf("payload aliased input: %q", f.Payload)
	}
}

func FuzzFrameReader(f *testing.F) {
	table := protocol.DefaultLengthTable
	f.Add([]byte{}, uint8(1))
	f.Add(clientStream(f, table, testKey, testFrame{opcode: 4, payload: []byte("hi")}, testFrame{opcode: 0}), uint8(3))

	f.Fuzz(func(t *testing.T, data []byte, chunk uint8) {
		size := int(chunk%16) + 1
		r := NewFrameReader(table, isaac.New(testKey[:]))
		for len(data) > 0 {
			n := size
			if n > len(data) {
				n = len(data)
			}
			r.Feed(data[:n])
			data = data[n:]
			for {
				fr, err := r.Next()
				if err != nil {
					var pe *ProtocolError
					if errors.As(err, &pe) {
						continue
					}
					if !errors.Is(err, ErrNotReady) {
						t.Fatalf("unexpected error: %v", err)
					}
					break
				}
				if want := table.Length(fr.Opcode); want >= 0 && fr.Length != want {
					t.Fatalf("opcode %d: length %d, table says %d", fr.Opcode, fr.Length, want)
				}
			}
		}
	})
}
