package handlers

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/vango-dev/runewire/pkg/protocol"
	"github.com/vango-dev/runewire/pkg/server"
)

func TestDecodeMovementWire(t *testing.T) {
	// x 3222 = 0x0C96, y 3218 = 0x0C92, steps (1,-1) (2,-2), running.
	payload := []byte{0x16, 0x0C, 0x01, 0xFF, 0x02, 0xFE, 0x92, 0x0C, 0xFF}
	want := Movement{
		Opcode:  OpMapWalk,
		FirstX:  3222,
		FirstY:  3218,
		Steps:   []Step{{1, -1}, {2, -2}},
		Running: true,
	}

	got, err := DecodeMovement(protocol.NewFrame(OpMapWalk, payload))
	if err != nil {
		t.Fatalf("DecodeMovement() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DecodeMovement() = %+v, want %+v", got, want)
	}
	if b := EncodeMovement(want); !bytes.Equal(b.Bytes(), payload) {
		t.Errorf("EncodeMovement() = %x, want %x", b.Bytes(), payload)
	}

	path := got.Path()
	wantPath := [][2]int{{3222, 3218}, {3223, 3217}, {3224, 3216}}
	if !reflect.DeepEqual(path, wantPath) {
		t.Errorf("Path() = %v, want %v", path, wantPath)
	}
}

func TestDecodeMovementOpcodes(t *testing.T) {
	for _, op := range []uint8{OpMinimapWalk, OpMapWalk, OpActionWalk} {
		for _, steps := range [][]Step{nil, {{5, 0}}, {{-3, 4}, {0, 9}, {-128, 127}}} {
			m := Movement{Opcode: op, FirstX: 3093, FirstY: 3493, Steps: steps}
			if steps == nil {
				m.Steps = []Step{}
			}
			b := EncodeMovement(m)
			got, err := DecodeMovement(frameOf(t, b))
			if err != nil {
				t.Fatalf("opcode %d, %d steps: %v", op, len(steps), err)
			}
			if !reflect.DeepEqual(got, m) {
				t.Errorf("opcode %d: got %+v, want %+v", op, got, m)
			}
		}
	}
}

func TestMinimapTrailer(t *testing.T) {
	m := Movement{Opcode: OpMinimapWalk, FirstX: 1, FirstY: 2, Steps: []Step{{1, 1}}}
	if n := len(EncodeMovement(m).Bytes()); n != 7+minimapTrailer {
		t.Errorf("minimap walk is %d bytes, want %d", n, 7+minimapTrailer)
	}

	// The same path without the trailer is too short once it is stripped.
	short := EncodeMovement(Movement{Opcode: OpMapWalk, FirstX: 1, FirstY: 2, Steps: []Step{{1, 1}}})
	if _, err := DecodeMovement(protocol.NewFrame(OpMinimapWalk, short.Bytes())); err == nil {
		t.Error("minimap walk without trailer decoded")
	}
}

func TestWalkBadLength(t *testing.T) {
	game := &recordingGame{}
	s, d, _ := newTestSession(t, game)
	for _, n := range []int{0, 4, 6} {
		err := d.Dispatch(context.Background(), s, protocol.NewFrame(OpMapWalk, make([]byte, n)))
		var pe *server.ProtocolError
		if !errors.As(err, &pe) || !errors.Is(err, protocol.ErrPayloadSize) {
			t.Errorf("%d byte walk: error = %v, want payload size ProtocolError", n, err)
		}
	}
	if len(game.calls) != 0 {
		t.Errorf("game received %v", game.calls)
	}
}

func TestWalkClearsIdle(t *testing.T) {
	game := &recordingGame{}
	s, d, _ := newTestSession(t, game)
	s.Flags.Idle = true

	b := EncodeMovement(Movement{Opcode: OpActionWalk, FirstX: 10, FirstY: 20, Steps: []Step{}})
	if err := d.Dispatch(context.Background(), s, frameOf(t, b)); err != nil {
		t.Fatal(err)
	}
	if s.Flags.Idle {
		t.Error("walk did not clear idle")
	}
	if m := game.calls[0].(Movement); m.FirstX != 10 || m.FirstY != 20 || m.Running {
		t.Errorf("walk = %+v", m)
	}
}
