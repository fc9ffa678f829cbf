package handlers

import (
	"context"
	"fmt"

	"github.com/vango-dev/runewire/pkg/protocol"
	"github.com/vango-dev/runewire/pkg/server"
)

// Movement opcodes.
const (
	OpMinimapWalk uint8 = 248
	OpMapWalk     uint8 = 164
	OpActionWalk  uint8 = 98
)

// minimapTrailer is the number of bytes the client appends to minimap walks.
// They carry no movement data.
const minimapTrailer = 14

// DecodeMovement reads a walk frame.
func DecodeMovement(f *protocol.Frame) (Movement, error) {
	n := f.Length
	if f.Opcode == OpMinimapWalk {
		n -= minimapTrailer
	}
	if n < 5 || (n-5)%2 != 0 {
		return Movement{}, server.NewProtocolError(f.Opcode, protocol.ErrPayloadSize,
			fmt.Sprintf("walk: %d byte path", n))
	}

	m := Movement{Opcode: f.Opcode, Steps: make([]Step, (n-5)/2)}
	var err error
	if m.FirstX, err = f.ReadUint16(protocol.Offset, protocol.Little); err != nil {
		return Movement{}, fmt.Errorf("walk: %w", err)
	}
	for i := range m.Steps {
		if m.Steps[i].DX, err = f.ReadInt8(protocol.None); err != nil {
			return Movement{}, fmt.Errorf("walk: %w", err)
		}
		if m.Steps[i].DY, err = f.ReadInt8(protocol.None); err != nil {
			return Movement{}, fmt.Errorf("walk: %w", err)
		}
	}
	if m.FirstY, err = f.ReadUint16(protocol.None, protocol.Little); err != nil {
		return Movement{}, fmt.Errorf("walk: %w", err)
	}
	running, err := f.ReadUint8(protocol.Inverted)
	if err != nil {
		return Movement{}, fmt.Errorf("walk: %w", err)
	}
	m.Running = running == 1
	return m, nil
}

// EncodeMovement writes m the way the client does, including the minimap
// trailer for opcode 248.
func EncodeMovement(m Movement) *protocol.Builder {
	b := protocol.NewBuilder(m.Opcode, protocol.VariableByte)
	b.WriteUint16(m.FirstX, protocol.Offset, protocol.Little)
	for _, st := range m.Steps {
		b.WriteInt8(st.DX, protocol.None)
		b.WriteInt8(st.DY, protocol.None)
	}
	b.WriteUint16(m.FirstY, protocol.None, protocol.Little)
	var running uint8
	if m.Running {
		running = 1
	}
	b.WriteUint8(running, protocol.Inverted)
	if m.Opcode == OpMinimapWalk {
		b.WriteBytes(make([]byte, minimapTrailer))
	}
	return b
}

func (h *handler) walk(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	m, err := DecodeMovement(f)
	if err != nil {
		return err
	}
	s.Flags.Idle = false
	return h.game.Walk(ctx, s, m)
}
