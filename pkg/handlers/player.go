package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/vango-dev/runewire/pkg/protocol"
	"github.com/vango-dev/runewire/pkg/server"
)

// Player state opcodes.
const (
	OpHeartbeat     uint8 = 0
	OpFocus         uint8 = 3
	OpChat          uint8 = 4
	OpMouseMovement uint8 = 45
	OpCamera        uint8 = 86
	OpDesign        uint8 = 101
	OpCommand       uint8 = 103
	OpButton        uint8 = 185
	OpIdle          uint8 = 202
	OpMouseClick    uint8 = 241
)

// PingOpcodes carry client bookkeeping the server has no use for.
var PingOpcodes = []uint8{77, 78, 165, 189, 210, 226, 121}

// Game screen width used to pack click coordinates.
const screenWidth = 765

// MouseClick is a click anywhere in the client window.
type MouseClick struct {
	// Delay is the number of client cycles since the previous click,
	// saturated at 4095.
	Delay uint16
	Right bool
	X     int
	Y     int
}

// DecodeMouseClick unpacks the click word sent with opcode 241.
func DecodeMouseClick(v uint32) MouseClick {
	coords := int(v & 0x7FFFF)
	return MouseClick{
		Delay: uint16(v >> 20),
		Right: v>>19&1 == 1,
		X:     coords % screenWidth,
		Y:     coords / screenWidth,
	}
}

// Word returns the click in its wire form.
func (c MouseClick) Word() uint32 {
	var right uint32
	if c.Right {
		right = 1
	}
	return uint32(c.Delay)<<20 | right<<19 | uint32(c.Y*screenWidth+c.X)
}

func (h *handler) ignore(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	s.Logger().Debug("ignored frame", "opcode", f.Opcode, "length", f.Length)
	return nil
}

func (h *handler) focus(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	v, err := f.ReadUint8(protocol.None)
	if err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	s.Flags.Focused = v == 1
	s.Logger().Debug("focus changed", "focused", s.Flags.Focused)
	return nil
}

func (h *handler) idle(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	s.Flags.Idle = true
	s.Logger().Debug("client idle")
	return nil
}

func (h *handler) camera(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	roll, err := f.ReadUint16(protocol.None, protocol.Little)
	if err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	yaw, err := f.ReadUint16(protocol.None, protocol.Little)
	if err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	s.Flags.CameraRoll, s.Flags.CameraYaw = roll, yaw
	s.Logger().Debug("camera moved", "roll", roll, "yaw", yaw)
	return nil
}

func (h *handler) mouseClick(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	v, err := f.ReadUint32(protocol.None, protocol.Big)
	if err != nil {
		return fmt.Errorf("mouse click: %w", err)
	}
	c := DecodeMouseClick(v)
	s.Flags.LastClick = time.Now()
	s.Flags.Idle = false
	s.Logger().Debug("mouse click", "x", c.X, "y", c.Y, "right", c.Right, "delay", c.Delay)
	return nil
}

// DecodeChat reads a public chat frame.
func DecodeChat(f *protocol.Frame) (ChatMessage, error) {
	var msg ChatMessage
	var err error
	if msg.Effects, err = f.ReadUint8(protocol.NegativeOffset); err != nil {
		return msg, fmt.Errorf("chat: %w", err)
	}
	if msg.Color, err = f.ReadUint8(protocol.NegativeOffset); err != nil {
		return msg, fmt.Errorf("chat: %w", err)
	}
	if msg.Packed, err = f.ReadBytesReverse(f.Remaining(), protocol.Offset); err != nil {
		return msg, fmt.Errorf("chat: %w", err)
	}
	msg.Text = UnpackText(msg.Packed)
	return msg, nil
}

// EncodeChat writes msg the way the client does. Packed is used when set,
// Text is packed otherwise.
func EncodeChat(msg ChatMessage) *protocol.Builder {
	packed := msg.Packed
	if packed == nil {
		packed = PackText(msg.Text)
	}
	b := protocol.NewBuilder(OpChat, protocol.VariableByte)
	b.WriteUint8(msg.Effects, protocol.NegativeOffset)
	b.WriteUint8(msg.Color, protocol.NegativeOffset)
	b.WriteBytesReverse(packed, protocol.Offset)
	return b
}

func (h *handler) chat(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	msg, err := DecodeChat(f)
	if err != nil {
		return err
	}
	return h.game.Chat(ctx, s, msg)
}

func (h *handler) command(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	cmd, err := f.ReadString()
	if err != nil {
		return fmt.Errorf("command: %w", err)
	}
	return h.game.Command(ctx, s, cmd)
}

func (h *handler) button(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	id, err := f.ReadUint16(protocol.None, protocol.Big)
	if err != nil {
		return fmt.Errorf("button: %w", err)
	}
	return h.game.Button(ctx, s, id)
}

// DecodeAppearance reads a character design frame.
func DecodeAppearance(f *protocol.Frame) (Appearance, error) {
	var a Appearance
	g, err := f.ReadUint8(protocol.None)
	if err != nil {
		return a, fmt.Errorf("design: %w", err)
	}
	if g > uint8(Female) {
		return a, server.NewProtocolError(f.Opcode, protocol.ErrPayloadSize, fmt.Sprintf("design: gender %d", g))
	}
	a.Gender = Gender(g)
	for i := range a.Look {
		if a.Look[i], err = f.ReadUint8(protocol.None); err != nil {
			return a, fmt.Errorf("design: %w", err)
		}
	}
	for i := range a.Colors {
		if a.Colors[i], err = f.ReadUint8(protocol.None); err != nil {
			return a, fmt.Errorf("design: %w", err)
		}
	}
	return a, nil
}

func (h *handler) design(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	a, err := DecodeAppearance(f)
	if err != nil {
		return err
	}
	return h.game.DesignCharacter(ctx, s, a)
}
