package handlers

import (
	"context"
	"fmt"

	"github.com/vango-dev/runewire/pkg/protocol"
	"github.com/vango-dev/runewire/pkg/server"
)

// Item click opcodes.
const (
	OpFirstOption  uint8 = 122
	OpSecondOption uint8 = 41
	OpThirdOption  uint8 = 16
	OpFourthOption uint8 = 75
	OpFifthOption  uint8 = 87
	OpFirstAction  uint8 = 145
	OpSwitchItem   uint8 = 214
)

type clickField uint8

const (
	fieldInterface clickField = iota
	fieldSlot
	fieldItem
)

// shortField is one unsigned short of a click payload.
type shortField struct {
	field     clickField
	transform protocol.Transform
	order     protocol.ByteOrder

	// adjust is added to the decoded value. The client sends some slots
	// one below the real index.
	adjust uint16
}

type clickLayout struct {
	kind   ClickKind
	fields [3]shortField
}

// clickLayouts lists the payload of each click family in read order.
var clickLayouts = map[uint8]clickLayout{
	OpFirstOption: {FirstOption, [3]shortField{
		{fieldInterface, protocol.Offset, protocol.Little, 0},
		{fieldSlot, protocol.Offset, protocol.Big, 0},
		{fieldItem, protocol.None, protocol.Little, 0},
	}},
	OpSecondOption: {SecondOption, [3]shortField{
		{fieldItem, protocol.None, protocol.Big, 0},
		{fieldSlot, protocol.Offset, protocol.Big, 1},
		{fieldInterface, protocol.Offset, protocol.Big, 0},
	}},
	OpThirdOption: {ThirdOption, [3]shortField{
		{fieldItem, protocol.Offset, protocol.Big, 0},
		{fieldSlot, protocol.Offset, protocol.Little, 0},
		{fieldInterface, protocol.Offset, protocol.Little, 0},
	}},
	OpFourthOption: {FourthOption, [3]shortField{
		{fieldInterface, protocol.Offset, protocol.Little, 0},
		{fieldSlot, protocol.None, protocol.Little, 0},
		{fieldItem, protocol.Offset, protocol.Big, 0},
	}},
	OpFifthOption: {FifthOption, [3]shortField{
		{fieldItem, protocol.Offset, protocol.Big, 0},
		{fieldInterface, protocol.None, protocol.Big, 0},
		{fieldSlot, protocol.Offset, protocol.Big, 1},
	}},
	OpFirstAction: {FirstAction, [3]shortField{
		{fieldInterface, protocol.Offset, protocol.Big, 0},
		{fieldSlot, protocol.Offset, protocol.Big, 0},
		{fieldItem, protocol.Offset, protocol.Big, 0},
	}},
}

// DecodeItemClick reads an item click frame. It does not check the
// interface.
func DecodeItemClick(f *protocol.Frame) (ItemClick, error) {
	layout, ok := clickLayouts[f.Opcode]
	if !ok {
		return ItemClick{}, fmt.Errorf("handlers: opcode %d is not an item click", f.Opcode)
	}

	c := ItemClick{Kind: layout.kind}
	for _, fl := range layout.fields {
		v, err := f.ReadUint16(fl.transform, fl.order)
		if err != nil {
			return ItemClick{}, fmt.Errorf("%s: %w", layout.kind, err)
		}
		v += fl.adjust
		switch fl.field {
		case fieldInterface:
			c.Interface = v
		case fieldSlot:
			c.Slot = v
		case fieldItem:
			c.ItemID = v
		}
	}
	return c, nil
}

// EncodeItemClick writes c the way the client does. Used to drive tests
// and tools.
func EncodeItemClick(c ItemClick) (*protocol.Builder, error) {
	for op, layout := range clickLayouts {
		if layout.kind != c.Kind {
			continue
		}
		b := protocol.NewBuilder(op, protocol.Fixed)
		for _, fl := range layout.fields {
			var v uint16
			switch fl.field {
			case fieldInterface:
				v = c.Interface
			case fieldSlot:
				v = c.Slot
			case fieldItem:
				v = c.ItemID
			}
			b.WriteUint16(v-fl.adjust, fl.transform, fl.order)
		}
		return b, nil
	}
	return nil, fmt.Errorf("handlers: unknown click kind %s", c.Kind)
}

func (h *handler) itemClick(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	c, err := DecodeItemClick(f)
	if err != nil {
		return err
	}
	container, ok := containerFor(c.Interface)
	if !ok {
		return server.NewProtocolError(f.Opcode, server.ErrUnrecognizedInterface,
			fmt.Sprintf("%s: interface %d slot %d item %d", c.Kind, c.Interface, c.Slot, c.ItemID))
	}
	c.Container = container

	s.Logger().Debug("item click",
		"kind", c.Kind,
		"container", c.Container,
		"slot", c.Slot,
		"item", c.ItemID)
	return h.game.ItemClick(ctx, s, c)
}

// DecodeSwitchItem reads a switch item frame. It does not check the
// interface.
func DecodeSwitchItem(f *protocol.Frame) (SwitchItem, error) {
	var sw SwitchItem
	var err error
	if sw.Interface, err = f.ReadUint16(protocol.Offset, protocol.Little); err != nil {
		return sw, fmt.Errorf("switch item: %w", err)
	}
	inserting, err := f.ReadUint8(protocol.NegativeOffset)
	if err != nil {
		return sw, fmt.Errorf("switch item: %w", err)
	}
	sw.Inserting = inserting == 1
	if sw.From, err = f.ReadUint16(protocol.Offset, protocol.Little); err != nil {
		return sw, fmt.Errorf("switch item: %w", err)
	}
	if sw.To, err = f.ReadUint16(protocol.None, protocol.Little); err != nil {
		return sw, fmt.Errorf("switch item: %w", err)
	}
	return sw, nil
}

// EncodeSwitchItem writes sw the way the client does.
func EncodeSwitchItem(sw SwitchItem) *protocol.Builder {
	b := protocol.NewBuilder(OpSwitchItem, protocol.Fixed)
	b.WriteUint16(sw.Interface, protocol.Offset, protocol.Little)
	var inserting uint8
	if sw.Inserting {
		inserting = 1
	}
	b.WriteUint8(inserting, protocol.NegativeOffset)
	b.WriteUint16(sw.From, protocol.Offset, protocol.Little)
	b.WriteUint16(sw.To, protocol.None, protocol.Little)
	return b
}

func (h *handler) switchItem(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	sw, err := DecodeSwitchItem(f)
	if err != nil {
		return err
	}
	container, ok := containerFor(sw.Interface)
	if !ok {
		return server.NewProtocolError(f.Opcode, server.ErrUnrecognizedInterface,
			fmt.Sprintf("switch item: interface %d from %d to %d", sw.Interface, sw.From, sw.To))
	}
	sw.Container = container

	s.Logger().Debug("switch item",
		"container", sw.Container,
		"from", sw.From,
		"to", sw.To,
		"inserting", sw.Inserting)
	return h.game.SwitchItem(ctx, s, sw)
}
