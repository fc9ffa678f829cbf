package handlers

import (
	"context"
	"fmt"

	"github.com/vango-dev/runewire/pkg/protocol"
	"github.com/vango-dev/runewire/pkg/server"
)

// NPC interaction opcodes.
const (
	OpNpcAttack       uint8 = 72
	OpNpcFirstOption  uint8 = 155
	OpNpcSecondOption uint8 = 17
	OpNpcThirdOption  uint8 = 21
)

type npcLayout struct {
	kind      NpcActionKind
	transform protocol.Transform
	order     protocol.ByteOrder
}

var npcLayouts = map[uint8]npcLayout{
	OpNpcAttack:       {NpcAttack, protocol.Offset, protocol.Big},
	OpNpcFirstOption:  {NpcFirstOption, protocol.None, protocol.Little},
	OpNpcSecondOption: {NpcSecondOption, protocol.Offset, protocol.Little},
	OpNpcThirdOption:  {NpcThirdOption, protocol.Offset, protocol.Little},
}

// DecodeNpcAction reads an NPC interaction frame.
func DecodeNpcAction(f *protocol.Frame) (NpcAction, error) {
	layout, ok := npcLayouts[f.Opcode]
	if !ok {
		return NpcAction{}, fmt.Errorf("handlers: opcode %d is not an npc action", f.Opcode)
	}
	idx, err := f.ReadUint16(layout.transform, layout.order)
	if err != nil {
		return NpcAction{}, fmt.Errorf("npc %s: %w", layout.kind, err)
	}
	return NpcAction{Kind: layout.kind, Index: idx}, nil
}

// EncodeNpcAction writes a the way the client does.
func EncodeNpcAction(a NpcAction) (*protocol.Builder, error) {
	for op, layout := range npcLayouts {
		if layout.kind == a.Kind {
			b := protocol.NewBuilder(op, protocol.Fixed)
			b.WriteUint16(a.Index, layout.transform, layout.order)
			return b, nil
		}
	}
	return nil, fmt.Errorf("handlers: unknown npc action %s", a.Kind)
}

func (h *handler) npc(ctx context.Context, s *server.Session, f *protocol.Frame) error {
	a, err := DecodeNpcAction(f)
	if err != nil {
		return err
	}
	s.Logger().Debug("npc action", "kind", a.Kind, "index", a.Index)
	return h.game.NpcInteract(ctx, s, a)
}
