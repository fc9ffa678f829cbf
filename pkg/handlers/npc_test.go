package handlers

import (
	"bytes"
	"testing"

	"github.com/vango-dev/runewire/pkg/protocol"
)

func TestDecodeNpcActionWire(t *testing.T) {
	// index 300 = 0x012C
	tests := []struct {
		opcode  uint8
		payload []byte
		want    NpcAction
	}{
		{OpNpcAttack, []byte{0x01, 0xAC}, NpcAction{NpcAttack, 300}},
		{OpNpcFirstOption, []byte{0x2C, 0x01}, NpcAction{NpcFirstOption, 300}},
		{OpNpcSecondOption, []byte{0xAC, 0x01}, NpcAction{NpcSecondOption, 300}},
		{OpNpcThirdOption, []byte{0xAC, 0x01}, NpcAction{NpcThirdOption, 300}},
	}
	for _, tt := range tests {
		t.Run(tt.want.Kind.String(), func(t *testing.T) {
			got, err := DecodeNpcAction(protocol.NewFrame(tt.opcode, tt.payload))
			if err != nil {
				t.Fatalf("DecodeNpcAction() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeNpcAction() = %+v, want %+v", got, tt.want)
			}
			b, err := EncodeNpcAction(tt.want)
			if err != nil {
				t.Fatal(err)
			}
			if b.Opcode != tt.opcode || !bytes.Equal(b.Bytes(), tt.payload) {
				t.Errorf("EncodeNpcAction() = %d %x", b.Opcode, b.Bytes())
			}
		})
	}
}

func TestNpcActionKindString(t *testing.T) {
	if NpcAttack.String() != "Attack" {
		t.Errorf("NpcAttack = %q", NpcAttack.String())
	}
	if got := NpcActionKind(9).String(); got != "NpcActionKind(9)" {
		t.Errorf("unknown kind = %q", got)
	}
	if got := ClickKind(9).String(); got != "ClickKind(9)" {
		t.Errorf("unknown click kind = %q", got)
	}
}
