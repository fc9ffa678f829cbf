package handlers

import (
	"context"
	"fmt"

	"github.com/vango-dev/runewire/pkg/server"
)

// Game receives the decoded client actions that need game logic. Frames
// that only update session state (focus, camera, idle) or carry nothing
// (heartbeats, pings) are handled here and never reach the Game.
//
// Methods run on the session's read loop and should return quickly; hand
// slow work to s.Go. A returned error is logged with the offending frame
// and the session carries on.
type Game interface {
	Chat(ctx context.Context, s *server.Session, msg ChatMessage) error
	Command(ctx context.Context, s *server.Session, command string) error
	Button(ctx context.Context, s *server.Session, id uint16) error
	DesignCharacter(ctx context.Context, s *server.Session, a Appearance) error
	Walk(ctx context.Context, s *server.Session, m Movement) error
	ItemClick(ctx context.Context, s *server.Session, c ItemClick) error
	SwitchItem(ctx context.Context, s *server.Session, sw SwitchItem) error
	NpcInteract(ctx context.Context, s *server.Session, a NpcAction) error
}

// Container is the item container behind an interface.
type Container uint8

const (
	Inventory Container = iota
	Equipment
)

// Interface ids of the containers item clicks may name.
const (
	InventoryInterface uint16 = 3214
	EquipmentInterface uint16 = 1688
)

// String returns the string representation of the container.
func (c Container) String() string {
	switch c {
	case Inventory:
		return "Inventory"
	case Equipment:
		return "Equipment"
	default:
		return "Unknown"
	}
}

// containerFor maps an interface id to its container.
func containerFor(iface uint16) (Container, bool) {
	switch iface {
	case InventoryInterface:
		return Inventory, true
	case EquipmentInterface:
		return Equipment, true
	default:
		return 0, false
	}
}

// ClickKind identifies which menu entry of an item was chosen.
type ClickKind uint8

const (
	FirstOption ClickKind = iota
	SecondOption
	ThirdOption
	FourthOption
	FifthOption
	FirstAction
)

// String returns the string representation of the click kind.
func (k ClickKind) String() string {
	switch k {
	case FirstOption:
		return "FirstOption"
	case SecondOption:
		return "SecondOption"
	case ThirdOption:
		return "ThirdOption"
	case FourthOption:
		return "FourthOption"
	case FifthOption:
		return "FifthOption"
	case FirstAction:
		return "FirstAction"
	default:
		return fmt.Sprintf("ClickKind(%d)", uint8(k))
	}
}

// ItemClick is a click on an item in the inventory or equipment.
type ItemClick struct {
	Kind      ClickKind
	Container Container
	Interface uint16
	Slot      uint16
	ItemID    uint16
}

// SwitchItem is an item dragged from one slot to another.
type SwitchItem struct {
	Container Container
	Interface uint16

	// Inserting is set when the client asks to insert rather than swap.
	// Only banks distinguish the two.
	Inserting bool

	From uint16
	To   uint16
}

// ChatMessage is a public chat line.
type ChatMessage struct {
	Effects uint8
	Color   uint8

	// Packed is the message as sent, in the client's packed text encoding.
	Packed []byte

	// Text is Packed decoded.
	Text string
}

// Gender is the character body type.
type Gender uint8

const (
	Male Gender = iota
	Female
)

// Appearance is the character design submitted from the design screen.
type Appearance struct {
	Gender Gender

	// Look holds the identity kit for head, jaw, torso, arms, hands, legs
	// and feet.
	Look [7]uint8

	// Colors holds hair, torso, legs, feet and skin colors.
	Colors [5]uint8
}

// Step is a waypoint offset relative to the first step.
type Step struct {
	DX int8
	DY int8
}

// Movement is a walk request: an absolute first step followed by relative
// waypoints.
type Movement struct {
	// Opcode is 164 for a map click, 248 for a minimap click and 98 for a
	// walk issued by another action.
	Opcode  uint8
	FirstX  uint16
	FirstY  uint16
	Steps   []Step
	Running bool
}

// Path returns the absolute waypoints, first step included.
func (m Movement) Path() [][2]int {
	path := make([][2]int, 0, len(m.Steps)+1)
	path = append(path, [2]int{int(m.FirstX), int(m.FirstY)})
	for _, st := range m.Steps {
		path = append(path, [2]int{int(m.FirstX) + int(st.DX), int(m.FirstY) + int(st.DY)})
	}
	return path
}

// NpcActionKind identifies an NPC interaction.
type NpcActionKind uint8

const (
	NpcAttack NpcActionKind = iota
	NpcFirstOption
	NpcSecondOption
	NpcThirdOption
)

// String returns the string representation of the action kind.
func (k NpcActionKind) String() string {
	switch k {
	case NpcAttack:
		return "Attack"
	case NpcFirstOption:
		return "FirstOption"
	case NpcSecondOption:
		return "SecondOption"
	case NpcThirdOption:
		return "ThirdOption"
	default:
		return fmt.Sprintf("NpcActionKind(%d)", uint8(k))
	}
}

// NpcAction is an interaction with the NPC at Index in the client's NPC
// list.
type NpcAction struct {
	Kind  NpcActionKind
	Index uint16
}
