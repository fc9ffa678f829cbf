package handlers

import (
	"errors"
	"sort"

	"github.com/vango-dev/runewire/pkg/protocol"
	"github.com/vango-dev/runewire/pkg/server"
)

// Outbound opcodes.
const (
	OpSidebarInterface uint8 = 71
	OpShowInterface    uint8 = 97
	OpLogout           uint8 = 109
	OpGameMessage      uint8 = 253
)

// SidebarInterfaces maps each sidebar tab to the interface shown in it on
// login. Tab 7 is left empty.
var SidebarInterfaces = map[uint8]uint16{
	0:  2423,
	1:  3917,
	2:  638,
	3:  3213,
	4:  1644,
	5:  5608,
	6:  1151,
	8:  5065,
	9:  5715,
	10: 2449,
	11: 904,
	12: 147,
	13: 962,
}

// ShowInterface opens interface id in the main game area.
func ShowInterface(id uint16) *protocol.Builder {
	b := protocol.NewBuilder(OpShowInterface, protocol.Fixed)
	b.WriteUint16(id, protocol.None, protocol.Big)
	return b
}

// SidebarInterface shows form in sidebar tab menu.
func SidebarInterface(menu uint8, form uint16) *protocol.Builder {
	b := protocol.NewBuilder(OpSidebarInterface, protocol.Fixed)
	b.WriteUint16(form, protocol.None, protocol.Big)
	b.WriteUint8(menu, protocol.Offset)
	return b
}

// GameMessage prints text in the chat box.
func GameMessage(text string) *protocol.Builder {
	b := protocol.NewBuilder(OpGameMessage, protocol.VariableByte)
	b.WriteString(text)
	return b
}

// Logout tells the client to return to the login screen.
func Logout() *protocol.Builder {
	return protocol.NewBuilder(OpLogout, protocol.Fixed)
}

// SendSidebars queues every entry of SidebarInterfaces, in tab order.
func SendSidebars(s *server.Session) error {
	tabs := make([]int, 0, len(SidebarInterfaces))
	for tab := range SidebarInterfaces {
		tabs = append(tabs, int(tab))
	}
	sort.Ints(tabs)

	var errs []error
	for _, tab := range tabs {
		if err := s.Send(SidebarInterface(uint8(tab), SidebarInterfaces[uint8(tab)])); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
