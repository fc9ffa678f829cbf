package handlers

import (
	"github.com/vango-dev/runewire/pkg/server"
)

type handler struct {
	game Game
}

// Register installs the client frame handlers on d, forwarding decoded
// actions to game.
func Register(d *server.Dispatcher, game Game) {
	h := &handler{game: game}

	d.RegisterAll(h.ignore, OpHeartbeat, OpMouseMovement)
	d.RegisterAll(h.ignore, PingOpcodes...)
	d.Register(OpFocus, h.focus)
	d.Register(OpIdle, h.idle)
	d.Register(OpCamera, h.camera)
	d.Register(OpMouseClick, h.mouseClick)

	d.Register(OpChat, h.chat)
	d.Register(OpCommand, h.command)
	d.Register(OpButton, h.button)
	d.Register(OpDesign, h.design)

	d.RegisterAll(h.walk, OpMinimapWalk, OpMapWalk, OpActionWalk)

	d.RegisterAll(h.itemClick, OpFirstOption, OpSecondOption, OpThirdOption,
		OpFourthOption, OpFifthOption, OpFirstAction)
	d.Register(OpSwitchItem, h.switchItem)

	d.RegisterAll(h.npc, OpNpcAttack, OpNpcFirstOption, OpNpcSecondOption, OpNpcThirdOption)
}
