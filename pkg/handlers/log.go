package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vango-dev/runewire/pkg/server"
)

// LogoutButton is the id of the logout button on the logout tab.
const LogoutButton uint16 = 2458

// LoggingGame is a Game that records every action in the session log. It
// answers the logout button and echoes commands back to the player, which
// is enough to exercise a client against the server without a world.
type LoggingGame struct {
	// Level is the level actions are logged at.
	// Default: slog.LevelInfo.
	Level slog.Level
}

var _ Game = (*LoggingGame)(nil)

func (g *LoggingGame) log(ctx context.Context, s *server.Session, msg string, args ...any) {
	s.Logger().Log(ctx, g.Level, msg, args...)
}

func (g *LoggingGame) Chat(ctx context.Context, s *server.Session, msg ChatMessage) error {
	g.log(ctx, s, "chat", "text", msg.Text, "color", msg.Color, "effects", msg.Effects)
	return nil
}

func (g *LoggingGame) Command(ctx context.Context, s *server.Session, command string) error {
	g.log(ctx, s, "command", "command", command)
	name, _, _ := strings.Cut(command, " ")
	return s.Send(GameMessage("Unknown command: " + name))
}

func (g *LoggingGame) Button(ctx context.Context, s *server.Session, id uint16) error {
	g.log(ctx, s, "button", "id", id)
	if id == LogoutButton {
		return s.Send(Logout())
	}
	return nil
}

func (g *LoggingGame) DesignCharacter(ctx context.Context, s *server.Session, a Appearance) error {
	g.log(ctx, s, "design", "gender", a.Gender, "look", a.Look, "colors", a.Colors)
	return nil
}

func (g *LoggingGame) Walk(ctx context.Context, s *server.Session, m Movement) error {
	g.log(ctx, s, "walk", "x", m.FirstX, "y", m.FirstY, "steps", len(m.Steps), "running", m.Running)
	return nil
}

func (g *LoggingGame) ItemClick(ctx context.Context, s *server.Session, c ItemClick) error {
	g.log(ctx, s, "item click", "kind", c.Kind, "container", c.Container, "slot", c.Slot, "item", c.ItemID)
	return nil
}

func (g *LoggingGame) SwitchItem(ctx context.Context, s *server.Session, sw SwitchItem) error {
	g.log(ctx, s, "switch item", "container", sw.Container, "from", sw.From, "to", sw.To)
	return nil
}

func (g *LoggingGame) NpcInteract(ctx context.Context, s *server.Session, a NpcAction) error {
	g.log(ctx, s, "npc", "kind", a.Kind, "index", a.Index)
	return nil
}
