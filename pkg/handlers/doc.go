// Package handlers decodes the client's frames into game actions.
//
// Register fills a server.Dispatcher with a handler per client opcode. Each
// handler reads its frame's fields in the layout the client writes them,
// keeps connection state (focus, camera, idle) on the session's Flags, and
// hands anything that needs game logic to a Game:
//
//	d := server.NewDispatcher()
//	handlers.Register(d, world)
//
// Item clicks name the interface the item was clicked on. Only the
// inventory (3214) and equipment (1688) interfaces are accepted; any other
// id is reported as a protocol error wrapping server.ErrUnrecognizedInterface
// and the frame is dropped.
//
// Decode* and Encode* functions expose the layouts directly so tools and
// tests can produce frames the way the client does. Chat text uses the
// client's packed nibble encoding; see PackText and UnpackText.
//
// Frames the server sends (interfaces, chat box messages, logout) are built
// by the functions in outgoing.go and queued with Session.Send.
package handlers
