// Package server provides the connection runtime for the game protocol.
//
// The server package accepts client connections, runs the login handshake,
// decodes inbound frames and routes them to handlers by opcode. It is the
// integration layer over the wire codec (pkg/protocol) and the keystream
// cipher (pkg/isaac).
//
// # Architecture
//
// The runtime consists of several key components:
//
//   - FrameReader: Push-based decoder that turns a ciphered byte stream into frames
//   - FrameWriter: Encodes and ciphers outbound frames onto a buffered transport
//   - Dispatcher: Opcode-indexed handler table with fault isolation
//   - Session: Per-connection read loop tying a transport to reader, writer and dispatcher
//   - SessionManager: Tracks live sessions and enforces the session cap
//   - Server: TCP and WebSocket listeners, handshake, admin API and graceful shutdown
//
// # Decoding
//
// FrameReader is a state machine that survives arbitrarily split input:
//
//	AwaitingHeader -> AwaitingLength -> AwaitingPayload -> Dispatching -> AwaitingHeader
//
// The header byte is unmasked with the next keystream byte to give the
// opcode. Fixed-size opcodes skip AwaitingLength; variable-size opcodes
// read one length byte first. A unit that has not fully arrived leaves the
// reader where it was and Next returns ErrNotReady.
//
// # Failure Handling
//
// Failures are kept per frame wherever the stream stays intact:
//
//   - *ProtocolError: unknown opcode, unhandled frame or a malformed payload.
//     Logged and counted, the session continues.
//   - *HandlerError: a handler returned an error or panicked. Logged with the
//     offending frame, the session continues.
//   - *TransportError and *CipherError: the session is disconnected.
//
// # Example Usage
//
//	d := server.NewDispatcher()
//	d.Register(0, func(ctx context.Context, s *server.Session, f *protocol.Frame) error {
//	    return nil // heartbeat
//	})
//
//	srv, err := server.New(&server.ServerConfig{
//	    Address:      ":43594",
//	    AdminAddress: ":9090",
//	}, d)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv.Run(context.Background())
//
// # Thread Safety
//
// Each session decodes and dispatches on its own goroutine, so handlers for
// one session never run concurrently. Session.Send, SendNow and Close are
// safe from any goroutine. The Dispatcher is read-only once the server is
// running.
package server
