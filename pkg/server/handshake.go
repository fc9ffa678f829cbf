package server

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/vango-dev/runewire/pkg/isaac"
	"github.com/vango-dev/runewire/pkg/protocol"
)

// Connection types sent as the first byte of a new connection.
const (
	ConnectionLogin     uint8 = 14
	ConnectionUpdate    uint8 = 15
	ConnectionNew       uint8 = 16
	ConnectionReconnect uint8 = 18
)

// loginBlockOpcode opens the inner login block.
const loginBlockOpcode = 10

// LoginStatus is the response code sent to the client during login.
type LoginStatus uint8

const (
	StatusExchangeKeys       LoginStatus = 0
	StatusOK                 LoginStatus = 2
	StatusInvalidCredentials LoginStatus = 3
	StatusGameUpdated        LoginStatus = 6
	StatusServerFull         LoginStatus = 7
	StatusBadSession         LoginStatus = 10
)

// String returns the string representation of the status.
func (s LoginStatus) String() string {
	switch s {
	case StatusExchangeKeys:
		return "ExchangeKeys"
	case StatusOK:
		return "OK"
	case StatusInvalidCredentials:
		return "InvalidCredentials"
	case StatusGameUpdated:
		return "GameUpdated"
	case StatusServerFull:
		return "ServerFull"
	case StatusBadSession:
		return "BadSession"
	default:
		return fmt.Sprintf("LoginStatus(%d)", uint8(s))
	}
}

// HandshakeResult is what the client sent during login.
type HandshakeResult struct {
	Reconnecting bool
	Revision     uint16
	LowMemory    bool
	ClientSeed   uint64
	ServerSeed   uint64
	UID          uint32
	Username     string
	Password     string
}

// Key derives the cipher key from the exchanged seeds.
func (r HandshakeResult) Key() isaac.Key {
	return isaac.Key{
		uint32(r.ClientSeed >> 32),
		uint32(r.ClientSeed),
		uint32(r.ServerSeed >> 32),
		uint32(r.ServerSeed),
	}
}

// Handshaker runs the pre-game exchange on a new connection.
type Handshaker interface {
	Handshake(ctx context.Context, conn Transport) (HandshakeResult, error)
}

// LoginHandshake implements the legacy client's login exchange. The inner
// login block is read in plaintext.
type LoginHandshake struct {
	// Revision rejects clients built for another revision. Zero accepts any.
	Revision uint16

	// Rights is the privilege level reported to the client.
	Rights uint8

	// Authenticate checks credentials. Nil accepts everyone.
	Authenticate func(ctx context.Context, login HandshakeResult) (LoginStatus, error)

	// Seed returns the server seed. Nil uses crypto/rand.
	Seed func() uint64
}

// Handshake performs the exchange. The connection deadline follows ctx.
func (h *LoginHandshake) Handshake(ctx context.Context, conn Transport) (HandshakeResult, error) {
	var result HandshakeResult

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
		defer func() {
			_ = conn.SetReadDeadline(time.Time{})
			_ = conn.SetWriteDeadline(time.Time{})
		}()
	}

	var hello [2]byte
	if _, err := io.ReadFull(conn, hello[:]); err != nil {
		return result, fmt.Errorf("%w: read connection type: %v", ErrInvalidHandshake, err)
	}
	if hello[0] != ConnectionLogin {
		return result, fmt.Errorf("%w: unsupported connection type %d", ErrInvalidHandshake, hello[0])
	}

	serverSeed := h.seed()
	reply := protocol.NewRawBuilder()
	reply.WriteUint64(0, protocol.None, protocol.Big)
	reply.WriteUint8(uint8(StatusExchangeKeys), protocol.None)
	reply.WriteUint64(serverSeed, protocol.None, protocol.Big)
	if err := writeRaw(conn, reply); err != nil {
		return result, err
	}

	var header [2]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return result, fmt.Errorf("%w: read login header: %v", ErrInvalidHandshake, err)
	}
	switch header[0] {
	case ConnectionNew:
	case ConnectionReconnect:
		result.Reconnecting = true
	default:
		return result, fmt.Errorf("%w: unexpected login type %d", ErrInvalidHandshake, header[0])
	}

	block := make([]byte, header[1])
	if _, err := io.ReadFull(conn, block); err != nil {
		return result, fmt.Errorf("%w: read login block: %v", ErrInvalidHandshake, err)
	}
	if err := parseLoginBlock(block, &result); err != nil {
		return result, fmt.Errorf("%w: %v", ErrInvalidHandshake, err)
	}

	if result.ServerSeed != serverSeed {
		_ = writeStatus(conn, StatusBadSession)
		return result, fmt.Errorf("%w: server seed mismatch", ErrInvalidHandshake)
	}
	if h.Revision != 0 && result.Revision != h.Revision {
		_ = writeStatus(conn, StatusGameUpdated)
		return result, fmt.Errorf("%w: client revision %d, want %d", ErrInvalidHandshake, result.Revision, h.Revision)
	}
	if h.Authenticate != nil {
		status, err := h.Authenticate(ctx, result)
		if err != nil {
			_ = writeStatus(conn, StatusInvalidCredentials)
			return result, fmt.Errorf("%w: authenticate: %v", ErrInvalidHandshake, err)
		}
		if status != StatusOK {
			_ = writeStatus(conn, status)
			return result, fmt.Errorf("%w: login refused: %s", ErrInvalidHandshake, status)
		}
	}

	accept := protocol.NewRawBuilder()
	accept.WriteUint8(uint8(StatusOK), protocol.None)
	accept.WriteUint8(h.Rights, protocol.None)
	accept.WriteUint8(0, protocol.None) // flagged
	if err := writeRaw(conn, accept); err != nil {
		return result, err
	}
	return result, nil
}

func (h *LoginHandshake) seed() uint64 {
	if h.Seed != nil {
		return h.Seed()
	}
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint64(b[:])
}

// parseLoginBlock reads the outer login block: magic, revision, memory
// flag, archive checksums, then the inner block carrying the seeds and
// credentials.
func parseLoginBlock(block []byte, r *HandshakeResult) error {
	d := protocol.NewDecoder(block)

	magic, err := d.ReadUint8(protocol.None)
	if err != nil {
		return err
	}
	if magic != 0xFF {
		return fmt.Errorf("bad magic %d", magic)
	}
	if r.Revision, err = d.ReadUint16(protocol.None, protocol.Big); err != nil {
		return err
	}
	memory, err := d.ReadUint8(protocol.None)
	if err != nil {
		return err
	}
	r.LowMemory = memory == 1
	if err := d.Skip(9 * 4); err != nil {
		return fmt.Errorf("archive checksums: %w", err)
	}

	if _, err := d.ReadUint8(protocol.None); err != nil { // inner block size
		return err
	}
	op, err := d.ReadUint8(protocol.None)
	if err != nil {
		return err
	}
	if op != loginBlockOpcode {
		return fmt.Errorf("bad login block opcode %d", op)
	}
	if r.ClientSeed, err = d.ReadUint64(protocol.None, protocol.Big); err != nil {
		return err
	}
	if r.ServerSeed, err = d.ReadUint64(protocol.None, protocol.Big); err != nil {
		return err
	}
	if r.UID, err = d.ReadUint32(protocol.None, protocol.Big); err != nil {
		return err
	}
	if r.Username, err = d.ReadString(); err != nil {
		return fmt.Errorf("username: %w", err)
	}
	if r.Password, err = d.ReadString(); err != nil {
		return fmt.Errorf("password: %w", err)
	}
	return nil
}

func writeStatus(conn Transport, status LoginStatus) error {
	b := protocol.NewRawBuilder()
	b.WriteUint8(uint8(status), protocol.None)
	return writeRaw(conn, b)
}

func writeRaw(conn Transport, b *protocol.Builder) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if _, err := conn.Write(b.AppendTo(nil, 0)); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}
