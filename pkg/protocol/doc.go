// Package protocol implements the byte-level wire codec of the legacy game
// client.
//
// The client predates any general serialization format. Every field is a
// fixed-width integer with its own byte order and, for some fields, a one
// byte obfuscating transform. Both must match the client exactly or the
// value is garbage.
//
// # Wire Format
//
// Each inbound frame starts with a header byte holding the opcode masked by
// the connection's keystream (see package isaac):
//
//	┌──────────────────────┬───────────────────────┬──────────────────┐
//	│ Header               │ Length                │ Payload          │
//	│ (opcode + key) & 0xFF│ (1 byte, only when    │ (length bytes)   │
//	│ (1 byte)             │  table says variable) │                  │
//	└──────────────────────┴───────────────────────┴──────────────────┘
//
// The payload length comes from a LengthTable indexed by opcode. An entry of
// VariableLength means one more unsigned length byte follows the header.
// Outbound frames additionally use a two byte length (VariableShort).
//
// # Byte Orders
//
// For a 32-bit value with bytes b3 (most significant) to b0:
//
//   - Big: b3 b2 b1 b0
//   - Little: b0 b1 b2 b3
//   - Middle: b1 b0 b3 b2
//   - InverseMiddle: b2 b3 b0 b1
//
// Middle orders exist only for 4 and 8 byte values.
//
// # Transforms
//
// A Transform changes exactly one byte of a value:
//
//   - Offset: stored = raw + 128
//   - NegativeOffset: stored = 128 - raw
//   - Inverted: stored = -raw
//   - Negative: stored = ^raw
//
// The least significant byte receives the transform, except for
// PreNegativeOffset which hits the last byte on the wire.
//
// # Bit Access
//
// Some outbound payloads pack fields at bit granularity. Encoder.StartBitAccess
// begins bit writes at the next whole byte, WriteBits writes 1 to 32 bits most
// significant first, and FinishBitAccess pads to a byte boundary. The Decoder
// mirrors the same calls.
//
// # Usage
//
//	d := protocol.NewDecoder(payload)
//	iface, err := d.ReadUint16(protocol.Offset, protocol.Little)
//
//	b := protocol.NewBuilder(97, protocol.Fixed)
//	b.WriteUint16(3213, protocol.None, protocol.Big)
package protocol
