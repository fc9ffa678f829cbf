// Package tables reads and writes opcode length tables.
//
// A table is a YAML document naming the client revision it describes and
// the payload length of every opcode the client sends. Opcodes left out
// are undefined and frames carrying them are rejected.
//
//	revision: 317
//	lengths:
//	  0: 0      # heartbeat
//	  4: -1     # chat, one length byte follows the header
//	  214: 7    # switch item
//
// Load accepts a file path or an s3://bucket/key URL, optionally pinned to
// an object version with ?versionId=.
package tables
