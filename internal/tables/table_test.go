package tables

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/vango-dev/runewire/internal/errors"
	"github.com/vango-dev/runewire/pkg/protocol"
)

const smallTable = `revision: 289
lengths:
  0: 0
  4: -1
  214: 7
`

func TestParse(t *testing.T) {
	table, err := Parse("small.yaml", []byte(smallTable))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if table.Revision() != 289 {
		t.Errorf("Revision() = %d, want 289", table.Revision())
	}

	tests := []struct {
		opcode uint8
		want   int
	}{
		{0, 0},
		{4, protocol.VariableLength},
		{214, 7},
		{1, protocol.Undefined},
		{255, protocol.Undefined},
	}
	for _, tt := range tests {
		if got := table.Length(tt.opcode); got != tt.want {
			t.Errorf("Length(%d) = %d, want %d", tt.opcode, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantLine int
	}{
		{"empty", "", 0},
		{"no revision", "lengths:\n  0: 0\n", 0},
		{"no lengths", "revision: 317\n", 0},
		{"unknown field", "revision: 317\nsizes:\n  0: 0\n", 2},
		{"not a map", "revision: 317\nlengths: [1, 2]\n", 2},
		{"opcode out of range", "revision: 317\nlengths:\n  0: 0\n  256: 1\n", 4},
		{"length too small", "revision: 317\nlengths:\n  7: -2\n", 3},
		{"length too large", "revision: 317\nlengths:\n  1: 2\n  7: 300\n", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("table.yaml", []byte(tt.data))
			var re *errors.RunewireError
			if !stderrors.As(err, &re) {
				t.Fatalf("Parse() error = %v, want RunewireError", err)
			}
			if re.Code != "R202" {
				t.Errorf("Code = %q, want R202", re.Code)
			}
			if tt.wantLine == 0 {
				return
			}
			if re.Location == nil || re.Location.Line != tt.wantLine {
				t.Errorf("Location = %v, want line %d", re.Location, tt.wantLine)
			}
		})
	}
}

func TestEncodeDefaultTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, protocol.DefaultLengthTable); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	table, err := Parse("default.yaml", buf.Bytes())
	if err != nil {
		t.Fatalf("Parse(encoded) error = %v\n%s", err, buf.String())
	}
	if table.Revision() != protocol.DefaultRevision {
		t.Errorf("Revision() = %d", table.Revision())
	}
	if table.Entries() != protocol.DefaultLengthTable.Entries() {
		t.Error("default table did not survive an encode and parse")
	}
}
