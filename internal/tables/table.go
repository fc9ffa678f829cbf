package tables

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/runewire/internal/errors"
	"github.com/vango-dev/runewire/pkg/protocol"
)

// File is the YAML form of a length table.
type File struct {
	Revision int         `yaml:"revision"`
	Lengths  map[int]int `yaml:"lengths"`
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// Parse decodes a YAML length table. name is used in error locations.
func Parse(name string, data []byte) (*protocol.LengthTable, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.New("R202").WithDetail(name + " is empty")
		}
		e := errors.New("R202").Wrap(err)
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			line, _ := strconv.Atoi(m[1])
			e.WithLocation(name, line, 0)
		}
		return nil, e
	}
	if f.Revision <= 0 {
		return nil, errors.New("R202").
			WithDetail(name + " does not name a client revision").
			WithSuggestion("Add a top-level revision key, for example revision: 317")
	}
	if len(f.Lengths) == 0 {
		return nil, errors.New("R202").WithDetail(name + " defines no opcodes")
	}

	lengths := make(map[uint8]int, len(f.Lengths))
	for op, n := range f.Lengths {
		var bad string
		switch {
		case op < 0 || op > 255:
			bad = fmt.Sprintf("opcode %d is outside 0..255", op)
		case n < protocol.VariableLength || n > protocol.MaxFixedLength:
			bad = fmt.Sprintf("opcode %d has length %d; lengths are -1 or 0..255", op, n)
		}
		if bad != "" {
			e := errors.New("R202").WithDetail(bad)
			if line := keyLine(data, op); line > 0 {
				e.WithLocation(name, line, 0)
			}
			return nil, e
		}
		lengths[uint8(op)] = n
	}

	table, err := protocol.NewLengthTableFromMap(f.Revision, lengths)
	if err != nil {
		return nil, errors.New("R202").Wrap(err)
	}
	return table, nil
}

// keyLine returns the line of opcode's entry under lengths, or 0.
func keyLine(data []byte, opcode int) int {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Content) == 0 {
		return 0
	}
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "lengths" {
			continue
		}
		entries := root.Content[i+1]
		for j := 0; j+1 < len(entries.Content); j += 2 {
			if k, err := strconv.Atoi(entries.Content[j].Value); err == nil && k == opcode {
				return entries.Content[j].Line
			}
		}
	}
	return 0
}

// Encode writes t as YAML. Undefined opcodes are left out.
func Encode(w io.Writer, t *protocol.LengthTable) error {
	f := File{Revision: t.Revision(), Lengths: make(map[int]int)}
	for op, n := range t.Entries() {
		if n != protocol.Undefined {
			f.Lengths[op] = n
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}
