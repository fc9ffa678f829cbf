package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/runewire/internal/tables"
	"github.com/vango-dev/runewire/pkg/protocol"
)

func tableCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Inspect and export opcode length tables",
		Long: `Inspect and export opcode length tables.

A length table tells the frame decoder how many payload bytes follow
each client opcode. Tables are YAML files:

  revision: 317
  lengths:
    0: 0      # heartbeat, no payload
    4: -1     # chat, one length byte follows the opcode
    214: 7

A source is a file path or an s3://bucket/key[?versionId=v] URL. With
no source the configured protocol.length_table is used, and with none
configured the built-in 317 table.`,
	}

	cmd.AddCommand(
		tableShowCmd(configPath),
		tableValidateCmd(configPath),
		tableExportCmd(),
	)
	return cmd
}

// resolveTable loads args[0], or the configured table when args is empty.
func resolveTable(cmd *cobra.Command, configPath string, args []string) (string, *protocol.LengthTable, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return "", nil, err
	}
	source := cfg.Protocol.LengthTable
	if len(args) > 0 {
		source = args[0]
	}

	loader, err := newLoader(cmd.Context(), cfg, source, discardLogger())
	if err != nil {
		return "", nil, err
	}
	table, err := loader.Load(cmd.Context(), source)
	if err != nil {
		return "", nil, err
	}
	if source == "" {
		source = "built-in"
	}
	return source, table, nil
}

func tableShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show [source]",
		Short: "Print every defined opcode and its frame shape",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, table, err := resolveTable(cmd, *configPath, args)
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), source, table)
		},
	}
}

func printTable(w io.Writer, source string, table *protocol.LengthTable) error {
	fmt.Fprintf(w, "%s (revision %d)\n\n", source, table.Revision())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPCODE\tSHAPE\tLENGTH")
	for op, n := range table.Entries() {
		if n == protocol.Undefined {
			continue
		}
		shape, _ := table.ShapeFor(uint8(op))
		length := fmt.Sprint(n)
		if n == protocol.VariableLength {
			length = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", op, shape, length)
	}
	return tw.Flush()
}

func tableValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [source]",
		Short: "Check that a length table parses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, table, err := resolveTable(cmd, *configPath, args)
			if err != nil {
				return err
			}

			fixed, variable := 0, 0
			for _, n := range table.Entries() {
				switch {
				case n == protocol.VariableLength:
					variable++
				case n != protocol.Undefined:
					fixed++
				}
			}
			w := cmd.OutOrStdout()
			success(w, "%s is valid", source)
			info(w, "revision %d, %d fixed and %d variable opcodes", table.Revision(), fixed, variable)
			return nil
		},
	}
}

func tableExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the built-in 317 table as YAML",
		Long: `Write the built-in 317 table as YAML, as a starting point for a
table describing another client build.

Examples:
  runewire table export
  runewire table export -o tables/317.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return tables.Encode(cmd.OutOrStdout(), protocol.DefaultLengthTable)
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := tables.Encode(f, protocol.DefaultLengthTable); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}
