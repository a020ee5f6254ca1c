package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/hwtoolkit/rtlsyn"
	"github.com/hwtoolkit/rtlsyn/vlog"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <input.v>",
	Short: "Dump the elaborated word-level module as JSON",
	Long: `Parse and elaborate a Verilog file and print the flattened word-level
module as JSON, one record per signal. Useful for inspecting parameter
resolution, hierarchy flattening and register inference before bit
blasting.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

type signalDump struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Signed bool   `json:"signed,omitempty"`
	Kind   string `json:"kind"`
	Input  bool   `json:"input,omitempty"`
	Output bool   `json:"output,omitempty"`
	Clock  string `json:"clock,omitempty"`
	Reset  bool   `json:"reset,omitempty"`
}

type moduleDump struct {
	Name    string       `json:"name"`
	Signals []signalDump `json:"signals"`
}

func runDump(cmd *cobra.Command, args []string) error {
	p, err := vlog.NewParser()
	if err != nil {
		return err
	}
	mods, err := p.ParseFile(args[0])
	if err != nil {
		return err
	}
	d, err := vlog.Assemble(mods, topModule)
	if err != nil {
		return err
	}
	m, err := rtlsyn.Elaborate(d)
	if err != nil {
		return err
	}

	dump := moduleDump{Name: m.Name}
	for _, s := range m.Signals() {
		dump.Signals = append(dump.Signals, signalDump{
			Name:   s.Name,
			Width:  s.Width,
			Signed: s.Signed,
			Kind:   s.Kind.String(),
			Input:  s.IsInput,
			Output: s.IsOutput,
			Clock:  s.Clock,
			Reset:  s.Reset != rtlsyn.NoExpr,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}
