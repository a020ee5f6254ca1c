package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hwtoolkit/rtlsyn"
	"github.com/hwtoolkit/rtlsyn/blif"
	"github.com/hwtoolkit/rtlsyn/vlog"
)

var outputPath string

var synthCmd = &cobra.Command{
	Use:   "synth <input.v>",
	Short: "Synthesize a Verilog file to a BLIF netlist",
	Long: `Parse, elaborate and bit-blast a Verilog file, then write the resulting
gate-level netlist in BLIF format.

Examples:
  rtlsyn synth counter.v
  rtlsyn synth alu.v --top alu -o alu.blif`,
	Args: cobra.ExactArgs(1),
	RunE: runSynth,
}

func init() {
	rootCmd.AddCommand(synthCmd)

	synthCmd.Flags().StringVarP(&outputPath, "output", "o", "out.blif",
		"output BLIF file")
}

func runSynth(cmd *cobra.Command, args []string) error {
	n, err := synthesize(args[0])
	if err != nil {
		return err
	}
	if verbose {
		fmt.Printf("writing %s\n", outputPath)
	}
	if err := blif.WriteFile(outputPath, n); err != nil {
		return err
	}
	fmt.Printf("%s: %d nets, %d primitives -> %s\n",
		n.Name, n.NumNets(), len(n.Prims), outputPath)
	return nil
}

// synthesize runs the full pipeline on the Verilog file at path.
func synthesize(path string) (*rtlsyn.Netlist, error) {
	p, err := vlog.NewParser()
	if err != nil {
		return nil, err
	}
	if verbose {
		fmt.Printf("parsing %s\n", path)
	}
	mods, err := p.ParseFile(path)
	if err != nil {
		return nil, err
	}
	d, err := vlog.Assemble(mods, topModule)
	if err != nil {
		return nil, err
	}
	if verbose {
		fmt.Printf("synthesizing top module %s\n", d.Top)
	}
	return rtlsyn.Synthesize(d)
}
