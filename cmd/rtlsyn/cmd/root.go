package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose   bool
	topModule string
)

var rootCmd = &cobra.Command{
	Use:   "rtlsyn",
	Short: "rtlsyn - RTL to gate-level logic synthesizer",
	Long: `rtlsyn synthesizes a restricted synthesizable Verilog subset down to a
flat gate-level netlist of AND/OR/XOR/NOT/MUX gates and D flip-flops.

Examples:
  rtlsyn synth counter.v -o counter.blif   # Synthesize to BLIF
  rtlsyn check design.v --top alu          # Validate without writing output
  rtlsyn dump design.v                     # Dump the elaborated module as JSON`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&topModule, "top", "t", "",
		"top module name (default: last module in the file)")
}
