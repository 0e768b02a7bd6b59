// cpmrun runs 8080 processor diagnostic binaries (CP/M .COM style images
// loaded at 0x0100) against the emulated CPU, either to completion or
// interactively in the terminal monitor.
package main

import (
	"fmt"
	"os"

	"github.com/jmchacon/8080/cpm"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cpmrun",
		Short: "Run 8080 CPU diagnostics under a minimal CP/M harness",
	}

	var limit uint64
	var trace bool
	var strictANA bool

	runCmd := &cobra.Command{
		Use:   "run <binary>",
		Short: "Run a diagnostic binary until it warm boots, printing its console output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			def := &cpm.Def{
				Program:   prog,
				Output:    os.Stdout,
				StrictANA: strictANA,
			}
			if trace {
				def.Trace = os.Stderr
			}
			m, err := cpm.Init(def)
			if err != nil {
				return err
			}
			if err := m.Run(limit); err != nil {
				return err
			}
			fmt.Println()
			return nil
		},
	}
	runCmd.Flags().Uint64Var(&limit, "limit", 10_000_000_000, "Maximum instructions before giving up (8080EXM needs billions)")
	runCmd.Flags().BoolVar(&trace, "trace", false, "Log each instruction to stderr")
	runCmd.Flags().BoolVar(&strictANA, "strict_ana", false, "Clear AC on AND ops per the programmer's manual (CPUTEST fails with this)")
	rootCmd.AddCommand(runCmd)

	debugCmd := &cobra.Command{
		Use:   "debug <binary>",
		Short: "Load a binary and single step it in the terminal monitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			m, err := cpm.Init(&cpm.Def{Program: prog, Output: os.Stdout, StrictANA: strictANA})
			if err != nil {
				return err
			}
			return m.CPU().Debug()
		},
	}
	debugCmd.Flags().BoolVar(&strictANA, "strict_ana", false, "Clear AC on AND ops per the programmer's manual")
	rootCmd.AddCommand(debugCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
