package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lamina/internal/buildpipeline"
	"lamina/internal/driver"
	"lamina/internal/ir"
	"lamina/internal/middle"
)

var irCmd = &cobra.Command{
	Use:   "ir [flags] [file.lam]",
	Short: "Print the IR of a lamina source file",
	Long:  `IR lowers a source file and dumps the resulting module; --optimized runs the middle-end first`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIR,
}

func init() {
	irCmd.Flags().Bool("optimized", false, "run folding and dead-code elimination before dumping")
	irCmd.Flags().Bool("no-fold", false, "disable constant folding (with --optimized)")
	irCmd.Flags().Bool("no-dce", false, "disable dead-code elimination (with --optimized)")
	irCmd.Flags().String("diag-format", "pretty", "diagnostics format (pretty|json)")
}

func runIR(cmd *cobra.Command, args []string) error {
	optimized, err := cmd.Flags().GetBool("optimized")
	if err != nil {
		return err
	}
	noFold, err := cmd.Flags().GetBool("no-fold")
	if err != nil {
		return err
	}
	noDCE, err := cmd.Flags().GetBool("no-dce")
	if err != nil {
		return err
	}
	of, err := readOutputFlags(cmd)
	if err != nil {
		return err
	}
	in, err := resolveInput(args)
	if err != nil {
		return err
	}
	if in.IsDir {
		return fmt.Errorf("ir expects a file, %s is a directory", in.Path)
	}

	stop := buildpipeline.StageAnalyze
	if optimized {
		stop = buildpipeline.StageOptimize
	}
	res, err := driver.CompileFile(cmd.Context(), in.Path, driver.Options{
		Name:           in.Name,
		Env:            in.Env,
		StopAfter:      stop,
		Optimize:       middle.Options{NoFold: noFold, NoDCE: noDCE},
		MaxDiagnostics: of.maxDiagnostics,
	})
	if err != nil {
		return err
	}
	if err := reportResult(os.Stderr, res, of); err != nil {
		return err
	}
	if err := ir.Dump(cmd.OutOrStdout(), res.Module); err != nil {
		return err
	}
	if optimized && !of.quiet {
		st := res.Stats
		fmt.Fprintf(cmd.ErrOrStderr(), "folded %d, eliminated %d, removed %d functions, exported %d\n",
			st.Folded, st.Eliminated, st.RemovedFuncs, st.Exported)
	}
	return nil
}
