package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lamina/internal/buildpipeline"
	"lamina/internal/diagfmt"
	"lamina/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.lam",
	Short: "Parse a lamina source file and print its AST",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().String("format", "pretty", "output format (pretty|tree|json)")
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	of, err := readOutputFlags(cmd)
	if err != nil {
		return err
	}

	res, err := driver.CompileFile(cmd.Context(), args[0], driver.Options{
		StopAfter:      buildpipeline.StageParse,
		MaxDiagnostics: of.maxDiagnostics,
	})
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}
	if err := reportResult(os.Stderr, res, of); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		return diagfmt.FormatASTPretty(out, res.Builder, res.Roots)
	case "tree":
		return diagfmt.FormatASTTree(out, res.Builder, res.Roots, res.FileSet)
	case "json":
		return diagfmt.FormatASTJSON(out, res.Builder, res.Roots)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
