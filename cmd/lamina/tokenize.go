package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lamina/internal/buildpipeline"
	"lamina/internal/diagfmt"
	"lamina/internal/driver"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.lam",
	Short: "Tokenize a lamina source file",
	Long:  `Tokenize breaks a lamina source file into tokens, including comment trivia`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	of, err := readOutputFlags(cmd)
	if err != nil {
		return err
	}

	res, err := driver.CompileFile(cmd.Context(), args[0], driver.Options{
		StopAfter:      buildpipeline.StageLex,
		MaxDiagnostics: of.maxDiagnostics,
	})
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}
	if err := reportResult(os.Stderr, res, of); err != nil {
		return err
	}

	switch format {
	case "pretty":
		return diagfmt.FormatTokensPretty(cmd.OutOrStdout(), res.Tokens, res.FileSet)
	case "json":
		return diagfmt.FormatTokensJSON(cmd.OutOrStdout(), res.Tokens)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
