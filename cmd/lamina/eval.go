package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lamina/internal/driver"
	"lamina/internal/ffi"
	"lamina/internal/ir"
	"lamina/internal/project"
)

var evalCmd = &cobra.Command{
	Use:   "eval [flags] <expr>...",
	Short: "Evaluate top-level forms without a backend",
	Long:  `Eval analyzes the given forms (or stdin with -) and runs them in the IR evaluator, printing the value of the last one`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEval,
}

func runEval(cmd *cobra.Command, args []string) error {
	of, err := readOutputFlags(cmd)
	if err != nil {
		return err
	}
	src := strings.Join(args, " ")
	name := "<eval>"
	if src == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		src, name = string(data), "<stdin>"
	}

	// externs declared in lamina.toml are visible but have no implementation here
	var env *ffi.Env
	if manifest, found, merr := project.Load("."); merr == nil && found {
		if env, err = manifest.Config.Env(); err != nil {
			return err
		}
	}
	v, res, err := driver.Evaluate(cmd.Context(), name, src, env, nil)
	if res != nil {
		if rerr := reportResult(os.Stderr, res, of); rerr != nil {
			return rerr
		}
	}
	if err != nil {
		return err
	}
	if v.Type != ir.TypeUnit {
		fmt.Fprintln(cmd.OutOrStdout(), ir.FormatValue(v))
	}
	return nil
}
