package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lamina/internal/buildpipeline"
	"lamina/internal/diag"
	"lamina/internal/diagfmt"
	"lamina/internal/driver"
	"lamina/internal/observ"
	"lamina/internal/source"
)

// errDiagnostics marks a failure whose diagnostics were already printed.
var errDiagnostics = errors.New("compilation failed")

func isSilentFailure(err error) bool {
	return errors.Is(err, errDiagnostics)
}

type outputFlags struct {
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
	format         string
	paths          diagfmt.PathMode
}

func readOutputFlags(cmd *cobra.Command) (outputFlags, error) {
	pf := cmd.Root().PersistentFlags()
	var of outputFlags
	colorFlag, err := pf.GetString("color")
	if err != nil {
		return of, fmt.Errorf("failed to get color flag: %w", err)
	}
	if of.color, err = colorEnabled(colorFlag, os.Stderr); err != nil {
		return of, err
	}
	if of.quiet, err = pf.GetBool("quiet"); err != nil {
		return of, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if of.timings, err = pf.GetBool("timings"); err != nil {
		return of, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if of.maxDiagnostics, err = pf.GetInt("max-diagnostics"); err != nil {
		return of, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	pathFlag, err := pf.GetString("diag-paths")
	if err != nil {
		return of, fmt.Errorf("failed to get diag-paths flag: %w", err)
	}
	if of.paths, err = diagfmt.ParsePathMode(pathFlag); err != nil {
		return of, err
	}
	if f := cmd.Flags().Lookup("diag-format"); f != nil {
		of.format = f.Value.String()
	}
	return of, nil
}

// printDiagnostics renders bag to w and reports whether it held errors.
func printDiagnostics(w io.Writer, bag *diag.Bag, fs *source.FileSet, of outputFlags) (bool, error) {
	if bag == nil || bag.Len() == 0 {
		return false, nil
	}
	bag.Sort()
	var err error
	switch of.format {
	case "json":
		err = diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         of.paths,
			Max:              of.maxDiagnostics,
			IncludeNotes:     true,
		})
	default:
		err = diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
			Color:     of.color,
			Context:   2,
			PathMode:  of.paths,
			ShowNotes: true,
		})
		if err == nil && bag.Dropped() > 0 {
			_, err = fmt.Fprintf(w, "... %d more diagnostics omitted (--max-diagnostics)\n", bag.Dropped())
		}
	}
	return bag.HasErrors(), err
}

// reportResult prints the diagnostics of res; a non-nil error fails the command.
func reportResult(w io.Writer, res *driver.Result, of outputFlags) error {
	failed, err := printDiagnostics(w, res.Bag, res.FileSet, of)
	if err != nil {
		return err
	}
	if failed {
		return errDiagnostics
	}
	return nil
}

func printStageTimings(out io.Writer, path string, timings buildpipeline.Timings) {
	for _, st := range buildpipeline.Stages {
		if !timings.Has(st) {
			continue
		}
		fmt.Fprintf(out, "%s: %-8s %.2f ms\n", path, st, toMillis(timings.Duration(st)))
	}
}

func printTimerSummary(out io.Writer, timer *observ.Timer) {
	if timer == nil {
		return
	}
	fmt.Fprint(out, timer.Summary())
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
