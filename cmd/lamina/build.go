package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lamina/internal/backend/native"
	"lamina/internal/buildpipeline"
	"lamina/internal/diag"
	"lamina/internal/driver"
	"lamina/internal/middle"
	"lamina/internal/observ"
	"lamina/internal/source"
	"lamina/internal/ui"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [file.lam|directory]",
	Short: "Build a lamina file, directory or project",
	Long:  "Build compiles to Huff (evm), LLVM IR (llvm) or a native executable (native). Without a path, lamina.toml names the entrypoint.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompile(cmd, args, true)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.lam|directory]",
	Short: "Run the whole pipeline without writing artifacts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompile(cmd, args, false)
	},
}

func init() {
	for _, c := range []*cobra.Command{buildCmd, checkCmd} {
		c.Flags().String("target", "", "artifact kind (evm|native|llvm); default from lamina.toml or evm")
		c.Flags().Int("jobs", 0, "max parallel workers for directory builds (0=auto)")
		c.Flags().String("ui", "auto", "progress view for directory builds (auto|on|off)")
		c.Flags().String("diag-format", "pretty", "diagnostics format (pretty|json)")
		c.Flags().Bool("no-fold", false, "disable constant folding")
		c.Flags().Bool("no-dce", false, "disable dead-code elimination")
	}
	buildCmd.Flags().StringP("out", "o", "", "output file (single file) or directory")
	buildCmd.Flags().Bool("no-cache", false, "do not read or write the artifact cache")
	buildCmd.Flags().String("triple", "", "LLVM target triple (default: host for native, "+native.DefaultTriple+" for llvm)")
	buildCmd.Flags().String("clang", "", "path to clang (default: $PATH lookup)")
	buildCmd.Flags().Bool("object", false, "native target: emit an object file instead of an executable")
}

type compileFlags struct {
	target  string
	jobs    int
	ui      string
	noFold  bool
	noDCE   bool
	out     string
	noCache bool
	triple  string
	clang   string
	object  bool
}

func readCompileFlags(cmd *cobra.Command, write bool) (compileFlags, error) {
	var cf compileFlags
	var err error
	fl := cmd.Flags()
	if cf.target, err = fl.GetString("target"); err != nil {
		return cf, err
	}
	if cf.jobs, err = fl.GetInt("jobs"); err != nil {
		return cf, err
	}
	if cf.ui, err = fl.GetString("ui"); err != nil {
		return cf, err
	}
	if cf.noFold, err = fl.GetBool("no-fold"); err != nil {
		return cf, err
	}
	if cf.noDCE, err = fl.GetBool("no-dce"); err != nil {
		return cf, err
	}
	if !write {
		return cf, nil
	}
	if cf.out, err = fl.GetString("out"); err != nil {
		return cf, err
	}
	if cf.noCache, err = fl.GetBool("no-cache"); err != nil {
		return cf, err
	}
	if cf.triple, err = fl.GetString("triple"); err != nil {
		return cf, err
	}
	if cf.clang, err = fl.GetString("clang"); err != nil {
		return cf, err
	}
	if cf.object, err = fl.GetBool("object"); err != nil {
		return cf, err
	}
	return cf, nil
}

func runCompile(cmd *cobra.Command, args []string, write bool) error {
	ctx := cmd.Context()
	of, err := readOutputFlags(cmd)
	if err != nil {
		return err
	}
	cf, err := readCompileFlags(cmd, write)
	if err != nil {
		return err
	}
	mode, err := parseSwitch("ui", cf.ui)
	if err != nil {
		return err
	}
	in, err := resolveInput(args)
	if err != nil {
		return err
	}
	if cf.target != "" {
		if in.Target, err = buildpipeline.ParseTarget(cf.target); err != nil {
			return err
		}
	}
	if cf.jobs > 0 {
		in.Jobs = cf.jobs
	}

	var timer *observ.Timer
	if of.timings {
		timer = observ.NewTimer()
	}
	opts := driver.Options{
		Target:         in.Target,
		Name:           in.Name,
		Env:            in.Env,
		Optimize:       middle.Options{NoFold: cf.noFold, NoDCE: cf.noDCE},
		MaxDiagnostics: of.maxDiagnostics,
		Triple:         cf.triple,
		Timer:          timer,
	}
	if write {
		if err := configureBackend(ctx, &opts, cf); err != nil {
			return err
		}
	}

	if in.IsDir {
		err = compileDirectory(cmd, in, opts, of, mode, write, cf.out)
	} else {
		err = compileSingle(cmd, in, opts, of, write, cf.out)
	}
	if of.timings {
		printTimerSummary(cmd.ErrOrStderr(), timer)
	}
	return err
}

func configureBackend(ctx context.Context, opts *driver.Options, cf compileFlags) error {
	if !cf.noCache {
		cache, err := driver.OpenUserCache("lamina")
		if err != nil {
			return fmt.Errorf("artifact cache: %w", err)
		}
		opts.Cache = cache
	}
	if opts.Target == buildpipeline.TargetNative {
		tc := native.ClangToolchain{Path: cf.clang, Object: cf.object}
		if opts.Triple == "" {
			opts.Triple = tc.HostTriple(ctx)
		}
		opts.Toolchain = tc
	}
	return nil
}

func compileSingle(cmd *cobra.Command, in buildInput, opts driver.Options, of outputFlags, write bool, outFlag string) error {
	ctx := cmd.Context()
	var (
		res *driver.Result
		err error
		out string
	)
	if write {
		out = outFlag
		if out == "" {
			out = driver.ArtifactPath(in.Out, filepath.Base(in.Path), in.Target)
		}
		res, err = driver.BuildFile(ctx, in.Path, out, opts)
	} else {
		res, err = driver.CompileFile(ctx, in.Path, opts)
	}
	if err != nil {
		return err
	}
	if err := reportResult(os.Stderr, res, of); err != nil {
		return err
	}
	if of.timings && !res.Cached {
		printStageTimings(cmd.ErrOrStderr(), res.File.Path, res.Timings)
	}
	if of.quiet {
		return nil
	}
	switch {
	case write && res.Cached:
		fmt.Fprintf(cmd.OutOrStdout(), "built %s (cached)\n", out)
	case write:
		fmt.Fprintf(cmd.OutOrStdout(), "built %s\n", out)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", res.File.Path)
	}
	return nil
}

func compileDirectory(cmd *cobra.Command, in buildInput, opts driver.Options, of outputFlags, mode autoSwitch, write bool, outFlag string) error {
	ctx := cmd.Context()
	outDir := ""
	if write {
		outDir = outFlag
		if outDir == "" {
			outDir = in.Out
		}
	}
	// имя пакета не применяется к файлам каталога
	opts.Name = ""

	var (
		fs      *source.FileSet
		results []driver.FileResult
	)
	work := func(sink buildpipeline.ProgressSink) error {
		opts.Sink = sink
		var err error
		fs, results, err = driver.CompileDir(ctx, in.Path, outDir, in.Jobs, opts)
		return err
	}

	var err error
	if mode.enabledFor(os.Stdout) && !of.quiet {
		files, listErr := driver.ListSources(in.Path)
		if listErr != nil {
			return listErr
		}
		title := "lamina check"
		if write {
			title = "lamina build"
		}
		err = ui.RunProgress(ctx, cmd.OutOrStdout(), title, files, work)
	} else {
		err = work(nil)
	}
	if err != nil {
		return err
	}

	bag := diag.NewBag(of.maxDiagnostics)
	failed, built := 0, 0
	for _, r := range results {
		if r.Result.Failed() {
			failed++
		}
		if r.Out != "" {
			built++
		}
		bag.Merge(r.Result.Bag)
	}
	if _, err := printDiagnostics(os.Stderr, bag, fs, of); err != nil {
		return err
	}
	if !of.quiet {
		if write {
			fmt.Fprintf(cmd.OutOrStdout(), "built %d of %d files into %s\n", built, len(results), outDir)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "checked %d files, %d failed\n", len(results), failed)
		}
	}
	if failed > 0 {
		return errDiagnostics
	}
	return nil
}
