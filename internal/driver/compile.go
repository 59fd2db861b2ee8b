package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lamina/internal/ast"
	"lamina/internal/backend/evm"
	"lamina/internal/backend/native"
	"lamina/internal/buildpipeline"
	"lamina/internal/diag"
	"lamina/internal/ir"
	"lamina/internal/lexer"
	"lamina/internal/middle"
	"lamina/internal/parser"
	"lamina/internal/sema"
	"lamina/internal/source"
	"lamina/internal/token"
	"lamina/internal/trace"
)

// Result holds everything one compilation produced. After a failed stage
// the later fields stay zero and Bag carries the error.
type Result struct {
	FileSet *source.FileSet
	File    *source.File
	Target  buildpipeline.Target

	Tokens  []token.Token
	Builder *ast.Builder
	Roots   []ast.NodeID
	Module  *ir.Module
	Unit    *evm.Unit
	// Artifact is Huff text for the EVM target and LLVM IR otherwise.
	Artifact string

	Bag     *diag.Bag
	Stats   middle.Stats
	Timings buildpipeline.Timings
	Cached  bool
}

// Failed reports whether a stage recorded an error.
func (r *Result) Failed() bool {
	return r == nil || r.Bag.HasErrors()
}

type compilation struct {
	ctx  context.Context
	opts Options
	res  *Result
	name string
}

// CompileFile loads path into a fresh FileSet and compiles it.
func CompileFile(ctx context.Context, path string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return Compile(ctx, fs, id, opts)
}

// Compile runs lex, parse, analyze, optimize and codegen over one file,
// or the prefix of them up to Options.StopAfter.
// Diagnostics of a failing stage go into Result.Bag and the returned
// error stays nil; the error is reserved for cancellation and internal
// failures.
func Compile(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	file := fs.Get(id)
	if file == nil {
		return nil, fmt.Errorf("driver: unknown file id %d", id)
	}
	res := &Result{
		FileSet: fs,
		File:    file,
		Target:  opts.target(),
		Bag:     diag.NewBag(opts.MaxDiagnostics),
	}
	ctx, span := trace.Start(ctx, trace.ScopeFile, "file:"+source.BaseName(file.Path))
	c := &compilation{ctx: ctx, opts: opts, res: res, name: opts.moduleName(file.Path)}
	err := c.run()
	detail := ""
	switch {
	case err != nil:
		detail = "error"
	case res.Failed():
		detail = "failed"
	case res.Cached:
		detail = "cached"
	}
	span.End(detail)
	return res, err
}

func (c *compilation) run() error {
	key, cacheable := c.cacheKey()
	if cacheable {
		if entry, ok, err := c.opts.Cache.Get(key); err != nil {
			trace.Note(c.ctx, trace.ScopeFile, "cache", err.Error())
		} else if ok && entry.Target == c.res.Target {
			c.res.Artifact = entry.Artifact
			c.res.Cached = true
			c.notify("", buildpipeline.StatusCached, nil, 0)
			return nil
		}
	}

	failed, err := c.runSteps(
		step{buildpipeline.StageLex, c.lex},
		step{buildpipeline.StageParse, c.parse},
		step{buildpipeline.StageAnalyze, c.analyze},
		step{buildpipeline.StageOptimize, c.optimize},
		step{buildpipeline.StageCodegen, c.codegen},
	)
	if err != nil || failed {
		return err
	}

	if cacheable && c.res.Artifact != "" {
		entry := &CacheEntry{Target: c.res.Target, Name: c.name, Artifact: c.res.Artifact}
		if err := c.opts.Cache.Put(key, entry); err != nil {
			trace.Note(c.ctx, trace.ScopeFile, "cache", err.Error())
		}
	}
	return nil
}

type step struct {
	stage buildpipeline.Stage
	fn    func(context.Context) error
}

// runSteps stops at the first failed stage or after Options.StopAfter.
func (c *compilation) runSteps(steps ...step) (bool, error) {
	for _, st := range steps {
		failed, err := c.stage(st.stage, st.fn)
		if err != nil || failed {
			return failed, err
		}
		if st.stage == c.opts.StopAfter {
			break
		}
	}
	return false, nil
}

// stage runs fn as one pipeline stage. A stage error carrying a diagnostic
// is recorded in the bag and reported as failed; anything else is returned.
func (c *compilation) stage(stage buildpipeline.Stage, fn func(context.Context) error) (bool, error) {
	if err := c.ctx.Err(); err != nil {
		return false, err
	}
	ctx, span := trace.Start(c.ctx, trace.ScopePass, string(stage))
	c.notify(stage, buildpipeline.StatusWorking, nil, 0)
	start := time.Now()

	err := fn(ctx)

	elapsed := time.Since(start)
	c.res.Timings.Set(stage, elapsed)
	c.opts.Timer.Record(string(stage), elapsed, err != nil)
	span.End(errDetail(err))

	if err == nil {
		return false, nil
	}
	c.notify(stage, buildpipeline.StatusError, err, elapsed)
	if record(c.res.Bag, err) {
		return true, nil
	}
	return false, fmt.Errorf("%s: %w", stage, err)
}

func (c *compilation) notify(stage buildpipeline.Stage, status buildpipeline.Status, err error, elapsed time.Duration) {
	buildpipeline.Notify(c.opts.Sink, buildpipeline.Event{
		File:    c.res.File.Path,
		Stage:   stage,
		Status:  status,
		Err:     err,
		Elapsed: elapsed,
	})
}

func (c *compilation) lex(context.Context) error {
	toks, err := lexer.Tokenize(c.res.File, lexer.Options{})
	if err != nil {
		return err
	}
	c.res.Tokens = toks
	return nil
}

func (c *compilation) parse(ctx context.Context) error {
	b := ast.NewBuilder(ast.Hints{Nodes: uint(len(c.res.Tokens))})
	lx := lexer.New(c.res.File, lexer.Options{})
	pr, err := parser.ParseFile(ctx, c.res.FileSet, lx, b, parser.Options{})
	if err != nil {
		return err
	}
	c.res.Builder = b
	c.res.Roots = pr.Roots
	return nil
}

func (c *compilation) analyze(ctx context.Context) error {
	mod, err := sema.Analyze(ctx, c.res.Builder, c.res.Roots, sema.Options{
		Env:        c.opts.Env,
		ModuleName: c.name,
	})
	if err != nil {
		return err
	}
	c.res.Module = mod
	return nil
}

func (c *compilation) optimize(ctx context.Context) error {
	opts := c.opts.Optimize
	opts.Stats = &c.res.Stats
	if err := middle.Optimize(c.res.Module, opts); err != nil {
		return err
	}
	st := c.res.Stats
	trace.Note(ctx, trace.ScopePass, "optimize",
		fmt.Sprintf("folded=%d eliminated=%d removed=%d exported=%d", st.Folded, st.Eliminated, st.RemovedFuncs, st.Exported))
	return nil
}

func (c *compilation) codegen(ctx context.Context) error {
	if c.res.Target == buildpipeline.TargetEVM {
		u, err := evm.Generate(c.res.Module, evm.Options{Name: c.name, Hasher: c.opts.Hasher})
		if err != nil {
			return err
		}
		c.res.Unit = u
		c.res.Artifact = u.String()
		return nil
	}
	text, err := native.Emit(c.res.Module, native.Options{
		Triple: c.opts.Triple,
		Main:   c.res.Target == buildpipeline.TargetNative,
	})
	if err != nil {
		return err
	}
	if trace.FromContext(ctx).Level() >= trace.LevelDebug {
		for _, f := range c.res.Module.Funcs {
			trace.Note(ctx, trace.ScopeFunc, f.Name, "emitted")
		}
	}
	c.res.Artifact = text
	return nil
}

// record adds the diagnostic carried by a stage error to bag.
func record(bag *diag.Bag, err error) bool {
	var se diag.StageError
	if !errors.As(err, &se) {
		return false
	}
	bag.Add(se.Diagnostic())
	return true
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	var se diag.StageError
	if errors.As(err, &se) {
		return se.Diagnostic().Code.ID()
	}
	return "error"
}
