package driver

import (
	"context"

	"lamina/internal/buildpipeline"
	"lamina/internal/diag"
	"lamina/internal/ffi"
	"lamina/internal/ir"
	"lamina/internal/sema"
	"lamina/internal/source"
)

// AnalyzeSource runs the lexer, parser and analyzer over an in-memory
// source, the same path a file build takes, and stops before the
// middle-end. A REPL feeds each entered form through it.
func AnalyzeSource(ctx context.Context, name, src string, env *ffi.Env) (*Result, error) {
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, []byte(src))
	res := &Result{FileSet: fs, File: fs.Get(id), Target: buildpipeline.TargetEVM, Bag: diag.NewBag(0)}
	c := &compilation{ctx: ctx, opts: Options{Env: env}, res: res, name: Options{}.moduleName(name)}
	_, err := c.runSteps(
		step{buildpipeline.StageLex, c.lex},
		step{buildpipeline.StageParse, c.parse},
		step{buildpipeline.StageAnalyze, c.analyze},
	)
	return res, err
}

// Evaluate analyzes src and runs its top-level expressions, returning the
// value of the last one (Unit when there are none). Externs supplies the
// implementations of env's procedures.
func Evaluate(ctx context.Context, name, src string, env *ffi.Env, externs map[string]ir.ExternFunc) (ir.Value, *Result, error) {
	res, err := AnalyzeSource(ctx, name, src, env)
	if err != nil || res.Failed() {
		return ir.UnitValue(), res, err
	}
	vm := ir.NewMachine(res.Module)
	vm.Externs = externs
	if res.Module.Func(sema.InitFuncName) == nil {
		return ir.UnitValue(), res, nil
	}
	v, err := vm.Call(sema.InitFuncName)
	if err != nil {
		return ir.UnitValue(), res, err
	}
	return v, res, nil
}
