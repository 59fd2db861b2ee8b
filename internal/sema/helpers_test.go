package sema_test

import (
	"context"
	"testing"

	"lamina/internal/ast"
	"lamina/internal/ffi"
	"lamina/internal/ir"
	"lamina/internal/lexer"
	"lamina/internal/parser"
	"lamina/internal/sema"
	"lamina/internal/source"
)

func analyze(t *testing.T, src string, env *ffi.Env) (*ir.Module, error) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.lam", []byte(src)))
	b := ast.NewBuilder(ast.Hints{})
	res, err := parser.ParseFile(context.Background(), fs, lexer.New(file, lexer.Options{}), b, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return sema.Analyze(context.Background(), b, res.Roots, sema.Options{Env: env, ModuleName: "test"})
}

func mustAnalyze(t *testing.T, src string) *ir.Module {
	t.Helper()
	mod, err := analyze(t, src, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return mod
}

func call(t *testing.T, vm *ir.Machine, name string, args ...int64) int64 {
	t.Helper()
	vals := make([]ir.Value, len(args))
	for i, a := range args {
		vals[i] = ir.IntValue(a)
	}
	v, err := vm.Call(name, vals...)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	if v.Type == ir.TypeBool {
		if v.Bool {
			return 1
		}
		return 0
	}
	return v.Int
}
