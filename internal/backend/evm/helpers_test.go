package evm_test

import (
	"context"
	"testing"

	"lamina/internal/ast"
	"lamina/internal/backend/evm"
	"lamina/internal/ffi"
	"lamina/internal/ir"
	"lamina/internal/lexer"
	"lamina/internal/middle"
	"lamina/internal/parser"
	"lamina/internal/sema"
	"lamina/internal/source"
)

func lowerSource(t *testing.T, src string, env *ffi.Env) *ir.Module {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("contract.lam", []byte(src)))
	b := ast.NewBuilder(ast.Hints{})
	res, err := parser.ParseFile(context.Background(), fs, lexer.New(file, lexer.Options{}), b, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	mod, err := sema.Analyze(context.Background(), b, res.Roots, sema.Options{Env: env, ModuleName: "counter"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if err := middle.Optimize(mod, middle.Options{}); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	return mod
}

func generate(t *testing.T, src string) (*evm.Unit, error) {
	t.Helper()
	return evm.Generate(lowerSource(t, src, nil), evm.Options{})
}

func mustGenerate(t *testing.T, src string) *evm.Unit {
	t.Helper()
	u, err := generate(t, src)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return u
}

// fixedHash maps every input to the same digest.
type fixedHash struct{}

func (fixedHash) Write(p []byte) (int, error) { return len(p), nil }
func (fixedHash) Sum(b []byte) []byte         { return append(b, 0xde, 0xad, 0xbe, 0xef) }
func (fixedHash) Reset()                      {}
func (fixedHash) Size() int                   { return 4 }
func (fixedHash) BlockSize() int              { return 1 }
