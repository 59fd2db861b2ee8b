package native_test

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"lamina/internal/ast"
	"lamina/internal/backend/native"
	"lamina/internal/diag"
	"lamina/internal/ir"
	"lamina/internal/lexer"
	"lamina/internal/middle"
	"lamina/internal/parser"
	"lamina/internal/sema"
	"lamina/internal/source"
)

func lowerSource(t *testing.T, src string) *ir.Module {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("prog.lam", []byte(src)))
	b := ast.NewBuilder(ast.Hints{})
	res, err := parser.ParseFile(context.Background(), fs, lexer.New(file, lexer.Options{}), b, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	mod, err := sema.Analyze(context.Background(), b, res.Roots, sema.Options{ModuleName: "prog"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if err := middle.Optimize(mod, middle.Options{}); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	return mod
}

const counterSource = `(define counter-slot 3)
(define (get-counter) (storage-load counter-slot))
(define (increment)
  (define current (storage-load counter-slot))
  (storage-store counter-slot (+ current 1))
  (storage-load counter-slot))
(define (abs x) (if (< x 0) (- 0 x) x))
(storage-store counter-slot 5)`

func TestEmitCounter(t *testing.T) {
	text, err := native.Emit(lowerSource(t, counterSource), native.Options{Main: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`target triple = "x86_64-unknown-linux-gnu"`,
		"@lamina.storage = global [1 x i64] [i64 3]",
		`define i64 @"get-counter"() {`,
		"getelementptr inbounds [1 x i64], ptr @lamina.storage, i64 0, i64 0",
		"define i64 @abs(i64 %p0) {",
		"icmp slt i64",
		"phi i64",
		"define i32 @main() {",
		"call void @__init()",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("IR lacks %q\n%s", want, text)
		}
	}
}

func TestEmitStringsAndBools(t *testing.T) {
	text, err := native.Emit(lowerSource(t, `(define (greet) "hi \"you\"") (define (pos x) (not (< x 1)))`), native.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, `@.str.0 = private unnamed_addr constant [9 x i8] c"hi \22you\22\00"`) {
		t.Errorf("string constant missing:\n%s", text)
	}
	if !strings.Contains(text, "define ptr @greet()") || !strings.Contains(text, "xor i1") {
		t.Errorf("unexpected IR:\n%s", text)
	}
	if strings.Contains(text, "@main") {
		t.Error("main must be opt-in")
	}
}

func TestEmitFlooredModulo(t *testing.T) {
	text, err := native.Emit(lowerSource(t, "(define (m a b) (modulo a b))"), native.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(text, "srem i64") != 2 {
		t.Errorf("floored modulo needs two srem:\n%s", text)
	}
}

type recordingToolchain struct {
	got string
	err error
}

func (r *recordingToolchain) Compile(_ context.Context, llvmIR, _ string) error {
	r.got = llvmIR
	return r.err
}

func TestBuildHandsIRToToolchain(t *testing.T) {
	mod := lowerSource(t, "(define (one) 1)")
	tc := &recordingToolchain{}
	text, err := native.Build(context.Background(), mod, native.Options{}, tc, "out")
	if err != nil {
		t.Fatal(err)
	}
	if tc.got != text || text == "" {
		t.Fatal("toolchain did not receive the emitted IR")
	}
	if _, err := native.Build(context.Background(), mod, native.Options{}, nil, "out"); !errors.Is(err, native.ErrNoToolchain) {
		t.Fatalf("err = %v", err)
	}
}

func TestMissingClangIsNativeBackendError(t *testing.T) {
	tc := native.ClangToolchain{Path: filepath.Join(t.TempDir(), "no-such-clang")}
	err := tc.Compile(context.Background(), "", filepath.Join(t.TempDir(), "a.out"))
	var nb *diag.NativeBackendError
	if !errors.As(err, &nb) || nb.Diag.Code != diag.GenNativeBackend {
		t.Fatalf("err = %v", err)
	}
}

func TestClangCompilesCounter(t *testing.T) {
	if _, err := exec.LookPath("clang"); err != nil {
		t.Skip("clang not installed")
	}
	out := filepath.Join(t.TempDir(), "counter.o")
	tc := native.ClangToolchain{Object: true}
	opts := native.Options{Main: true, Triple: tc.HostTriple(context.Background())}
	if _, err := native.Build(context.Background(), lowerSource(t, counterSource), opts, tc, out); err != nil {
		t.Fatal(err)
	}
}
