package middle_test

import (
	"context"
	"testing"

	"lamina/internal/ast"
	"lamina/internal/ir"
	"lamina/internal/lexer"
	"lamina/internal/middle"
	"lamina/internal/parser"
	"lamina/internal/sema"
	"lamina/internal/source"
)

func lower(t *testing.T, src string) *ir.Module {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("opt.lam", []byte(src)))
	b := ast.NewBuilder(ast.Hints{})
	res, err := parser.ParseFile(context.Background(), fs, lexer.New(file, lexer.Options{}), b, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	mod, err := sema.Analyze(context.Background(), b, res.Roots, sema.Options{ModuleName: "opt"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return mod
}

func optimize(t *testing.T, mod *ir.Module) middle.Stats {
	t.Helper()
	var st middle.Stats
	if err := middle.Optimize(mod, middle.Options{Stats: &st}); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	return st
}

func TestFoldsLiteralAddition(t *testing.T) {
	mod := lower(t, "(define (five) (+ 2 3))")
	optimize(t, mod)
	body := mod.Op(mod.Func("five").Body)
	if body.Kind != ir.OpConst || body.Value.Int != 5 {
		t.Fatalf("body = %s", ir.FormatOp(mod, mod.Func("five").Body))
	}
}

func TestFoldingLeavesUnsafeArithmetic(t *testing.T) {
	mod := lower(t, "(define (a) (/ 1 0)) (define (b) (+ 9223372036854775807 1)) (define (c) (- 3))")
	optimize(t, mod)
	if mod.Op(mod.Func("a").Body).Kind != ir.OpArith {
		t.Error("division by zero must not fold")
	}
	if mod.Op(mod.Func("b").Body).Kind != ir.OpArith {
		t.Error("overflowing addition must not fold")
	}
	if c := mod.Op(mod.Func("c").Body); c.Kind != ir.OpConst || c.Value.Int != -3 {
		t.Errorf("negation should fold, got %s", ir.FormatOp(mod, mod.Func("c").Body))
	}
}

func TestConstantConditionSelectsBranch(t *testing.T) {
	mod := lower(t, "(define (f x) (if (< 1 2) (* x 2) (+ x 100)))")
	optimize(t, mod)
	body := mod.Op(mod.Func("f").Body)
	if body.Kind != ir.OpArith || body.Arith != ir.ArithMul {
		t.Fatalf("body = %s", ir.FormatOp(mod, mod.Func("f").Body))
	}
}

func TestDeadCodeInBegin(t *testing.T) {
	mod := lower(t, `(define s 0)
(define (f x) (begin 1 (+ x 2) s (storage-store s x) 7))`)
	st := optimize(t, mod)
	if st.Eliminated != 3 {
		t.Fatalf("eliminated = %d, want 3", st.Eliminated)
	}
	body := mod.Op(mod.Func("f").Body)
	if body.Kind != ir.OpSeq || len(body.Args) != 2 {
		t.Fatalf("body = %s", ir.FormatOp(mod, mod.Func("f").Body))
	}
	if mod.Op(body.Args[0]).Kind != ir.OpStorageStore {
		t.Fatal("store must survive")
	}
}

func TestExportMarkingAndUnreachableLifted(t *testing.T) {
	mod := lower(t, `(define (f x) (define (unused y) y) (define (used y) (* y 2)) (used x))
(define k 1)
(+ k 1)`)
	st := optimize(t, mod)
	if st.RemovedFuncs != 1 || mod.Func("f/unused") != nil || mod.Func("f/used") == nil {
		t.Fatalf("removed %d, funcs %v", st.RemovedFuncs, funcNames(mod))
	}
	if !mod.Func("f").Exported || mod.Func("f/used").Exported || mod.Func("__init").Exported {
		t.Fatal("wrong export marking")
	}
	if st.Exported != 1 {
		t.Fatalf("exported = %d", st.Exported)
	}
}

func funcNames(mod *ir.Module) []string {
	out := make([]string, len(mod.Funcs))
	for i, f := range mod.Funcs {
		out[i] = f.Name
	}
	return out
}

// Optimization must not change what any function computes.
func TestOptimizationPreservesSemantics(t *testing.T) {
	const src = `(define acc 3)
(define (poly x) (+ (* 2 3 x) (- 10 4) (modulo x 5) (remainder (- x) 4)))
(define (clamp x) (if (> x 100) 100 (if (< x (- 0 100)) (- 0 100) x)))
(define (bump x) (begin 1 2 (storage-store acc (+ acc x)) (storage-load acc)))
(define (choose b) (if (and b (not #f)) (* 6 7) (/ 84 2)))
(define (mix x) (define t (+ x (* 2 2))) (define (sq v) (* v v)) (+ (sq t) (if (= 1 1) 0 99)))`
	inputs := []int64{-250, -7, -1, 0, 1, 4, 13, 99, 101, 1000}
	type result struct {
		v   ir.Value
		acc int64
	}
	run := func(mod *ir.Module) map[string][]result {
		out := make(map[string][]result)
		for _, name := range []string{"poly", "clamp", "bump", "mix"} {
			vm := ir.NewMachine(mod)
			for _, in := range inputs {
				v, err := vm.Call(name, ir.IntValue(in))
				if err != nil {
					t.Fatalf("%s(%d): %v", name, in, err)
				}
				out[name] = append(out[name], result{v, vm.Storage[0]})
			}
		}
		vm := ir.NewMachine(mod)
		for _, b := range []bool{true, false} {
			v, err := vm.Call("choose", ir.BoolValue(b))
			if err != nil {
				t.Fatal(err)
			}
			out["choose"] = append(out["choose"], result{v, 0})
		}
		return out
	}
	before := run(lower(t, src))
	optimized := lower(t, src)
	optimize(t, optimized)
	after := run(optimized)
	for name, want := range before {
		got := after[name]
		for i := range want {
			if !got[i].v.Equal(want[i].v) || got[i].acc != want[i].acc {
				t.Errorf("%s case %d: optimized %+v, reference %+v", name, i, got[i], want[i])
			}
		}
	}
}
