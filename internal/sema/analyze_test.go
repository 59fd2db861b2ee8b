package sema_test

import (
	"errors"
	"testing"

	"lamina/internal/diag"
	"lamina/internal/ffi"
	"lamina/internal/ir"
)

const counterSource = `(begin
  (define counter-slot 0)
  (define (get-counter) (storage-load counter-slot))
  (define (increment) (begin
    (define current (storage-load counter-slot))
    (storage-store counter-slot (+ current 1))
    (storage-load counter-slot))))`

func TestCounterLowering(t *testing.T) {
	mod := mustAnalyze(t, counterSource)
	slots := mod.Slots.Entries()
	if len(slots) != 1 || slots[0].Name != "counter-slot" || slots[0].Index != 0 {
		t.Fatalf("slots = %+v", slots)
	}
	get, inc := mod.Func("get-counter"), mod.Func("increment")
	if get == nil || inc == nil {
		t.Fatalf("functions missing: %v", mod.Funcs)
	}
	if get.Mutates || !inc.Mutates {
		t.Errorf("mutates: get=%v inc=%v", get.Mutates, inc.Mutates)
	}
	if get.Result != ir.TypeInt || inc.Result != ir.TypeInt {
		t.Errorf("results: %s %s", get.Result, inc.Result)
	}
	vm := ir.NewMachine(mod)
	call(t, vm, "increment")
	if got := call(t, vm, "increment"); got != 2 {
		t.Fatalf("increment twice = %d", got)
	}
	if got := call(t, vm, "get-counter"); got != 2 {
		t.Fatalf("get-counter = %d", got)
	}
}

func TestSlotsFollowDeclarationOrder(t *testing.T) {
	mod := mustAnalyze(t, "(define counter-slot 0) (define other-slot 5) (define (f) (+ counter-slot other-slot))")
	want := []string{"counter-slot", "other-slot"}
	for i, s := range mod.Slots.Entries() {
		if s.Index != i || s.Name != want[i] {
			t.Errorf("slot %d = %+v", i, s)
		}
	}
	if s, _ := mod.Slots.Lookup("other-slot"); s.Init != 5 {
		t.Errorf("initial value = %d", s.Init)
	}
}

func TestSemanticErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"unbound", "(define (f) (+ y 1))", diag.SemaUnboundIdent},
		{"storage before declaration", "(define (f) (storage-load s)) (define s 0)", diag.SemaStorageBeforeDecl},
		{"duplicate storage", "(define s 0) (define s 1)", diag.SemaDuplicateStorage},
		{"duplicate function", "(define (f) 1) (define (f) 2)", diag.SemaDuplicateDef},
		{"arity", "(define (f x) x) (define (g) (f 1 2))", diag.SemaArityMismatch},
		{"builtin arity", "(define (g) (remainder 1))", diag.SemaArityMismatch},
		{"add boolean", "(define (g) (+ 1 #t))", diag.SemaTypeMismatch},
		{"int condition", "(define (g) (if 1 2 3))", diag.SemaTypeMismatch},
		{"branch mismatch", "(define (g b) (if b 1 #f))", diag.SemaTypeMismatch},
		{"param used as int and bool", "(define (g x) (if x (+ x 1) 0))", diag.SemaTypeMismatch},
		{"call non-procedure", "(define s 0) (define (g) (s 1))", diag.SemaNotProcedure},
		{"load non-storage", "(define (g x) (storage-load x))", diag.SemaNotStorage},
		{"capture", "(define (f x) (define (g) x) (g))", diag.SemaCapture},
		{"first-class procedure", "(define (f) 1) (define (g) f)", diag.SemaFirstClassProc},
		{"lambda value", "(define (g) (lambda (x) x))", diag.SemaFirstClassProc},
		{"reserved name", "(define (+ a b) a)", diag.SemaReservedName},
		{"float literal", "(define (g) 1.5)", diag.SemaUnsupportedLiteral},
		{"define in expression", "(define (g) (+ 1 (define x 2)))", diag.SemaBadTopLevel},
		{"define leaks from branch begin", "(define (f c) (begin (if c (begin (define t 5) t) 0) t))", diag.SemaUnboundIdent},
		{"define leaks from argument begin", "(define (g) (+ (begin (define k 2) k) k))", diag.SemaUnboundIdent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mod, err := analyze(t, tc.src, nil)
			if mod != nil {
				t.Errorf("module must be nil on failure")
			}
			var se *diag.SemanticError
			if !errors.As(err, &se) {
				t.Fatalf("expected SemanticError, got %v", err)
			}
			if se.Diag.Code != tc.code {
				t.Errorf("code %s, want %s: %s", se.Diag.Code.ID(), tc.code.ID(), se.Diag.Message)
			}
		})
	}
}

func TestLocalDefineShadowsStorage(t *testing.T) {
	mod := mustAnalyze(t, `(define counter-slot 7)
(define (f) (define counter-slot 5) counter-slot)
(define (g) counter-slot)`)
	vm := ir.NewMachine(mod)
	if got := call(t, vm, "f"); got != 5 {
		t.Fatalf("f = %d, want the local 5", got)
	}
	if got := call(t, vm, "g"); got != 7 {
		t.Fatalf("g = %d, want storage 7", got)
	}
	if mod.Func("f").Mutates {
		t.Fatal("shadowing define must not touch storage")
	}
}

func TestBodyBeginSharesScope(t *testing.T) {
	mod := mustAnalyze(t, `(define (f) (begin (define a 2)) (begin (define b 3) (* a b)))
(define (g c) (if c (begin (define t 5) (+ t 1)) 0))`)
	vm := ir.NewMachine(mod)
	if got := call(t, vm, "f"); got != 6 {
		t.Fatalf("f = %d", got)
	}
	v, err := vm.Call("g", ir.BoolValue(true))
	if err != nil || v.Int != 6 {
		t.Fatalf("g(#t) = %+v, %v", v, err)
	}
}

func TestNestedProcedureIsLifted(t *testing.T) {
	mod := mustAnalyze(t, "(define (f x) (define (sq y) (* y y)) (sq (+ x 1)))")
	lifted := mod.Func("f/sq")
	if lifted == nil || !lifted.Lifted || lifted.TopLevel {
		t.Fatalf("lifted function = %+v", lifted)
	}
	if got := call(t, ir.NewMachine(mod), "f", 2); got != 9 {
		t.Fatalf("f(2) = %d", got)
	}
}

func TestTypeInference(t *testing.T) {
	mod := mustAnalyze(t, `(define (negative? x) (< x 0))
(define (pick c) (if c 10 20))
(define (use) (pick (negative? -3)))
(define (fact n) (if (= n 0) 1 (* n (fact (- n 1)))))`)
	if mod.Func("negative?").Result != ir.TypeBool {
		t.Errorf("negative? result = %s", mod.Func("negative?").Result)
	}
	if p := mod.Local(mod.Func("pick").Params[0]); p.Type != ir.TypeBool {
		t.Errorf("pick param = %s", p.Type)
	}
	vm := ir.NewMachine(mod)
	if got := call(t, vm, "use"); got != 10 {
		t.Errorf("use = %d", got)
	}
	if got := call(t, vm, "fact", 5); got != 120 {
		t.Errorf("fact 5 = %d", got)
	}
}

func TestBuiltinsAndImmediateLambda(t *testing.T) {
	mod := mustAnalyze(t, `(define (f) (+ 1 2 3))
(define (g) (- 5))
(define (h x) ((lambda (y z) (* y z)) x 3))
(define (m) (modulo -7 2))
(define (b) (if (and (< 1 2) (not #f)) 1 0))
(define (k) (or #f (= 1 2)))`)
	vm := ir.NewMachine(mod)
	for name, want := range map[string]int64{"f": 6, "g": -5, "m": 1, "b": 1, "k": 0} {
		if got := call(t, vm, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
	if got := call(t, vm, "h", 4); got != 12 {
		t.Errorf("h 4 = %d", got)
	}
}

func TestTopLevelExpressionsFormInit(t *testing.T) {
	mod := mustAnalyze(t, "(define base 2) (define total (* base 21)) (storage-store base 3)")
	init := mod.Func("__init")
	if init == nil || !init.Init || init.TopLevel {
		t.Fatalf("init = %+v", init)
	}
	vm := ir.NewMachine(mod)
	if err := vm.RunInit(); err != nil {
		t.Fatal(err)
	}
	total, _ := mod.Slots.Lookup("total")
	if vm.Storage[total.Index] != 42 || vm.Storage[0] != 3 {
		t.Fatalf("storage = %v", vm.Storage)
	}
}

func TestExternCalls(t *testing.T) {
	env, err := ffi.NewEnv(
		ffi.Signature{Name: "emit-log", Params: []ir.Type{ir.TypeInt}},
		ffi.Signature{Name: "slot-hash", Params: []ir.Type{ir.TypeStorageRef}, Result: ir.TypeInt},
	)
	if err != nil {
		t.Fatal(err)
	}
	mod, err := analyze(t, "(define s 0) (define (f x) (emit-log x) (slot-hash s))", env)
	if err != nil {
		t.Fatal(err)
	}
	if len(mod.Externs) != 2 {
		t.Fatalf("externs = %+v", mod.Externs)
	}
	if !mod.Func("f").Mutates {
		t.Error("extern calls count as effects")
	}
	var seen int
	for i := 1; i <= mod.NumOps(); i++ {
		op := mod.Op(ir.OpID(i))
		if op.Kind == ir.OpCall && op.Extern {
			seen++
		}
		if op.Kind == ir.OpConst && op.Type == ir.TypeStorageRef && op.Value.Int != 0 {
			t.Errorf("slot reference = %d", op.Value.Int)
		}
	}
	if seen != 2 {
		t.Fatalf("extern call ops = %d", seen)
	}
	_, err = analyze(t, "(define (f) (emit-log 1 2))", env)
	var se *diag.SemanticError
	if !errors.As(err, &se) || se.Diag.Code != diag.SemaArityMismatch {
		t.Fatalf("expected arity error, got %v", err)
	}
}
