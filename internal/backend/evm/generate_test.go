package evm_test

import (
	"errors"
	"hash"
	"strings"
	"testing"

	"lamina/internal/backend/evm"
	"lamina/internal/diag"
	"lamina/internal/ffi"
	"lamina/internal/ir"
)

const counterSource = `(begin
  (define counter-slot 0)
  (define (get-counter) (storage-load counter-slot))
  (define (increment)
    (define current (storage-load counter-slot))
    (storage-store counter-slot (+ current 1))
    (storage-load counter-slot)))`

func TestCounterContract(t *testing.T) {
	u := mustGenerate(t, counterSource)
	if u.Name != "Counter" {
		t.Errorf("name = %q", u.Name)
	}
	if len(u.Constants) != 1 || u.Constants[0].Name != "COUNTER_SLOT_SLOT" ||
		u.Constants[0].Value != "0x"+strings.Repeat("0", 64) {
		t.Fatalf("constants = %+v", u.Constants)
	}
	for _, name := range []string{"GET_COUNTER_MACRO", "INCREMENT_MACRO"} {
		m := u.Macro(name)
		if m == nil {
			t.Fatalf("missing %s", name)
		}
		if m.Takes != 0 || m.Returns != 1 {
			t.Errorf("%s = takes(%d) returns(%d)", name, m.Takes, m.Returns)
		}
	}

	disp := u.Macro(evm.DispatcherMacro)
	var compares []string
	for _, l := range disp.Lines {
		for _, in := range l {
			if in.Kind == evm.InstrOp && in.Text == "eq" {
				compares = append(compares, l.String())
			}
		}
	}
	want := []string{
		"dup1 0x8ada066e eq [jump_to_get_counter] jumpi",
		"dup1 0xd09de08a eq [jump_to_increment] jumpi",
	}
	if strings.Join(compares, "\n") != strings.Join(want, "\n") {
		t.Fatalf("dispatcher compares:\n%s", strings.Join(compares, "\n"))
	}

	ctor := u.Macro(evm.ConstructorMacro)
	if ctor == nil || len(ctor.Lines) == 0 {
		t.Fatal("constructor must always be emitted")
	}

	if got := u.Signatures[1]; got.Mutability != "nonpayable" || u.Signatures[0].Mutability != "view" {
		t.Errorf("mutability = %s / %s", u.Signatures[0].Mutability, got.Mutability)
	}
}

func TestCounterRender(t *testing.T) {
	out := mustGenerate(t, counterSource).String()
	for _, want := range []string{
		"/* Generated Huff Contract: Counter */",
		"#define constant COUNTER_SLOT_SLOT = 0x0000000000000000000000000000000000000000000000000000000000000000",
		"#define function getCounter() view returns (uint256)",
		"#define function increment() nonpayable returns (uint256)",
		"#define macro GET_COUNTER_MACRO() = takes(0) returns(1) {\n    [COUNTER_SLOT_SLOT] sload\n}",
		"#define macro DISPATCHER_MACRO() = takes(1) returns(0) {",
		"jump_to_increment:\n    pop INCREMENT_MACRO() 0x00 mstore 0x20 0x00 return",
		"unknown_selector:\n    0x00 0x00 revert",
		"#define macro MAIN() = takes(0) returns(0) {",
		"    0xe0 shr\n    DISPATCHER_MACRO()",
		"#define macro CONSTRUCTOR() = takes(0) returns(0) {\n    // Default empty constructor\n}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q\n%s", want, out)
		}
	}
	if strings.Index(out, "#define constant") > strings.Index(out, "#define function") ||
		strings.Index(out, "DISPATCHER_MACRO() =") > strings.Index(out, "MAIN() =") ||
		strings.Index(out, "MAIN() =") > strings.Index(out, "CONSTRUCTOR() =") {
		t.Error("sections out of order")
	}
	if again := mustGenerate(t, counterSource).String(); again != out {
		t.Error("output is not deterministic")
	}
}

func TestSelectorOfGetCounter(t *testing.T) {
	sel := evm.ComputeSelector(nil, "getCounter()")
	if sel.Hex() != "0x8ada066e" {
		t.Fatalf("selector = %s", sel.Hex())
	}
}

func TestSelectorsAreDistinct(t *testing.T) {
	u := mustGenerate(t, "(define (a) 1) (define (b x) x) (define (c x y) (+ x y))")
	seen := make(map[evm.Selector]string)
	for _, s := range u.Signatures {
		if prev, dup := seen[s.Selector]; dup {
			t.Fatalf("%s and %s share %s", prev, s.Canonical, s.Selector.Hex())
		}
		seen[s.Selector] = s.Canonical
	}
	if len(seen) != 3 {
		t.Fatalf("signatures = %d", len(seen))
	}

	if n := len(u.Selectors.Entries()); n != 3 {
		t.Fatalf("selector table has %d entries", n)
	}
	for _, s := range u.Signatures {
		e, ok := u.Selectors.Lookup(s.Selector)
		if !ok || e.Signature != s.Canonical || e.Func != s.Func {
			t.Errorf("lookup %s = %+v, %v", s.Selector.Hex(), e, ok)
		}
	}
	if _, ok := u.Selectors.Lookup(evm.Selector{0xde, 0xad, 0xbe, 0xef}); ok {
		t.Error("unknown selector found")
	}

	var dispatched []string
	for _, in := range u.Macro(evm.DispatcherMacro).Instrs() {
		if in.Kind == evm.InstrPush && strings.HasPrefix(in.Text, "0x") && len(in.Text) == 10 {
			dispatched = append(dispatched, in.Text)
		}
	}
	for i, e := range u.Selectors.Entries() {
		if i >= len(dispatched) || dispatched[i] != e.Selector.Hex() {
			t.Fatalf("dispatcher pushes %v, table order differs at %d", dispatched, i)
		}
	}
}

func TestSelectorCollision(t *testing.T) {
	mod := lowerSource(t, "(define (a) 1) (define (b) 2)", nil)
	_, err := evm.Generate(mod, evm.Options{Hasher: func() hash.Hash { return fixedHash{} }})
	var cg *diag.CodegenError
	if !errors.As(err, &cg) || cg.Diag.Code != diag.GenSelectorCollision {
		t.Fatalf("err = %v", err)
	}
}

func TestFunctionMacrosReturnOneValue(t *testing.T) {
	srcs := []string{
		"(define (f x) (if (< x 0) (- 0 x) x))",
		"(define s 0) (define (touch) (storage-store s 1))",
		"(define s 0) (define (maybe x) (if (> x 1) (storage-store s x)))",
		"(define (sq x) (* x x)) (define (quad x) (sq (sq x)))",
		"(define (f a b) (define c (modulo a b)) (if (>= c 1) (= c b) (not (<= a b))))",
	}
	for _, src := range srcs {
		u := mustGenerate(t, src)
		sigs := make(map[string]evm.MacroSig)
		for _, m := range u.Macros {
			sigs[m.Name] = m.Sig()
		}
		for _, m := range u.Macros {
			if err := evm.Simulate(m, sigs); err != nil {
				t.Errorf("%s: %v", src, err)
			}
		}
	}
}

func TestInlinedCallCopiesArguments(t *testing.T) {
	u := mustGenerate(t, "(define (sub2 a b) (- a b)) (define (f x) (sub2 x 1))")
	body := u.Macro("F_MACRO")
	var text []string
	for _, l := range body.Lines {
		text = append(text, l.String())
	}
	joined := strings.Join(text, "\n")
	// f's x, then sub2's a and b
	for _, want := range []string{"0x04 calldataload 0x60 mstore", "0x60 mload", "0x40 mstore\n0x20 mstore"} {
		if !strings.Contains(joined, want) {
			t.Errorf("F_MACRO lacks %q:\n%s", want, joined)
		}
	}
}

func TestConstructorStoresInitialValues(t *testing.T) {
	u := mustGenerate(t, "(define supply 1000) (define (total) supply) (storage-store supply (+ supply 1))")
	ctor := u.Macro(evm.ConstructorMacro)
	var text []string
	for _, l := range ctor.Lines {
		text = append(text, l.String())
	}
	joined := strings.Join(text, "\n")
	if !strings.HasPrefix(joined, "0x03e8 [SUPPLY_SLOT] sstore") {
		t.Fatalf("constructor:\n%s", joined)
	}
	if !strings.Contains(joined, "[SUPPLY_SLOT] sload") {
		t.Fatalf("constructor must run top-level expressions:\n%s", joined)
	}
}

func TestNegativeConstantIsTwosComplement(t *testing.T) {
	in := evm.PushInt(-1)
	if in.Text != "0x"+strings.Repeat("f", 64) {
		t.Fatalf("push = %s", in.Text)
	}
	if evm.PushInt(256).Text != "0x0100" {
		t.Fatalf("push 256 = %s", evm.PushInt(256).Text)
	}
}

func TestUnsupportedConstructs(t *testing.T) {
	env, err := ffi.NewEnv(ffi.Signature{Name: "emit-log", Params: []ir.Type{ir.TypeInt}})
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		src  string
		env  *ffi.Env
	}{
		{"string result", `(define (greet) "hi")`, nil},
		{"recursion", "(define (down n) (if (= n 0) 0 (down (- n 1))))", nil},
		{"extern call", "(define (f x) (emit-log x) x)", env},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := evm.Generate(lowerSource(t, tc.src, tc.env), evm.Options{})
			var un *diag.UnsupportedOperationError
			if !errors.As(err, &un) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestNames(t *testing.T) {
	cases := []struct{ in, macro, abi, konst string }{
		{"get-counter", "GET_COUNTER_MACRO", "getCounter", "GET_COUNTER_SLOT"},
		{"total_supply", "TOTAL_SUPPLY_MACRO", "totalSupply", "TOTAL_SUPPLY_SLOT"},
		{"empty?", "EMPTY_MACRO", "empty", "EMPTY_SLOT"},
	}
	for _, tc := range cases {
		if got := evm.MacroName(tc.in); got != tc.macro {
			t.Errorf("MacroName(%q) = %q", tc.in, got)
		}
		if got := evm.ABIName(tc.in); got != tc.abi {
			t.Errorf("ABIName(%q) = %q", tc.in, got)
		}
		if got := evm.ConstantName(tc.in); got != tc.konst {
			t.Errorf("ConstantName(%q) = %q", tc.in, got)
		}
	}
	if got := evm.ContractName("my-token"); got != "MyToken" {
		t.Errorf("ContractName = %q", got)
	}
}
