package ir

import (
	"errors"
	"strings"
	"testing"
)

// buildAbs builds abs(x) = if x < 0 then 0 - x else x.
func buildAbs(t *testing.T) *Module {
	t.Helper()
	m := NewModule("abs")
	x := m.NewLocal(Local{Name: "x", Type: TypeInt, IsParam: true})
	ref := m.NewOp(Op{Kind: OpVarRef, Type: TypeInt, Local: x})
	zero := m.NewOp(Op{Kind: OpConst, Type: TypeInt, Value: IntValue(0)})
	lt := m.NewOp(Op{Kind: OpArith, Type: TypeBool, Arith: ArithLt, Left: ref, Right: zero})
	zero2 := m.NewOp(Op{Kind: OpConst, Type: TypeInt, Value: IntValue(0)})
	ref2 := m.NewOp(Op{Kind: OpVarRef, Type: TypeInt, Local: x})
	neg := m.NewOp(Op{Kind: OpArith, Type: TypeInt, Arith: ArithSub, Left: zero2, Right: ref2})
	ref3 := m.NewOp(Op{Kind: OpVarRef, Type: TypeInt, Local: x})
	body := m.NewOp(Op{Kind: OpIf, Type: TypeInt, Cond: lt, Then: neg, Else: ref3})
	if !m.AddFunc(&Func{Name: "abs", Params: []LocalID{x}, Locals: []LocalID{x}, Result: TypeInt, Body: body, TopLevel: true}) {
		t.Fatal("AddFunc failed")
	}
	return m
}

func TestValidateAcceptsWellFormedModule(t *testing.T) {
	if err := Validate(buildAbs(t)); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsForwardOperand(t *testing.T) {
	m := NewModule("bad")
	seq := m.NewOp(Op{Kind: OpSeq, Type: TypeInt, Args: []OpID{2}})
	m.NewOp(Op{Kind: OpConst, Type: TypeInt, Value: IntValue(1)})
	m.AddFunc(&Func{Name: "f", Body: seq})
	err := Validate(m)
	if err == nil || !strings.Contains(err.Error(), "does not precede") {
		t.Fatalf("expected ordering error, got %v", err)
	}
}

func TestMachineEvaluatesAbs(t *testing.T) {
	vm := NewMachine(buildAbs(t))
	for in, want := range map[int64]int64{-5: 5, 0: 0, 7: 7} {
		got, err := vm.Call("abs", IntValue(in))
		if err != nil {
			t.Fatal(err)
		}
		if got.Int != want {
			t.Errorf("abs(%d) = %d, want %d", in, got.Int, want)
		}
	}
}

func TestReachableSkipsGarbage(t *testing.T) {
	m := buildAbs(t)
	garbage := m.NewOp(Op{Kind: OpConst, Type: TypeInt, Value: IntValue(9)})
	marks := m.Reachable(m.Func("abs").Body)
	if marks[garbage] {
		t.Fatal("unrelated op marked reachable")
	}
	for id := 1; id < int(garbage); id++ {
		if !marks[id] {
			t.Errorf("op %d should be reachable", id)
		}
	}
}

func TestSlotTableOrderAndDuplicates(t *testing.T) {
	var st SlotTable
	a, _ := st.Declare("counter-slot", 0, zeroSpan)
	b, _ := st.Declare("other-slot", 3, zeroSpan)
	if a.Index != 0 || b.Index != 1 {
		t.Fatalf("indices %d %d", a.Index, b.Index)
	}
	if _, ok := st.Declare("counter-slot", 1, zeroSpan); ok {
		t.Fatal("duplicate declaration accepted")
	}
	if s, ok := st.Lookup("other-slot"); !ok || s.Init != 3 {
		t.Fatalf("lookup = %+v %v", s, ok)
	}
}

func TestEvalArithModuloFloors(t *testing.T) {
	cases := []struct {
		op   ArithOp
		x, y int64
		want int64
	}{
		{ArithRem, -7, 2, -1},
		{ArithMod, -7, 2, 1},
		{ArithMod, 7, -2, -1},
		{ArithDiv, -7, 2, -3},
	}
	for _, tc := range cases {
		v, err := EvalArith(tc.op, IntValue(tc.x), IntValue(tc.y))
		if err != nil || v.Int != tc.want {
			t.Errorf("%s(%d, %d) = %d, %v; want %d", tc.op, tc.x, tc.y, v.Int, err, tc.want)
		}
	}
	if _, err := EvalArith(ArithDiv, IntValue(1), IntValue(0)); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}
}

func TestDumpListsReachableOps(t *testing.T) {
	var sb strings.Builder
	if err := Dump(&sb, buildAbs(t)); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"func abs(x: int) -> int", "lt %1, %2", "if %3, %6, %7", "ret %8"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
