package middle

import (
	"math"

	"lamina/internal/ir"
)

// foldConstants rewrites arithmetic over constants and conditionals with a
// constant condition. Folds that would overflow or divide by zero are left
// for run time.
func foldConstants(mod *ir.Module) int {
	folded := 0
	for i := 1; i <= mod.NumOps(); i++ {
		op := mod.Op(ir.OpID(i))
		switch op.Kind {
		case ir.OpArith:
			if v, ok := foldArith(mod, op); ok {
				*op = ir.Op{Kind: ir.OpConst, Type: v.Type, Value: v, Span: op.Span}
				folded++
			}
		case ir.OpIf:
			if foldIf(mod, op) {
				folded++
			}
		}
	}
	return folded
}

func constOf(mod *ir.Module, id ir.OpID) (ir.Value, bool) {
	op := mod.Op(id)
	if op == nil || op.Kind != ir.OpConst {
		return ir.Value{}, false
	}
	return op.Value, true
}

func foldArith(mod *ir.Module, op *ir.Op) (ir.Value, bool) {
	l, ok := constOf(mod, op.Left)
	if !ok {
		return ir.Value{}, false
	}
	if op.Arith == ir.ArithNot {
		return ir.BoolValue(!l.Bool), true
	}
	r, ok := constOf(mod, op.Right)
	if !ok {
		return ir.Value{}, false
	}
	if op.Arith == ir.ArithEq && l.Type == ir.TypeBool {
		return ir.BoolValue(l.Bool == r.Bool), true
	}
	x, y := l.Int, r.Int
	switch op.Arith {
	case ir.ArithAdd:
		s := x + y
		if (x >= 0) == (y >= 0) && (s >= 0) != (x >= 0) {
			return ir.Value{}, false
		}
		return ir.IntValue(s), true
	case ir.ArithSub:
		d := x - y
		if (x >= 0) != (y >= 0) && (d >= 0) != (x >= 0) {
			return ir.Value{}, false
		}
		return ir.IntValue(d), true
	case ir.ArithMul:
		if x == 0 || y == 0 {
			return ir.IntValue(0), true
		}
		p := x * y
		if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return ir.Value{}, false
		}
		return ir.IntValue(p), true
	case ir.ArithDiv, ir.ArithRem, ir.ArithMod:
		if y == 0 || (x == math.MinInt64 && y == -1) {
			return ir.Value{}, false
		}
	}
	v, err := ir.EvalArith(op.Arith, l, r)
	if err != nil {
		return ir.Value{}, false
	}
	return v, true
}

// foldIf replaces a conditional whose condition is constant with the taken
// branch. A one-armed if is folded only when no value has to be dropped.
func foldIf(mod *ir.Module, op *ir.Op) bool {
	c, ok := constOf(mod, op.Cond)
	if !ok {
		return false
	}
	switch {
	case op.Else.IsValid():
		branch := op.Else
		if c.Truthy() {
			branch = op.Then
		}
		*op = *mod.Op(branch)
	case !c.Truthy():
		*op = ir.Op{Kind: ir.OpConst, Type: ir.TypeUnit, Value: ir.UnitValue(), Span: op.Span}
	case mod.Op(op.Then).Type == ir.TypeUnit:
		*op = *mod.Op(op.Then)
	default:
		return false
	}
	return true
}
