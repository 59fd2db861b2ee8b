package middle

import (
	"lamina/internal/ir"
)

// eliminateDeadCode drops side-effect-free items from sequences whenever
// their value is discarded, i.e. every item but the last. A sequence left
// with one item becomes that item.
func eliminateDeadCode(mod *ir.Module) int {
	pure := make([]bool, mod.NumOps()+1)
	removed := 0
	for i := 1; i <= mod.NumOps(); i++ {
		id := ir.OpID(i)
		op := mod.Op(id)
		if op.Kind == ir.OpSeq {
			kept := make([]ir.OpID, 0, len(op.Args))
			for j, it := range op.Args {
				if j < len(op.Args)-1 && pure[it] {
					removed++
					continue
				}
				kept = append(kept, it)
			}
			if len(kept) == 1 {
				*op = *mod.Op(kept[0])
			} else {
				op.Args = kept
			}
		}
		pure[id] = isPure(mod, op, pure)
	}
	return removed
}

func isPure(mod *ir.Module, op *ir.Op, pure []bool) bool {
	switch op.Kind {
	case ir.OpConst, ir.OpVarRef, ir.OpStorageLoad:
		return true
	case ir.OpArith:
		switch op.Arith {
		case ir.ArithDiv, ir.ArithRem, ir.ArithMod:
			// division may trap on the native target
			if v, ok := constOf(mod, op.Right); !ok || v.Int == 0 {
				return false
			}
		}
	case ir.OpIf, ir.OpSeq:
	default:
		return false
	}
	for _, c := range op.Children() {
		if !pure[c] {
			return false
		}
	}
	return true
}
