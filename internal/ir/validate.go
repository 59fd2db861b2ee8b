package ir

import (
	"errors"
	"fmt"
)

// Validate checks structural invariants: operand order, operand arity,
// operand types and function bodies. All violations are joined.
func Validate(m *Module) error {
	var errs []error
	bad := func(id OpID, format string, args ...any) {
		errs = append(errs, fmt.Errorf("op %d: %s", id, fmt.Sprintf(format, args...)))
	}
	for i := 1; i <= m.NumOps(); i++ {
		id := OpID(i)
		op := m.Op(id)
		for _, c := range op.Children() {
			if !c.IsValid() || c >= id {
				bad(id, "operand %d does not precede its user", c)
			}
		}
		switch op.Kind {
		case OpConst:
			if op.Value.Type != op.Type {
				bad(id, "const of type %s tagged %s", op.Value.Type, op.Type)
			}
		case OpVarRef, OpBind:
			if m.Local(op.Local) == nil {
				bad(id, "unknown local %d", op.Local)
			}
		case OpCall:
			if op.Extern {
				if _, ok := m.Extern(op.Callee); !ok {
					bad(id, "unknown extern %q", op.Callee)
				}
			} else if f := m.Func(op.Callee); f == nil {
				bad(id, "unknown function %q", op.Callee)
			} else if len(f.Params) != len(op.Args) {
				bad(id, "call to %q with %d args, want %d", op.Callee, len(op.Args), len(f.Params))
			}
		case OpIf:
			if !op.Cond.IsValid() || !op.Then.IsValid() {
				bad(id, "if without condition or branch")
			}
		case OpStorageLoad, OpStorageStore:
			if op.Slot < 0 || op.Slot >= m.Slots.Len() {
				bad(id, "slot %d out of range", op.Slot)
			}
		case OpArith:
			unary := op.Arith == ArithNot
			if unary == op.Right.IsValid() {
				bad(id, "%s has wrong operand count", op.Arith)
			}
		case OpSeq:
			if len(op.Args) == 0 {
				bad(id, "empty sequence")
			}
		case OpInvalid:
			bad(id, "invalid op")
		}
	}
	for _, f := range m.Funcs {
		if m.Op(f.Body) == nil {
			errs = append(errs, fmt.Errorf("func %q: missing body", f.Name))
		}
	}
	return errors.Join(errs...)
}
