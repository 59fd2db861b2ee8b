package sema

import (
	"lamina/internal/diag"
	"lamina/internal/ir"
)

// settleTypes finishes inference after every body is lowered: locals that
// no use constrained default to int, types flow from children to parents
// and from bodies to call sites until nothing changes, then every op is
// checked against its operands.
func (a *analyzer) settleTypes() {
	m := a.mod
	settle := func() {
		for round := 0; round <= len(m.Funcs)+m.NumLocals()+1; round++ {
			if !a.propagate() {
				break
			}
		}
	}
	settle()
	for i := 1; i <= m.NumLocals(); i++ {
		if l := m.Local(ir.LocalID(i)); l.Type == ir.TypeUnknown {
			l.Type = ir.TypeInt
		}
	}
	settle()
	for i := 1; i <= m.NumOps(); i++ {
		if op := m.Op(ir.OpID(i)); op.Type == ir.TypeUnknown {
			op.Type = ir.TypeInt
		}
	}
	for _, f := range m.Funcs {
		if f.Result == ir.TypeUnknown {
			f.Result = m.Op(f.Body).Type
		}
	}
	for i := 1; i <= m.NumOps() && a.err == nil; i++ {
		a.checkOp(ir.OpID(i))
	}
}

// propagate runs one ascending sweep and reports whether anything changed.
func (a *analyzer) propagate() bool {
	m := a.mod
	changed := false
	for i := 1; i <= m.NumOps(); i++ {
		op := m.Op(ir.OpID(i))
		if op.Kind == ir.OpBind {
			if l := m.Local(op.Local); l.Type == ir.TypeUnknown {
				if vt := m.Op(op.Left).Type; vt != ir.TypeUnknown {
					l.Type = vt
					changed = true
				}
			}
		}
		if op.Type != ir.TypeUnknown {
			continue
		}
		var t ir.Type
		switch op.Kind {
		case ir.OpVarRef:
			t = m.Local(op.Local).Type
		case ir.OpCall:
			if f := m.Func(op.Callee); f != nil && !op.Extern {
				t = f.Result
			}
		case ir.OpIf:
			t = m.Op(op.Then).Type
			if t == ir.TypeUnknown && op.Else.IsValid() {
				t = m.Op(op.Else).Type
			}
		case ir.OpSeq:
			t = m.Op(op.Args[len(op.Args)-1]).Type
		}
		if t != ir.TypeUnknown {
			op.Type = t
			changed = true
		}
	}
	for _, f := range m.Funcs {
		if f.Result == ir.TypeUnknown {
			if t := m.Op(f.Body).Type; t != ir.TypeUnknown {
				f.Result = t
				changed = true
			}
		}
	}
	return changed
}

func (a *analyzer) mismatch(id ir.OpID, want, have ir.Type, what string) {
	a.fail(diag.SemaTypeMismatch, a.mod.Op(id).Span, "%s: expected %s, found %s", what, want, have)
}

func (a *analyzer) expectType(id ir.OpID, want ir.Type, what string) {
	if have := a.mod.Op(id).Type; have != want {
		a.mismatch(id, want, have, what)
	}
}

func (a *analyzer) checkOp(id ir.OpID) {
	m := a.mod
	op := m.Op(id)
	switch op.Kind {
	case ir.OpArith:
		if op.Arith == ir.ArithEq {
			lt := m.Op(op.Left).Type
			if lt != ir.TypeInt && lt != ir.TypeBool {
				a.mismatch(op.Left, ir.TypeInt, lt, "=")
				return
			}
			a.expectType(op.Right, lt, "=")
			return
		}
		a.expectType(op.Left, op.Arith.Operand(), op.Arith.String())
		if op.Right.IsValid() {
			a.expectType(op.Right, op.Arith.Operand(), op.Arith.String())
		}
	case ir.OpIf:
		a.expectType(op.Cond, ir.TypeBool, "if condition")
		if op.Else.IsValid() {
			a.expectType(op.Else, m.Op(op.Then).Type, "if branch")
		}
	case ir.OpStorageStore:
		a.expectType(op.Left, ir.TypeInt, "storage-store value")
	case ir.OpBind:
		if l := m.Local(op.Local); l.Type != m.Op(op.Left).Type {
			a.mismatch(op.Left, l.Type, m.Op(op.Left).Type, "definition of "+l.Name)
		}
	case ir.OpCall:
		if op.Extern {
			decl, _ := m.Extern(op.Callee)
			for i, arg := range op.Args {
				a.expectType(arg, decl.Params[i], "argument to "+op.Callee)
			}
			return
		}
		f := m.Func(op.Callee)
		for i, arg := range op.Args {
			a.expectType(arg, m.Local(f.Params[i]).Type, "argument to "+op.Callee)
		}
	}
}

// markMutations flags functions that store to storage, directly or through
// calls, iterating to a fixpoint over the call graph.
func (a *analyzer) markMutations() {
	m := a.mod
	callees := make(map[string][]string, len(m.Funcs))
	for _, f := range m.Funcs {
		marks := m.Reachable(f.Body)
		for id := 1; id < len(marks); id++ {
			if !marks[id] {
				continue
			}
			op := m.Op(ir.OpID(id))
			if op.Kind == ir.OpStorageStore || (op.Kind == ir.OpCall && op.Extern) {
				f.Mutates = true
			}
		}
		callees[f.Name] = m.Callees(f)
	}
	for changed := true; changed; {
		changed = false
		for _, f := range m.Funcs {
			if f.Mutates {
				continue
			}
			for _, c := range callees[f.Name] {
				if g := m.Func(c); g != nil && g.Mutates {
					f.Mutates = true
					changed = true
					break
				}
			}
		}
	}
}
