package sema

import (
	"lamina/internal/ast"
	"lamina/internal/diag"
	"lamina/internal/ir"
	"lamina/internal/source"
)

type builtinLowerer func(a *analyzer, fc *funcCtx, scope *Scope, sp source.Span, name string, args []ast.NodeID) ir.OpID

var builtins map[string]builtinLowerer

func init() {
	builtins = map[string]builtinLowerer{
		"+":             foldArith(ir.ArithAdd, 0, 0),
		"*":             foldArith(ir.ArithMul, 1, 0),
		"-":             lowerMinus,
		"/":             foldArith(ir.ArithDiv, 0, 2),
		"remainder":     binaryArith(ir.ArithRem),
		"modulo":        binaryArith(ir.ArithMod),
		"quotient":      binaryArith(ir.ArithDiv),
		"=":             lowerEquals,
		"<":             binaryArith(ir.ArithLt),
		">":             binaryArith(ir.ArithGt),
		"<=":            binaryArith(ir.ArithLe),
		">=":            binaryArith(ir.ArithGe),
		"not":           lowerNot,
		"and":           lowerAndOr(true),
		"or":            lowerAndOr(false),
		"storage-load":  lowerStorageLoad,
		"storage-store": lowerStorageStore,
	}
}

// reservedName reports names that top-level definitions may not take.
func reservedName(name string) bool {
	if name == InitFuncName {
		return true
	}
	_, ok := builtins[name]
	return ok
}

func (a *analyzer) arity(sp source.Span, name string, got, want int) bool {
	if got == want {
		return true
	}
	a.fail(diag.SemaArityMismatch, sp, "%s expects %d arguments, got %d", name, want, got)
	return false
}

func (a *analyzer) intOperands(fc *funcCtx, scope *Scope, args []ast.NodeID) ([]ir.OpID, bool) {
	ops, ok := a.lowerArgs(fc, scope, args)
	if !ok {
		return nil, false
	}
	for _, op := range ops {
		if !a.constrain(op, ir.TypeInt) {
			return nil, false
		}
	}
	return ops, true
}

func (a *analyzer) arith(op ir.ArithOp, l, r ir.OpID, sp source.Span) ir.OpID {
	return a.mod.NewOp(ir.Op{Kind: ir.OpArith, Type: op.Result(), Span: sp, Arith: op, Left: l, Right: r})
}

// foldArith lowers a variadic operator as a left fold. Zero operands yield
// identity; fewer than minArgs is an arity error.
func foldArith(op ir.ArithOp, identity int64, minArgs int) builtinLowerer {
	return func(a *analyzer, fc *funcCtx, scope *Scope, sp source.Span, name string, args []ast.NodeID) ir.OpID {
		if len(args) < minArgs {
			return a.fail(diag.SemaArityMismatch, sp, "%s expects at least %d arguments, got %d", name, minArgs, len(args))
		}
		ops, ok := a.intOperands(fc, scope, args)
		if !ok {
			return ir.NoOpID
		}
		if len(ops) == 0 {
			return a.constOp(ir.IntValue(identity), sp)
		}
		acc := ops[0]
		for _, r := range ops[1:] {
			acc = a.arith(op, acc, r, sp)
		}
		return acc
	}
}

func lowerMinus(a *analyzer, fc *funcCtx, scope *Scope, sp source.Span, name string, args []ast.NodeID) ir.OpID {
	if len(args) == 0 {
		return a.fail(diag.SemaArityMismatch, sp, "- expects at least 1 argument")
	}
	ops, ok := a.intOperands(fc, scope, args)
	if !ok {
		return ir.NoOpID
	}
	if len(ops) == 1 {
		zero := a.constOp(ir.IntValue(0), sp)
		return a.arith(ir.ArithSub, zero, ops[0], sp)
	}
	acc := ops[0]
	for _, r := range ops[1:] {
		acc = a.arith(ir.ArithSub, acc, r, sp)
	}
	return acc
}

func binaryArith(op ir.ArithOp) builtinLowerer {
	return func(a *analyzer, fc *funcCtx, scope *Scope, sp source.Span, name string, args []ast.NodeID) ir.OpID {
		if !a.arity(sp, name, len(args), 2) {
			return ir.NoOpID
		}
		ops, ok := a.intOperands(fc, scope, args)
		if !ok {
			return ir.NoOpID
		}
		return a.arith(op, ops[0], ops[1], sp)
	}
}

// lowerEquals compares two ints or two booleans.
func lowerEquals(a *analyzer, fc *funcCtx, scope *Scope, sp source.Span, name string, args []ast.NodeID) ir.OpID {
	if !a.arity(sp, name, len(args), 2) {
		return ir.NoOpID
	}
	ops, ok := a.lowerArgs(fc, scope, args)
	if !ok {
		return ir.NoOpID
	}
	want := ir.TypeInt
	if a.mod.Op(ops[0]).Type == ir.TypeBool || a.mod.Op(ops[1]).Type == ir.TypeBool {
		want = ir.TypeBool
	}
	if !a.constrain(ops[0], want) || !a.constrain(ops[1], want) {
		return ir.NoOpID
	}
	return a.arith(ir.ArithEq, ops[0], ops[1], sp)
}

func lowerNot(a *analyzer, fc *funcCtx, scope *Scope, sp source.Span, name string, args []ast.NodeID) ir.OpID {
	if !a.arity(sp, name, len(args), 1) {
		return ir.NoOpID
	}
	ops, ok := a.lowerArgs(fc, scope, args)
	if !ok || !a.constrain(ops[0], ir.TypeBool) {
		return ir.NoOpID
	}
	return a.arith(ir.ArithNot, ops[0], ir.NoOpID, sp)
}

// lowerAndOr desugars short-circuit and/or into nested ifs over booleans.
func lowerAndOr(isAnd bool) builtinLowerer {
	return func(a *analyzer, fc *funcCtx, scope *Scope, sp source.Span, name string, args []ast.NodeID) ir.OpID {
		if len(args) == 0 {
			return a.constOp(ir.BoolValue(isAnd), sp)
		}
		ops, ok := a.lowerArgs(fc, scope, args)
		if !ok {
			return ir.NoOpID
		}
		for _, op := range ops {
			if !a.constrain(op, ir.TypeBool) {
				return ir.NoOpID
			}
		}
		acc := ops[len(ops)-1]
		for i := len(ops) - 2; i >= 0; i-- {
			short := a.constOp(ir.BoolValue(!isAnd), sp)
			op := ir.Op{Kind: ir.OpIf, Type: ir.TypeBool, Span: sp, Cond: ops[i]}
			if isAnd {
				op.Then, op.Else = acc, short
			} else {
				op.Then, op.Else = short, acc
			}
			acc = a.mod.NewOp(op)
		}
		return acc
	}
}

func lowerStorageLoad(a *analyzer, fc *funcCtx, scope *Scope, sp source.Span, name string, args []ast.NodeID) ir.OpID {
	if !a.arity(sp, name, len(args), 1) {
		return ir.NoOpID
	}
	slot, ok := a.storageOperand(fc, scope, args[0])
	if !ok {
		return ir.NoOpID
	}
	return a.mod.NewOp(ir.Op{Kind: ir.OpStorageLoad, Type: ir.TypeInt, Span: sp, Slot: slot})
}

func lowerStorageStore(a *analyzer, fc *funcCtx, scope *Scope, sp source.Span, name string, args []ast.NodeID) ir.OpID {
	if !a.arity(sp, name, len(args), 2) {
		return ir.NoOpID
	}
	slot, ok := a.storageOperand(fc, scope, args[0])
	if !ok {
		return ir.NoOpID
	}
	val := a.lowerExpr(fc, scope, args[1])
	if !val.IsValid() || !a.constrain(val, ir.TypeInt) {
		return ir.NoOpID
	}
	return a.mod.NewOp(ir.Op{Kind: ir.OpStorageStore, Type: ir.TypeUnit, Span: sp, Slot: slot, Left: val})
}
