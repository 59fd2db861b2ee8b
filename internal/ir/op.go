package ir

import (
	"lamina/internal/source"
)

type OpID uint32

const NoOpID OpID = 0

func (id OpID) IsValid() bool { return id != NoOpID }

type OpKind uint8

const (
	OpInvalid OpKind = iota
	OpConst
	OpVarRef
	OpCall
	OpIf
	OpStorageLoad
	OpStorageStore
	OpArith
	OpSeq
	OpBind
)

var opKindNames = [...]string{
	OpInvalid:      "invalid",
	OpConst:        "const",
	OpVarRef:       "var",
	OpCall:         "call",
	OpIf:           "if",
	OpStorageLoad:  "storage.load",
	OpStorageStore: "storage.store",
	OpArith:        "arith",
	OpSeq:          "seq",
	OpBind:         "bind",
}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return "op(?)"
}

// ArithOp selects the operator of an OpArith node.
type ArithOp uint8

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithDiv
	// ArithRem truncates toward zero (remainder).
	ArithRem
	// ArithMod floors (modulo); the result has the sign of the divisor.
	ArithMod
	ArithEq
	ArithLt
	ArithGt
	ArithLe
	ArithGe
	// ArithNot is unary; Right is NoOpID.
	ArithNot
)

var arithNames = [...]string{
	ArithAdd: "add",
	ArithSub: "sub",
	ArithMul: "mul",
	ArithDiv: "div",
	ArithRem: "rem",
	ArithMod: "mod",
	ArithEq:  "eq",
	ArithLt:  "lt",
	ArithGt:  "gt",
	ArithLe:  "le",
	ArithGe:  "ge",
	ArithNot: "not",
}

func (a ArithOp) String() string {
	if int(a) < len(arithNames) {
		return arithNames[a]
	}
	return "arith(?)"
}

// IsComparison reports whether the operator yields a boolean.
func (a ArithOp) IsComparison() bool {
	return a >= ArithEq && a <= ArithGe
}

// Result returns the type produced by the operator.
func (a ArithOp) Result() Type {
	if a.IsComparison() || a == ArithNot {
		return TypeBool
	}
	return TypeInt
}

// Operand returns the type the operator expects for its operands.
func (a ArithOp) Operand() Type {
	if a == ArithNot {
		return TypeBool
	}
	return TypeInt
}

// Op is one node of the operation arena. Which fields are meaningful
// depends on Kind:
//
//	Const         Value
//	VarRef        Local
//	Call          Callee, Extern, Args
//	If            Cond, Then, Else (Else may be NoOpID)
//	StorageLoad   Slot
//	StorageStore  Slot, Left (value)
//	Arith         Arith, Left, Right
//	Seq           Args (at least one item)
//	Bind          Local, Left (value)
type Op struct {
	Kind OpKind
	Type Type
	Span source.Span

	Value  Value
	Local  LocalID
	Callee string
	Extern bool
	Slot   int
	Arith  ArithOp

	Cond, Then, Else OpID
	Left, Right      OpID
	Args             []OpID
}

// Children returns operand IDs in evaluation order.
func (op *Op) Children() []OpID {
	switch op.Kind {
	case OpCall, OpSeq:
		return op.Args
	case OpIf:
		if op.Else.IsValid() {
			return []OpID{op.Cond, op.Then, op.Else}
		}
		return []OpID{op.Cond, op.Then}
	case OpStorageStore, OpBind:
		return []OpID{op.Left}
	case OpArith:
		if op.Right.IsValid() {
			return []OpID{op.Left, op.Right}
		}
		return []OpID{op.Left}
	}
	return nil
}
