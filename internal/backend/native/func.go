package native

import (
	"fmt"
	"strings"

	"lamina/internal/ir"
)

type funcEmitter struct {
	e      *Emitter
	f      *ir.Func
	tmpID  int
	blocks int
	// block is the label of the block being filled.
	block string
	slots map[ir.LocalID]string
}

// operand is an emitted value; ty is "void" for unit.
type operand struct {
	val, ty string
}

var unitOperand = operand{ty: "void"}

func (fe *funcEmitter) nextTemp() string {
	fe.tmpID++
	return fmt.Sprintf("%%t%d", fe.tmpID)
}

func (fe *funcEmitter) line(format string, args ...any) {
	fe.e.buf.WriteString("  ")
	fmt.Fprintf(&fe.e.buf, format, args...)
	fe.e.buf.WriteString("\n")
}

func (fe *funcEmitter) startBlock(label string) {
	fmt.Fprintf(&fe.e.buf, "%s:\n", label)
	fe.block = label
}

func (e *Emitter) emitFunc(f *ir.Func) error {
	fe := &funcEmitter{e: e, f: f, slots: make(map[ir.LocalID]string)}
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %%p%d", valueType(e.mod.Local(p).Type), i)
	}
	linkage := ""
	if !f.Exported {
		linkage = "internal "
	}
	fmt.Fprintf(&e.buf, "define %s%s %s(%s) {\n", linkage, returnType(f.Result), globalName(f.Name), strings.Join(params, ", "))
	fe.startBlock("entry")
	for _, l := range f.Locals {
		slot := fmt.Sprintf("%%l%d", l)
		fe.slots[l] = slot
		fe.line("%s = alloca %s", slot, valueType(e.mod.Local(l).Type))
	}
	for i, p := range f.Params {
		fe.line("store %s %%p%d, ptr %s", valueType(e.mod.Local(p).Type), i, fe.slots[p])
	}
	res, err := fe.emitOp(f.Body)
	if err != nil {
		return err
	}
	if f.Result == ir.TypeUnit || res.ty == "void" {
		if f.Result == ir.TypeUnit {
			fe.line("ret void")
		} else {
			fe.line("ret %s %s", returnType(f.Result), zeroOf(returnType(f.Result)))
		}
	} else {
		fe.line("ret %s %s", res.ty, res.val)
	}
	e.buf.WriteString("}\n\n")
	return nil
}

func zeroOf(ty string) string {
	switch ty {
	case "i1":
		return "false"
	case "ptr":
		return "null"
	}
	return "0"
}

// value forces o into a storable operand of type ty.
func value(o operand, ty string) operand {
	if o.ty == "void" {
		return operand{val: zeroOf(ty), ty: ty}
	}
	return o
}

func (fe *funcEmitter) emitOp(id ir.OpID) (operand, error) {
	op := fe.e.mod.Op(id)
	if op == nil {
		return operand{}, fmt.Errorf("dangling op %d", id)
	}
	switch op.Kind {
	case ir.OpConst:
		return fe.emitConst(op.Value), nil

	case ir.OpVarRef:
		slot, ok := fe.slots[op.Local]
		if !ok {
			return operand{}, fmt.Errorf("local %d has no slot", op.Local)
		}
		ty := valueType(fe.e.mod.Local(op.Local).Type)
		tmp := fe.nextTemp()
		fe.line("%s = load %s, ptr %s", tmp, ty, slot)
		return operand{tmp, ty}, nil

	case ir.OpBind:
		v, err := fe.emitOp(op.Left)
		if err != nil {
			return operand{}, err
		}
		slot, ok := fe.slots[op.Local]
		if !ok {
			return operand{}, fmt.Errorf("local %d has no slot", op.Local)
		}
		ty := valueType(fe.e.mod.Local(op.Local).Type)
		v = value(v, ty)
		fe.line("store %s %s, ptr %s", ty, v.val, slot)
		return unitOperand, nil

	case ir.OpStorageLoad:
		ptr := fe.slotPtr(op.Slot)
		tmp := fe.nextTemp()
		fe.line("%s = load i64, ptr %s", tmp, ptr)
		return operand{tmp, "i64"}, nil

	case ir.OpStorageStore:
		v, err := fe.emitOp(op.Left)
		if err != nil {
			return operand{}, err
		}
		v = value(v, "i64")
		ptr := fe.slotPtr(op.Slot)
		fe.line("store i64 %s, ptr %s", v.val, ptr)
		return unitOperand, nil

	case ir.OpArith:
		return fe.emitArith(op)

	case ir.OpSeq:
		res := unitOperand
		for _, item := range op.Args {
			v, err := fe.emitOp(item)
			if err != nil {
				return operand{}, err
			}
			res = v
		}
		return res, nil

	case ir.OpIf:
		return fe.emitIf(op)

	case ir.OpCall:
		return fe.emitCall(op)
	}
	return operand{}, fmt.Errorf("unsupported op kind %s", op.Kind)
}

func (fe *funcEmitter) emitConst(v ir.Value) operand {
	switch v.Type {
	case ir.TypeUnit:
		return unitOperand
	case ir.TypeBool:
		if v.Bool {
			return operand{"true", "i1"}
		}
		return operand{"false", "i1"}
	case ir.TypeString:
		return operand{fe.e.strs[v.Str].name, "ptr"}
	}
	return operand{fmt.Sprintf("%d", v.Int), "i64"}
}

func (fe *funcEmitter) slotPtr(slot int) string {
	tmp := fe.nextTemp()
	n := fe.e.mod.Slots.Len()
	fe.line("%s = getelementptr inbounds [%d x i64], ptr %s, i64 0, i64 %d", tmp, n, storageGlobal, slot)
	return tmp
}

var binaryInstr = map[ir.ArithOp]string{
	ir.ArithAdd: "add i64",
	ir.ArithSub: "sub i64",
	ir.ArithMul: "mul i64",
	ir.ArithDiv: "sdiv i64",
	ir.ArithRem: "srem i64",
	ir.ArithEq:  "icmp eq",
	ir.ArithLt:  "icmp slt i64",
	ir.ArithGt:  "icmp sgt i64",
	ir.ArithLe:  "icmp sle i64",
	ir.ArithGe:  "icmp sge i64",
}

func (fe *funcEmitter) emitArith(op *ir.Op) (operand, error) {
	l, err := fe.emitOp(op.Left)
	if err != nil {
		return operand{}, err
	}
	if op.Arith == ir.ArithNot {
		tmp := fe.nextTemp()
		fe.line("%s = xor i1 %s, true", tmp, value(l, "i1").val)
		return operand{tmp, "i1"}, nil
	}
	r, err := fe.emitOp(op.Right)
	if err != nil {
		return operand{}, err
	}
	l, r = value(l, "i64"), value(r, "i64")
	if op.Arith == ir.ArithMod {
		// floored: srem (srem a b + b) b
		rem, sum, out := fe.nextTemp(), fe.nextTemp(), fe.nextTemp()
		fe.line("%s = srem i64 %s, %s", rem, l.val, r.val)
		fe.line("%s = add i64 %s, %s", sum, rem, r.val)
		fe.line("%s = srem i64 %s, %s", out, sum, r.val)
		return operand{out, "i64"}, nil
	}
	instr, ok := binaryInstr[op.Arith]
	if !ok {
		return operand{}, fmt.Errorf("unsupported operator %s", op.Arith)
	}
	if op.Arith == ir.ArithEq {
		instr += " " + l.ty
	}
	tmp := fe.nextTemp()
	fe.line("%s = %s %s, %s", tmp, instr, l.val, r.val)
	if op.Arith.IsComparison() {
		return operand{tmp, "i1"}, nil
	}
	return operand{tmp, "i64"}, nil
}

func (fe *funcEmitter) emitIf(op *ir.Op) (operand, error) {
	c, err := fe.emitOp(op.Cond)
	if err != nil {
		return operand{}, err
	}
	fe.blocks++
	n := fe.blocks
	thenL, elseL, endL := fmt.Sprintf("then.%d", n), fmt.Sprintf("else.%d", n), fmt.Sprintf("end.%d", n)
	if !op.Else.IsValid() {
		elseL = endL
	}
	fe.line("br i1 %s, label %%%s, label %%%s", value(c, "i1").val, thenL, elseL)

	fe.startBlock(thenL)
	tv, err := fe.emitOp(op.Then)
	if err != nil {
		return operand{}, err
	}
	thenExit := fe.block
	fe.line("br label %%%s", endL)

	if !op.Else.IsValid() {
		fe.startBlock(endL)
		return unitOperand, nil
	}
	fe.startBlock(elseL)
	ev, err := fe.emitOp(op.Else)
	if err != nil {
		return operand{}, err
	}
	elseExit := fe.block
	fe.line("br label %%%s", endL)

	fe.startBlock(endL)
	if op.Type == ir.TypeUnit {
		return unitOperand, nil
	}
	ty := valueType(op.Type)
	tv, ev = value(tv, ty), value(ev, ty)
	tmp := fe.nextTemp()
	fe.line("%s = phi %s [ %s, %%%s ], [ %s, %%%s ]", tmp, ty, tv.val, thenExit, ev.val, elseExit)
	return operand{tmp, ty}, nil
}

func (fe *funcEmitter) emitCall(op *ir.Op) (operand, error) {
	var (
		paramTypes []string
		result     ir.Type
	)
	if op.Extern {
		decl, ok := fe.e.mod.Extern(op.Callee)
		if !ok {
			return operand{}, fmt.Errorf("undeclared extern %q", op.Callee)
		}
		for _, p := range decl.Params {
			paramTypes = append(paramTypes, valueType(p))
		}
		result = decl.Result
	} else {
		callee := fe.e.mod.Func(op.Callee)
		if callee == nil {
			return operand{}, fmt.Errorf("call to unknown function %q", op.Callee)
		}
		for _, p := range callee.Params {
			paramTypes = append(paramTypes, valueType(fe.e.mod.Local(p).Type))
		}
		result = callee.Result
	}
	if len(paramTypes) != len(op.Args) {
		return operand{}, fmt.Errorf("call to %q passes %d arguments, want %d", op.Callee, len(op.Args), len(paramTypes))
	}
	args := make([]string, len(op.Args))
	for i, a := range op.Args {
		v, err := fe.emitOp(a)
		if err != nil {
			return operand{}, err
		}
		v = value(v, paramTypes[i])
		args[i] = paramTypes[i] + " " + v.val
	}
	rt := returnType(result)
	if rt == "void" {
		fe.line("call void %s(%s)", globalName(op.Callee), strings.Join(args, ", "))
		return unitOperand, nil
	}
	tmp := fe.nextTemp()
	fe.line("%s = call %s %s(%s)", tmp, rt, globalName(op.Callee), strings.Join(args, ", "))
	return operand{tmp, rt}, nil
}
