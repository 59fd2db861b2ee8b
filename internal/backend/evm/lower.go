package evm

import (
	"strconv"

	"lamina/internal/diag"
	"lamina/internal/ir"
	"lamina/internal/source"
)

// task is one unit of pending work for the emitter. Exactly one of the
// fields is meaningful.
type task struct {
	op    ir.OpID
	line  Line
	enter string
	leave string
}

// emitter turns op trees into macro lines with an explicit work stack,
// so deeply nested expressions never grow the Go stack.
type emitter struct {
	mod    *ir.Module
	frames *frameLayout
	lines  []Line
	labels int
	// active holds the functions currently being inlined.
	active map[string]bool
}

func newEmitter(mod *ir.Module, frames *frameLayout) *emitter {
	return &emitter{mod: mod, frames: frames, active: make(map[string]bool)}
}

func cells(t ir.Type) int {
	if t == ir.TypeUnit {
		return 0
	}
	return 1
}

func (e *emitter) emit(in ...Instr) {
	e.lines = append(e.lines, Line(in))
}

func (e *emitter) label(prefix string) string {
	e.labels++
	return prefix + "_" + strconv.Itoa(e.labels)
}

// lowerFunc emits f's body. The caller is responsible for the prologue.
func (e *emitter) lowerFunc(f *ir.Func) error {
	e.active[f.Name] = true
	defer delete(e.active, f.Name)
	return e.run(f.Body)
}

func (e *emitter) run(root ir.OpID) error {
	stack := []task{{op: root}}
	push := func(ts ...task) {
		for i := len(ts) - 1; i >= 0; i-- {
			stack = append(stack, ts[i])
		}
	}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch {
		case t.line != nil:
			e.lines = append(e.lines, t.line)
		case t.enter != "":
			e.active[t.enter] = true
		case t.leave != "":
			delete(e.active, t.leave)
		case t.op.IsValid():
			ts, err := e.expand(t.op)
			if err != nil {
				return err
			}
			push(ts...)
		}
	}
	return nil
}

// expand returns the tasks for id in execution order.
func (e *emitter) expand(id ir.OpID) ([]task, error) {
	op := e.mod.Op(id)
	if op == nil {
		return nil, diag.Codegen(diag.GenUnsupported, source.Span{}, "dangling op %d", id)
	}
	line := func(in ...Instr) task { return task{line: Line(in)} }

	switch op.Kind {
	case ir.OpConst:
		switch op.Value.Type {
		case ir.TypeUnit:
			return nil, nil
		case ir.TypeBool:
			return []task{line(PushBool(op.Value.Bool))}, nil
		case ir.TypeInt, ir.TypeStorageRef:
			return []task{line(PushInt(op.Value.Int))}, nil
		}
		return nil, diag.Unsupported(op.Span, "%s values have no stack representation", op.Value.Type)

	case ir.OpVarRef:
		off, err := e.slotOf(op)
		if err != nil {
			return nil, err
		}
		return []task{line(PushUint(off), Op("mload"))}, nil

	case ir.OpBind:
		off, err := e.slotOf(op)
		if err != nil {
			return nil, err
		}
		return append(e.value(op.Left), line(PushUint(off), Op("mstore"))), nil

	case ir.OpStorageLoad:
		name, err := e.slotConst(op)
		if err != nil {
			return nil, err
		}
		return []task{line(Const(name), Op("sload"))}, nil

	case ir.OpStorageStore:
		name, err := e.slotConst(op)
		if err != nil {
			return nil, err
		}
		return []task{{op: op.Left}, line(Const(name), Op("sstore"))}, nil

	case ir.OpArith:
		code, ok := arithCode[op.Arith]
		if !ok {
			return nil, diag.Unsupported(op.Span, "operator %s", op.Arith)
		}
		out := []task{{op: op.Left}}
		if op.Right.IsValid() {
			out = append(out, task{op: op.Right})
		}
		return append(out, task{line: code}), nil

	case ir.OpSeq:
		var out []task
		for i, item := range op.Args {
			out = append(out, task{op: item})
			if i < len(op.Args)-1 && cells(e.mod.Op(item).Type) == 1 {
				out = append(out, line(Op("pop")))
			}
		}
		return out, nil

	case ir.OpIf:
		return e.expandIf(op), nil

	case ir.OpCall:
		return e.expandCall(op)
	}
	return nil, diag.Unsupported(op.Span, "%s op", op.Kind)
}

// arithCode expects the left operand below the right one.
var arithCode = map[ir.ArithOp]Line{
	ir.ArithAdd: {Op("add")},
	ir.ArithMul: {Op("mul")},
	ir.ArithSub: {Op("swap1"), Op("sub")},
	ir.ArithDiv: {Op("swap1"), Op("sdiv")},
	ir.ArithRem: {Op("swap1"), Op("smod")},
	// floored: ((a smod b) + b) smod b
	ir.ArithMod: {Op("swap1"), Op("dup2"), Op("swap1"), Op("smod"), Op("dup2"), Op("add"), Op("smod")},
	ir.ArithEq:  {Op("eq")},
	ir.ArithLt:  {Op("sgt")},
	ir.ArithGt:  {Op("slt")},
	ir.ArithLe:  {Op("slt"), Op("iszero")},
	ir.ArithGe:  {Op("sgt"), Op("iszero")},
	ir.ArithNot: {Op("iszero")},
}

func (e *emitter) expandIf(op *ir.Op) []task {
	line := func(in ...Instr) task { return task{line: Line(in)} }
	// branch values are dropped when the if itself yields nothing
	arm := func(id ir.OpID) []task {
		out := []task{{op: id}}
		if cells(op.Type) == 0 && cells(e.mod.Op(id).Type) == 1 {
			out = append(out, line(Op("pop")))
		}
		return out
	}
	end := e.label("end")
	if !op.Else.IsValid() {
		out := []task{{op: op.Cond}, line(Op("iszero"), LabelRef(end), Op("jumpi"))}
		out = append(out, arm(op.Then)...)
		return append(out, line(Label(end)))
	}
	els := e.label("else")
	out := []task{{op: op.Cond}, line(Op("iszero"), LabelRef(els), Op("jumpi"))}
	out = append(out, arm(op.Then)...)
	out = append(out, line(LabelRef(end), Op("jump")), line(Label(els)))
	out = append(out, arm(op.Else)...)
	return append(out, line(Label(end)))
}

func (e *emitter) expandCall(op *ir.Op) ([]task, error) {
	if op.Extern {
		return nil, diag.Unsupported(op.Span, "external procedure %q cannot be called from a contract", op.Callee)
	}
	callee := e.mod.Func(op.Callee)
	if callee == nil {
		return nil, diag.Codegen(diag.GenUnsupported, op.Span, "call to unknown function %q", op.Callee)
	}
	if e.active[callee.Name] {
		return nil, diag.Unsupported(op.Span, "recursive call to %q cannot be inlined", callee.Name)
	}
	if len(op.Args) != len(callee.Params) {
		return nil, diag.Codegen(diag.GenUnsupported, op.Span, "call to %q passes %d arguments, want %d",
			callee.Name, len(op.Args), len(callee.Params))
	}
	out := make([]task, 0, 2*len(op.Args)+3)
	for _, a := range op.Args {
		out = append(out, e.value(a)...)
	}
	// last argument is on top
	for i := len(callee.Params) - 1; i >= 0; i-- {
		off, ok := e.frames.offset(callee.Params[i])
		if !ok {
			return nil, diag.Codegen(diag.GenUnsupported, op.Span, "parameter %d of %q has no frame slot", i, callee.Name)
		}
		out = append(out, task{line: Line{PushUint(off), Op("mstore")}})
	}
	out = append(out, task{enter: callee.Name}, task{op: callee.Body}, task{leave: callee.Name})
	return out, nil
}

// value evaluates id to exactly one cell; unit results become zero.
func (e *emitter) value(id ir.OpID) []task {
	if cells(e.mod.Op(id).Type) == 0 {
		return []task{{op: id}, {line: Line{Push("0x00")}}}
	}
	return []task{{op: id}}
}

func (e *emitter) slotOf(op *ir.Op) (uint64, error) {
	off, ok := e.frames.offset(op.Local)
	if !ok {
		return 0, diag.Codegen(diag.GenUnsupported, op.Span, "local %d has no frame slot", op.Local)
	}
	return off, nil
}

func (e *emitter) slotConst(op *ir.Op) (string, error) {
	for _, s := range e.mod.Slots.Entries() {
		if s.Index == op.Slot {
			return ConstantName(s.Name), nil
		}
	}
	return "", diag.Codegen(diag.GenUnsupported, op.Span, "unknown storage slot %d", op.Slot)
}
