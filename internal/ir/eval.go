package ir

import (
	"errors"
	"fmt"
)

const defaultMaxCallDepth = 1 << 12

// ErrCallDepth is returned when evaluation nests calls too deeply.
var ErrCallDepth = errors.New("ir: call depth exceeded")

// ExternFunc implements an extern procedure for the evaluator.
type ExternFunc func(args []Value) (Value, error)

// Machine evaluates a module directly. It backs immediate evaluation of
// analyzed forms and checks that optimizations preserve behaviour.
type Machine struct {
	Module  *Module
	Storage map[int]int64
	Externs map[string]ExternFunc

	// MaxCallDepth bounds nested calls; 0 means the default.
	MaxCallDepth int
	depth        int
}

func NewMachine(m *Module) *Machine {
	vm := &Machine{Module: m, Storage: make(map[int]int64)}
	for _, s := range m.Slots.Entries() {
		vm.Storage[s.Index] = s.Init
	}
	return vm
}

// RunInit executes the synthetic initializer, if any.
func (vm *Machine) RunInit() error {
	for _, f := range vm.Module.Funcs {
		if f.Init {
			_, err := vm.Call(f.Name)
			return err
		}
	}
	return nil
}

// Call runs the named function with args.
func (vm *Machine) Call(name string, args ...Value) (Value, error) {
	f := vm.Module.Func(name)
	if f == nil {
		return Value{}, fmt.Errorf("ir: unknown function %q", name)
	}
	if len(args) != len(f.Params) {
		return Value{}, fmt.Errorf("ir: %s expects %d args, got %d", name, len(f.Params), len(args))
	}
	limit := vm.MaxCallDepth
	if limit <= 0 {
		limit = defaultMaxCallDepth
	}
	if vm.depth >= limit {
		return Value{}, ErrCallDepth
	}
	vm.depth++
	defer func() { vm.depth-- }()

	env := make(map[LocalID]Value, len(f.Locals))
	for i, p := range f.Params {
		env[p] = args[i]
	}
	return vm.eval(f.Body, env)
}

func (vm *Machine) eval(id OpID, env map[LocalID]Value) (Value, error) {
	m := vm.Module
	op := m.Op(id)
	switch op.Kind {
	case OpConst:
		return op.Value, nil
	case OpVarRef:
		v, ok := env[op.Local]
		if !ok {
			return Value{}, fmt.Errorf("ir: local %s read before bind", localName(m, op.Local))
		}
		return v, nil
	case OpBind:
		v, err := vm.eval(op.Left, env)
		if err != nil {
			return Value{}, err
		}
		env[op.Local] = v
		return UnitValue(), nil
	case OpStorageLoad:
		return IntValue(vm.Storage[op.Slot]), nil
	case OpStorageStore:
		v, err := vm.eval(op.Left, env)
		if err != nil {
			return Value{}, err
		}
		vm.Storage[op.Slot] = v.Int
		return UnitValue(), nil
	case OpSeq:
		var last Value
		for _, it := range op.Args {
			v, err := vm.eval(it, env)
			if err != nil {
				return Value{}, err
			}
			last = v
		}
		return last, nil
	case OpIf:
		c, err := vm.eval(op.Cond, env)
		if err != nil {
			return Value{}, err
		}
		if c.Truthy() {
			v, err := vm.eval(op.Then, env)
			if err != nil || op.Type == TypeUnit {
				return UnitValue(), err
			}
			return v, nil
		}
		if op.Else.IsValid() {
			return vm.eval(op.Else, env)
		}
		return UnitValue(), nil
	case OpArith:
		l, err := vm.eval(op.Left, env)
		if err != nil {
			return Value{}, err
		}
		if op.Arith == ArithNot {
			return BoolValue(!l.Truthy()), nil
		}
		r, err := vm.eval(op.Right, env)
		if err != nil {
			return Value{}, err
		}
		return EvalArith(op.Arith, l, r)
	case OpCall:
		args := make([]Value, len(op.Args))
		for i, a := range op.Args {
			v, err := vm.eval(a, env)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		if op.Extern {
			fn, ok := vm.Externs[op.Callee]
			if !ok {
				return Value{}, fmt.Errorf("ir: extern %q is not bound", op.Callee)
			}
			return fn(args)
		}
		return vm.Call(op.Callee, args...)
	}
	return Value{}, fmt.Errorf("ir: cannot evaluate %s", op.Kind)
}

// ErrDivideByZero is returned for div/rem/mod with a zero divisor.
var ErrDivideByZero = errors.New("ir: division by zero")

// EvalArith applies a binary operator with wrapping int64 semantics.
func EvalArith(a ArithOp, l, r Value) (Value, error) {
	x, y := l.Int, r.Int
	switch a {
	case ArithAdd:
		return IntValue(x + y), nil
	case ArithSub:
		return IntValue(x - y), nil
	case ArithMul:
		return IntValue(x * y), nil
	case ArithDiv, ArithRem, ArithMod:
		if y == 0 {
			return Value{}, ErrDivideByZero
		}
		switch a {
		case ArithDiv:
			return IntValue(x / y), nil
		case ArithRem:
			return IntValue(x % y), nil
		}
		m := x % y
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return IntValue(m), nil
	case ArithEq:
		if l.Type == TypeBool {
			return BoolValue(l.Bool == r.Bool), nil
		}
		return BoolValue(x == y), nil
	case ArithLt:
		return BoolValue(x < y), nil
	case ArithGt:
		return BoolValue(x > y), nil
	case ArithLe:
		return BoolValue(x <= y), nil
	case ArithGe:
		return BoolValue(x >= y), nil
	}
	return Value{}, fmt.Errorf("ir: %s is not binary", a)
}
