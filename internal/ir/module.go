package ir

import (
	"lamina/internal/source"
)

type LocalID uint32

const NoLocalID LocalID = 0

// Local is a parameter or a variable introduced by a nested define.
type Local struct {
	Name    string
	Type    Type
	IsParam bool
	Span    source.Span
}

// Func is one lowered procedure.
type Func struct {
	Name   string
	Params []LocalID
	// Locals lists every local of the function, parameters first.
	Locals []LocalID
	Result Type
	Body   OpID
	Span   source.Span

	// TopLevel is set for user procedures defined at the top level.
	TopLevel bool
	// Lifted marks nested procedures hoisted out of their parent.
	Lifted bool
	// Init marks the synthetic initializer holding top-level expressions.
	Init bool
	// Exported is decided by the middle-end.
	Exported bool
	// Mutates is set when the body may write storage, directly or via calls.
	Mutates bool
}

// Slot is one storage declaration.
type Slot struct {
	Name  string
	Index int
	Init  int64
	Span  source.Span
}

// SlotTable assigns slot indices in declaration order starting at zero.
type SlotTable struct {
	entries []Slot
	byName  map[string]int
}

// Declare allocates the next slot; ok is false if name is already declared.
func (t *SlotTable) Declare(name string, init int64, sp source.Span) (Slot, bool) {
	if t.byName == nil {
		t.byName = make(map[string]int)
	}
	if idx, exists := t.byName[name]; exists {
		return t.entries[idx], false
	}
	s := Slot{Name: name, Index: len(t.entries), Init: init, Span: sp}
	t.entries = append(t.entries, s)
	t.byName[name] = s.Index
	return s, true
}

func (t *SlotTable) Lookup(name string) (Slot, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return Slot{}, false
	}
	return t.entries[idx], true
}

// Entries returns slots ordered by index.
func (t *SlotTable) Entries() []Slot {
	return t.entries
}

func (t *SlotTable) Len() int {
	return len(t.entries)
}

// ExternDecl describes a procedure resolved at link time.
type ExternDecl struct {
	Name   string
	Params []Type
	Result Type
}

// Module is the unit handed from the analyzer to the middle-end and backends.
type Module struct {
	Name    string
	Funcs   []*Func
	Slots   SlotTable
	Externs []ExternDecl

	ops    []Op
	locals []Local
	byName map[string]int
}

func NewModule(name string) *Module {
	return &Module{Name: name, byName: make(map[string]int)}
}

// NewOp appends op to the arena. Operands must already be allocated.
func (m *Module) NewOp(op Op) OpID {
	m.ops = append(m.ops, op)
	return OpID(len(m.ops))
}

func (m *Module) Op(id OpID) *Op {
	if id == NoOpID || int(id) > len(m.ops) {
		return nil
	}
	return &m.ops[id-1]
}

// NumOps returns the arena size; valid IDs are 1..NumOps.
func (m *Module) NumOps() int {
	return len(m.ops)
}

func (m *Module) NewLocal(l Local) LocalID {
	m.locals = append(m.locals, l)
	return LocalID(len(m.locals))
}

// NumLocals returns the number of locals; valid IDs are 1..NumLocals.
func (m *Module) NumLocals() int {
	return len(m.locals)
}

func (m *Module) Local(id LocalID) *Local {
	if id == NoLocalID || int(id) > len(m.locals) {
		return nil
	}
	return &m.locals[id-1]
}

// AddFunc registers f; it returns false when the name is taken.
func (m *Module) AddFunc(f *Func) bool {
	if _, dup := m.byName[f.Name]; dup {
		return false
	}
	m.byName[f.Name] = len(m.Funcs)
	m.Funcs = append(m.Funcs, f)
	return true
}

func (m *Module) Func(name string) *Func {
	idx, ok := m.byName[name]
	if !ok {
		return nil
	}
	return m.Funcs[idx]
}

// RetainFuncs keeps only the functions for which keep returns true.
func (m *Module) RetainFuncs(keep func(*Func) bool) {
	out := m.Funcs[:0]
	m.byName = make(map[string]int, len(m.Funcs))
	for _, f := range m.Funcs {
		if keep(f) {
			m.byName[f.Name] = len(out)
			out = append(out, f)
		}
	}
	clear(m.Funcs[len(out):])
	m.Funcs = out
}

// Extern returns the declaration of an external procedure.
func (m *Module) Extern(name string) (ExternDecl, bool) {
	for _, e := range m.Externs {
		if e.Name == name {
			return e, true
		}
	}
	return ExternDecl{}, false
}

// Reachable marks the ops reachable from root. The result is indexed by
// OpID. One descending sweep suffices because operands precede users.
func (m *Module) Reachable(root OpID) []bool {
	marks := make([]bool, len(m.ops)+1)
	if !root.IsValid() || int(root) > len(m.ops) {
		return marks
	}
	marks[root] = true
	for id := root; id > 0; id-- {
		if !marks[id] {
			continue
		}
		for _, c := range m.Op(id).Children() {
			if c.IsValid() && c < id {
				marks[c] = true
			}
		}
	}
	return marks
}

// Callees lists the internal functions called from f's body, in op order.
func (m *Module) Callees(f *Func) []string {
	marks := m.Reachable(f.Body)
	var out []string
	seen := make(map[string]bool)
	for id := 1; id < len(marks); id++ {
		if !marks[id] {
			continue
		}
		op := m.Op(OpID(id))
		if op.Kind == OpCall && !op.Extern && !seen[op.Callee] {
			seen[op.Callee] = true
			out = append(out, op.Callee)
		}
	}
	return out
}
