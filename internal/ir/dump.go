package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes a human-readable listing of the module.
func Dump(w io.Writer, m *Module) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "module %s\n", m.Name)
	for _, s := range m.Slots.Entries() {
		fmt.Fprintf(&sb, "slot %d %s = %d\n", s.Index, s.Name, s.Init)
	}
	for _, e := range m.Externs {
		params := make([]string, len(e.Params))
		for i, p := range e.Params {
			params[i] = p.String()
		}
		fmt.Fprintf(&sb, "extern %s(%s) -> %s\n", e.Name, strings.Join(params, ", "), e.Result)
	}
	for _, f := range m.Funcs {
		sb.WriteByte('\n')
		dumpFunc(&sb, m, f)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func dumpFunc(sb *strings.Builder, m *Module, f *Func) {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		l := m.Local(p)
		params[i] = l.Name + ": " + l.Type.String()
	}
	var attrs []string
	if f.Exported {
		attrs = append(attrs, "exported")
	}
	if f.Init {
		attrs = append(attrs, "init")
	}
	if f.Lifted {
		attrs = append(attrs, "lifted")
	}
	if f.Mutates {
		attrs = append(attrs, "mutates")
	}
	fmt.Fprintf(sb, "func %s(%s) -> %s", f.Name, strings.Join(params, ", "), f.Result)
	if len(attrs) > 0 {
		fmt.Fprintf(sb, " [%s]", strings.Join(attrs, " "))
	}
	sb.WriteString(" {\n")
	marks := m.Reachable(f.Body)
	for id := 1; id < len(marks); id++ {
		if marks[id] {
			fmt.Fprintf(sb, "  %%%d = %s : %s\n", id, FormatOp(m, OpID(id)), m.Op(OpID(id)).Type)
		}
	}
	fmt.Fprintf(sb, "  ret %%%d\n}\n", f.Body)
}

// FormatOp renders a single op without its operands' contents.
func FormatOp(m *Module, id OpID) string {
	op := m.Op(id)
	if op == nil {
		return "<nil>"
	}
	refs := func(ids ...OpID) string {
		parts := make([]string, 0, len(ids))
		for _, c := range ids {
			parts = append(parts, "%"+strconv.FormatUint(uint64(c), 10))
		}
		return strings.Join(parts, ", ")
	}
	switch op.Kind {
	case OpConst:
		return "const " + FormatValue(op.Value)
	case OpVarRef:
		return "var " + localName(m, op.Local)
	case OpCall:
		kw := "call"
		if op.Extern {
			kw = "call.extern"
		}
		return fmt.Sprintf("%s %s(%s)", kw, op.Callee, refs(op.Args...))
	case OpIf:
		return "if " + refs(op.Children()...)
	case OpStorageLoad:
		return fmt.Sprintf("storage.load @%d", op.Slot)
	case OpStorageStore:
		return fmt.Sprintf("storage.store @%d, %s", op.Slot, refs(op.Left))
	case OpArith:
		return op.Arith.String() + " " + refs(op.Children()...)
	case OpSeq:
		return "seq " + refs(op.Args...)
	case OpBind:
		return fmt.Sprintf("bind %s = %s", localName(m, op.Local), refs(op.Left))
	}
	return op.Kind.String()
}

func localName(m *Module, id LocalID) string {
	if l := m.Local(id); l != nil {
		return fmt.Sprintf("%s#%d", l.Name, id)
	}
	return fmt.Sprintf("?#%d", id)
}

func FormatValue(v Value) string {
	switch v.Type {
	case TypeBool:
		if v.Bool {
			return "#t"
		}
		return "#f"
	case TypeString:
		return strconv.Quote(v.Str)
	case TypeUnit:
		return "()"
	}
	return strconv.FormatInt(v.Int, 10)
}
