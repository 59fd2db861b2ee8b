// Package native renders IR modules as LLVM textual IR and hands them to
// an external code generator.
package native

import (
	"fmt"
	"strings"

	"lamina/internal/ir"
)

const (
	DefaultTriple = "x86_64-unknown-linux-gnu"
	storageGlobal = "@lamina.storage"
)

type Options struct {
	// Triple is written into the module; empty means DefaultTriple.
	Triple string
	// Main adds an i32 @main entry that runs the initializer.
	Main bool
}

type stringConst struct {
	name string
	data []byte
}

// Emitter accumulates one LLVM module.
type Emitter struct {
	mod     *ir.Module
	opts    Options
	buf     strings.Builder
	strs    map[string]*stringConst
	strList []*stringConst
}

// Emit returns the textual LLVM IR of mod.
func Emit(mod *ir.Module, opts Options) (string, error) {
	if mod == nil {
		return "", nil
	}
	e := &Emitter{mod: mod, opts: opts, strs: make(map[string]*stringConst)}
	e.collectStrings()

	e.emitPreamble()
	e.emitStorage()
	e.emitStrings()
	e.emitExterns()
	for _, f := range mod.Funcs {
		if err := e.emitFunc(f); err != nil {
			return "", fmt.Errorf("native: %s: %w", f.Name, err)
		}
	}
	if opts.Main {
		e.emitMain()
	}
	return e.buf.String(), nil
}

func (e *Emitter) emitPreamble() {
	triple := e.opts.Triple
	if triple == "" {
		triple = DefaultTriple
	}
	fmt.Fprintf(&e.buf, "; ModuleID = '%s'\n", e.mod.Name)
	fmt.Fprintf(&e.buf, "source_filename = \"%s\"\n", e.mod.Name)
	fmt.Fprintf(&e.buf, "target triple = \"%s\"\n\n", triple)
}

func (e *Emitter) emitStorage() {
	slots := e.mod.Slots.Entries()
	if len(slots) == 0 {
		return
	}
	inits := make([]string, len(slots))
	for i, s := range slots {
		inits[i] = fmt.Sprintf("i64 %d", s.Init)
	}
	fmt.Fprintf(&e.buf, "%s = global [%d x i64] [%s]\n\n", storageGlobal, len(slots), strings.Join(inits, ", "))
}

func (e *Emitter) collectStrings() {
	for id := 1; id <= e.mod.NumOps(); id++ {
		op := e.mod.Op(ir.OpID(id))
		if op.Kind != ir.OpConst || op.Value.Type != ir.TypeString {
			continue
		}
		if _, ok := e.strs[op.Value.Str]; ok {
			continue
		}
		sc := &stringConst{name: fmt.Sprintf("@.str.%d", len(e.strList)), data: append([]byte(op.Value.Str), 0)}
		e.strs[op.Value.Str] = sc
		e.strList = append(e.strList, sc)
	}
}

func (e *Emitter) emitStrings() {
	for _, sc := range e.strList {
		fmt.Fprintf(&e.buf, "%s = private unnamed_addr constant [%d x i8] c\"%s\"\n", sc.name, len(sc.data), escapeBytes(sc.data))
	}
	if len(e.strList) > 0 {
		e.buf.WriteString("\n")
	}
}

func (e *Emitter) emitExterns() {
	for _, x := range e.mod.Externs {
		params := make([]string, len(x.Params))
		for i, p := range x.Params {
			params[i] = valueType(p)
		}
		fmt.Fprintf(&e.buf, "declare %s %s(%s)\n", returnType(x.Result), globalName(x.Name), strings.Join(params, ", "))
	}
	if len(e.mod.Externs) > 0 {
		e.buf.WriteString("\n")
	}
}

func (e *Emitter) emitMain() {
	e.buf.WriteString("define i32 @main() {\nentry:\n")
	for _, f := range e.mod.Funcs {
		if f.Init {
			fmt.Fprintf(&e.buf, "  call %s %s()\n", returnType(f.Result), globalName(f.Name))
		}
	}
	e.buf.WriteString("  ret i32 0\n}\n")
}

// valueType is the storage type of a value; unit occupies an i64 zero.
func valueType(t ir.Type) string {
	switch t {
	case ir.TypeBool:
		return "i1"
	case ir.TypeString:
		return "ptr"
	}
	return "i64"
}

func returnType(t ir.Type) string {
	if t == ir.TypeUnit {
		return "void"
	}
	return valueType(t)
}

// globalName quotes identifiers LLVM would not accept bare.
func globalName(name string) string {
	for _, r := range name {
		if !(r == '_' || r == '.' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return "@\"" + string(escapeBytes([]byte(name))) + "\""
		}
	}
	return "@" + name
}

func escapeBytes(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c < 0x20 || c >= 0x7f || c == '"' || c == '\\' {
			out = append(out, fmt.Sprintf("\\%02X", c)...)
			continue
		}
		out = append(out, c)
	}
	return out
}
