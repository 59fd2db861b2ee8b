package sema

import (
	"context"
	"fmt"

	"lamina/internal/ast"
	"lamina/internal/diag"
	"lamina/internal/ffi"
	"lamina/internal/ir"
	"lamina/internal/source"
)

// InitFuncName names the synthetic function that holds top-level expressions.
const InitFuncName = "__init"

// Options configure one analysis.
type Options struct {
	// Env lists foreign procedures callable from the program. May be nil.
	Env *ffi.Env
	// Reporter receives the first error in addition to the returned one.
	Reporter diag.Reporter
	// ModuleName becomes ir.Module.Name.
	ModuleName string
}

type funcCtx struct {
	fn     *ir.Func
	parent *funcCtx
	lifted map[string]int
}

type analyzer struct {
	b       *ast.Builder
	mod     *ir.Module
	opts    Options
	global  *Scope
	pending map[string]source.Span

	initCtx   *funcCtx
	initScope *Scope
	initItems []ir.OpID
	externs   map[string]bool

	err error
}

// Analyze lowers parsed top-level forms into an IR module. It stops at the
// first error, which is always a *diag.SemanticError; the module is nil then.
func Analyze(ctx context.Context, b *ast.Builder, roots []ast.NodeID, opts Options) (*ir.Module, error) {
	a := &analyzer{
		b:       b,
		mod:     ir.NewModule(opts.ModuleName),
		opts:    opts,
		global:  NewScope(ScopeModule, nil),
		pending: make(map[string]source.Span),
		externs: make(map[string]bool),
	}
	for _, name := range opts.Env.Names() {
		sig, _ := opts.Env.Lookup(name)
		a.global.Declare(name, &Binding{Kind: BindExtern, Extern: sig})
	}

	items := a.flatten(roots)
	a.hoist(items)
	for _, it := range items {
		if a.err != nil {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a.topLevel(it)
	}
	if a.err == nil {
		a.finishInit()
	}
	if a.err == nil {
		a.settleTypes()
	}
	if a.err == nil {
		a.markMutations()
	}
	if a.err != nil {
		return nil, a.err
	}
	if err := ir.Validate(a.mod); err != nil {
		return nil, fmt.Errorf("sema: produced invalid IR: %w", err)
	}
	return a.mod, nil
}

// fail records the first semantic error and returns NoOpID for convenience.
func (a *analyzer) fail(code diag.Code, sp source.Span, format string, args ...any) ir.OpID {
	if a.err == nil {
		se := diag.Semantic(code, sp, format, args...)
		diag.Emit(a.opts.Reporter, se.Diag)
		a.err = se
	}
	return ir.NoOpID
}

func (a *analyzer) span(id ast.NodeID) source.Span {
	if n := a.b.Get(id); n != nil {
		return n.Span
	}
	return source.Span{}
}

// flatten splices top-level begin forms, preserving order.
func (a *analyzer) flatten(roots []ast.NodeID) []ast.NodeID {
	var out []ast.NodeID
	stack := make([]ast.NodeID, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if bg := a.b.Begin(id); bg != nil {
			for i := len(bg.Body) - 1; i >= 0; i-- {
				stack = append(stack, bg.Body[i])
			}
			continue
		}
		out = append(out, id)
	}
	return out
}

// procShape reports whether a define introduces a procedure and returns its
// parameters and body.
func (a *analyzer) procShape(d *ast.DefineData) ([]ast.Param, []ast.NodeID, bool) {
	if d.IsProc {
		return d.Params, d.Body, true
	}
	if l := a.b.Lambda(d.Value); l != nil {
		return l.Params, l.Body, true
	}
	return nil, nil, false
}

// hoist registers every top-level procedure so bodies can call procedures
// defined later, and remembers value definitions for before-use checks.
func (a *analyzer) hoist(items []ast.NodeID) {
	for _, it := range items {
		d := a.b.Define(it)
		if d == nil {
			continue
		}
		if reservedName(d.Name) {
			a.fail(diag.SemaReservedName, d.NameSpan, "%q is reserved and cannot be redefined", d.Name)
			return
		}
		if prev, ok := a.pending[d.Name]; ok {
			code := diag.SemaDuplicateDef
			if a.isIntLiteral(d.Value) {
				code = diag.SemaDuplicateStorage
			}
			a.fail(code, d.NameSpan, "%q is already defined at offset %d", d.Name, prev.Start)
			return
		}
		if b, ok := a.global.LookupLocal(d.Name); ok {
			a.fail(diag.SemaDuplicateDef, d.NameSpan, "%q is already defined as %s", d.Name, b.Kind)
			return
		}
		params, _, isProc := a.procShape(d)
		if !isProc {
			a.pending[d.Name] = d.NameSpan
			continue
		}
		fn := a.newFuncShell(d.Name, params, a.span(it))
		fn.TopLevel = true
		a.mod.AddFunc(fn)
		a.global.Declare(d.Name, &Binding{Kind: BindFunc, Func: d.Name, Span: d.NameSpan})
	}
}

func (a *analyzer) newFuncShell(name string, params []ast.Param, sp source.Span) *ir.Func {
	fn := &ir.Func{Name: name, Span: sp}
	for _, p := range params {
		id := a.mod.NewLocal(ir.Local{Name: p.Name, IsParam: true, Span: p.Span})
		fn.Params = append(fn.Params, id)
		fn.Locals = append(fn.Locals, id)
	}
	return fn
}

func (a *analyzer) isIntLiteral(id ast.NodeID) bool {
	n := a.b.Get(id)
	return n != nil && n.Kind == ast.KindInt
}

func (a *analyzer) topLevel(it ast.NodeID) {
	d := a.b.Define(it)
	if d == nil {
		fc, scope := a.initContext()
		if op := a.lowerExpr(fc, scope, it); op.IsValid() {
			a.initItems = append(a.initItems, op)
		}
		return
	}
	if params, body, isProc := a.procShape(d); isProc {
		fc := &funcCtx{fn: a.mod.Func(d.Name)}
		a.lowerFunc(fc, params, body, a.global)
		return
	}

	delete(a.pending, d.Name)
	n := a.b.Get(d.Value)
	switch n.Kind {
	case ast.KindInt:
		slot, _ := a.mod.Slots.Declare(d.Name, a.b.Atom(d.Value).Int, d.NameSpan)
		a.global.Declare(d.Name, &Binding{Kind: BindStorage, Slot: slot.Index, Span: d.NameSpan})
	case ast.KindBool:
		a.global.Declare(d.Name, &Binding{Kind: BindConst, Const: ir.BoolValue(a.b.Atom(d.Value).Bool), Span: d.NameSpan})
	case ast.KindString:
		a.global.Declare(d.Name, &Binding{Kind: BindConst, Const: ir.StringValue(a.b.Atom(d.Value).Text), Span: d.NameSpan})
	case ast.KindFloat:
		a.fail(diag.SemaUnsupportedLiteral, n.Span, "floating point literal %s is not supported", a.b.Atom(d.Value).Text)
	default:
		// Computed global: a storage slot initialised by __init.
		fc, scope := a.initContext()
		val := a.lowerExpr(fc, scope, d.Value)
		if !val.IsValid() || !a.constrain(val, ir.TypeInt) {
			return
		}
		slot, _ := a.mod.Slots.Declare(d.Name, 0, d.NameSpan)
		store := a.mod.NewOp(ir.Op{Kind: ir.OpStorageStore, Type: ir.TypeUnit, Span: n.Span, Slot: slot.Index, Left: val})
		a.initItems = append(a.initItems, store)
		a.global.Declare(d.Name, &Binding{Kind: BindStorage, Slot: slot.Index, Span: d.NameSpan})
	}
}

func (a *analyzer) initContext() (*funcCtx, *Scope) {
	if a.initCtx == nil {
		a.initCtx = &funcCtx{fn: &ir.Func{Name: InitFuncName, Init: true}}
		a.initScope = NewScope(ScopeFunction, a.global)
	}
	return a.initCtx, a.initScope
}

func (a *analyzer) finishInit() {
	if a.initCtx == nil || len(a.initItems) == 0 {
		return
	}
	fn := a.initCtx.fn
	fn.Body = a.seq(a.initItems, source.Span{})
	fn.Result = a.mod.Op(fn.Body).Type
	a.mod.AddFunc(fn)
}

// lowerFunc lowers params and body into fc.fn. Parameters get a fresh
// function scope whose parent is the defining scope.
func (a *analyzer) lowerFunc(fc *funcCtx, params []ast.Param, body []ast.NodeID, parent *Scope) {
	scope := NewScope(ScopeFunction, parent)
	for i, p := range params {
		scope.Declare(p.Name, &Binding{Kind: BindParam, Local: fc.fn.Params[i], Span: p.Span, owner: fc})
	}
	fc.fn.Body = a.lowerBody(fc, scope, body)
	if op := a.mod.Op(fc.fn.Body); op != nil {
		fc.fn.Result = op.Type
	}
}

func (a *analyzer) seq(items []ir.OpID, sp source.Span) ir.OpID {
	if len(items) == 1 {
		return items[0]
	}
	last := a.mod.Op(items[len(items)-1])
	return a.mod.NewOp(ir.Op{Kind: ir.OpSeq, Type: last.Type, Span: sp, Args: items})
}
