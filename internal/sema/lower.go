package sema

import (
	"fmt"

	"lamina/internal/ast"
	"lamina/internal/diag"
	"lamina/internal/ir"
	"lamina/internal/source"
)

// lowerBody lowers a body sequence. Nested defines bind into scope; a begin
// directly in the body is spliced and shares that scope.
func (a *analyzer) lowerBody(fc *funcCtx, scope *Scope, items []ast.NodeID) ir.OpID {
	var ops []ir.OpID
	var sp source.Span
	for i, it := range a.flatten(items) {
		if a.err != nil {
			return ir.NoOpID
		}
		if i == 0 {
			sp = a.span(it)
		} else {
			sp = sp.Cover(a.span(it))
		}
		if d := a.b.Define(it); d != nil {
			if op := a.lowerLocalDefine(fc, scope, it, d); op.IsValid() {
				ops = append(ops, op)
			}
			continue
		}
		if op := a.lowerExpr(fc, scope, it); op.IsValid() {
			ops = append(ops, op)
		}
	}
	if a.err != nil {
		return ir.NoOpID
	}
	if len(ops) == 0 {
		return a.mod.NewOp(ir.Op{Kind: ir.OpConst, Type: ir.TypeUnit, Value: ir.UnitValue(), Span: sp})
	}
	return a.seq(ops, sp)
}

// lowerLocalDefine handles define inside a body. Procedures are lifted to
// module level; values become a Bind to a fresh local that shadows any
// outer binding of the same name, storage slots included.
func (a *analyzer) lowerLocalDefine(fc *funcCtx, scope *Scope, id ast.NodeID, d *ast.DefineData) ir.OpID {
	if params, body, isProc := a.procShape(d); isProc {
		name := a.liftedName(fc, d.Name)
		fn := a.newFuncShell(name, params, a.span(id))
		fn.Lifted = true
		a.mod.AddFunc(fn)
		scope.Declare(d.Name, &Binding{Kind: BindFunc, Func: name, Span: d.NameSpan})
		a.lowerFunc(&funcCtx{fn: fn, parent: fc}, params, body, scope)
		return ir.NoOpID
	}
	val := a.lowerExpr(fc, scope, d.Value)
	if !val.IsValid() {
		return ir.NoOpID
	}
	vt := a.mod.Op(val).Type
	if vt == ir.TypeUnit {
		return a.fail(diag.SemaTypeMismatch, a.span(d.Value), "%q is bound to an expression without a value", d.Name)
	}
	local := a.mod.NewLocal(ir.Local{Name: d.Name, Type: vt, Span: d.NameSpan})
	fc.fn.Locals = append(fc.fn.Locals, local)
	scope.Declare(d.Name, &Binding{Kind: BindLocal, Local: local, Span: d.NameSpan, owner: fc})
	return a.mod.NewOp(ir.Op{Kind: ir.OpBind, Type: ir.TypeUnit, Span: a.span(id), Local: local, Left: val})
}

func (a *analyzer) liftedName(fc *funcCtx, name string) string {
	base := fc.fn.Name + "/" + name
	if fc.lifted == nil {
		fc.lifted = make(map[string]int)
	}
	n := fc.lifted[base]
	fc.lifted[base] = n + 1
	if n == 0 && a.mod.Func(base) == nil {
		return base
	}
	for {
		n++
		cand := fmt.Sprintf("%s.%d", base, n)
		if a.mod.Func(cand) == nil {
			fc.lifted[base] = n
			return cand
		}
	}
}

func (a *analyzer) lowerExpr(fc *funcCtx, scope *Scope, id ast.NodeID) ir.OpID {
	if a.err != nil {
		return ir.NoOpID
	}
	n := a.b.Get(id)
	switch n.Kind {
	case ast.KindInt:
		return a.constOp(ir.IntValue(a.b.Atom(id).Int), n.Span)
	case ast.KindBool:
		return a.constOp(ir.BoolValue(a.b.Atom(id).Bool), n.Span)
	case ast.KindString:
		return a.constOp(ir.StringValue(a.b.Atom(id).Text), n.Span)
	case ast.KindFloat:
		return a.fail(diag.SemaUnsupportedLiteral, n.Span, "floating point literal %s is not supported", a.b.Atom(id).Text)
	case ast.KindSymbol:
		return a.lowerSymbol(fc, scope, a.b.Atom(id).Text, n.Span)
	case ast.KindQuote:
		return a.lowerQuote(a.b.Quote(id).Datum)
	case ast.KindIf:
		return a.lowerIf(fc, scope, id)
	case ast.KindBegin:
		// defines of a nested begin end with it
		return a.lowerBody(fc, NewScope(ScopeBlock, scope), a.b.Begin(id).Body)
	case ast.KindLambda:
		return a.fail(diag.SemaFirstClassProc, n.Span, "lambda is only supported as a definition or in call position")
	case ast.KindDefine:
		return a.fail(diag.SemaBadTopLevel, n.Span, "define is only allowed at top level or at the start of a body")
	case ast.KindApply:
		return a.lowerApply(fc, scope, id)
	case ast.KindList:
		return a.fail(diag.SemaUnsupportedLiteral, n.Span, "list literals are not supported")
	}
	return a.fail(diag.SemaBadTopLevel, n.Span, "unexpected %s node", n.Kind)
}

func (a *analyzer) constOp(v ir.Value, sp source.Span) ir.OpID {
	return a.mod.NewOp(ir.Op{Kind: ir.OpConst, Type: v.Type, Value: v, Span: sp})
}

// resolve looks a name up and rejects references to locals of an
// enclosing procedure, since lifted procedures cannot capture them.
func (a *analyzer) resolve(fc *funcCtx, scope *Scope, name string, sp source.Span) (*Binding, bool) {
	b, ok := scope.Lookup(name)
	if !ok {
		return nil, false
	}
	if (b.Kind == BindLocal || b.Kind == BindParam) && b.owner != fc {
		a.fail(diag.SemaCapture, sp, "%q refers to a local of an enclosing procedure; closures are not supported", name)
		return nil, false
	}
	return b, true
}

func (a *analyzer) unresolved(name string, sp source.Span) ir.OpID {
	if declSpan, later := a.pending[name]; later {
		return a.fail(diag.SemaStorageBeforeDecl, sp, "%q is used before its declaration at offset %d", name, declSpan.Start)
	}
	return a.fail(diag.SemaUnboundIdent, sp, "unbound identifier %q", name)
}

func (a *analyzer) lowerSymbol(fc *funcCtx, scope *Scope, name string, sp source.Span) ir.OpID {
	b, ok := a.resolve(fc, scope, name, sp)
	if a.err != nil {
		return ir.NoOpID
	}
	if !ok {
		if _, builtin := builtins[name]; builtin {
			return a.fail(diag.SemaFirstClassProc, sp, "builtin %q cannot be used as a value", name)
		}
		return a.unresolved(name, sp)
	}
	switch b.Kind {
	case BindLocal, BindParam:
		return a.mod.NewOp(ir.Op{Kind: ir.OpVarRef, Type: a.mod.Local(b.Local).Type, Span: sp, Local: b.Local})
	case BindStorage:
		return a.mod.NewOp(ir.Op{Kind: ir.OpStorageLoad, Type: ir.TypeInt, Span: sp, Slot: b.Slot})
	case BindConst:
		return a.constOp(b.Const, sp)
	}
	return a.fail(diag.SemaFirstClassProc, sp, "%s %q cannot be used as a value", b.Kind, name)
}

func (a *analyzer) lowerQuote(datum ast.NodeID) ir.OpID {
	n := a.b.Get(datum)
	switch n.Kind {
	case ast.KindSymbol:
		return a.constOp(ir.StringValue(a.b.Atom(datum).Text), n.Span)
	case ast.KindInt:
		return a.constOp(ir.IntValue(a.b.Atom(datum).Int), n.Span)
	case ast.KindBool:
		return a.constOp(ir.BoolValue(a.b.Atom(datum).Bool), n.Span)
	case ast.KindString:
		return a.constOp(ir.StringValue(a.b.Atom(datum).Text), n.Span)
	}
	return a.fail(diag.SemaUnsupportedLiteral, n.Span, "quoted %s data is not supported", n.Kind)
}

func (a *analyzer) lowerIf(fc *funcCtx, scope *Scope, id ast.NodeID) ir.OpID {
	f := a.b.If(id)
	sp := a.span(id)
	cond := a.lowerExpr(fc, scope, f.Cond)
	if !cond.IsValid() || !a.constrain(cond, ir.TypeBool) {
		return ir.NoOpID
	}
	then := a.lowerExpr(fc, scope, f.Then)
	if !then.IsValid() {
		return ir.NoOpID
	}
	if !f.Else.IsValid() {
		return a.mod.NewOp(ir.Op{Kind: ir.OpIf, Type: ir.TypeUnit, Span: sp, Cond: cond, Then: then})
	}
	els := a.lowerExpr(fc, scope, f.Else)
	if !els.IsValid() {
		return ir.NoOpID
	}
	t, ok := a.unify(then, els)
	if !ok {
		return ir.NoOpID
	}
	return a.mod.NewOp(ir.Op{Kind: ir.OpIf, Type: t, Span: sp, Cond: cond, Then: then, Else: els})
}

// constrain checks op against want. An op of unknown type that reads a
// local pins the local's type.
func (a *analyzer) constrain(id ir.OpID, want ir.Type) bool {
	op := a.mod.Op(id)
	if op.Type == want {
		return true
	}
	if op.Type != ir.TypeUnknown {
		a.fail(diag.SemaTypeMismatch, op.Span, "expected %s, found %s", want, op.Type)
		return false
	}
	if op.Kind == ir.OpVarRef {
		a.mod.Local(op.Local).Type = want
		op.Type = want
	}
	return true
}

// unify picks the common type of two branches.
func (a *analyzer) unify(x, y ir.OpID) (ir.Type, bool) {
	tx, ty := a.mod.Op(x).Type, a.mod.Op(y).Type
	switch {
	case tx == ty:
		return tx, true
	case tx == ir.TypeUnknown:
		return ty, a.constrain(x, ty)
	case ty == ir.TypeUnknown:
		return tx, a.constrain(y, tx)
	}
	a.fail(diag.SemaTypeMismatch, a.mod.Op(y).Span, "if branches have different types: %s and %s", tx, ty)
	return ir.TypeUnknown, false
}

func (a *analyzer) lowerArgs(fc *funcCtx, scope *Scope, args []ast.NodeID) ([]ir.OpID, bool) {
	out := make([]ir.OpID, 0, len(args))
	for _, arg := range args {
		op := a.lowerExpr(fc, scope, arg)
		if !op.IsValid() {
			return nil, false
		}
		if a.mod.Op(op).Type == ir.TypeUnit {
			a.fail(diag.SemaTypeMismatch, a.span(arg), "argument has no value")
			return nil, false
		}
		out = append(out, op)
	}
	return out, true
}

func (a *analyzer) lowerApply(fc *funcCtx, scope *Scope, id ast.NodeID) ir.OpID {
	app := a.b.Apply(id)
	sp := a.span(id)
	if lam := a.b.Lambda(app.Callee); lam != nil {
		return a.lowerImmediateLambda(fc, scope, sp, lam, app.Args)
	}
	name, ok := a.b.SymbolName(app.Callee)
	if !ok {
		return a.fail(diag.SemaNotProcedure, a.span(app.Callee), "only named procedures can be called")
	}
	b, bound := a.resolve(fc, scope, name, a.span(app.Callee))
	if a.err != nil {
		return ir.NoOpID
	}
	if !bound {
		if lower, isBuiltin := builtins[name]; isBuiltin {
			return lower(a, fc, scope, sp, name, app.Args)
		}
		return a.unresolved(name, a.span(app.Callee))
	}
	switch b.Kind {
	case BindFunc:
		return a.lowerCall(fc, scope, sp, b.Func, app.Args)
	case BindExtern:
		return a.lowerExternCall(fc, scope, sp, b, app.Args)
	}
	return a.fail(diag.SemaNotProcedure, a.span(app.Callee), "%s %q is not a procedure", b.Kind, name)
}

func (a *analyzer) lowerCall(fc *funcCtx, scope *Scope, sp source.Span, callee string, argNodes []ast.NodeID) ir.OpID {
	fn := a.mod.Func(callee)
	if len(argNodes) != len(fn.Params) {
		return a.fail(diag.SemaArityMismatch, sp, "%s expects %d arguments, got %d", callee, len(fn.Params), len(argNodes))
	}
	args, ok := a.lowerArgs(fc, scope, argNodes)
	if !ok {
		return ir.NoOpID
	}
	for i, arg := range args {
		param := a.mod.Local(fn.Params[i])
		at := a.mod.Op(arg).Type
		switch {
		case param.Type == ir.TypeUnknown && at != ir.TypeUnknown:
			param.Type = at
		case param.Type != ir.TypeUnknown && !a.constrain(arg, param.Type):
			return ir.NoOpID
		}
	}
	return a.mod.NewOp(ir.Op{Kind: ir.OpCall, Type: fn.Result, Span: sp, Callee: callee, Args: args})
}

func (a *analyzer) lowerExternCall(fc *funcCtx, scope *Scope, sp source.Span, b *Binding, argNodes []ast.NodeID) ir.OpID {
	sig := b.Extern
	if len(argNodes) != len(sig.Params) {
		return a.fail(diag.SemaArityMismatch, sp, "%s expects %d arguments, got %d", sig.Name, len(sig.Params), len(argNodes))
	}
	args := make([]ir.OpID, 0, len(argNodes))
	for i, node := range argNodes {
		if sig.Params[i] == ir.TypeStorageRef {
			op := a.lowerSlotRef(fc, scope, node)
			if !op.IsValid() {
				return ir.NoOpID
			}
			args = append(args, op)
			continue
		}
		op := a.lowerExpr(fc, scope, node)
		if !op.IsValid() || !a.constrain(op, sig.Params[i]) {
			return ir.NoOpID
		}
		args = append(args, op)
	}
	if !a.externs[sig.Name] {
		a.externs[sig.Name] = true
		a.mod.Externs = append(a.mod.Externs, sig.Decl())
	}
	return a.mod.NewOp(ir.Op{Kind: ir.OpCall, Type: sig.Result, Span: sp, Callee: sig.Name, Extern: true, Args: args})
}

// lowerSlotRef passes a storage slot by reference as its index.
func (a *analyzer) lowerSlotRef(fc *funcCtx, scope *Scope, node ast.NodeID) ir.OpID {
	slot, ok := a.storageOperand(fc, scope, node)
	if !ok {
		return ir.NoOpID
	}
	v := ir.Value{Type: ir.TypeStorageRef, Int: int64(slot)}
	return a.constOp(v, a.span(node))
}

// storageOperand resolves the first operand of storage-load / storage-store.
func (a *analyzer) storageOperand(fc *funcCtx, scope *Scope, node ast.NodeID) (int, bool) {
	name, ok := a.b.SymbolName(node)
	if !ok {
		a.fail(diag.SemaNotStorage, a.span(node), "expected a storage slot name")
		return 0, false
	}
	b, bound := a.resolve(fc, scope, name, a.span(node))
	if a.err != nil {
		return 0, false
	}
	if !bound {
		a.unresolved(name, a.span(node))
		return 0, false
	}
	if b.Kind != BindStorage {
		a.fail(diag.SemaNotStorage, a.span(node), "%s %q is not a storage slot", b.Kind, name)
		return 0, false
	}
	return b.Slot, true
}

// lowerImmediateLambda turns ((lambda (x ...) body...) arg ...) into binds
// followed by the body in a block scope.
func (a *analyzer) lowerImmediateLambda(fc *funcCtx, scope *Scope, sp source.Span, lam *ast.LambdaData, argNodes []ast.NodeID) ir.OpID {
	if len(argNodes) != len(lam.Params) {
		return a.fail(diag.SemaArityMismatch, sp, "lambda expects %d arguments, got %d", len(lam.Params), len(argNodes))
	}
	args, ok := a.lowerArgs(fc, scope, argNodes)
	if !ok {
		return ir.NoOpID
	}
	block := NewScope(ScopeBlock, scope)
	items := make([]ir.OpID, 0, len(args)+1)
	for i, p := range lam.Params {
		local := a.mod.NewLocal(ir.Local{Name: p.Name, Type: a.mod.Op(args[i]).Type, Span: p.Span})
		fc.fn.Locals = append(fc.fn.Locals, local)
		block.Declare(p.Name, &Binding{Kind: BindLocal, Local: local, Span: p.Span, owner: fc})
		items = append(items, a.mod.NewOp(ir.Op{Kind: ir.OpBind, Type: ir.TypeUnit, Span: p.Span, Local: local, Left: args[i]}))
	}
	body := a.lowerBody(fc, block, lam.Body)
	if !body.IsValid() {
		return ir.NoOpID
	}
	items = append(items, body)
	return a.seq(items, sp)
}
