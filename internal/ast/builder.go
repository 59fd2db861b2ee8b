package ast

import (
	"lamina/internal/source"
)

type Hints struct{ Nodes uint }

// Builder owns every node of one parse. Nodes are never mutated once
// allocated; later phases build their own structures.
type Builder struct {
	Nodes   *Arena[Node]
	Atoms   *Arena[AtomData]
	Lists   *Arena[ListData]
	Defines *Arena[DefineData]
	Lambdas *Arena[LambdaData]
	Ifs     *Arena[IfData]
	Begins  *Arena[BeginData]
	Quotes  *Arena[QuoteData]
	Applies *Arena[ApplyData]
}

func NewBuilder(hints Hints) *Builder {
	if hints.Nodes == 0 {
		hints.Nodes = 1 << 8
	}
	small := max(hints.Nodes/8, 8)
	return &Builder{
		Nodes:   NewArena[Node](hints.Nodes),
		Atoms:   NewArena[AtomData](hints.Nodes),
		Lists:   NewArena[ListData](small),
		Defines: NewArena[DefineData](small),
		Lambdas: NewArena[LambdaData](small),
		Ifs:     NewArena[IfData](small),
		Begins:  NewArena[BeginData](small),
		Quotes:  NewArena[QuoteData](small),
		Applies: NewArena[ApplyData](hints.Nodes / 2),
	}
}

func (b *Builder) new(kind Kind, sp source.Span, payload uint32) NodeID {
	return NodeID(b.Nodes.Allocate(Node{Kind: kind, Span: sp, Payload: PayloadID(payload)}))
}

func (b *Builder) Get(id NodeID) *Node {
	return b.Nodes.Get(uint32(id))
}

func (b *Builder) NewSymbol(sp source.Span, name string) NodeID {
	return b.new(KindSymbol, sp, b.Atoms.Allocate(AtomData{Text: name}))
}

func (b *Builder) NewInt(sp source.Span, text string, v int64) NodeID {
	return b.new(KindInt, sp, b.Atoms.Allocate(AtomData{Text: text, Int: v}))
}

func (b *Builder) NewFloat(sp source.Span, text string, v float64) NodeID {
	return b.new(KindFloat, sp, b.Atoms.Allocate(AtomData{Text: text, Float: v}))
}

func (b *Builder) NewString(sp source.Span, value string) NodeID {
	return b.new(KindString, sp, b.Atoms.Allocate(AtomData{Text: value}))
}

func (b *Builder) NewBool(sp source.Span, v bool) NodeID {
	text := "#f"
	if v {
		text = "#t"
	}
	return b.new(KindBool, sp, b.Atoms.Allocate(AtomData{Text: text, Bool: v}))
}

func (b *Builder) NewList(sp source.Span, items []NodeID) NodeID {
	return b.new(KindList, sp, b.Lists.Allocate(ListData{Items: items}))
}

func (b *Builder) NewDefine(sp source.Span, data DefineData) NodeID {
	return b.new(KindDefine, sp, b.Defines.Allocate(data))
}

func (b *Builder) NewLambda(sp source.Span, params []Param, body []NodeID) NodeID {
	return b.new(KindLambda, sp, b.Lambdas.Allocate(LambdaData{Params: params, Body: body}))
}

func (b *Builder) NewIf(sp source.Span, cond, then, els NodeID) NodeID {
	return b.new(KindIf, sp, b.Ifs.Allocate(IfData{Cond: cond, Then: then, Else: els}))
}

func (b *Builder) NewBegin(sp source.Span, body []NodeID) NodeID {
	return b.new(KindBegin, sp, b.Begins.Allocate(BeginData{Body: body}))
}

func (b *Builder) NewQuote(sp source.Span, datum NodeID, sugar bool) NodeID {
	return b.new(KindQuote, sp, b.Quotes.Allocate(QuoteData{Datum: datum, Sugar: sugar}))
}

func (b *Builder) NewApply(sp source.Span, callee NodeID, args []NodeID) NodeID {
	return b.new(KindApply, sp, b.Applies.Allocate(ApplyData{Callee: callee, Args: args}))
}

// Typed accessors return nil when the node has a different kind.

func (b *Builder) Atom(id NodeID) *AtomData {
	n := b.Get(id)
	if n == nil || !n.Kind.IsAtom() {
		return nil
	}
	return b.Atoms.Get(uint32(n.Payload))
}

func (b *Builder) List(id NodeID) *ListData {
	if n := b.Get(id); n != nil && n.Kind == KindList {
		return b.Lists.Get(uint32(n.Payload))
	}
	return nil
}

func (b *Builder) Define(id NodeID) *DefineData {
	if n := b.Get(id); n != nil && n.Kind == KindDefine {
		return b.Defines.Get(uint32(n.Payload))
	}
	return nil
}

func (b *Builder) Lambda(id NodeID) *LambdaData {
	if n := b.Get(id); n != nil && n.Kind == KindLambda {
		return b.Lambdas.Get(uint32(n.Payload))
	}
	return nil
}

func (b *Builder) If(id NodeID) *IfData {
	if n := b.Get(id); n != nil && n.Kind == KindIf {
		return b.Ifs.Get(uint32(n.Payload))
	}
	return nil
}

func (b *Builder) Begin(id NodeID) *BeginData {
	if n := b.Get(id); n != nil && n.Kind == KindBegin {
		return b.Begins.Get(uint32(n.Payload))
	}
	return nil
}

func (b *Builder) Quote(id NodeID) *QuoteData {
	if n := b.Get(id); n != nil && n.Kind == KindQuote {
		return b.Quotes.Get(uint32(n.Payload))
	}
	return nil
}

func (b *Builder) Apply(id NodeID) *ApplyData {
	if n := b.Get(id); n != nil && n.Kind == KindApply {
		return b.Applies.Get(uint32(n.Payload))
	}
	return nil
}

// SymbolName returns the name of a symbol node and whether id is one.
func (b *Builder) SymbolName(id NodeID) (string, bool) {
	n := b.Get(id)
	if n == nil || n.Kind != KindSymbol {
		return "", false
	}
	return b.Atoms.Get(uint32(n.Payload)).Text, true
}
