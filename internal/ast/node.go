package ast

import (
	"lamina/internal/source"
)

// Node is the arena header; Payload indexes the per-kind arena.
type Node struct {
	Kind    Kind
	Span    source.Span
	Payload PayloadID
}

// AtomData holds symbols and literals. Text is the normalized spelling;
// for strings it is the decoded value.
type AtomData struct {
	Text  string
	Int   int64
	Float float64
	Bool  bool
}

type ListData struct {
	Items []NodeID
}

// DefineData covers both (define name value) and (define (name params...) body...).
type DefineData struct {
	Name     string
	NameSpan source.Span
	IsProc   bool
	Params   []Param
	// Value is set when IsProc is false.
	Value NodeID
	Body  []NodeID
}

type Param struct {
	Name string
	Span source.Span
}

type LambdaData struct {
	Params []Param
	Body   []NodeID
}

type IfData struct {
	Cond NodeID
	Then NodeID
	// Else is NoNodeID for the two-operand form.
	Else NodeID
}

type BeginData struct {
	Body []NodeID
}

type QuoteData struct {
	Datum NodeID
	// Sugar records the 'x spelling.
	Sugar bool
}

type ApplyData struct {
	Callee NodeID
	Args   []NodeID
}
