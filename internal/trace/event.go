package trace

import "time"

type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

var kindNames = names[Kind]{KindSpanBegin: "begin", KindSpanEnd: "end", KindPoint: "point"}

func (k Kind) String() string { return kindNames.String(k) }

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // one CLI command
	ScopePass                    // lex, parse, analyze, optimize, codegen
	ScopeFile                    // one file of a directory build
	ScopeFunc                    // one function inside a pass
)

var scopeNames = names[Scope]{ScopeDriver: "driver", ScopePass: "pass", ScopeFile: "file", ScopeFunc: "func"}

func (s Scope) String() string { return scopeNames.String(s) }

type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	Depth    int    // nesting depth, for text indentation
	Name     string // "parse", "codegen:evm", "file:counter.lam"
	Detail   string
	Elapsed  time.Duration // set on KindSpanEnd
	Extra    map[string]string
}
