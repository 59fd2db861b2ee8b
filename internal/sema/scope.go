package sema

import (
	"lamina/internal/ffi"
	"lamina/internal/ir"
	"lamina/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeModule             // top-level declarations
	ScopeFunction           // procedure parameters
	ScopeBlock              // immediately applied lambda, begin inside an expression
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// BindingKind tells what a name resolves to.
type BindingKind uint8

const (
	BindLocal BindingKind = iota + 1
	BindParam
	BindFunc
	BindStorage
	BindConst
	BindExtern
)

func (k BindingKind) String() string {
	switch k {
	case BindLocal:
		return "local"
	case BindParam:
		return "parameter"
	case BindFunc:
		return "procedure"
	case BindStorage:
		return "storage slot"
	case BindConst:
		return "constant"
	case BindExtern:
		return "extern"
	}
	return "binding"
}

type Binding struct {
	Kind  BindingKind
	Span  source.Span
	Local ir.LocalID
	// Func is the IR name of a procedure binding ("outer/inner" when lifted).
	Func   string
	Slot   int
	Const  ir.Value
	Extern ffi.Signature
	// owner is the function that introduced a local or parameter.
	owner *funcCtx
}

// Scope models a lexical scope with a parent chain. Scopes are created by
// the analyzer for one form and dropped once the form is lowered.
type Scope struct {
	Kind   ScopeKind
	Parent *Scope
	names  map[string]*Binding
}

func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Kind: kind, Parent: parent, names: make(map[string]*Binding)}
}

// Declare binds name in this scope, replacing an earlier binding in the
// same scope (a nested define of the same name rebinds it).
func (s *Scope) Declare(name string, b *Binding) {
	s.names[name] = b
}

// LookupLocal checks only this scope.
func (s *Scope) LookupLocal(name string) (*Binding, bool) {
	b, ok := s.names[name]
	return b, ok
}

// Lookup walks outward from s.
func (s *Scope) Lookup(name string) (*Binding, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if b, ok := sc.names[name]; ok {
			return b, true
		}
	}
	return nil, false
}
