// Package ffi holds the explicit environment of foreign procedures that a
// compilation may call. There is no process-wide registry: callers build an
// Env and pass it to the analyzer.
package ffi

import (
	"fmt"
	"sort"

	"lamina/internal/ir"
)

// Signature describes a foreign procedure.
type Signature struct {
	Name   string
	Params []ir.Type
	Result ir.Type
}

func (s Signature) Decl() ir.ExternDecl {
	return ir.ExternDecl{Name: s.Name, Params: append([]ir.Type(nil), s.Params...), Result: s.Result}
}

// Env maps extern names to signatures. The zero value is empty and usable.
type Env struct {
	sigs map[string]Signature
}

func NewEnv(sigs ...Signature) (*Env, error) {
	env := &Env{}
	for _, s := range sigs {
		if err := env.Register(s); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// Register adds sig; registering the same name twice is an error.
func (e *Env) Register(sig Signature) error {
	if sig.Name == "" {
		return fmt.Errorf("ffi: empty extern name")
	}
	if e.sigs == nil {
		e.sigs = make(map[string]Signature)
	}
	if _, dup := e.sigs[sig.Name]; dup {
		return fmt.Errorf("ffi: extern %q already registered", sig.Name)
	}
	if sig.Result == ir.TypeUnknown {
		sig.Result = ir.TypeUnit
	}
	e.sigs[sig.Name] = sig
	return nil
}

func (e *Env) Lookup(name string) (Signature, bool) {
	if e == nil {
		return Signature{}, false
	}
	s, ok := e.sigs[name]
	return s, ok
}

// Names returns the registered names in sorted order.
func (e *Env) Names() []string {
	if e == nil {
		return nil
	}
	names := make([]string, 0, len(e.sigs))
	for n := range e.sigs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseType maps the manifest spelling of a type to ir.Type.
func ParseType(s string) (ir.Type, error) {
	switch s {
	case "int":
		return ir.TypeInt, nil
	case "bool":
		return ir.TypeBool, nil
	case "string":
		return ir.TypeString, nil
	case "storage-ref":
		return ir.TypeStorageRef, nil
	case "unit", "":
		return ir.TypeUnit, nil
	}
	return ir.TypeUnknown, fmt.Errorf("ffi: unknown type %q", s)
}
