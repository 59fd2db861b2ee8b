// Package testkit holds structural checks shared by parser tests and fuzz
// harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"lamina/internal/ast"
	"lamina/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on parsed roots:
// 1) every root span is non-empty, points at sf and lies within its content
// 2) roots appear in source order and do not overlap
// 3) every non-empty child span is contained in its parent's span
func CheckSpanInvariants(b *ast.Builder, roots []ast.NodeID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	var prevEnd uint32
	for i, root := range roots {
		n := b.Get(root)
		if n == nil {
			return fmt.Errorf("root %d: node %d not found", i, root)
		}
		sp := n.Span
		if sp.End <= sp.Start {
			return fmt.Errorf("root %d: empty span %v", i, sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("root %d: span points to file %d, want %d", i, sp.File, sf.ID)
		}
		if sp.End > lenContent {
			return fmt.Errorf("root %d: span end beyond content: %d > %d", i, sp.End, lenContent)
		}
		if sp.Start < prevEnd {
			return fmt.Errorf("root %d: span %v overlaps previous root ending at %d", i, sp, prevEnd)
		}
		prevEnd = sp.End
		if err := checkNested(b, root); err != nil {
			return fmt.Errorf("root %d: %w", i, err)
		}
	}
	return nil
}

// checkNested walks the tree below root with an explicit stack.
func checkNested(b *ast.Builder, root ast.NodeID) error {
	stack := []ast.NodeID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		parent := b.Get(id).Span
		for _, c := range Children(b, id) {
			n := b.Get(c)
			if n == nil {
				return fmt.Errorf("node %d: child %d not found", id, c)
			}
			if !n.Span.Empty() && (n.Span.Start < parent.Start || n.Span.End > parent.End) {
				return fmt.Errorf("%s span %v escapes parent %s %v", n.Kind, n.Span, b.Get(id).Kind, parent)
			}
			stack = append(stack, c)
		}
	}
	return nil
}

// Children lists the direct sub-nodes of id in source order.
func Children(b *ast.Builder, id ast.NodeID) []ast.NodeID {
	n := b.Get(id)
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ast.KindList:
		return b.List(id).Items
	case ast.KindDefine:
		d := b.Define(id)
		if !d.IsProc {
			return []ast.NodeID{d.Value}
		}
		return d.Body
	case ast.KindLambda:
		return b.Lambda(id).Body
	case ast.KindIf:
		x := b.If(id)
		if x.Else == ast.NoNodeID {
			return []ast.NodeID{x.Cond, x.Then}
		}
		return []ast.NodeID{x.Cond, x.Then, x.Else}
	case ast.KindBegin:
		return b.Begin(id).Body
	case ast.KindQuote:
		return []ast.NodeID{b.Quote(id).Datum}
	case ast.KindApply:
		a := b.Apply(id)
		return append([]ast.NodeID{a.Callee}, a.Args...)
	}
	return nil
}

// CountNodes returns the number of nodes reachable from roots.
func CountNodes(b *ast.Builder, roots []ast.NodeID) int {
	n := 0
	stack := append([]ast.NodeID(nil), roots...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		stack = append(stack, Children(b, id)...)
	}
	return n
}
