package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"lamina/internal/ast"
	"lamina/internal/source"
)

// FormatASTPretty prints the forms back as S-expressions.
func FormatASTPretty(w io.Writer, b *ast.Builder, roots []ast.NodeID) error {
	return ast.Print(w, b, roots)
}

// FormatASTTree prints one node per line with kind and position.
func FormatASTTree(w io.Writer, b *ast.Builder, roots []ast.NodeID, fs *source.FileSet) error {
	var sb strings.Builder
	type item struct {
		id    ast.NodeID
		depth int
		label string
	}
	stack := make([]item, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, item{id: roots[i]})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := b.Get(it.id)
		if n == nil {
			continue
		}
		start, _ := fs.Resolve(n.Span)
		sb.WriteString(strings.Repeat("  ", it.depth))
		if it.label != "" {
			sb.WriteString(it.label + ": ")
		}
		fmt.Fprintf(&sb, "%s", n.Kind)
		if text := nodeText(b, it.id); text != "" {
			fmt.Fprintf(&sb, " %s", text)
		}
		fmt.Fprintf(&sb, " @%d:%d\n", start.Line, start.Col)

		kids := children(b, it.id)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, item{id: kids[i].id, depth: it.depth + 1, label: kids[i].label})
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

type child struct {
	id    ast.NodeID
	label string
}

func nodeText(b *ast.Builder, id ast.NodeID) string {
	if a := b.Atom(id); a != nil {
		if b.Get(id).Kind == ast.KindString {
			return fmt.Sprintf("%q", a.Text)
		}
		return a.Text
	}
	if d := b.Define(id); d != nil {
		names := make([]string, len(d.Params))
		for i, p := range d.Params {
			names[i] = p.Name
		}
		if d.IsProc {
			return fmt.Sprintf("%s(%s)", d.Name, strings.Join(names, " "))
		}
		return d.Name
	}
	if l := b.Lambda(id); l != nil {
		names := make([]string, len(l.Params))
		for i, p := range l.Params {
			names[i] = p.Name
		}
		return "(" + strings.Join(names, " ") + ")"
	}
	return ""
}

func children(b *ast.Builder, id ast.NodeID) []child {
	list := func(label string, ids []ast.NodeID) []child {
		out := make([]child, len(ids))
		for i, c := range ids {
			out[i] = child{id: c, label: label}
		}
		return out
	}
	switch b.Get(id).Kind {
	case ast.KindList:
		return list("", b.List(id).Items)
	case ast.KindDefine:
		d := b.Define(id)
		if !d.IsProc {
			return []child{{id: d.Value, label: "value"}}
		}
		return list("body", d.Body)
	case ast.KindLambda:
		return list("body", b.Lambda(id).Body)
	case ast.KindIf:
		x := b.If(id)
		out := []child{{x.Cond, "cond"}, {x.Then, "then"}}
		if x.Else != ast.NoNodeID {
			out = append(out, child{x.Else, "else"})
		}
		return out
	case ast.KindBegin:
		return list("", b.Begin(id).Body)
	case ast.KindQuote:
		return []child{{id: b.Quote(id).Datum, label: "datum"}}
	case ast.KindApply:
		a := b.Apply(id)
		return append([]child{{a.Callee, "callee"}}, list("arg", a.Args)...)
	}
	return nil
}

// ASTNodeJSON is the JSON shape of one node.
type ASTNodeJSON struct {
	Kind     string        `json:"kind"`
	Label    string        `json:"label,omitempty"`
	Text     string        `json:"text,omitempty"`
	Span     source.Span   `json:"span"`
	Children []ASTNodeJSON `json:"children,omitempty"`
}

func buildJSON(b *ast.Builder, id ast.NodeID, label string) ASTNodeJSON {
	n := b.Get(id)
	out := ASTNodeJSON{Kind: n.Kind.String(), Label: label, Text: nodeText(b, id), Span: n.Span}
	for _, c := range children(b, id) {
		out.Children = append(out.Children, buildJSON(b, c.id, c.label))
	}
	return out
}

// FormatASTJSON writes the forms as a JSON array of node trees.
func FormatASTJSON(w io.Writer, b *ast.Builder, roots []ast.NodeID) error {
	out := make([]ASTNodeJSON, 0, len(roots))
	for _, r := range roots {
		out = append(out, buildJSON(b, r, ""))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
