package ast

import (
	"io"
	"strings"

	"lamina/internal/lexer"
)

// Print writes roots back as source text, one top-level form per line.
// Re-lexing and re-parsing the output yields a tree Equal to the input.
func Print(w io.Writer, b *Builder, roots []NodeID) error {
	var sb strings.Builder
	for _, id := range roots {
		p := printer{b: b, sb: &sb}
		p.node(id, 0)
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Sprint renders a single node on one line.
func Sprint(b *Builder, id NodeID) string {
	var sb strings.Builder
	p := printer{b: b, sb: &sb, flat: true}
	p.node(id, 0)
	return sb.String()
}

type printer struct {
	b    *Builder
	sb   *strings.Builder
	flat bool
}

func (p *printer) newline(depth int) {
	if p.flat {
		p.sb.WriteByte(' ')
		return
	}
	p.sb.WriteByte('\n')
	p.sb.WriteString(strings.Repeat("  ", depth))
}

func (p *printer) body(items []NodeID, depth int) {
	for _, it := range items {
		p.newline(depth + 1)
		p.node(it, depth+1)
	}
}

func (p *printer) params(ps []Param) {
	for i, prm := range ps {
		if i > 0 {
			p.sb.WriteByte(' ')
		}
		p.sb.WriteString(prm.Name)
	}
}

func (p *printer) node(id NodeID, depth int) {
	n := p.b.Get(id)
	if n == nil {
		p.sb.WriteString("<nil>")
		return
	}
	switch n.Kind {
	case KindSymbol, KindInt, KindFloat, KindBool:
		p.sb.WriteString(p.b.Atom(id).Text)
	case KindString:
		p.sb.WriteString(lexer.Quote(p.b.Atom(id).Text))
	case KindList:
		p.sb.WriteByte('(')
		for i, it := range p.b.List(id).Items {
			if i > 0 {
				p.sb.WriteByte(' ')
			}
			p.node(it, depth)
		}
		p.sb.WriteByte(')')
	case KindDefine:
		d := p.b.Define(id)
		p.sb.WriteString("(define ")
		if !d.IsProc {
			p.sb.WriteString(d.Name)
			p.sb.WriteByte(' ')
			p.node(d.Value, depth)
			p.sb.WriteByte(')')
			return
		}
		p.sb.WriteByte('(')
		p.sb.WriteString(d.Name)
		if len(d.Params) > 0 {
			p.sb.WriteByte(' ')
			p.params(d.Params)
		}
		p.sb.WriteByte(')')
		p.body(d.Body, depth)
		p.sb.WriteByte(')')
	case KindLambda:
		l := p.b.Lambda(id)
		p.sb.WriteString("(lambda (")
		p.params(l.Params)
		p.sb.WriteByte(')')
		p.body(l.Body, depth)
		p.sb.WriteByte(')')
	case KindIf:
		f := p.b.If(id)
		p.sb.WriteString("(if ")
		p.node(f.Cond, depth)
		p.body([]NodeID{f.Then}, depth)
		if f.Else.IsValid() {
			p.body([]NodeID{f.Else}, depth)
		}
		p.sb.WriteByte(')')
	case KindBegin:
		p.sb.WriteString("(begin")
		p.body(p.b.Begin(id).Body, depth)
		p.sb.WriteByte(')')
	case KindQuote:
		q := p.b.Quote(id)
		if q.Sugar {
			p.sb.WriteByte('\'')
			p.node(q.Datum, depth)
			return
		}
		p.sb.WriteString("(quote ")
		p.node(q.Datum, depth)
		p.sb.WriteByte(')')
	case KindApply:
		a := p.b.Apply(id)
		p.sb.WriteByte('(')
		p.node(a.Callee, depth)
		for _, arg := range a.Args {
			p.sb.WriteByte(' ')
			p.node(arg, depth)
		}
		p.sb.WriteByte(')')
	default:
		p.sb.WriteString("<invalid>")
	}
}
