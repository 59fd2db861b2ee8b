package parser

import (
	"strconv"

	"golang.org/x/text/unicode/norm"

	"lamina/internal/ast"
	"lamina/internal/diag"
	"lamina/internal/lexer"
	"lamina/internal/token"
)

// parseExpr parses one expression in evaluated position.
func (p *Parser) parseExpr(depth int) (ast.NodeID, bool) {
	if depth > p.opts.MaxDepth {
		p.fail(diag.SynTooDeep, p.peek().Span, "expression nesting exceeds %d", p.opts.MaxDepth)
		return ast.NoNodeID, false
	}
	tok := p.peek()
	switch tok.Kind {
	case token.LParen:
		return p.parseForm(depth)
	case token.Quote:
		p.advance()
		datum, ok := p.parseDatum(depth + 1)
		if !ok {
			return ast.NoNodeID, false
		}
		sp := tok.Span.Cover(p.arenas.Get(datum).Span)
		return p.arenas.NewQuote(sp, datum, true), true
	case token.RParen:
		p.fail(diag.SynUnmatchedParen, tok.Span, "unmatched ')'")
	case token.EOF:
		p.fail(diag.SynUnexpectedToken, p.eofSpan(), "unexpected end of input")
	case token.Invalid:
		// ошибка уже записана в peek
	default:
		return p.parseAtom(p.advance())
	}
	return ast.NoNodeID, false
}

func (p *Parser) parseAtom(tok token.Token) (ast.NodeID, bool) {
	switch tok.Kind {
	case token.Symbol:
		return p.arenas.NewSymbol(tok.Span, norm.NFC.String(tok.Text)), true
	case token.IntLit:
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			p.fail(diag.SynUnexpectedToken, tok.Span, "invalid integer %q", tok.Text)
			return ast.NoNodeID, false
		}
		return p.arenas.NewInt(tok.Span, tok.Text, v), true
	case token.FloatLit:
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.fail(diag.SynUnexpectedToken, tok.Span, "invalid float %q", tok.Text)
			return ast.NoNodeID, false
		}
		return p.arenas.NewFloat(tok.Span, tok.Text, v), true
	case token.StringLit:
		s, err := lexer.Unquote(tok.Text)
		if err != nil {
			p.fail(diag.SynUnexpectedToken, tok.Span, "%v", err)
			return ast.NoNodeID, false
		}
		return p.arenas.NewString(tok.Span, norm.NFC.String(s)), true
	case token.BoolLit:
		return p.arenas.NewBool(tok.Span, lexer.BoolValue(tok.Text)), true
	}
	p.fail(diag.SynUnexpectedToken, tok.Span, "unexpected %s", tok.Kind)
	return ast.NoNodeID, false
}

// parseDatum parses quoted data: atoms, lists (possibly empty) and nested quotes.
func (p *Parser) parseDatum(depth int) (ast.NodeID, bool) {
	if depth > p.opts.MaxDepth {
		p.fail(diag.SynTooDeep, p.peek().Span, "datum nesting exceeds %d", p.opts.MaxDepth)
		return ast.NoNodeID, false
	}
	tok := p.peek()
	switch tok.Kind {
	case token.LParen:
		open := p.advance()
		var items []ast.NodeID
		for !p.at(token.RParen) {
			if p.at(token.EOF) {
				p.fail(diag.SynUnclosedParen, open.Span, "unclosed '('")
				return ast.NoNodeID, false
			}
			it, ok := p.parseDatum(depth + 1)
			if !ok {
				return ast.NoNodeID, false
			}
			items = append(items, it)
		}
		closeTok := p.advance()
		return p.arenas.NewList(open.Span.Cover(closeTok.Span), items), true
	case token.Quote:
		p.advance()
		inner, ok := p.parseDatum(depth + 1)
		if !ok {
			return ast.NoNodeID, false
		}
		return p.arenas.NewQuote(tok.Span.Cover(p.arenas.Get(inner).Span), inner, true), true
	case token.RParen:
		p.fail(diag.SynUnmatchedParen, tok.Span, "unmatched ')'")
	case token.EOF:
		p.fail(diag.SynUnexpectedToken, p.eofSpan(), "unexpected end of input")
	case token.Invalid:
	default:
		return p.parseAtom(p.advance())
	}
	return ast.NoNodeID, false
}
