package parser

import (
	"golang.org/x/text/unicode/norm"

	"lamina/internal/ast"
	"lamina/internal/diag"
	"lamina/internal/source"
	"lamina/internal/token"
)

// Special-form keywords recognised by leading-symbol dispatch.
const (
	kwDefine = "define"
	kwLambda = "lambda"
	kwIf     = "if"
	kwBegin  = "begin"
	kwQuote  = "quote"
)

// parseForm parses a parenthesised expression: a special form or an application.
func (p *Parser) parseForm(depth int) (ast.NodeID, bool) {
	open := p.advance()
	head := p.peek()
	switch head.Kind {
	case token.RParen:
		closeTok := p.advance()
		p.fail(diag.SynEmptyList, open.Span.Cover(closeTok.Span), "empty application '()'")
		return ast.NoNodeID, false
	case token.Symbol:
		switch norm.NFC.String(head.Text) {
		case kwDefine:
			p.advance()
			return p.parseDefine(open, depth)
		case kwLambda:
			p.advance()
			return p.parseLambda(open, depth)
		case kwIf:
			p.advance()
			return p.parseIf(open, depth)
		case kwBegin:
			p.advance()
			return p.parseBegin(open, depth)
		case kwQuote:
			p.advance()
			return p.parseQuoteForm(open, depth)
		}
	}
	return p.parseApply(open, depth)
}

// parseRest parses expressions up to and including the closing paren of
// the form opened by open.
func (p *Parser) parseRest(open token.Token, depth int) ([]ast.NodeID, source.Span, bool) {
	var items []ast.NodeID
	for !p.at(token.RParen) {
		if p.err != nil {
			return nil, source.Span{}, false
		}
		if p.at(token.EOF) {
			p.fail(diag.SynUnclosedParen, open.Span, "unclosed '('")
			return nil, source.Span{}, false
		}
		id, ok := p.parseExpr(depth + 1)
		if !ok {
			return nil, source.Span{}, false
		}
		items = append(items, id)
	}
	closeTok := p.advance()
	return items, open.Span.Cover(closeTok.Span), true
}

func (p *Parser) parseApply(open token.Token, depth int) (ast.NodeID, bool) {
	items, sp, ok := p.parseRest(open, depth)
	if !ok {
		return ast.NoNodeID, false
	}
	return p.arenas.NewApply(sp, items[0], items[1:]), true
}

// parseParams reads "(a b c)" and rejects non-symbols and duplicates.
func (p *Parser) parseParams(depth int) ([]ast.Param, source.Span, bool) {
	open := p.peek()
	if open.Kind != token.LParen {
		p.fail(diag.SynUnexpectedToken, open.Span, "expected parameter list")
		return nil, source.Span{}, false
	}
	p.advance()
	var params []ast.Param
	seen := make(map[string]bool)
	for !p.at(token.RParen) {
		tok := p.peek()
		switch tok.Kind {
		case token.Symbol:
		case token.EOF:
			p.fail(diag.SynUnclosedParen, open.Span, "unclosed parameter list")
			return nil, source.Span{}, false
		case token.Invalid:
			return nil, source.Span{}, false
		default:
			p.fail(diag.SynExpectSymbol, tok.Span, "parameter must be a symbol, got %q", tok.Text)
			return nil, source.Span{}, false
		}
		p.advance()
		name := norm.NFC.String(tok.Text)
		if seen[name] {
			p.fail(diag.SynDuplicateParam, tok.Span, "duplicate parameter %q", name)
			return nil, source.Span{}, false
		}
		seen[name] = true
		params = append(params, ast.Param{Name: name, Span: tok.Span})
	}
	closeTok := p.advance()
	return params, open.Span.Cover(closeTok.Span), true
}

func (p *Parser) parseDefine(open token.Token, depth int) (ast.NodeID, bool) {
	target := p.peek()
	switch target.Kind {
	case token.Symbol:
		p.advance()
		rest, sp, ok := p.parseRest(open, depth)
		if !ok {
			return ast.NoNodeID, false
		}
		if len(rest) != 1 {
			p.fail(diag.SynBadArity, sp, "define of %q expects exactly 1 value, got %d", target.Text, len(rest))
			return ast.NoNodeID, false
		}
		return p.arenas.NewDefine(sp, ast.DefineData{
			Name:     norm.NFC.String(target.Text),
			NameSpan: target.Span,
			Value:    rest[0],
		}), true
	case token.LParen:
		sig, _, ok := p.parseParams(depth)
		if !ok {
			return ast.NoNodeID, false
		}
		if len(sig) == 0 {
			p.fail(diag.SynExpectSymbol, target.Span, "procedure definition needs a name")
			return ast.NoNodeID, false
		}
		body, sp, ok := p.parseRest(open, depth)
		if !ok {
			return ast.NoNodeID, false
		}
		if len(body) == 0 {
			p.fail(diag.SynBadArity, sp, "define of %q needs at least one body expression", sig[0].Name)
			return ast.NoNodeID, false
		}
		return p.arenas.NewDefine(sp, ast.DefineData{
			Name:     sig[0].Name,
			NameSpan: sig[0].Span,
			IsProc:   true,
			Params:   sig[1:],
			Body:     body,
		}), true
	case token.Invalid:
		return ast.NoNodeID, false
	case token.RParen:
		p.fail(diag.SynBadArity, open.Span.Cover(target.Span), "define needs a name and a value")
		return ast.NoNodeID, false
	}
	p.fail(diag.SynExpectSymbol, target.Span, "define expects a symbol or (name params...), got %q", target.Text)
	return ast.NoNodeID, false
}

func (p *Parser) parseLambda(open token.Token, depth int) (ast.NodeID, bool) {
	params, _, ok := p.parseParams(depth)
	if !ok {
		return ast.NoNodeID, false
	}
	body, sp, ok := p.parseRest(open, depth)
	if !ok {
		return ast.NoNodeID, false
	}
	if len(body) == 0 {
		p.fail(diag.SynBadArity, sp, "lambda needs at least one body expression")
		return ast.NoNodeID, false
	}
	return p.arenas.NewLambda(sp, params, body), true
}

func (p *Parser) parseIf(open token.Token, depth int) (ast.NodeID, bool) {
	ops, sp, ok := p.parseRest(open, depth)
	if !ok {
		return ast.NoNodeID, false
	}
	switch len(ops) {
	case 2:
		return p.arenas.NewIf(sp, ops[0], ops[1], ast.NoNodeID), true
	case 3:
		return p.arenas.NewIf(sp, ops[0], ops[1], ops[2]), true
	}
	p.fail(diag.SynBadArity, sp, "if expects 2 or 3 operands, got %d", len(ops))
	return ast.NoNodeID, false
}

func (p *Parser) parseBegin(open token.Token, depth int) (ast.NodeID, bool) {
	body, sp, ok := p.parseRest(open, depth)
	if !ok {
		return ast.NoNodeID, false
	}
	if len(body) == 0 {
		p.fail(diag.SynBadArity, sp, "begin needs at least one expression")
		return ast.NoNodeID, false
	}
	return p.arenas.NewBegin(sp, body), true
}

func (p *Parser) parseQuoteForm(open token.Token, depth int) (ast.NodeID, bool) {
	var data []ast.NodeID
	for !p.at(token.RParen) {
		if p.err != nil {
			return ast.NoNodeID, false
		}
		if p.at(token.EOF) {
			p.fail(diag.SynUnclosedParen, open.Span, "unclosed '('")
			return ast.NoNodeID, false
		}
		d, ok := p.parseDatum(depth + 1)
		if !ok {
			return ast.NoNodeID, false
		}
		data = append(data, d)
	}
	sp := open.Span.Cover(p.advance().Span)
	if len(data) != 1 {
		p.fail(diag.SynBadArity, sp, "quote expects exactly 1 operand, got %d", len(data))
		return ast.NoNodeID, false
	}
	return p.arenas.NewQuote(sp, data[0], false), true
}
