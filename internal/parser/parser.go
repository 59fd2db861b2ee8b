package parser

import (
	"context"

	"lamina/internal/ast"
	"lamina/internal/diag"
	"lamina/internal/lexer"
	"lamina/internal/source"
	"lamina/internal/token"
)

const defaultMaxDepth = 512

type Options struct {
	// Reporter receives the first error in addition to the returned error.
	Reporter diag.Reporter
	// MaxDepth bounds list nesting; 0 means the default.
	MaxDepth int
}

type Result struct {
	File  source.FileID
	Roots []ast.NodeID
}

// Parser хранит состояние разбора одного файла.
type Parser struct {
	lx       *lexer.Lexer
	arenas   *ast.Builder
	fs       *source.FileSet
	opts     Options
	lastSpan source.Span // span последнего съеденного токена для лучшей диагностики
	err      error
}

// ParseFile разбирает один файл до EOF. Fail-fast: the first lexical or
// syntax error stops parsing and is returned; Roots is nil in that case.
func ParseFile(
	ctx context.Context,
	fs *source.FileSet,
	lx *lexer.Lexer,
	arenas *ast.Builder,
	opts Options,
) (Result, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	p := Parser{
		lx:     lx,
		arenas: arenas,
		fs:     fs,
		opts:   opts,
	}
	res := Result{File: lx.File().ID}
	for !p.at(token.EOF) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		id, ok := p.parseExpr(0)
		if !ok {
			return Result{}, p.err
		}
		res.Roots = append(res.Roots, id)
	}
	if p.err != nil {
		return Result{}, p.err
	}
	return res, nil
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

// peek returns Invalid after a lexical error so callers bail out.
func (p *Parser) peek() token.Token {
	tok := p.lx.Peek()
	if tok.Kind == token.Invalid && p.err == nil {
		p.lexFailure(tok)
	}
	return tok
}

func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

func (p *Parser) lexFailure(tok token.Token) {
	if le := p.lx.Err(); le != nil {
		p.err = le
		return
	}
	p.fail(diag.SynUnexpectedToken, tok.Span, "invalid token %q", tok.Text)
}

// fail records the first syntax error.
func (p *Parser) fail(code diag.Code, sp source.Span, format string, args ...any) {
	if p.err != nil {
		return
	}
	pe := diag.Parse(code, sp, format, args...)
	diag.Emit(p.opts.Reporter, pe.Diag)
	p.err = pe
}

// eofSpan points just past the last consumed token.
func (p *Parser) eofSpan() source.Span {
	return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
}
