package lexer

import (
	"lamina/internal/diag"
	"lamina/internal/source"
	"lamina/internal/token"
)

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token   // 1 элементный буфер для токена
	hold   []token.Trivia // накопленные leading trivia
	quote  *token.Token   // последний Quote, ожидающий datum
	err    *diag.LexError
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Err returns the first lexical error seen so far.
func (lx *Lexer) Err() *diag.LexError {
	return lx.err
}

// File returns the file being scanned.
func (lx *Lexer) File() *source.File {
	return lx.file
}

// Next возвращает следующий значимый токен с уже собранным Leading.
// После EOF всегда возвращает EOF. After the first error every call returns
// an Invalid token; the error is available through Err.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	if lx.err != nil {
		return token.Token{Kind: token.Invalid, Span: lx.err.Diag.Primary}
	}

	lx.collectLeadingTrivia()

	var tok token.Token
	if lx.cursor.EOF() {
		tok = token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	} else {
		tok = lx.scan()
	}

	if lx.quote != nil && (tok.Kind == token.RParen || tok.Kind == token.EOF) {
		q := lx.quote
		lx.quote = nil
		return lx.fail(diag.LexUnbalancedQuote, q.Span, "quote is not followed by a datum")
	}
	if tok.Kind == token.Quote {
		lx.quote = &tok
	} else {
		lx.quote = nil
	}

	tok.Leading = lx.hold
	lx.hold = nil
	return tok
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

func (lx *Lexer) scan() token.Token {
	start := lx.cursor.Mark()
	switch ch := lx.cursor.Peek(); {
	case ch == '(':
		lx.cursor.Bump()
		return lx.make(token.LParen, start)
	case ch == ')':
		lx.cursor.Bump()
		return lx.make(token.RParen, start)
	case ch == '\'':
		lx.cursor.Bump()
		return lx.make(token.Quote, start)
	case ch == '"':
		return lx.scanString()
	case ch == '#':
		return lx.scanHash()
	case isSymbolByte(ch):
		return lx.scanAtom()
	default:
		lx.cursor.Bump()
		return lx.fail(diag.LexUnknownChar, lx.cursor.SpanFrom(start), "unexpected character %q", ch)
	}
}

func (lx *Lexer) make(kind token.Kind, start Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

// fail records the first error, forwards it to the reporter and yields an
// Invalid token.
func (lx *Lexer) fail(code diag.Code, sp source.Span, format string, args ...any) token.Token {
	if lx.err == nil {
		lx.err = diag.Lex(code, sp, format, args...)
		diag.Emit(lx.opts.Reporter, lx.err.Diag)
	}
	lx.look = nil
	return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Pos(), End: lx.cursor.Pos()}
}

// Tokenize scans the whole file. The returned slice ends with EOF.
func Tokenize(file *source.File, opts Options) ([]token.Token, error) {
	lx := New(file, opts)
	var toks []token.Token
	for {
		tok := lx.Next()
		if lx.err != nil {
			return nil, lx.err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}
