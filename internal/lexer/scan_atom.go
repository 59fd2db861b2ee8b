package lexer

import (
	"strconv"

	"lamina/internal/diag"
	"lamina/internal/source"
	"lamina/internal/token"
)

// scanAtom reads a maximal run of symbol bytes and classifies it as a
// number or a symbol. Anything that starts like a number must parse as one.
func (lx *Lexer) scanAtom() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.EatWhile(isSymbolByte)
	if b := lx.cursor.Peek(); !lx.cursor.EOF() && !isDelimiter(b) {
		at := lx.cursor.Mark()
		lx.cursor.Bump()
		return lx.fail(diag.LexUnknownChar, lx.cursor.SpanFrom(at), "unexpected character %q", b)
	}
	sp := lx.cursor.SpanFrom(start)
	text := lx.cursor.Text(sp)
	if off, bad := invalidUTF8At(text); bad {
		return lx.failInvalidUTF8(sp, off)
	}
	if !looksNumeric(text) {
		return token.Token{Kind: token.Symbol, Span: sp, Text: string(text)}
	}

	kind, ok := classifyNumber(text)
	if !ok {
		return lx.fail(diag.LexBadNumber, sp, "invalid numeric literal %q", text)
	}
	if kind == token.IntLit {
		if _, err := strconv.ParseInt(string(text), 10, 64); err != nil {
			return lx.fail(diag.LexBadNumber, sp, "integer literal %q out of range", text)
		}
	}
	return token.Token{Kind: kind, Span: sp, Text: string(text)}
}

// classifyNumber accepts [+-]? digits and [+-]? digits? '.' digits ([eE][+-]?digits)?.
func classifyNumber(s []byte) (token.Kind, bool) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intDigits := 0
	for i < len(s) && isDec(s[i]) {
		i++
		intDigits++
	}
	if i == len(s) {
		return token.IntLit, intDigits > 0
	}
	kind := token.IntLit
	if s[i] == '.' {
		i++
		frac := 0
		for i < len(s) && isDec(s[i]) {
			i++
			frac++
		}
		if frac == 0 {
			return token.Invalid, false
		}
		kind = token.FloatLit
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDec(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return token.Invalid, false
		}
		kind = token.FloatLit
	}
	return kind, i == len(s)
}

func (lx *Lexer) failInvalidUTF8(sp source.Span, off uint32) token.Token {
	at := source.Span{File: sp.File, Start: sp.Start + off, End: sp.Start + off + 1}
	return lx.fail(diag.LexInvalidUTF8, at, "invalid UTF-8 byte %#02x", lx.cursor.Text(at)[0])
}
