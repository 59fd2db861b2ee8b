package lexer

import (
	"lamina/internal/diag"
	"lamina/internal/token"
)

// scanHash handles #t, #f, #true and #false.
func (lx *Lexer) scanHash() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '#'
	for !lx.cursor.EOF() && !isDelimiter(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	tok := lx.make(token.BoolLit, start)
	switch tok.Text {
	case "#t", "#true", "#f", "#false":
		return tok
	}
	return lx.fail(diag.LexBadHash, tok.Span, "unknown # syntax %q", tok.Text)
}

// BoolValue reports the value of a BoolLit token text.
func BoolValue(text string) bool {
	return text == "#t" || text == "#true"
}
