package lexer

import (
	"fmt"
	"strings"

	"lamina/internal/diag"
	"lamina/internal/token"
)

// scanString reads "..." with the escapes \n \t \r \\ \" ; Text keeps the quotes.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening '"'
	for !lx.cursor.EOF() {
		switch b := lx.cursor.Peek(); b {
		case '"':
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			if off, bad := invalidUTF8At(lx.cursor.Text(sp)); bad {
				return lx.failInvalidUTF8(sp, off)
			}
			return lx.make(token.StringLit, start)
		case '\\':
			escStart := lx.cursor.Mark()
			lx.cursor.Bump()
			if lx.cursor.EOF() {
				break
			}
			e := lx.cursor.Bump()
			if !isEscape(e) {
				return lx.fail(diag.LexBadEscape, lx.cursor.SpanFrom(escStart), "unknown escape sequence \\%c", e)
			}
		default:
			lx.cursor.Bump()
		}
	}
	return lx.fail(diag.LexUnterminatedString, lx.cursor.SpanFrom(start), "unterminated string literal")
}

func isEscape(b byte) bool {
	switch b {
	case 'n', 't', 'r', '\\', '"':
		return true
	}
	return false
}

// Unquote decodes the Text of a StringLit token.
func Unquote(text string) (string, error) {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", fmt.Errorf("malformed string literal %q", text)
	}
	body := text[1 : len(text)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("dangling escape in %q", text)
		}
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\', '"':
			sb.WriteByte(body[i])
		default:
			return "", fmt.Errorf("unknown escape \\%c", body[i])
		}
	}
	return sb.String(), nil
}

// Quote is the inverse of Unquote.
func Quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '\\', '"':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
