package lexer

import (
	"lamina/internal/token"
)

// collectLeadingTrivia собирает подряд идущие trivia перед значимым токеном.
// - ' ', '\t', '\r' коалесцируются в один TriviaSpace
// - последовательные '\n' коалесцируются в один TriviaNewline
// - ;... до \n -> TriviaLineComment
func (lx *Lexer) collectLeadingTrivia() {
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		var kind token.TriviaKind
		switch lx.cursor.Peek() {
		case ' ', '\t', '\r':
			lx.cursor.EatWhile(isBlank)
			kind = token.TriviaSpace
		case '\n':
			lx.cursor.EatWhile(func(b byte) bool { return b == '\n' })
			kind = token.TriviaNewline
		case ';':
			lx.cursor.EatWhile(func(b byte) bool { return b != '\n' })
			kind = token.TriviaLineComment
		default:
			return
		}
		sp := lx.cursor.SpanFrom(start)
		lx.hold = append(lx.hold, token.Trivia{
			Kind: kind,
			Span: sp,
			Text: string(lx.cursor.Text(sp)),
		})
	}
}

func isBlank(b byte) bool { return b == ' ' || b == '\t' || b == '\r' }
