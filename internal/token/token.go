package token

import "lamina/internal/source"

// Token is one lexeme. Text is the exact source slice; Leading keeps the
// whitespace and comments seen since the previous token.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
}

// IsLiteral is true for numbers, strings and booleans.
func (t Token) IsLiteral() bool {
	return t.Kind >= IntLit && t.Kind <= BoolLit
}

// IsAtom is true when the token is a whole datum by itself.
func (t Token) IsAtom() bool {
	return t.Kind == Symbol || t.IsLiteral()
}
