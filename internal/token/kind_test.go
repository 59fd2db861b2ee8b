package token

import (
	"testing"

	"lamina/internal/source"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		LParen:   "LParen",
		Symbol:   "Symbol",
		BoolLit:  "BoolLit",
		Kind(99): "Kind(?)",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}

func TestTokenClassifiers(t *testing.T) {
	sp := source.Span{}
	if !(Token{Kind: IntLit, Span: sp}).IsLiteral() {
		t.Fatal("IntLit must be a literal")
	}
	if (Token{Kind: Symbol}).IsLiteral() {
		t.Fatal("Symbol is not a literal")
	}
	if !(Token{Kind: Symbol}).IsAtom() || (Token{Kind: LParen}).IsAtom() {
		t.Fatal("IsAtom misclassifies")
	}
}
