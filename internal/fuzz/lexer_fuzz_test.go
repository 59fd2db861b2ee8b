package fuzztests

import (
	"errors"
	"testing"

	"lamina/internal/diag"
	"lamina/internal/lexer"
	"lamina/internal/source"
	"lamina/internal/token"
)

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input, maxFuzzInput)

		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.lam", input))

		bag := diag.NewBag(4)
		toks, err := lexer.Tokenize(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
		if err != nil {
			var lexErr *diag.LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
			if bag.Len() == 0 {
				t.Fatal("lex error was not reported")
			}
			return
		}
		if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
			t.Fatal("token stream must end with EOF")
		}
		var prevEnd uint32
		for i, tok := range toks {
			if tok.Span.Start < prevEnd || tok.Span.End < tok.Span.Start {
				t.Fatalf("token %d span %v out of order (prev end %d)", i, tok.Span, prevEnd)
			}
			prevEnd = tok.Span.End
		}
	})
}
