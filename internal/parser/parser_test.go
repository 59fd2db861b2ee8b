package parser_test

import (
	"errors"
	"testing"

	"lamina/internal/ast"
	"lamina/internal/diag"
)

func TestSpecialFormDispatch(t *testing.T) {
	cases := []struct {
		src  string
		kind ast.Kind
	}{
		{"(define x 1)", ast.KindDefine},
		{"(define (f a b) (+ a b))", ast.KindDefine},
		{"(lambda (x) x)", ast.KindLambda},
		{"(if #t 1)", ast.KindIf},
		{"(if #t 1 2)", ast.KindIf},
		{"(begin 1 2)", ast.KindBegin},
		{"(quote (a b))", ast.KindQuote},
		{"'a", ast.KindQuote},
		{"(f 1 2)", ast.KindApply},
		{"((lambda (x) x) 1)", ast.KindApply},
		{"foo", ast.KindSymbol},
		{"\"s\"", ast.KindString},
		{"#f", ast.KindBool},
		{"2.5", ast.KindFloat},
	}
	for _, tc := range cases {
		b, roots := mustParse(t, tc.src)
		if len(roots) != 1 {
			t.Fatalf("%q: %d roots", tc.src, len(roots))
		}
		if got := b.Get(roots[0]).Kind; got != tc.kind {
			t.Errorf("%q: kind %s, want %s", tc.src, got, tc.kind)
		}
	}
}

func TestDefineShapes(t *testing.T) {
	b, roots := mustParse(t, "(define (add a b) (+ a b)) (define slot 7)")
	proc := b.Define(roots[0])
	if !proc.IsProc || proc.Name != "add" || len(proc.Params) != 2 || len(proc.Body) != 1 {
		t.Fatalf("proc define = %+v", proc)
	}
	val := b.Define(roots[1])
	if val.IsProc || val.Name != "slot" || b.Atom(val.Value).Int != 7 {
		t.Fatalf("value define = %+v", val)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"if one operand", "(if 1)", diag.SynBadArity},
		{"if four operands", "(if 1 2 3 4)", diag.SynBadArity},
		{"define two values", "(define x 1 2)", diag.SynBadArity},
		{"define no value", "(define x)", diag.SynBadArity},
		{"define proc no body", "(define (f x))", diag.SynBadArity},
		{"define bad target", "(define 5 1)", diag.SynExpectSymbol},
		{"define empty signature", "(define () 1)", diag.SynExpectSymbol},
		{"lambda no body", "(lambda (x))", diag.SynBadArity},
		{"lambda non-symbol param", "(lambda (1) 1)", diag.SynExpectSymbol},
		{"duplicate param", "(define (f x x) x)", diag.SynDuplicateParam},
		{"begin empty", "(begin)", diag.SynBadArity},
		{"quote two", "(quote a b)", diag.SynBadArity},
		{"empty application", "()", diag.SynEmptyList},
		{"unclosed", "(+ 1 2", diag.SynUnclosedParen},
		{"stray close", "(+ 1 2))", diag.SynUnmatchedParen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, roots, err := parseSource(t, tc.src)
			var pe *diag.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Diag.Code != tc.code {
				t.Errorf("code %s, want %s (%s)", pe.Diag.Code.ID(), tc.code.ID(), pe.Diag.Message)
			}
			if roots != nil {
				t.Errorf("roots must be nil on failure")
			}
		})
	}
}

func TestLexErrorPropagates(t *testing.T) {
	_, _, err := parseSource(t, `(display "abc`)
	var le *diag.LexError
	if !errors.As(err, &le) {
		t.Fatalf("expected LexError, got %T %v", err, err)
	}
}

func TestSymbolsAreNFCNormalized(t *testing.T) {
	// "e" + combining acute vs precomposed "é"
	b1, r1 := mustParse(t, "(f cafe\u0301)")
	b2, r2 := mustParse(t, "(f caf\u00e9)")
	if !ast.EqualRoots(b1, r1, b2, r2) {
		t.Fatal("decomposed and precomposed symbols must compare equal")
	}
}

func TestNestingLimit(t *testing.T) {
	src := ""
	for range 600 {
		src += "(f "
	}
	src += "1"
	for range 600 {
		src += ")"
	}
	_, _, err := parseSource(t, src)
	var pe *diag.ParseError
	if !errors.As(err, &pe) || pe.Diag.Code != diag.SynTooDeep {
		t.Fatalf("expected SynTooDeep, got %v", err)
	}
}
