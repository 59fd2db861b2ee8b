package parser_test

import (
	"strings"
	"testing"

	"lamina/internal/ast"
)

const counterSource = `(begin
  (define counter-slot 0)
  (define (get-counter) (storage-load counter-slot))
  (define (increment) (begin
    (define current (storage-load counter-slot))
    (storage-store counter-slot (+ current 1))
    (storage-load counter-slot))))`

func TestRoundTrip(t *testing.T) {
	programs := []string{
		counterSource,
		"(define (abs x) (if (< x 0) (- x) x)) ; comment\n(abs -5)",
		`(define greeting "hi \"there\"\n") (define pi 3.14) (define on #t)`,
		"(define sq (lambda (x) (* x x))) '(1 (2 'three) \"four\") (quote ())",
		"(begin (if #f 1) (f))",
	}
	for _, src := range programs {
		b1, r1 := mustParse(t, src)
		var sb strings.Builder
		if err := ast.Print(&sb, b1, r1); err != nil {
			t.Fatal(err)
		}
		b2, r2 := mustParse(t, sb.String())
		if !ast.EqualRoots(b1, r1, b2, r2) {
			t.Errorf("round trip changed the tree\nsource:\n%s\nprinted:\n%s", src, sb.String())
		}
	}
}
