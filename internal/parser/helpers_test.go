package parser_test

import (
	"context"
	"testing"

	"lamina/internal/ast"
	"lamina/internal/lexer"
	"lamina/internal/parser"
	"lamina/internal/source"
)

func parseSource(t *testing.T, src string) (*ast.Builder, []ast.NodeID, error) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.lam", []byte(src)))
	b := ast.NewBuilder(ast.Hints{})
	res, err := parser.ParseFile(context.Background(), fs, lexer.New(file, lexer.Options{}), b, parser.Options{})
	return b, res.Roots, err
}

func mustParse(t *testing.T, src string) (*ast.Builder, []ast.NodeID) {
	t.Helper()
	b, roots, err := parseSource(t, src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return b, roots
}
