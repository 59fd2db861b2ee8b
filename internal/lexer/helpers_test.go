package lexer

import "lamina/internal/source"

func makeTestFile(content string) *source.File {
	fs := source.NewFileSet()
	return fs.Get(fs.AddVirtual("cursor.lam", []byte(content)))
}
