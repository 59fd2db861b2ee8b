package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.lam", []byte("ab\ncd\n\nx"))

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}}, // сам '\n'
		{3, LineCol{2, 1}},
		{4, LineCol{2, 2}},
		{6, LineCol{3, 1}},
		{7, LineCol{4, 1}},
	}
	for _, tc := range cases {
		got, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if got != tc.want {
			t.Errorf("offset %d: got %+v, want %+v", tc.off, got, tc.want)
		}
	}
}

func TestAddVirtualStripsBOMAndCRLF(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("crlf.lam", []byte("\xEF\xBB\xBF(a)\r\n(b)\r\n"))
	f := fs.Get(id)
	if string(f.Content) != "(a)\n(b)\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 || f.Flags&FileVirtual == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("l.lam", []byte("first\nsecond\nthird")))
	want := map[uint32]string{0: "", 1: "first", 2: "second", 3: "third", 4: ""}
	for n, w := range want {
		if got := f.GetLine(n); got != w {
			t.Errorf("GetLine(%d) = %q, want %q", n, got, w)
		}
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got.Start != 2 || got.End != 8 {
		t.Fatalf("Cover = %v", got)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Fatalf("cross-file Cover changed span: %v", got)
	}
}

func TestLoadAssignsDenseIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.lam")
	if err := os.WriteFile(path, []byte("(a)\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	v := fs.AddVirtual("<repl>", []byte("1"))
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 || id != 1 || fs.Get(id).Flags&FileVirtual != 0 {
		t.Fatalf("ids = %d, %d flags = %b", v, id, fs.Get(id).Flags)
	}
	if fs.Get(2) != nil {
		t.Fatal("unknown id must be nil")
	}
	if _, err := fs.Load(filepath.Join(dir, "missing.lam")); err == nil {
		t.Fatal("missing file loaded")
	}
}
