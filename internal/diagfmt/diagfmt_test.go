package diagfmt

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lamina/internal/ast"
	"lamina/internal/diag"
	"lamina/internal/source"
	"lamina/internal/token"
)

func fixture(t *testing.T) (*source.FileSet, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.lam", []byte("(define (f x) (+ x y))\n"))
	bag := diag.NewBag(10)
	d := diag.NewError(diag.SemaUnboundIdent, source.Span{File: id, Start: 19, End: 20}, "unbound identifier y").
		WithNote(source.Span{File: id, Start: 8, End: 13}, "in procedure f")
	bag.Add(d)
	return fs, bag
}

func TestPrettyCaretUnderSpan(t *testing.T) {
	fs, bag := fixture(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true}); err != nil {
		t.Fatal(err)
	}
	want := "t.lam:1:20: error " + diag.SemaUnboundIdent.ID() + ": unbound identifier y\n" +
		"1 | (define (f x) (+ x y))\n" +
		"  |                    ^\n" +
		"  note: t.lam:1:9: in procedure f\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestJSONPositions(t *testing.T) {
	fs, bag := fixture(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	d := out.Diagnostics[0]
	if out.Count != 1 || d.Location.Start == nil || d.Location.Start.Col != 20 || d.Notes != nil {
		t.Fatalf("out = %+v", out)
	}
	if d.Phase != "analyze" || d.Severity != "error" || d.Location.Bytes != [2]uint32{19, 20} {
		t.Fatalf("diagnostic = %+v", d)
	}
}

func TestJSONMaxCountsOmitted(t *testing.T) {
	fs, bag := fixture(t)
	bag.Add(diag.NewError(diag.LexBadNumber, source.Span{}, "second"))
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 || out.Omitted != 1 || out.Diagnostics[0].Location.Start != nil {
		t.Fatalf("out = %+v", out)
	}
}

func TestTokensPretty(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.lam", []byte("(x)"))
	toks := []token.Token{
		{Kind: token.LParen, Span: source.Span{File: id, Start: 0, End: 1}, Text: "("},
		{Kind: token.Symbol, Span: source.Span{File: id, Start: 1, End: 2}, Text: "x"},
		{Kind: token.EOF, Span: source.Span{File: id, Start: 3, End: 3}},
		{Kind: token.Symbol, Text: "after-eof"},
	}
	var buf bytes.Buffer
	if err := FormatTokensPretty(&buf, toks, fs); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 3 || strings.Contains(buf.String(), "after-eof") {
		t.Fatalf("tokens:\n%s", buf.String())
	}
}

func TestTokensShowComments(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.lam", []byte("; hi\nx"))
	toks := []token.Token{{
		Kind:    token.Symbol,
		Span:    source.Span{File: id, Start: 5, End: 6},
		Text:    "x",
		Leading: []token.Trivia{{Kind: token.TriviaLineComment, Text: "; hi"}, {Kind: token.TriviaNewline, Text: "\n"}},
	}}
	var pretty, js bytes.Buffer
	if err := FormatTokensPretty(&pretty, toks, fs); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(pretty.String(), "; hi") || !strings.Contains(pretty.String(), "2:1-2:2") {
		t.Fatalf("pretty = %q", pretty.String())
	}
	if err := FormatTokensJSON(&js, toks); err != nil {
		t.Fatal(err)
	}
	var out []TokenOutput
	if err := json.Unmarshal(js.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || len(out[0].Leading) != 2 || out[0].Leading[0].Text != "; hi" || out[0].Leading[1].Text != "" {
		t.Fatalf("json = %+v", out)
	}
}

func TestASTTree(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.lam", []byte("(if c 1 2)"))
	b := ast.NewBuilder(ast.Hints{})
	sp := func(s, e uint32) source.Span { return source.Span{File: id, Start: s, End: e} }
	root := b.NewIf(sp(0, 10), b.NewSymbol(sp(4, 5), "c"), b.NewInt(sp(6, 7), "1", 1), b.NewInt(sp(8, 9), "2", 2))

	var buf bytes.Buffer
	if err := FormatASTTree(&buf, b, []ast.NodeID{root}, fs); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[1], "  cond: ") || !strings.Contains(lines[3], "else: ") {
		t.Fatalf("tree:\n%s", buf.String())
	}

	buf.Reset()
	if err := FormatASTJSON(&buf, b, []ast.NodeID{root}); err != nil {
		t.Fatal(err)
	}
	var nodes []ASTNodeJSON
	if err := json.Unmarshal(buf.Bytes(), &nodes); err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || len(nodes[0].Children) != 3 || nodes[0].Children[2].Text != "2" {
		t.Fatalf("json = %+v", nodes)
	}
}

func TestFormatPathModes(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join("src", "counter.lam")
	if err := os.MkdirAll("src", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("(+ 1 2)"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	f := fs.Get(id)
	abs, err := filepath.Abs(path)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		mode string
		want string
	}{
		{"", path},
		{"auto", path},
		{"Basename", "counter.lam"},
		{"absolute", abs},
		{"relative", path},
	}
	for _, tt := range tests {
		m, err := ParsePathMode(tt.mode)
		if err != nil {
			t.Fatalf("%q: %v", tt.mode, err)
		}
		if got := formatPath(f, m); got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.mode, got, tt.want)
		}
	}
	if _, err := ParsePathMode("short"); err == nil {
		t.Error("unknown mode accepted")
	}
	virt := fs.Get(fs.AddVirtual("<eval>", nil))
	if got := formatPath(virt, PathModeAbsolute); got != "<eval>" {
		t.Errorf("virtual file path rewritten: %q", got)
	}
}
