package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"lamina/internal/source"
	"lamina/internal/token"
)

type TokenOutput struct {
	Kind    string       `json:"kind"`
	Text    string       `json:"text,omitempty"`
	Span    source.Span  `json:"span"`
	Leading []TriviaJSON `json:"leading,omitempty"`
}

type TriviaJSON struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
}

// untilEOF cuts toks after the first EOF.
func untilEOF(toks []token.Token) []token.Token {
	for i, tok := range toks {
		if tok.Kind == token.EOF {
			return toks[:i+1]
		}
	}
	return toks
}

// FormatTokensPretty prints one aligned row per token; comments in the
// leading trivia are shown with their text.
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, tok := range untilEOF(tokens) {
		start, end := fs.Resolve(tok.Span)
		text := ""
		if tok.Text != "" {
			text = fmt.Sprintf("%q", tok.Text)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d:%d-%d:%d", i+1, tok.Kind, text, start.Line, start.Col, end.Line, end.Col)
		var comments []string
		for _, tr := range tok.Leading {
			if tr.Kind == token.TriviaLineComment {
				comments = append(comments, strings.TrimSpace(tr.Text))
			}
		}
		if len(comments) > 0 {
			fmt.Fprintf(tw, "\t%s", strings.Join(comments, " "))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, tokens []token.Token) error {
	toks := untilEOF(tokens)
	out := make([]TokenOutput, 0, len(toks))
	for _, tok := range toks {
		to := TokenOutput{Kind: tok.Kind.String(), Text: tok.Text, Span: tok.Span}
		for _, tr := range tok.Leading {
			tj := TriviaJSON{Kind: tr.Kind.String()}
			if tr.Kind == token.TriviaLineComment {
				tj.Text = tr.Text
			}
			to.Leading = append(to.Leading, tj)
		}
		out = append(out, to)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
