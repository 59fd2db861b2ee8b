package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"lamina/internal/diag"
	"lamina/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		code:   mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgRed, color.Bold),
		note:   mk(color.FgCyan),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид:
//
//	<path>:<line>:<col>: <sev> <CODE>: <message>
//	   3 | (define (f x) (+ x y))
//	     |                    ^
//	  note: ...
//
// Items are printed in bag order; call bag.Sort first for stable output.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := prettyOne(w, p, d, fs, opts); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, p palette, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) error {
	var sb strings.Builder
	sev := strings.ToLower(d.Severity.String())
	fmt.Fprintf(&sb, "%s: %s %s: %s\n", location(fs, d.Primary, opts.PathMode),
		p.severity(d.Severity).Sprint(sev), p.code.Sprint(d.Code.ID()), d.Message)
	snippet(&sb, p, fs, d.Primary, opts.Context)
	if opts.ShowNotes {
		for _, n := range d.Notes {
			fmt.Fprintf(&sb, "  %s %s: %s\n", p.note.Sprint("note:"), location(fs, n.Span, opts.PathMode), n.Msg)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func location(fs *source.FileSet, sp source.Span, mode PathMode) string {
	if fs == nil {
		return "<unknown>"
	}
	f := fs.Get(sp.File)
	if f == nil {
		return "<unknown>"
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(f, mode), start.Line, start.Col)
}

// snippet prints the primary line with a caret run under the span.
// Multi-line spans are underlined to the end of the first line.
func snippet(sb *strings.Builder, p palette, fs *source.FileSet, sp source.Span, context int) {
	if fs == nil {
		return
	}
	f := fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(sp)
	first := start.Line
	if context > 0 && int(first) > context {
		first -= uint32(context)
	} else if context > 0 {
		first = 1
	}
	width := len(fmt.Sprint(start.Line + uint32(max(context, 0))))
	for ln := first; ln <= start.Line; ln++ {
		fmt.Fprintf(sb, "%s %s\n", p.gutter.Sprintf("%*d |", width, ln), expandTabs(f.GetLine(ln)))
	}

	line := f.GetLine(start.Line)
	col := int(start.Col) - 1
	prefix := runewidth.StringWidth(expandTabs(byteClamp(line, col)))
	span := 1
	if end.Line == start.Line && end.Col > start.Col {
		span = runewidth.StringWidth(expandTabs(byteSlice(line, col, int(end.Col)-1)))
	} else if end.Line > start.Line {
		span = max(runewidth.StringWidth(expandTabs(line))-prefix, 1)
	}
	marks := "^" + strings.Repeat("~", max(span-1, 0))
	fmt.Fprintf(sb, "%s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), strings.Repeat(" ", prefix), p.caret.Sprint(marks))

	for ln := start.Line + 1; context > 0 && ln <= start.Line+uint32(context); ln++ {
		text := f.GetLine(ln)
		if text == "" && ln > end.Line {
			break
		}
		fmt.Fprintf(sb, "%s %s\n", p.gutter.Sprintf("%*d |", width, ln), expandTabs(text))
	}
}

func byteClamp(s string, n int) string {
	return s[:min(max(n, 0), len(s))]
}

func byteSlice(s string, from, to int) string {
	from = min(max(from, 0), len(s))
	to = min(max(to, from), len(s))
	return s[from:to]
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
