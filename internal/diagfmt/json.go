package diagfmt

import (
	"encoding/json"
	"io"

	"lamina/internal/diag"
	"lamina/internal/source"
)

// PositionJSON is a 1-based line/column pair.
type PositionJSON struct {
	Line uint32 `json:"line"`
	Col  uint32 `json:"col"`
}

// LocationJSON is a byte range, with resolved positions on request.
type LocationJSON struct {
	File  string        `json:"file"`
	Bytes [2]uint32     `json:"bytes"`
	Start *PositionJSON `json:"start,omitempty"`
	End   *PositionJSON `json:"end,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Phase    string       `json:"phase"`
	Code     string       `json:"code"`
	Title    string       `json:"title"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput is the document written by JSON. Omitted counts items
// cut by JSONOpts.Max or refused by the bag's own limit.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Omitted     int              `json:"omitted,omitempty"`
}

// phaseOf maps a code to the pipeline phase that owns its range.
func phaseOf(c diag.Code) string {
	switch c / 1000 {
	case 1:
		return "lex"
	case 2:
		return "parse"
	case 3:
		return "analyze"
	case 4:
		return "codegen"
	case 5:
		return "io"
	}
	return "unknown"
}

type locator struct {
	fs        *source.FileSet
	mode      PathMode
	positions bool
}

func (l locator) locate(sp source.Span) LocationJSON {
	loc := LocationJSON{File: "<unknown>", Bytes: [2]uint32{sp.Start, sp.End}}
	if l.fs == nil {
		return loc
	}
	f := l.fs.Get(sp.File)
	if f == nil {
		return loc
	}
	loc.File = formatPath(f, l.mode)
	if l.positions {
		start, end := l.fs.Resolve(sp)
		loc.Start = &PositionJSON{Line: start.Line, Col: start.Col}
		loc.End = &PositionJSON{Line: end.Line, Col: end.Col}
	}
	return loc
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	omitted := bag.Dropped()
	if opts.Max > 0 && opts.Max < len(items) {
		omitted += len(items) - opts.Max
		items = items[:opts.Max]
	}
	l := locator{fs: fs, mode: opts.PathMode, positions: opts.IncludePositions}
	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, 0, len(items)), Omitted: omitted}
	for _, d := range items {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Phase:    phaseOf(d.Code),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: l.locate(d.Primary),
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: l.locate(n.Span)})
			}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON writes the bag as one indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}
