package diag

import "lamina/internal/source"

// Reporter receives diagnostics as phases produce them.
type Reporter interface {
	Report(code Code, sev Severity, primary source.Span, msg string, notes []Note)
}

// BagReporter collects into Bag; a nil Bag drops everything.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r.Bag != nil {
		r.Bag.Add(Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes})
	}
}

// ReporterFunc adapts a plain function.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	f(Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes})
}

// Emit hands d to r; a nil r is allowed.
func Emit(r Reporter, d Diagnostic) {
	if r != nil {
		r.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
	}
}
