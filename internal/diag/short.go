package diag

import (
	"fmt"
	"strings"

	"lamina/internal/source"
)

// FormatShort renders diagnostics one per line as
// "path:line:col: SEVERITY CODE message". Used by golden tests and --format short.
func FormatShort(fs *source.FileSet, diags []Diagnostic) string {
	var sb strings.Builder
	for i, d := range diags {
		if i > 0 {
			sb.WriteByte('\n')
		}
		path := "<unknown>"
		line, col := uint32(0), uint32(0)
		if fs != nil {
			if f := fs.Get(d.Primary.File); f != nil {
				path = f.Path
				start, _ := fs.Resolve(d.Primary)
				line, col = start.Line, start.Col
			}
		}
		fmt.Fprintf(&sb, "%s:%d:%d: %s %s %s", path, line, col, d.Severity, d.Code.ID(), d.Message)
	}
	return sb.String()
}
