package diagfmt

import (
	"fmt"
	"path/filepath"
	"strings"

	"lamina/internal/source"
)

// PathMode picks how file names appear in rendered diagnostics.
type PathMode uint8

const (
	PathModeAuto PathMode = iota // as given on the command line
	PathModeAbsolute
	PathModeRelative // relative to the working directory
	PathModeBasename
)

var pathModes = map[string]PathMode{
	"auto":     PathModeAuto,
	"absolute": PathModeAbsolute,
	"relative": PathModeRelative,
	"basename": PathModeBasename,
}

// ParsePathMode reads the --diag-paths value; "" is auto.
func ParsePathMode(s string) (PathMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PathModeAuto, nil
	}
	if m, ok := pathModes[s]; ok {
		return m, nil
	}
	return PathModeAuto, fmt.Errorf("unknown path mode %q (auto|absolute|relative|basename)", s)
}

type PrettyOpts struct {
	Color     bool
	Context   int // lines around the primary one
	PathMode  PathMode
	ShowNotes bool
}

type JSONOpts struct {
	IncludePositions bool
	PathMode         PathMode
	Max              int // cuts the output only; the bag keeps everything
	IncludeNotes     bool
}

func formatPath(f *source.File, mode PathMode) string {
	if f == nil {
		return "<unknown>"
	}
	if mode == PathModeBasename {
		return filepath.Base(f.Path)
	}
	if mode == PathModeAuto || f.Flags&source.FileVirtual != 0 {
		return f.Path
	}
	abs, err := filepath.Abs(f.Path)
	if err != nil {
		return f.Path
	}
	if mode == PathModeRelative {
		if wd, werr := filepath.Abs("."); werr == nil {
			if rel, rerr := filepath.Rel(wd, abs); rerr == nil {
				return rel
			}
		}
	}
	return abs
}
