package version

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Overridable at build time:
//
//	go build -ldflags "-X lamina/internal/version.Version=0.3.0 -X lamina/internal/version.GitCommit=$(git rev-parse HEAD)"
var (
	Version   = "0.1.0-dev"
	GitCommit = ""
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with one color per component; suffixes such
// as -dev stay plain.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// Banner writes the `lamina version` output.
func Banner(w io.Writer, targets []string) error {
	if _, err := fmt.Fprintf(w, "lamina %s\n", Colored()); err != nil {
		return err
	}
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		if _, err := fmt.Fprintf(w, "commit:  %s\n", commit); err != nil {
			return err
		}
	}
	if BuildDate != "" {
		if _, err := fmt.Fprintf(w, "built:   %s\n", BuildDate); err != nil {
			return err
		}
	}
	if len(targets) > 0 {
		if _, err := fmt.Fprintf(w, "targets: %s\n", strings.Join(targets, ", ")); err != nil {
			return err
		}
	}
	return nil
}
