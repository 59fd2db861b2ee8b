package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestColoredKeepsSuffix(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3-rc1"
	if got := Colored(); got != "1.2.3-rc1" {
		t.Fatalf("Colored() = %q", got)
	}
	Version = "nightly"
	if got := Colored(); got != "nightly" {
		t.Fatalf("Colored() = %q", got)
	}
}

func TestBannerOptionalFields(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	origCommit, origDate := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = origCommit, origDate }()

	GitCommit, BuildDate = "", ""
	var sb strings.Builder
	if err := Banner(&sb, []string{"evm", "native"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(sb.String(), "commit:") || !strings.Contains(sb.String(), "targets: evm, native") {
		t.Fatalf("banner = %q", sb.String())
	}

	GitCommit = "abc123def4567890"
	sb.Reset()
	if err := Banner(&sb, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), "commit:  abc123def456\n") {
		t.Fatalf("banner = %q", sb.String())
	}
}
