package native

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"lamina/internal/diag"
	"lamina/internal/ir"
	"lamina/internal/source"
)

// Toolchain turns LLVM IR text into a native artifact at out.
type Toolchain interface {
	Compile(ctx context.Context, llvmIR, out string) error
}

// ClangToolchain runs clang -x ir. With Object set it stops at an object
// file, otherwise it links an executable.
type ClangToolchain struct {
	// Path defaults to "clang" looked up in PATH.
	Path   string
	Object bool
	Args   []string
	// Verbose prints each command to stdout before running it.
	Verbose bool
}

func (c ClangToolchain) binary() string {
	if c.Path != "" {
		return c.Path
	}
	return "clang"
}

func (c ClangToolchain) Compile(ctx context.Context, llvmIR, out string) error {
	bin, err := exec.LookPath(c.binary())
	if err != nil {
		return nativeError(fmt.Sprintf("%s not found; install clang", c.binary()), "", err)
	}
	tmpDir, err := os.MkdirTemp("", "lamina-native-")
	if err != nil {
		return nativeError("cannot create temp dir", "", err)
	}
	defer os.RemoveAll(tmpDir)

	llPath := filepath.Join(tmpDir, "out.ll")
	if err := os.WriteFile(llPath, []byte(llvmIR), 0o600); err != nil {
		return nativeError("cannot write LLVM IR", "", err)
	}
	args := []string{"-x", "ir", llPath, "-o", out}
	if c.Object {
		args = append([]string{"-c"}, args...)
	}
	args = append(args, c.Args...)
	if c.Verbose {
		fmt.Fprintf(os.Stdout, "%s %s\n", bin, strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(output.String())
		if msg == "" {
			msg = err.Error()
		}
		return nativeError("clang failed: "+firstLine(msg), output.String(), err)
	}
	return nil
}

// HostTriple asks clang for its default target; empty on failure.
func (c ClangToolchain) HostTriple(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, c.binary(), "-dumpmachine").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func nativeError(msg, output string, err error) *diag.NativeBackendError {
	return &diag.NativeBackendError{
		Diag:   diag.NewError(diag.GenNativeBackend, source.Span{}, msg),
		Output: output,
		Err:    err,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ErrNoToolchain is returned by Build when no toolchain is configured.
var ErrNoToolchain = errors.New("native: no toolchain configured")

// Build emits mod and compiles it with tc, returning the IR text.
func Build(ctx context.Context, mod *ir.Module, opts Options, tc Toolchain, out string) (string, error) {
	text, err := Emit(mod, opts)
	if err != nil {
		return "", err
	}
	if tc == nil {
		return text, ErrNoToolchain
	}
	if err := tc.Compile(ctx, text, out); err != nil {
		return text, err
	}
	return text, nil
}
