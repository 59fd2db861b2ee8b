package driver

import (
	"path/filepath"
	"strings"

	"lamina/internal/backend/evm"
	"lamina/internal/backend/native"
	"lamina/internal/buildpipeline"
	"lamina/internal/ffi"
	"lamina/internal/middle"
	"lamina/internal/observ"
)

// SourceExt is the extension of lamina source files.
const SourceExt = ".lam"

// Options configure one compilation. The zero value compiles for the EVM
// without caching, timing or progress reporting.
type Options struct {
	Target buildpipeline.Target
	// Name overrides the module/contract name derived from the file name.
	Name string
	Env  *ffi.Env

	// StopAfter ends the pipeline after the named stage; empty runs codegen.
	StopAfter buildpipeline.Stage

	Optimize       middle.Options
	MaxDiagnostics int

	// Hasher overrides keccak256 for EVM selectors.
	Hasher evm.Hasher
	// Triple is the LLVM target triple; empty means native.DefaultTriple.
	Triple    string
	Toolchain native.Toolchain

	Timer *observ.Timer
	Sink  buildpipeline.ProgressSink
	Cache *ArtifactCache
}

func (o Options) target() buildpipeline.Target {
	if o.Target == "" {
		return buildpipeline.TargetEVM
	}
	return o.Target
}

// moduleName returns Name or the file name without its extension.
func (o Options) moduleName(path string) string {
	if o.Name != "" {
		return o.Name
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ArtifactPath maps a source path, relative to the source root, to its
// artifact inside outDir.
func ArtifactPath(outDir, rel string, target buildpipeline.Target) string {
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(outDir, rel+target.Ext())
}
