package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"lamina/internal/backend/native"
	"lamina/internal/buildpipeline"
	"lamina/internal/source"
)

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never see a partial artifact.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Chmod(perm); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Build compiles one file and writes its artifact to out. Nothing is
// written when compilation fails. For the native target the LLVM IR goes
// through the toolchain into a temp file that is renamed to out.
func Build(ctx context.Context, fs *source.FileSet, id source.FileID, out string, opts Options) (*Result, error) {
	res, err := Compile(ctx, fs, id, opts)
	if err != nil || res.Failed() {
		return res, err
	}
	if res.Target == buildpipeline.TargetNative {
		_, err = (&compilation{ctx: ctx, opts: opts, res: res}).stage(buildpipeline.StageNative, func(ctx context.Context) error {
			return linkNative(ctx, opts.Toolchain, res.Artifact, out)
		})
	} else {
		_, err = (&compilation{ctx: ctx, opts: opts, res: res}).stage(buildpipeline.StageWrite, func(context.Context) error {
			return writeFileAtomic(out, []byte(res.Artifact), 0o644)
		})
	}
	if err != nil {
		return res, err
	}
	if !res.Failed() {
		buildpipeline.Notify(opts.Sink, buildpipeline.Event{
			File:    res.File.Path,
			Status:  buildpipeline.StatusDone,
			Elapsed: res.Timings.Sum(),
		})
	}
	return res, nil
}

// BuildFile loads path and builds it into out.
func BuildFile(ctx context.Context, path, out string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return Build(ctx, fs, id, out, opts)
}

func linkNative(ctx context.Context, tc native.Toolchain, llvmIR, out string) (err error) {
	if tc == nil {
		return native.ErrNoToolchain
	}
	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, ".tmp-"+filepath.Base(out))
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if err = tc.Compile(ctx, llvmIR, tmp); err != nil {
		return err
	}
	return os.Rename(tmp, out)
}
