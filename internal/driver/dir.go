package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"lamina/internal/buildpipeline"
	"lamina/internal/diag"
	"lamina/internal/source"
)

// FileResult is the outcome for one file of a directory build.
type FileResult struct {
	Path string
	// Out is the artifact path; empty when nothing was written.
	Out    string
	Result *Result
}

// ListSources returns every *.lam file under dir in sorted order.
func ListSources(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// детерминированный порядок
	sort.Strings(files)
	return files, nil
}

// CompileDir compiles every source under dir concurrently, at most jobs at
// a time (GOMAXPROCS when jobs <= 0). With a non-empty outDir each
// successful file is written there; failed files write nothing. The
// shared FileSet is fully loaded before workers start and only read after.
func CompileDir(ctx context.Context, dir, outDir string, jobs int, opts Options) (*source.FileSet, []FileResult, error) {
	files, err := ListSources(dir)
	if err != nil {
		return nil, nil, err
	}
	fileSet := source.NewFileSet()
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		id, err := fileSet.Load(path)
		if err != nil {
			loadErrors[path] = err
			continue
		}
		fileIDs[path] = id
		buildpipeline.Notify(opts.Sink, buildpipeline.Event{File: fileSet.Get(id).Path, Status: buildpipeline.StatusQueued})
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	// имя модуля берётся из имени каждого файла
	opts.Name = ""

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i].Path = path
			if loadErr, failed := loadErrors[path]; failed {
				bag := diag.NewBag(opts.MaxDiagnostics)
				bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+loadErr.Error()))
				results[i].Result = &Result{FileSet: fileSet, Target: opts.target(), Bag: bag}
				buildpipeline.Notify(opts.Sink, buildpipeline.Event{File: path, Status: buildpipeline.StatusError, Err: loadErr})
				return nil
			}

			id := fileIDs[path]
			var (
				res *Result
				err error
			)
			if outDir == "" {
				res, err = Compile(gctx, fileSet, id, opts)
				if err == nil && !res.Failed() {
					buildpipeline.Notify(opts.Sink, buildpipeline.Event{File: res.File.Path, Status: buildpipeline.StatusDone, Elapsed: res.Timings.Sum()})
				}
			} else {
				rel, relErr := filepath.Rel(dir, path)
				if relErr != nil {
					rel = filepath.Base(path)
				}
				out := ArtifactPath(outDir, rel, opts.target())
				res, err = Build(gctx, fileSet, id, out, opts)
				if err == nil && !res.Failed() {
					results[i].Out = out
				}
			}
			results[i].Result = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}
