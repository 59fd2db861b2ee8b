package driver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lamina/internal/buildpipeline"
	"lamina/internal/diag"
	"lamina/internal/driver"
	"lamina/internal/ir"
	"lamina/internal/observ"
	"lamina/internal/trace"
)

const counterSource = `(define counter-slot 0)
(define (get-counter) (storage-load counter-slot))
(define (increment)
  (define current (storage-load counter-slot))
  (storage-store counter-slot (+ current 1))
  (storage-load counter-slot))
`

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func hasStatus(events []buildpipeline.Event, stage buildpipeline.Stage, status buildpipeline.Status) bool {
	for _, ev := range events {
		if ev.Stage == stage && ev.Status == status {
			return true
		}
	}
	return false
}

func TestCompileCounterToHuff(t *testing.T) {
	path := writeSource(t, t.TempDir(), "counter.lam", counterSource)
	rec := &buildpipeline.Recorder{}
	timer := observ.NewTimer()

	res, err := driver.CompileFile(context.Background(), path, driver.Options{Sink: rec, Timer: timer})
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed() {
		t.Fatalf("unexpected diagnostics: %s", diag.FormatShort(res.FileSet, res.Bag.Items()))
	}
	for _, want := range []string{
		"/* Generated Huff Contract: Counter */",
		"#define function getCounter() view returns (uint256)",
		"#define macro MAIN() = takes(0) returns(0) {",
	} {
		if !strings.Contains(res.Artifact, want) {
			t.Errorf("artifact lacks %q", want)
		}
	}
	if res.Unit == nil || res.Module == nil {
		t.Fatal("unit and module must be kept")
	}
	for _, st := range []buildpipeline.Stage{
		buildpipeline.StageLex, buildpipeline.StageParse, buildpipeline.StageAnalyze,
		buildpipeline.StageOptimize, buildpipeline.StageCodegen,
	} {
		if !res.Timings.Has(st) {
			t.Errorf("no timing for %s", st)
		}
		if !hasStatus(rec.Events(), st, buildpipeline.StatusWorking) {
			t.Errorf("no working event for %s", st)
		}
	}
	if len(timer.Report().Phases) != 5 {
		t.Errorf("timer phases = %d", len(timer.Report().Phases))
	}
}

func TestStageErrorBecomesDiagnostic(t *testing.T) {
	path := writeSource(t, t.TempDir(), "bad.lam", "(define (f) (g 1))\n")
	rec := &buildpipeline.Recorder{}

	res, err := driver.CompileFile(context.Background(), path, driver.Options{Sink: rec})
	if err != nil {
		t.Fatalf("stage errors are diagnostics, got %v", err)
	}
	if !res.Failed() {
		t.Fatal("expected failure")
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.SemaUnboundIdent {
		t.Fatalf("diagnostics = %+v", items)
	}
	if res.Module != nil || res.Artifact != "" {
		t.Error("failed compilation must not produce output")
	}
	if !hasStatus(rec.Events(), buildpipeline.StageAnalyze, buildpipeline.StatusError) {
		t.Error("missing analyze error event")
	}
	if res.Timings.Has(buildpipeline.StageOptimize) {
		t.Error("pipeline must stop at the failing stage")
	}
}

func TestLexErrorStopsBeforeParse(t *testing.T) {
	path := writeSource(t, t.TempDir(), "lex.lam", "(define x \"open\n")
	res, err := driver.CompileFile(context.Background(), path, driver.Options{})
	if err != nil {
		t.Fatal(err)
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.LexUnterminatedString {
		t.Fatalf("diagnostics = %+v", items)
	}
	if res.Timings.Has(buildpipeline.StageParse) {
		t.Error("parse must not run after a lexical error")
	}
}

func TestStopAfter(t *testing.T) {
	path := writeSource(t, t.TempDir(), "counter.lam", counterSource)
	res, err := driver.CompileFile(context.Background(), path, driver.Options{StopAfter: buildpipeline.StageParse})
	if err != nil || res.Failed() {
		t.Fatalf("err=%v", err)
	}
	if len(res.Roots) != 3 || res.Module != nil || res.Artifact != "" {
		t.Fatalf("roots=%d module=%v artifact=%q", len(res.Roots), res.Module, res.Artifact)
	}
}

func TestBuildWritesArtifactOnlyOnSuccess(t *testing.T) {
	dir := t.TempDir()
	good := writeSource(t, dir, "counter.lam", counterSource)
	bad := writeSource(t, dir, "bad.lam", "(undefined-thing)\n")
	outGood := filepath.Join(dir, "out", "counter.huff")
	outBad := filepath.Join(dir, "out", "bad.huff")

	res, err := driver.BuildFile(context.Background(), good, outGood, driver.Options{})
	if err != nil || res.Failed() {
		t.Fatalf("build failed: %v", err)
	}
	data, err := os.ReadFile(outGood)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != res.Artifact {
		t.Error("written artifact differs from result")
	}

	res, err = driver.BuildFile(context.Background(), bad, outBad, driver.Options{})
	if err != nil || !res.Failed() {
		t.Fatalf("expected diagnostics, err=%v", err)
	}
	if _, err := os.Stat(outBad); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("artifact written for a failed build: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "out"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestArtifactCacheHit(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "counter.lam", counterSource)
	cache, err := driver.OpenArtifactCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := driver.Options{Cache: cache}

	first, err := driver.CompileFile(context.Background(), path, opts)
	if err != nil || first.Failed() || first.Cached {
		t.Fatalf("first compile: err=%v cached=%v", err, first.Cached)
	}

	rec := &buildpipeline.Recorder{}
	opts.Sink = rec
	second, err := driver.CompileFile(context.Background(), path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Artifact != first.Artifact {
		t.Fatalf("cached=%v, same artifact=%v", second.Cached, second.Artifact == first.Artifact)
	}
	if !hasStatus(rec.Events(), "", buildpipeline.StatusCached) {
		t.Error("missing cached event")
	}

	opts.Target = buildpipeline.TargetLLVM
	third, err := driver.CompileFile(context.Background(), path, opts)
	if err != nil || third.Cached {
		t.Fatalf("another target must miss the cache: err=%v", err)
	}

	if n, size, err := cache.Usage(); err != nil || n != 2 || size == 0 {
		t.Fatalf("usage = %d entries, %d bytes, %v", n, size, err)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if n, _, err := cache.Usage(); err != nil || n != 0 {
		t.Fatalf("usage after drop = %d, %v", n, err)
	}
	opts.Target = ""
	fourth, err := driver.CompileFile(context.Background(), path, opts)
	if err != nil || fourth.Cached {
		t.Fatalf("dropped cache must miss: err=%v", err)
	}
}

func TestCompileDir(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "counter.lam", counterSource)
	writeSource(t, dir, "nested/math.lam", "(define (square x) (* x x))\n")
	writeSource(t, dir, "broken.lam", "(define (f) (missing))\n")
	writeSource(t, dir, "notes.txt", "ignored")
	out := filepath.Join(dir, "build")

	rec := &buildpipeline.Recorder{}
	fs, results, err := driver.CompileDir(context.Background(), dir, out, 2, driver.Options{Sink: rec})
	if err != nil {
		t.Fatal(err)
	}
	if fs == nil || len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	wantFailed := map[string]bool{"broken.lam": true, "counter.lam": false, "math.lam": false}
	for i, r := range results {
		if i > 0 && results[i-1].Path > r.Path {
			t.Error("results must be sorted by path")
		}
		base := filepath.Base(r.Path)
		if r.Result.Failed() != wantFailed[base] {
			t.Errorf("%s failed=%v", base, r.Result.Failed())
		}
		if wantFailed[base] != (r.Out == "") {
			t.Errorf("%s out=%q", base, r.Out)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "nested", "math.huff")); err != nil {
		t.Errorf("nested artifact: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "broken.huff")); !errors.Is(err, os.ErrNotExist) {
		t.Error("broken file must not produce an artifact")
	}
	done := 0
	for _, ev := range rec.Events() {
		if ev.Status == buildpipeline.StatusDone {
			done++
		}
	}
	if done != 2 {
		t.Errorf("done events = %d", done)
	}
}

func TestCompileDirCancelled(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.lam", counterSource)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := driver.CompileDir(ctx, dir, "", 1, driver.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

type fakeToolchain struct{ got string }

func (f *fakeToolchain) Compile(_ context.Context, llvmIR, out string) error {
	f.got = llvmIR
	return os.WriteFile(out, []byte("binary"), 0o600)
}

func TestNativeBuildUsesToolchain(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "counter.lam", counterSource)
	tc := &fakeToolchain{}
	out := filepath.Join(dir, "bin", "counter")

	res, err := driver.BuildFile(context.Background(), path, out, driver.Options{
		Target:    buildpipeline.TargetNative,
		Toolchain: tc,
	})
	if err != nil || res.Failed() {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(tc.got, "@lamina.storage") || tc.got != res.Artifact {
		t.Error("toolchain must receive the emitted LLVM IR")
	}
	if !res.Timings.Has(buildpipeline.StageNative) {
		t.Error("native stage not timed")
	}
	if data, err := os.ReadFile(out); err != nil || string(data) != "binary" {
		t.Fatalf("output: %q %v", data, err)
	}
}

func TestNativeBuildWithoutToolchain(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "counter.lam", counterSource)
	_, err := driver.BuildFile(context.Background(), path, filepath.Join(dir, "counter"), driver.Options{
		Target: buildpipeline.TargetNative,
	})
	if err == nil || !strings.Contains(err.Error(), "no toolchain") {
		t.Fatalf("err = %v", err)
	}
}

func TestPassSpansAreTraced(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)
	path := writeSource(t, t.TempDir(), "counter.lam", counterSource)

	if _, err := driver.CompileFile(ctx, path, driver.Options{}); err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindSpanEnd {
			seen[ev.Name] = true
		}
	}
	for _, name := range []string{"lex", "parse", "analyze", "optimize", "codegen"} {
		if !seen[name] {
			t.Errorf("no span for %s", name)
		}
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		src  string
		want ir.Value
	}{
		{"(+ 2 3)", ir.IntValue(5)},
		{"(define (sq x) (* x x)) (sq 7)", ir.IntValue(49)},
		{"(< 1 2)", ir.BoolValue(true)},
		{"(define (id x) x)", ir.UnitValue()},
	}
	for _, tt := range tests {
		got, res, err := driver.Evaluate(context.Background(), "repl", tt.src, nil, nil)
		if err != nil || res.Failed() {
			t.Fatalf("%s: err=%v diags=%v", tt.src, err, res.Bag.Items())
		}
		if got != tt.want {
			t.Errorf("%s = %+v, want %+v", tt.src, got, tt.want)
		}
	}
}

func TestAnalyzeSourceReportsErrors(t *testing.T) {
	res, err := driver.AnalyzeSource(context.Background(), "repl", "(nope 1)", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Failed() || res.Bag.Items()[0].Code != diag.SemaUnboundIdent {
		t.Fatalf("diagnostics = %+v", res.Bag.Items())
	}
}
