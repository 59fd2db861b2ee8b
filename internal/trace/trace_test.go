package trace_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"lamina/internal/trace"
)

func TestStartNestsSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelDebug, trace.FormatText)
	ctx := trace.WithTracer(context.Background(), tr)

	ctx, outer := trace.Start(ctx, trace.ScopeDriver, "build")
	_, inner := trace.Start(ctx, trace.ScopePass, "parse")
	inner.WithExtra("roots", "3").End("")
	outer.End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[1], "  → parse") {
		t.Errorf("inner begin not indented: %q", lines[1])
	}
	if !strings.Contains(lines[2], "{roots=3}") || !strings.Contains(lines[3], "build (ok)") {
		t.Errorf("unexpected end lines: %q", lines[2:])
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelPhase, trace.FormatNDJSON)
	trace.Begin(tr, trace.ScopeFunc, "fold:f", 0).End("")
	if buf.Len() != 0 {
		t.Fatalf("func scope leaked at phase level: %s", buf.String())
	}
	trace.Begin(tr, trace.ScopePass, "lex", 0).End("")
	dec := json.NewDecoder(&buf)
	var kinds []string
	for dec.More() {
		var ev map[string]any
		if err := dec.Decode(&ev); err != nil {
			t.Fatal(err)
		}
		kinds = append(kinds, ev["kind"].(string))
	}
	if strings.Join(kinds, ",") != "begin,end" {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestRingKeepsNewest(t *testing.T) {
	r := trace.NewRingTracer(2, trace.LevelPhase)
	for _, name := range []string{"a", "b", "c"} {
		r.Emit(&trace.Event{Kind: trace.KindPoint, Scope: trace.ScopePass, Name: name})
	}
	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := trace.New(trace.Config{Level: trace.LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("tracer = %v, %v", tr, err)
	}
	if _, err := trace.ParseLevel("loud"); err == nil {
		t.Fatal("bad level accepted")
	}
}

func TestParseNames(t *testing.T) {
	if l, err := trace.ParseLevel(" Detail "); err != nil || l != trace.LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if m, err := trace.ParseMode(""); err != nil || m != trace.ModeStream {
		t.Fatalf("ParseMode(\"\") = %v, %v", m, err)
	}
	if f, err := trace.ParseFormat("json"); err != nil || f != trace.FormatNDJSON {
		t.Fatalf("ParseFormat(json) = %v, %v", f, err)
	}
	_, err := trace.ParseMode("disk")
	if err == nil || !strings.Contains(err.Error(), "stream|ring|both") {
		t.Fatalf("ParseMode error = %v", err)
	}
	if trace.Scope(99).String() != "unknown" {
		t.Fatal("out-of-range scope must be unknown")
	}
}

func TestShouldEmitByLevel(t *testing.T) {
	tests := []struct {
		level trace.Level
		scope trace.Scope
		want  bool
	}{
		{trace.LevelOff, trace.ScopeDriver, false},
		{trace.LevelError, trace.ScopeDriver, false},
		{trace.LevelPhase, trace.ScopePass, true},
		{trace.LevelPhase, trace.ScopeFile, false},
		{trace.LevelDetail, trace.ScopeFile, true},
		{trace.LevelDetail, trace.ScopeFunc, false},
		{trace.LevelDebug, trace.ScopeFunc, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v", tt.level, tt.scope, got)
		}
	}
}

func TestNoteAttachesToInnermostSpan(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	trace.Note(ctx, trace.ScopePass, "orphan", "")

	ctx, span := trace.Start(ctx, trace.ScopePass, "optimize")
	trace.Note(ctx, trace.ScopeFunc, "main", "emitted")
	span.End("")
	trace.Point(ring, trace.ScopeFunc, "late", "", span.ID())

	snap := ring.Snapshot()
	if len(snap) != 5 {
		t.Fatalf("events = %+v", snap)
	}
	if snap[0].ParentID != 0 || snap[0].Time.IsZero() {
		t.Errorf("orphan note = %+v", snap[0])
	}
	if snap[2].ParentID != span.ID() || snap[2].Detail != "emitted" || snap[2].Depth != 1 {
		t.Errorf("inner note = %+v", snap[2])
	}
	if snap[4].Kind != trace.KindPoint || snap[4].ParentID != span.ID() {
		t.Errorf("point = %+v", snap[4])
	}
}

func TestRingWrapsInOrder(t *testing.T) {
	r := trace.NewRingTracer(3, trace.LevelPhase)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		r.Emit(&trace.Event{Kind: trace.KindPoint, Name: name})
	}
	var got []string
	for _, ev := range r.Snapshot() {
		got = append(got, ev.Name)
	}
	if strings.Join(got, "") != "cde" {
		t.Fatalf("snapshot = %v", got)
	}
	off := trace.NewRingTracer(3, trace.LevelOff)
	off.Emit(&trace.Event{Name: "x"})
	if len(off.Snapshot()) != 0 {
		t.Fatal("disabled ring stored an event")
	}
}
