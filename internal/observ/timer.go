package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// phaseStats aggregates every run of one phase. In a directory build each
// file contributes one run per stage.
type phaseStats struct {
	name   string
	runs   int
	failed int
	total  time.Duration
	max    time.Duration
}

// Timer aggregates phase durations in first-seen order. Safe for concurrent
// use; a nil Timer records nothing.
type Timer struct {
	mu     sync.Mutex
	order  []*phaseStats
	byName map[string]*phaseStats
}

func NewTimer() *Timer { return &Timer{byName: make(map[string]*phaseStats)} }

// Record adds one run of phase.
func (t *Timer) Record(phase string, d time.Duration, failed bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.byName[phase]
	if !ok {
		st = &phaseStats{name: phase}
		t.byName[phase] = st
		t.order = append(t.order, st)
	}
	st.runs++
	st.total += d
	st.max = max(st.max, d)
	if failed {
		st.failed++
	}
}

// Time runs fn as one run of phase.
func (t *Timer) Time(phase string, fn func() error) error {
	start := time.Now()
	err := fn()
	t.Record(phase, time.Since(start), err != nil)
	return err
}

// PhaseReport описывает одну фазу в сериализуемом виде.
type PhaseReport struct {
	Name    string  `json:"name" msgpack:"name"`
	Runs    int     `json:"runs" msgpack:"runs"`
	Failed  int     `json:"failed,omitempty" msgpack:"failed,omitempty"`
	TotalMS float64 `json:"total_ms" msgpack:"total_ms"`
	MaxMS   float64 `json:"max_ms" msgpack:"max_ms"`
}

// Report содержит агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
}

func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var r Report
	var total time.Duration
	for _, st := range t.order {
		total += st.total
		r.Phases = append(r.Phases, PhaseReport{
			Name:    st.name,
			Runs:    st.runs,
			Failed:  st.failed,
			TotalMS: millis(st.total),
			MaxMS:   millis(st.max),
		})
	}
	r.TotalMS = millis(total)
	return r
}

// Summary renders the table printed by --timings.
func (t *Timer) Summary() string {
	r := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	fmt.Fprintf(&sb, "  %-10s %5s %10s %10s\n", "phase", "runs", "total ms", "max ms")
	for _, p := range r.Phases {
		fmt.Fprintf(&sb, "  %-10s %5d %10.3f %10.3f", p.Name, p.Runs, p.TotalMS, p.MaxMS)
		if p.Failed > 0 {
			fmt.Fprintf(&sb, "  (%d failed)", p.Failed)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "  %-10s %5s %10.3f\n", "total", "", r.TotalMS)
	return sb.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
