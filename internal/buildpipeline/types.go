package buildpipeline

import (
	"fmt"
	"time"
)

// Stage is one step of compiling a file.
type Stage string

const (
	StageLex      Stage = "lex"
	StageParse    Stage = "parse"
	StageAnalyze  Stage = "analyze"
	StageOptimize Stage = "optimize"
	StageCodegen  Stage = "codegen"
	StageNative   Stage = "native"
	StageWrite    Stage = "write"
)

// Stages lists the stages in pipeline order.
var Stages = []Stage{StageLex, StageParse, StageAnalyze, StageOptimize, StageCodegen, StageNative, StageWrite}

type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusCached  Status = "cached"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file, or for the whole build when File is empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

type ProgressSink interface {
	OnEvent(Event)
}

// Target selects the artifact kind.
type Target string

const (
	TargetEVM    Target = "evm"
	TargetNative Target = "native"
	// TargetLLVM stops after emitting LLVM IR text.
	TargetLLVM Target = "llvm"
)

var Targets = []Target{TargetEVM, TargetNative, TargetLLVM}

func ParseTarget(s string) (Target, error) {
	for _, t := range Targets {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown target %q (expected: evm|native|llvm)", s)
}

// Ext is the artifact file extension.
func (t Target) Ext() string {
	switch t {
	case TargetEVM:
		return ".huff"
	case TargetLLVM:
		return ".ll"
	}
	return ""
}

// Timings holds stage durations of one compilation.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] = dur
}

func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

func (t Timings) Duration(stage Stage) time.Duration {
	return t.stages[stage]
}

// Sum adds the given stages, or all stages when none are named.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if len(stages) == 0 {
		stages = Stages
	}
	var total time.Duration
	for _, s := range stages {
		total += t.stages[s]
	}
	return total
}
