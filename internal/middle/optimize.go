package middle

import (
	"fmt"

	"lamina/internal/ir"
)

type Options struct {
	// NoFold disables constant folding and constant-condition selection.
	NoFold bool
	// NoDCE disables dead-code elimination in sequences.
	NoDCE bool
	// Stats, when set, receives pass counters.
	Stats *Stats
}

type Stats struct {
	Folded       int
	Eliminated   int
	RemovedFuncs int
	Exported     int
}

// Optimize runs export marking, folding, dead-code elimination and
// unreachable-function removal, then revalidates the module.
func Optimize(mod *ir.Module, opts Options) error {
	var st Stats
	st.Exported = markExports(mod)
	if !opts.NoFold {
		st.Folded = foldConstants(mod)
	}
	if !opts.NoDCE {
		st.Eliminated = eliminateDeadCode(mod)
	}
	st.RemovedFuncs = removeUnreachableFuncs(mod)
	if opts.Stats != nil {
		*opts.Stats = st
	}
	if err := ir.Validate(mod); err != nil {
		return fmt.Errorf("middle: %w", err)
	}
	return nil
}

// markExports makes every user-written top-level procedure an entry point.
// The initializer and lifted procedures are internal.
func markExports(mod *ir.Module) int {
	n := 0
	for _, f := range mod.Funcs {
		f.Exported = f.TopLevel && !f.Init
		if f.Exported {
			n++
		}
	}
	return n
}
