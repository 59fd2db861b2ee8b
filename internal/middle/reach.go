package middle

import (
	"lamina/internal/ir"
)

// removeUnreachableFuncs drops lifted procedures no entry point calls.
// Roots are exported functions and the initializer.
func removeUnreachableFuncs(mod *ir.Module) int {
	reachable := make(map[string]bool)
	var worklist []string
	add := func(name string) {
		if !reachable[name] {
			reachable[name] = true
			worklist = append(worklist, name)
		}
	}
	for _, f := range mod.Funcs {
		if f.Exported || f.Init || f.TopLevel {
			add(f.Name)
		}
	}
	for len(worklist) > 0 {
		curr := worklist[0]
		worklist = worklist[1:]
		f := mod.Func(curr)
		if f == nil {
			continue
		}
		for _, c := range mod.Callees(f) {
			add(c)
		}
	}
	before := len(mod.Funcs)
	mod.RetainFuncs(func(f *ir.Func) bool { return reachable[f.Name] })
	return before - len(mod.Funcs)
}
