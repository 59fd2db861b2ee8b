// Package trace records compiler phase boundaries.
//
// A Tracer travels with the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePass, "parse")
//	defer span.End("")
//
// Enable it from the command line with
//
//	lamina build --trace=- --trace-level=phase counter.lam
//
// Implementations:
//
//   - Nop: zero overhead when tracing is off
//   - StreamTracer: writes every event immediately (text or NDJSON)
//   - RingTracer: keeps the last N events for dumping after a failure
//   - MultiTracer: fans out to several tracers
//
// Scopes go from coarse to fine: driver (one CLI command), pass (lex,
// parse, analyze, optimize, codegen), file (one source file of a
// directory build) and func (one function inside a pass).
package trace
