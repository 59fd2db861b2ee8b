package trace

import (
	"context"
	"time"
)

// state is what a context carries: the tracer and the innermost open span.
type state struct {
	tracer Tracer
	span   uint64
	depth  int
}

type stateKey struct{}

func stateOf(ctx context.Context) state {
	if ctx != nil {
		if st, ok := ctx.Value(stateKey{}).(state); ok {
			return st
		}
	}
	return state{tracer: Nop}
}

// FromContext returns the context tracer or Nop.
func FromContext(ctx context.Context) Tracer {
	return stateOf(ctx).tracer
}

// WithTracer attaches t; spans opened later become roots of t.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, stateKey{}, state{tracer: t})
}

// Start opens a span under the context's innermost span and returns a
// context in which it is the innermost one.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	st := stateOf(ctx)
	depth := 0
	if st.span != 0 {
		depth = st.depth + 1
	}
	s := begin(st.tracer, scope, name, st.span, depth)
	if s.id == 0 {
		return ctx, s
	}
	return context.WithValue(ctx, stateKey{}, state{tracer: st.tracer, span: s.id, depth: depth}), s
}

// Note emits a point event under the context's innermost span.
func Note(ctx context.Context, scope Scope, name, detail string) {
	st := stateOf(ctx)
	if !st.tracer.Enabled() {
		return
	}
	st.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: st.span,
		Depth:    st.depth + 1,
		Name:     name,
		Detail:   detail,
	})
}
