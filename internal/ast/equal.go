package ast

// Equal compares two trees structurally, ignoring spans and quote spelling.
func Equal(a *Builder, x NodeID, b *Builder, y NodeID) bool {
	nx, ny := a.Get(x), b.Get(y)
	if nx == nil || ny == nil {
		return nx == nil && ny == nil
	}
	if nx.Kind != ny.Kind {
		return false
	}
	switch nx.Kind {
	case KindSymbol, KindString:
		return a.Atom(x).Text == b.Atom(y).Text
	case KindInt:
		return a.Atom(x).Int == b.Atom(y).Int
	case KindFloat:
		return a.Atom(x).Float == b.Atom(y).Float
	case KindBool:
		return a.Atom(x).Bool == b.Atom(y).Bool
	case KindList:
		return equalSeq(a, a.List(x).Items, b, b.List(y).Items)
	case KindDefine:
		dx, dy := a.Define(x), b.Define(y)
		if dx.Name != dy.Name || dx.IsProc != dy.IsProc || !equalParams(dx.Params, dy.Params) {
			return false
		}
		if !dx.IsProc {
			return Equal(a, dx.Value, b, dy.Value)
		}
		return equalSeq(a, dx.Body, b, dy.Body)
	case KindLambda:
		lx, ly := a.Lambda(x), b.Lambda(y)
		return equalParams(lx.Params, ly.Params) && equalSeq(a, lx.Body, b, ly.Body)
	case KindIf:
		ix, iy := a.If(x), b.If(y)
		return Equal(a, ix.Cond, b, iy.Cond) && Equal(a, ix.Then, b, iy.Then) && Equal(a, ix.Else, b, iy.Else)
	case KindBegin:
		return equalSeq(a, a.Begin(x).Body, b, b.Begin(y).Body)
	case KindQuote:
		return Equal(a, a.Quote(x).Datum, b, b.Quote(y).Datum)
	case KindApply:
		ax, ay := a.Apply(x), b.Apply(y)
		return Equal(a, ax.Callee, b, ay.Callee) && equalSeq(a, ax.Args, b, ay.Args)
	}
	return false
}

// EqualRoots compares two root lists pairwise.
func EqualRoots(a *Builder, xs []NodeID, b *Builder, ys []NodeID) bool {
	return equalSeq(a, xs, b, ys)
}

func equalSeq(a *Builder, xs []NodeID, b *Builder, ys []NodeID) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !Equal(a, xs[i], b, ys[i]) {
			return false
		}
	}
	return true
}

func equalParams(xs, ys []Param) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if xs[i].Name != ys[i].Name {
			return false
		}
	}
	return true
}
