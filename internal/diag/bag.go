package diag

import (
	"cmp"
	"slices"

	"lamina/internal/source"
)

// Bag collects diagnostics up to a limit. Stages fail fast, so a single
// compilation adds at most one error; directory builds merge per-file bags.
type Bag struct {
	items   []Diagnostic
	max     int
	dropped int
}

// NewBag keeps at most max items; max <= 0 means 1.
func NewBag(max int) *Bag {
	if max <= 0 {
		max = 1
	}
	return &Bag{items: make([]Diagnostic, 0, min(max, 8)), max: max}
}

// Add returns false and counts the item as dropped once the limit is hit.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Merge adds every item of other, including its dropped count.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	for _, d := range other.items {
		b.Add(d)
	}
	b.dropped += other.dropped
}

func (b *Bag) HasErrors() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= SevError })
}

func (b *Bag) Len() int { return len(b.items) }

// Dropped is the number of diagnostics refused because of the limit.
func (b *Bag) Dropped() int { return b.dropped }

// Items возвращает read-only slice диагностик.
func (b *Bag) Items() []Diagnostic { return b.items }

// Sort orders by file, start, end, severity (desc) and code so output does
// not depend on worker scheduling.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}

// Dedup drops repeated Code+Primary pairs, keeping the first.
func (b *Bag) Dedup() {
	type key struct {
		code Code
		sp   source.Span
	}
	seen := make(map[key]struct{}, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		k := key{d.Code, d.Primary}
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		return false
	})
}
