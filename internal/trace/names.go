package trace

import (
	"fmt"
	"strings"
)

// names maps small enum values to their flag spelling; index is the value.
// Empty entries are unused values.
type names[T ~uint8] []string

func (n names[T]) String(v T) string {
	if int(v) < len(n) && n[v] != "" {
		return n[v]
	}
	return "unknown"
}

// Parse is case-insensitive. An empty string maps to def.
func (n names[T]) Parse(what, s string, def T) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	for i, name := range n {
		if name != "" && name == s {
			return T(i), nil //nolint:gosec // tables are tiny
		}
	}
	return def, fmt.Errorf("invalid %s: %q (expected: %s)", what, s, n.choices())
}

func (n names[T]) choices() string {
	var out []string
	for _, name := range n {
		if name != "" {
			out = append(out, name)
		}
	}
	return strings.Join(out, "|")
}
