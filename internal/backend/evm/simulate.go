package evm

import (
	"fmt"
)

// MacroSig is the stack contract of a macro.
type MacroSig struct {
	Takes, Returns int
}

// Simulate walks m symbolically and checks its stack discipline: no
// underflow, DUP/SWAP within reach, agreeing depths wherever control
// merges, and a net effect of Returns-Takes on every fallthrough exit.
// macros supplies the contracts of invoked macros.
func Simulate(m *Macro, macros map[string]MacroSig) error {
	s := simState{macro: m.Name, depth: m.Takes, labels: make(map[string]int)}
	var pendingRef string
	for li, line := range m.Lines {
		for _, in := range line {
			s.at = li + 1
			ref := ""
			if err := s.step(in, pendingRef, macros); err != nil {
				return err
			}
			if in.Kind == InstrLabelRef {
				ref = in.Text
			}
			if in.Kind != InstrComment {
				pendingRef = ref
			}
		}
	}
	for name := range s.jumped {
		if _, ok := s.defined[name]; !ok {
			return fmt.Errorf("%s: jump to undefined label %s", m.Name, name)
		}
	}
	if !s.terminated && s.depth != m.Returns {
		return fmt.Errorf("%s: ends with %d stack items, declared returns(%d)", m.Name, s.depth, m.Returns)
	}
	return nil
}

type simState struct {
	macro      string
	at         int
	depth      int
	terminated bool
	labels     map[string]int
	jumped     map[string]bool
	defined    map[string]bool
}

func (s *simState) errorf(format string, args ...any) error {
	return fmt.Errorf("%s line %d: %s", s.macro, s.at, fmt.Sprintf(format, args...))
}

// merge records depth for label, or checks it against an earlier record.
func (s *simState) merge(label string, depth int) error {
	if prev, ok := s.labels[label]; ok {
		if prev != depth {
			return s.errorf("label %s reached with %d and %d stack items", label, prev, depth)
		}
		return nil
	}
	s.labels[label] = depth
	return nil
}

func (s *simState) grow(n int) error {
	s.depth += n
	if s.depth > MaxStackDepth {
		return s.errorf("stack exceeds %d items", MaxStackDepth)
	}
	return nil
}

func (s *simState) step(in Instr, pendingRef string, macros map[string]MacroSig) error {
	if in.Kind == InstrComment {
		return nil
	}
	if in.Kind == InstrLabel {
		if s.defined == nil {
			s.defined = make(map[string]bool)
		}
		if s.defined[in.Text] {
			return s.errorf("label %s defined twice", in.Text)
		}
		s.defined[in.Text] = true
		if s.terminated {
			d, ok := s.labels[in.Text]
			if !ok {
				return s.errorf("label %s is unreachable", in.Text)
			}
			s.depth = d
			s.terminated = false
			return nil
		}
		return s.merge(in.Text, s.depth)
	}
	if s.terminated {
		return s.errorf("unreachable %s after terminator", in)
	}

	switch in.Kind {
	case InstrPush, InstrConst, InstrLabelRef:
		return s.grow(1)
	case InstrMacro:
		sig, ok := macros[in.Text]
		if !ok {
			return s.errorf("unknown macro %s", in.Text)
		}
		if s.depth < sig.Takes {
			return s.errorf("%s takes %d items, stack has %d", in.Text, sig.Takes, s.depth)
		}
		return s.grow(sig.Returns - sig.Takes)
	}

	if fam, n, ok := parseIndexed(in.Text); ok {
		if n < 1 || n > MaxStackReach {
			return s.errorf("%s out of reach", in.Text)
		}
		if fam == "dup" {
			if s.depth < n {
				return s.errorf("%s with %d stack items", in.Text, s.depth)
			}
			return s.grow(1)
		}
		if s.depth < n+1 {
			return s.errorf("%s with %d stack items", in.Text, s.depth)
		}
		return nil
	}

	eff, ok := opcodes[in.Text]
	if !ok {
		return s.errorf("unknown opcode %s", in.Text)
	}
	if s.depth < eff.pop {
		return s.errorf("%s needs %d stack items, have %d", in.Text, eff.pop, s.depth)
	}
	s.depth += eff.push - eff.pop

	if in.Text == "jump" || in.Text == "jumpi" {
		if pendingRef == "" {
			return s.errorf("%s without a label destination", in.Text)
		}
		if s.jumped == nil {
			s.jumped = make(map[string]bool)
		}
		s.jumped[pendingRef] = true
		if err := s.merge(pendingRef, s.depth); err != nil {
			return err
		}
	}
	if terminators[in.Text] {
		s.terminated = true
	}
	return nil
}
