package evm

import (
	"lamina/internal/ir"
)

const (
	// scratchWord is reused for return values.
	scratchWord = 0x00
	frameBase   = 0x20
	wordSize    = 0x20
	// calldataArgs is where ABI arguments start after the selector.
	calldataArgs = 0x04
)

// frameLayout assigns every local of the module a fixed memory word.
// Inlined calls copy arguments into the callee's words, so the words of
// distinct functions must not overlap.
type frameLayout struct {
	offsets map[ir.LocalID]uint64
	next    uint64
}

func layoutFrames(mod *ir.Module) *frameLayout {
	fl := &frameLayout{offsets: make(map[ir.LocalID]uint64), next: frameBase}
	for _, f := range mod.Funcs {
		for _, l := range f.Locals {
			if _, done := fl.offsets[l]; done {
				continue
			}
			fl.offsets[l] = fl.next
			fl.next += wordSize
		}
	}
	return fl
}

func (fl *frameLayout) offset(l ir.LocalID) (uint64, bool) {
	off, ok := fl.offsets[l]
	return off, ok
}
