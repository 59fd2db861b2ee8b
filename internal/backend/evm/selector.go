package evm

import (
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/sha3"

	"lamina/internal/ir"
)

// Hasher builds the hash used for function selectors.
type Hasher func() hash.Hash

// Keccak256 is the default selector hash.
func Keccak256() hash.Hash { return sha3.NewLegacyKeccak256() }

type Selector [4]byte

func (s Selector) Hex() string { return "0x" + hex.EncodeToString(s[:]) }

// ComputeSelector returns the first four bytes of h(signature).
func ComputeSelector(h Hasher, signature string) Selector {
	if h == nil {
		h = Keccak256
	}
	d := h()
	d.Write([]byte(signature))
	var sel Selector
	copy(sel[:], d.Sum(nil))
	return sel
}

// abiType maps an IR type to its ABI spelling.
func abiType(t ir.Type) (string, bool) {
	switch t {
	case ir.TypeInt, ir.TypeStorageRef:
		return "uint256", true
	case ir.TypeBool:
		return "bool", true
	}
	return "", false
}

// CanonicalSignature renders name(type,...) as hashed for the selector.
func CanonicalSignature(name string, params []ir.Type) (string, error) {
	parts := make([]string, len(params))
	for i, p := range params {
		s, ok := abiType(p)
		if !ok {
			return "", fmt.Errorf("parameter %d of %s has no ABI type (%s)", i, name, p)
		}
		parts[i] = s
	}
	return name + "(" + strings.Join(parts, ",") + ")", nil
}

type SelectorEntry struct {
	Signature string
	Func      string
	Selector  Selector
}

// SelectorTable keeps selectors unique across one contract.
type SelectorTable struct {
	entries []SelectorEntry
	bySel   map[Selector]int
}

// Add registers an entry. On collision the existing entry is returned
// with ok set to false.
func (t *SelectorTable) Add(e SelectorEntry) (SelectorEntry, bool) {
	if t.bySel == nil {
		t.bySel = make(map[Selector]int)
	}
	if idx, dup := t.bySel[e.Selector]; dup {
		return t.entries[idx], false
	}
	t.bySel[e.Selector] = len(t.entries)
	t.entries = append(t.entries, e)
	return e, true
}

func (t *SelectorTable) Entries() []SelectorEntry { return t.entries }

func (t *SelectorTable) Lookup(sel Selector) (SelectorEntry, bool) {
	idx, ok := t.bySel[sel]
	if !ok {
		return SelectorEntry{}, false
	}
	return t.entries[idx], true
}
