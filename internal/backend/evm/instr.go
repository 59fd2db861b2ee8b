package evm

import (
	"fmt"
	"math/big"
	"strings"

	"fortio.org/safecast"
)

type InstrKind uint8

const (
	// InstrOp is a bare opcode mnemonic.
	InstrOp InstrKind = iota
	// InstrPush is a literal pushed with the smallest PUSHn.
	InstrPush
	// InstrConst pushes a #define constant: [NAME].
	InstrConst
	// InstrLabelRef pushes a jump destination: [label].
	InstrLabelRef
	// InstrLabel defines a jump destination: label:
	InstrLabel
	// InstrMacro invokes another macro: NAME().
	InstrMacro
	InstrComment
)

type Instr struct {
	Kind InstrKind
	Text string
}

func Op(mnemonic string) Instr   { return Instr{Kind: InstrOp, Text: mnemonic} }
func Push(hex string) Instr      { return Instr{Kind: InstrPush, Text: hex} }
func Const(name string) Instr    { return Instr{Kind: InstrConst, Text: name} }
func LabelRef(name string) Instr { return Instr{Kind: InstrLabelRef, Text: name} }
func Label(name string) Instr    { return Instr{Kind: InstrLabel, Text: name} }
func Invoke(macro string) Instr  { return Instr{Kind: InstrMacro, Text: macro} }
func Comment(text string) Instr  { return Instr{Kind: InstrComment, Text: text} }

func (in Instr) String() string {
	switch in.Kind {
	case InstrConst, InstrLabelRef:
		return "[" + in.Text + "]"
	case InstrLabel:
		return in.Text + ":"
	case InstrMacro:
		return in.Text + "()"
	case InstrComment:
		return "// " + in.Text
	}
	return in.Text
}

// Line is one rendered source line of a macro body.
type Line []Instr

func (l Line) String() string {
	parts := make([]string, len(l))
	for i, in := range l {
		parts[i] = in.String()
	}
	return strings.Join(parts, " ")
}

// PushInt returns a push of v. Negative values are encoded as 256-bit
// two's complement.
func PushInt(v int64) Instr {
	if v < 0 {
		word := new(big.Int).Lsh(big.NewInt(1), 256)
		word.Add(word, big.NewInt(v))
		return Push(fmt.Sprintf("0x%064x", word))
	}
	u, err := safecast.Conv[uint64](v)
	if err != nil {
		panic(err)
	}
	return PushUint(u)
}

// PushUint returns a push of u with an even number of hex digits.
func PushUint(u uint64) Instr {
	s := fmt.Sprintf("%x", u)
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return Push("0x" + s)
}

func PushBool(b bool) Instr {
	if b {
		return Push("0x01")
	}
	return Push("0x00")
}
