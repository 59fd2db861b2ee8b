package evm

import (
	"strconv"
	"strings"
)

// stackEffect is the number of cells an opcode pops and pushes.
type stackEffect struct {
	pop, push int
}

var opcodes = map[string]stackEffect{
	"stop":         {0, 0},
	"add":          {2, 1},
	"mul":          {2, 1},
	"sub":          {2, 1},
	"div":          {2, 1},
	"sdiv":         {2, 1},
	"mod":          {2, 1},
	"smod":         {2, 1},
	"lt":           {2, 1},
	"gt":           {2, 1},
	"slt":          {2, 1},
	"sgt":          {2, 1},
	"eq":           {2, 1},
	"iszero":       {1, 1},
	"and":          {2, 1},
	"or":           {2, 1},
	"xor":          {2, 1},
	"not":          {1, 1},
	"shl":          {2, 1},
	"shr":          {2, 1},
	"sar":          {2, 1},
	"calldataload": {1, 1},
	"calldatasize": {0, 1},
	"callvalue":    {0, 1},
	"pop":          {1, 0},
	"mload":        {1, 1},
	"mstore":       {2, 0},
	"sload":        {1, 1},
	"sstore":       {2, 0},
	"jump":         {1, 0},
	"jumpi":        {2, 0},
	"jumpdest":     {0, 0},
	"return":       {2, 0},
	"revert":       {2, 0},
}

// terminators end straight-line flow.
var terminators = map[string]bool{
	"stop":   true,
	"jump":   true,
	"return": true,
	"revert": true,
}

// MaxStackReach is the deepest cell DUPn / SWAPn can address.
const MaxStackReach = 16

// MaxStackDepth is the EVM operand stack limit.
const MaxStackDepth = 1024

// parseIndexed splits dupN / swapN; ok is false for other mnemonics.
func parseIndexed(mnemonic string) (family string, n int, ok bool) {
	for _, fam := range []string{"dup", "swap"} {
		if rest, found := strings.CutPrefix(mnemonic, fam); found {
			v, err := strconv.Atoi(rest)
			if err != nil {
				return "", 0, false
			}
			return fam, v, true
		}
	}
	return "", 0, false
}
