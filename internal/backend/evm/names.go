package evm

import (
	"strings"
	"unicode"
)

// identWords splits a source identifier into ASCII alphanumeric words.
// Everything else separates words.
func identWords(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
}

func upperSnake(name string) string {
	return strings.ToUpper(strings.Join(identWords(name), "_"))
}

// MacroName maps get-counter to GET_COUNTER_MACRO.
func MacroName(fn string) string {
	return upperSnake(fn) + "_MACRO"
}

// ConstantName maps counter-slot to COUNTER_SLOT_SLOT.
func ConstantName(slot string) string {
	return upperSnake(slot) + "_SLOT"
}

// ABIName maps get-counter to getCounter.
func ABIName(fn string) string {
	words := identWords(fn)
	var sb strings.Builder
	for i, w := range words {
		if i == 0 {
			sb.WriteString(w)
			continue
		}
		sb.WriteString(strings.ToUpper(w[:1]))
		sb.WriteString(w[1:])
	}
	return sb.String()
}

// ContractName maps my-token to MyToken.
func ContractName(name string) string {
	var sb strings.Builder
	for _, w := range identWords(name) {
		sb.WriteString(strings.ToUpper(w[:1]))
		sb.WriteString(w[1:])
	}
	if sb.Len() == 0 {
		return "Contract"
	}
	return sb.String()
}

func dispatchLabel(fn string) string {
	return "jump_to_" + strings.ToLower(strings.Join(identWords(fn), "_"))
}
