package lexer

import "unicode/utf8"

// isDelimiter reports whether b terminates an atom.
func isDelimiter(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '(', ')', '"', ';', '\'':
		return true
	}
	return false
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

// isSymbolByte accepts letters, digits, the Scheme extended identifier
// characters and any byte >= 0x80; invalidUTF8At checks the sequence later.
func isSymbolByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', isDec(b):
		return true
	case b >= 0x80:
		return true
	}
	switch b {
	case '!', '$', '%', '&', '*', '/', ':', '<', '=', '>', '?', '^', '_', '~', '+', '-', '.', '@':
		return true
	}
	return false
}

// looksNumeric reports whether an atom starting at s must be read as a number:
// a digit, or a sign / dot followed by a digit.
func looksNumeric(s []byte) bool {
	if len(s) == 0 {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
	}
	return i < len(s) && isDec(s[i])
}

// invalidUTF8At returns the offset of the first byte that does not start a
// valid UTF-8 sequence.
func invalidUTF8At(b []byte) (uint32, bool) {
	var off uint32
	for len(b) > 0 {
		r, n := utf8.DecodeRune(b)
		if r == utf8.RuneError && n == 1 {
			return off, true
		}
		b = b[n:]
		off += uint32(n) //nolint:gosec // n <= utf8.UTFMax
	}
	return 0, false
}
