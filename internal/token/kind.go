package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// LParen represents '('.
	LParen
	// RParen represents ')'.
	RParen
	// Quote represents the quote marker '\''.
	Quote

	// Symbol represents an identifier or operator name (define, +, get-counter).
	Symbol
	// IntLit represents an integer literal.
	IntLit
	// FloatLit represents a floating point literal.
	FloatLit
	// StringLit represents a double-quoted string literal (quotes included in Text).
	StringLit
	// BoolLit represents #t / #f.
	BoolLit
)

var kindNames = [...]string{
	Invalid:   "Invalid",
	EOF:       "EOF",
	LParen:    "LParen",
	RParen:    "RParen",
	Quote:     "Quote",
	Symbol:    "Symbol",
	IntLit:    "IntLit",
	FloatLit:  "FloatLit",
	StringLit: "StringLit",
	BoolLit:   "BoolLit",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}
