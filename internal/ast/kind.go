package ast

// Kind is the closed set of node shapes produced by the parser.
type Kind uint8

const (
	KindInvalid Kind = iota
	// атомы
	KindSymbol
	KindInt
	KindFloat
	KindString
	KindBool
	// KindList is a parenthesised datum under quote.
	KindList
	// специальные формы
	KindDefine
	KindLambda
	KindIf
	KindBegin
	KindQuote
	// KindApply is any list whose head is not a special-form keyword.
	KindApply
)

var kindNames = [...]string{
	KindInvalid: "Invalid",
	KindSymbol:  "Symbol",
	KindInt:     "Int",
	KindFloat:   "Float",
	KindString:  "String",
	KindBool:    "Bool",
	KindList:    "List",
	KindDefine:  "Define",
	KindLambda:  "Lambda",
	KindIf:      "If",
	KindBegin:   "Begin",
	KindQuote:   "Quote",
	KindApply:   "Apply",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsAtom reports whether nodes of this kind carry an AtomData payload.
func (k Kind) IsAtom() bool {
	return k >= KindSymbol && k <= KindBool
}
