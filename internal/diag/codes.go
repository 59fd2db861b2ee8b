package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003
	LexUnbalancedQuote    Code = 1004
	LexBadHash            Code = 1005
	LexBadEscape          Code = 1006
	LexInvalidUTF8        Code = 1007

	// Синтаксические
	SynUnexpectedToken Code = 2001
	SynUnclosedParen   Code = 2002
	SynUnmatchedParen  Code = 2003
	SynBadArity        Code = 2004
	SynExpectSymbol    Code = 2005
	SynEmptyList       Code = 2006
	SynDuplicateParam  Code = 2007
	SynTooDeep         Code = 2008

	// Семантические
	SemaUnboundIdent       Code = 3001
	SemaDuplicateDef       Code = 3002
	SemaDuplicateStorage   Code = 3003
	SemaStorageBeforeDecl  Code = 3004
	SemaArityMismatch      Code = 3005
	SemaTypeMismatch       Code = 3006
	SemaNotProcedure       Code = 3007
	SemaNotStorage         Code = 3008
	SemaCapture            Code = 3009
	SemaFirstClassProc     Code = 3010
	SemaBadTopLevel        Code = 3011
	SemaReservedName       Code = 3012
	SemaUnsupportedLiteral Code = 3013

	// Генерация кода
	GenSelectorCollision Code = 4001
	GenStackImbalance    Code = 4002
	GenUnsupported       Code = 4003
	GenNativeBackend     Code = 4004

	IOLoadFileError Code = 5001
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	LexUnknownChar:         "Unknown character",
	LexUnterminatedString:  "Unterminated string",
	LexBadNumber:           "Invalid numeric literal",
	LexUnbalancedQuote:     "Quote without datum",
	LexBadHash:             "Invalid # syntax",
	LexBadEscape:           "Invalid escape sequence",
	LexInvalidUTF8:         "Invalid UTF-8",
	SynUnexpectedToken:     "Unexpected token",
	SynUnclosedParen:       "Unclosed parenthesis",
	SynUnmatchedParen:      "Unmatched closing parenthesis",
	SynBadArity:            "Special form has wrong number of operands",
	SynExpectSymbol:        "Expected a symbol",
	SynEmptyList:           "Empty application",
	SynDuplicateParam:      "Duplicate parameter name",
	SynTooDeep:             "Nesting too deep",
	SemaUnboundIdent:       "Unbound identifier",
	SemaDuplicateDef:       "Duplicate top-level definition",
	SemaDuplicateStorage:   "Duplicate storage declaration",
	SemaStorageBeforeDecl:  "Storage used before declaration",
	SemaArityMismatch:      "Call arity mismatch",
	SemaTypeMismatch:       "Type mismatch",
	SemaNotProcedure:       "Callee is not a procedure",
	SemaNotStorage:         "Operand is not a storage slot",
	SemaCapture:            "Nested procedure captures a local",
	SemaFirstClassProc:     "Procedures are not first-class values",
	SemaBadTopLevel:        "Unsupported top-level definition",
	SemaReservedName:       "Reserved name",
	SemaUnsupportedLiteral: "Unsupported literal",
	GenSelectorCollision:   "Function selector collision",
	GenStackImbalance:      "Stack imbalance in generated code",
	GenUnsupported:         "Operation not representable on target",
	GenNativeBackend:       "Native code generator failed",
	IOLoadFileError:        "I/O load file error",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
