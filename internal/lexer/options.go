package lexer

import (
	"lamina/internal/diag"
)

type Options struct {
	// Reporter receives every lexical error in addition to the returned
	// *diag.LexError. May be nil.
	Reporter diag.Reporter
}
