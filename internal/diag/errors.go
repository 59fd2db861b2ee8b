package diag

import (
	"fmt"

	"lamina/internal/source"
)

// Stage names the pipeline phase that produced an error.
type Stage uint8

const (
	StageLex Stage = iota
	StageParse
	StageSemantic
	StageCodegen
	StageUnsupported
	StageNative
)

func (s Stage) String() string {
	switch s {
	case StageLex:
		return "lex"
	case StageParse:
		return "parse"
	case StageSemantic:
		return "semantic"
	case StageCodegen:
		return "codegen"
	case StageUnsupported:
		return "unsupported"
	case StageNative:
		return "native"
	}
	return "unknown"
}

// StageError is implemented by every typed pipeline error.
type StageError interface {
	error
	Stage() Stage
	Diagnostic() Diagnostic
}

func format(stage Stage, d Diagnostic) string {
	if d.Primary.File == 0 && d.Primary.Start == 0 && d.Primary.End == 0 {
		return fmt.Sprintf("%s error %s: %s", stage, d.Code.ID(), d.Message)
	}
	return fmt.Sprintf("%s error %s at %d: %s", stage, d.Code.ID(), d.Primary.Start, d.Message)
}

// LexError carries the offending byte offset in Diag.Primary.Start.
type LexError struct{ Diag Diagnostic }

func (e *LexError) Error() string          { return format(StageLex, e.Diag) }
func (e *LexError) Stage() Stage           { return StageLex }
func (e *LexError) Diagnostic() Diagnostic { return e.Diag }

// Offset returns the byte offset of the offending input.
func (e *LexError) Offset() uint32 { return e.Diag.Primary.Start }

type ParseError struct{ Diag Diagnostic }

func (e *ParseError) Error() string          { return format(StageParse, e.Diag) }
func (e *ParseError) Stage() Stage           { return StageParse }
func (e *ParseError) Diagnostic() Diagnostic { return e.Diag }

type SemanticError struct{ Diag Diagnostic }

func (e *SemanticError) Error() string          { return format(StageSemantic, e.Diag) }
func (e *SemanticError) Stage() Stage           { return StageSemantic }
func (e *SemanticError) Diagnostic() Diagnostic { return e.Diag }

// CodegenError reports a build-time backend failure such as a selector
// collision or a macro whose stack effect does not match its contract.
type CodegenError struct{ Diag Diagnostic }

func (e *CodegenError) Error() string          { return format(StageCodegen, e.Diag) }
func (e *CodegenError) Stage() Stage           { return StageCodegen }
func (e *CodegenError) Diagnostic() Diagnostic { return e.Diag }

type UnsupportedOperationError struct{ Diag Diagnostic }

func (e *UnsupportedOperationError) Error() string          { return format(StageUnsupported, e.Diag) }
func (e *UnsupportedOperationError) Stage() Stage           { return StageUnsupported }
func (e *UnsupportedOperationError) Diagnostic() Diagnostic { return e.Diag }

// NativeBackendError wraps a failure of the external native code generator.
type NativeBackendError struct {
	Diag   Diagnostic
	Output string
	Err    error
}

func (e *NativeBackendError) Error() string {
	msg := format(StageNative, e.Diag)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}
func (e *NativeBackendError) Stage() Stage           { return StageNative }
func (e *NativeBackendError) Diagnostic() Diagnostic { return e.Diag }
func (e *NativeBackendError) Unwrap() error          { return e.Err }

func Lex(code Code, sp source.Span, format string, args ...any) *LexError {
	return &LexError{Diag: NewError(code, sp, fmt.Sprintf(format, args...))}
}

func Parse(code Code, sp source.Span, format string, args ...any) *ParseError {
	return &ParseError{Diag: NewError(code, sp, fmt.Sprintf(format, args...))}
}

func Semantic(code Code, sp source.Span, format string, args ...any) *SemanticError {
	return &SemanticError{Diag: NewError(code, sp, fmt.Sprintf(format, args...))}
}

func Codegen(code Code, sp source.Span, format string, args ...any) *CodegenError {
	return &CodegenError{Diag: NewError(code, sp, fmt.Sprintf(format, args...))}
}

func Unsupported(sp source.Span, format string, args ...any) *UnsupportedOperationError {
	return &UnsupportedOperationError{Diag: NewError(GenUnsupported, sp, fmt.Sprintf(format, args...))}
}
