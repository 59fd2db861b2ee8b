// Package diag defines the diagnostic model shared by all pipeline phases.
//
// # Purpose
//
//   - Provide deterministic data structures that capture findings produced by
//     the lexer, parser, analyzer and backends.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to formatting layers.
//   - Define one typed error per pipeline stage (LexError, ParseError,
//     SemanticError, CodegenError, UnsupportedOperationError,
//     NativeBackendError). Each wraps a Diagnostic, so callers can both
//     errors.As on the stage and render the location.
//
// # Scope
//
// Package diag does not perform any formatting or IO beyond the short
// single-line form. Rendering lives in internal/diagfmt.
//
// # Fail-fast policy
//
// Every stage returns the first error it meets. The driver turns that error
// into a single Bag entry; no stage continues after an earlier one failed.
package diag
