// Package token defines lexical token kinds and trivia for the lamina compiler.
// Invariants:
//   - Token.Text is a slice of the original source (no copies, no unescaping).
//   - Token.Span matches Text exactly (Start..End).
//   - Comments and whitespace are leading Trivia and never appear in the
//     main token stream.
//   - Special-form names (define, lambda, if, ...) are plain Symbol tokens.
//     They are recognized by the parser, not the lexer.
package token
