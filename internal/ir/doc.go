// Package ir is the backend-neutral intermediate representation.
//
// A Module owns one arena of operations. Every operation refers to its
// operands by OpID, and operands are always allocated before the operation
// that uses them, so an operand's ID is strictly smaller than its parent's.
// Passes rely on that order: a single ascending sweep visits children before
// parents, a descending sweep visits parents first. Nothing in this package
// or its consumers needs recursion to walk a function body.
package ir
