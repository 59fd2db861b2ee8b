// Package middle rewrites IR modules in place between analysis and code
// generation. Every pass is a linear sweep over the op arena; because
// operands precede their users, an ascending sweep sees folded operands
// before the ops that consume them.
package middle
