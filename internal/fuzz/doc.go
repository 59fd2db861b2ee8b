// Package fuzztests houses Go fuzz harnesses for the lamina pipeline
// (source -> lexer -> parser -> sema -> middle -> evm). They smoke test
// robustness: no panics, no hangs and structurally sound ASTs on arbitrary
// input.
//
// Назначение: загружать байты в FileSet и прогонять их через стадии
// компилятора.
//
// Не делает: генерацию корпусов, запись артефактов, выполнение CLI.
package fuzztests
