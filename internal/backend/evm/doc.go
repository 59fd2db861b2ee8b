// Package evm lowers IR modules to Huff assembly for the EVM.
//
// Every exported function becomes a macro with a takes(0) returns(1)
// contract. Parameters and locals live in static memory frames, internal
// calls are inlined, and the dispatcher routes on the 4-byte selector of
// the canonical signature. Each macro is checked by a symbolic stack
// simulator before the unit is handed out, so a Unit either satisfies
// every macro contract or is not produced at all.
package evm
