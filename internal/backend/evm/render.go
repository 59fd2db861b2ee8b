package evm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Render writes the unit as Huff source.
func (u *Unit) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "/* Generated Huff Contract: %s */\n", u.Name)
	fmt.Fprintf(bw, "// SPDX-License-Identifier: MIT\n")

	if len(u.Constants) > 0 {
		fmt.Fprintf(bw, "\n/* Storage Slots */\n")
		for _, c := range u.Constants {
			fmt.Fprintf(bw, "#define constant %s = %s\n", c.Name, c.Value)
		}
	}
	if len(u.Signatures) > 0 {
		fmt.Fprintf(bw, "\n/* Function Signatures */\n")
		for _, s := range u.Signatures {
			fmt.Fprintf(bw, "#define function %s(%s) %s returns (%s)\n",
				s.Name, strings.Join(s.Params, ","), s.Mutability, s.Returns)
		}
	}
	fmt.Fprintf(bw, "\n/* Function Implementations */\n")
	for i, m := range u.Macros {
		if i > 0 {
			bw.WriteString("\n")
		}
		renderMacro(bw, m)
	}
	return bw.Flush()
}

func (u *Unit) String() string {
	var sb strings.Builder
	_ = u.Render(&sb)
	return sb.String()
}

func renderMacro(bw *bufio.Writer, m *Macro) {
	fmt.Fprintf(bw, "#define macro %s() = takes(%d) returns(%d) {\n", m.Name, m.Takes, m.Returns)
	for _, l := range m.Lines {
		// labels sit at column 0
		if len(l) == 1 && l[0].Kind == InstrLabel {
			fmt.Fprintf(bw, "%s\n", l)
			continue
		}
		fmt.Fprintf(bw, "    %s\n", l)
	}
	bw.WriteString("}\n")
}
