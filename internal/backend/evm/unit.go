package evm

// Macro is one #define macro.
type Macro struct {
	Name    string
	Takes   int
	Returns int
	Lines   []Line
}

func (m *Macro) Sig() MacroSig { return MacroSig{Takes: m.Takes, Returns: m.Returns} }

// Instrs flattens the body, comments included.
func (m *Macro) Instrs() []Instr {
	var out []Instr
	for _, l := range m.Lines {
		out = append(out, l...)
	}
	return out
}

// Constant is a storage slot definition.
type Constant struct {
	Name  string
	Value string
}

// Signature is an ABI function declaration.
type Signature struct {
	Name       string
	Func       string
	Canonical  string
	Params     []string
	Returns    string
	Mutability string
	Selector   Selector
}

// Unit is a complete generated contract.
type Unit struct {
	Name       string
	Constants  []Constant
	Signatures []Signature
	// Selectors holds the exported functions in dispatch order.
	Selectors SelectorTable
	// Macros are in output order: function macros, dispatcher, MAIN, CONSTRUCTOR.
	Macros []*Macro
}

func (u *Unit) Macro(name string) *Macro {
	for _, m := range u.Macros {
		if m.Name == name {
			return m
		}
	}
	return nil
}
