package evm

import (
	"errors"
	"fmt"

	"lamina/internal/diag"
	"lamina/internal/ir"
	"lamina/internal/source"
)

const (
	DispatcherMacro  = "DISPATCHER_MACRO"
	MainMacro        = "MAIN"
	ConstructorMacro = "CONSTRUCTOR"

	unknownSelectorLabel = "unknown_selector"
)

type Options struct {
	// Name is the contract name; defaults to the module name.
	Name string
	// Hasher overrides keccak256 for selectors.
	Hasher Hasher
}

// Generate lowers an optimized module into a Huff unit. Only functions
// marked Exported get selectors; everything else is reached by inlining.
func Generate(mod *ir.Module, opts Options) (*Unit, error) {
	name := opts.Name
	if name == "" {
		name = mod.Name
	}
	u := &Unit{Name: ContractName(name)}
	frames := layoutFrames(mod)

	seenConst := make(map[string]string)
	for _, s := range mod.Slots.Entries() {
		cn := ConstantName(s.Name)
		if other, dup := seenConst[cn]; dup {
			return nil, diag.Codegen(diag.GenSelectorCollision, s.Span,
				"storage %q and %q both map to constant %s", other, s.Name, cn)
		}
		seenConst[cn] = s.Name
		u.Constants = append(u.Constants, Constant{Name: cn, Value: fmt.Sprintf("0x%064x", s.Index)})
	}

	var (
		exports []*ir.Func
		fnMacro = make(map[string]string)
	)
	for _, f := range mod.Funcs {
		if !f.Exported {
			continue
		}
		sig, err := signatureOf(mod, f, opts.Hasher)
		if err != nil {
			return nil, err
		}
		if prev, ok := u.Selectors.Add(SelectorEntry{Signature: sig.Canonical, Func: f.Name, Selector: sig.Selector}); !ok {
			return nil, diag.Codegen(diag.GenSelectorCollision, f.Span,
				"selector %s of %s collides with %s (%s)", sig.Selector.Hex(), sig.Canonical, prev.Signature, prev.Func)
		}
		mn := MacroName(f.Name)
		if other, dup := fnMacro[mn]; dup {
			return nil, diag.Codegen(diag.GenSelectorCollision, f.Span,
				"functions %q and %q both map to macro %s", other, f.Name, mn)
		}
		fnMacro[mn] = f.Name
		u.Signatures = append(u.Signatures, sig)
		exports = append(exports, f)
	}

	for _, f := range exports {
		m, err := functionMacro(mod, frames, f)
		if err != nil {
			return nil, err
		}
		u.Macros = append(u.Macros, m)
	}
	u.Macros = append(u.Macros, dispatcher(&u.Selectors), mainMacro())
	ctor, err := constructor(mod, frames)
	if err != nil {
		return nil, err
	}
	u.Macros = append(u.Macros, ctor)

	if err := verify(u); err != nil {
		return nil, err
	}
	return u, nil
}

func signatureOf(mod *ir.Module, f *ir.Func, h Hasher) (Signature, error) {
	abi := ABIName(f.Name)
	if abi == "" {
		return Signature{}, diag.Unsupported(f.Span, "function %q has no ABI-compatible name", f.Name)
	}
	params := make([]ir.Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = mod.Local(p).Type
	}
	canon, err := CanonicalSignature(abi, params)
	if err != nil {
		return Signature{}, diag.Unsupported(f.Span, "%v", err)
	}
	sig := Signature{Name: abi, Func: f.Name, Canonical: canon, Returns: "uint256", Mutability: "view", Selector: ComputeSelector(h, canon)}
	for _, t := range params {
		s, _ := abiType(t)
		sig.Params = append(sig.Params, s)
	}
	if f.Result == ir.TypeBool {
		sig.Returns = "bool"
	} else if f.Result == ir.TypeString {
		return Signature{}, diag.Unsupported(f.Span, "function %q returns a string", f.Name)
	}
	if f.Mutates {
		sig.Mutability = "nonpayable"
	}
	return sig, nil
}

func functionMacro(mod *ir.Module, frames *frameLayout, f *ir.Func) (*Macro, error) {
	e := newEmitter(mod, frames)
	for i, p := range f.Params {
		off, ok := frames.offset(p)
		if !ok {
			return nil, diag.Codegen(diag.GenUnsupported, f.Span, "parameter %d of %q has no frame slot", i, f.Name)
		}
		e.emit(PushUint(uint64(calldataArgs+wordSize*i)), Op("calldataload"), PushUint(off), Op("mstore"))
	}
	if err := e.lowerFunc(f); err != nil {
		return nil, err
	}
	if cells(f.Result) == 0 {
		e.emit(Push("0x00"))
	}
	return &Macro{Name: MacroName(f.Name), Takes: 0, Returns: 1, Lines: e.lines}, nil
}

// dispatcher compares the selector against every table entry in
// registration order.
func dispatcher(table *SelectorTable) *Macro {
	m := &Macro{Name: DispatcherMacro, Takes: 1, Returns: 0}
	add := func(in ...Instr) { m.Lines = append(m.Lines, Line(in)) }
	entries := table.Entries()
	for _, e := range entries {
		add(Op("dup1"), Push(e.Selector.Hex()), Op("eq"), LabelRef(dispatchLabel(e.Func)), Op("jumpi"))
	}
	add(LabelRef(unknownSelectorLabel), Op("jump"))
	for _, e := range entries {
		add(Label(dispatchLabel(e.Func)))
		add(Op("pop"), Invoke(MacroName(e.Func)), Push("0x00"), Op("mstore"), Push("0x20"), Push("0x00"), Op("return"))
	}
	add(Label(unknownSelectorLabel))
	add(Push("0x00"), Push("0x00"), Op("revert"))
	return m
}

func mainMacro() *Macro {
	return &Macro{Name: MainMacro, Takes: 0, Returns: 0, Lines: []Line{
		{Comment("Parse function selector from calldata")},
		{Push("0x00"), Op("calldataload")},
		{Push("0xe0"), Op("shr")},
		{Invoke(DispatcherMacro)},
	}}
}

func constructor(mod *ir.Module, frames *frameLayout) (*Macro, error) {
	e := newEmitter(mod, frames)
	for _, s := range mod.Slots.Entries() {
		if s.Init == 0 {
			continue
		}
		e.emit(PushInt(s.Init), Const(ConstantName(s.Name)), Op("sstore"))
	}
	for _, f := range mod.Funcs {
		if !f.Init {
			continue
		}
		if err := e.lowerFunc(f); err != nil {
			return nil, err
		}
		if cells(f.Result) == 1 {
			e.emit(Op("pop"))
		}
	}
	if len(e.lines) == 0 {
		e.emit(Comment("Default empty constructor"))
	}
	return &Macro{Name: ConstructorMacro, Takes: 0, Returns: 0, Lines: e.lines}, nil
}

// verify runs the stack simulator over every macro of u.
func verify(u *Unit) error {
	sigs := make(map[string]MacroSig, len(u.Macros))
	for _, m := range u.Macros {
		sigs[m.Name] = m.Sig()
	}
	var errs []error
	for _, m := range u.Macros {
		if err := Simulate(m, sigs); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return diag.Codegen(diag.GenStackImbalance, source.Span{}, "stack check failed: %v", errors.Join(errs...))
	}
	return nil
}
