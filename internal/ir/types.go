package ir

// Type is the inferred result type of an operation.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeInt
	TypeBool
	TypeString
	// TypeStorageRef is a slot index passed by reference (extern parameters only).
	TypeStorageRef
	// TypeUnit is the type of effects: storage stores, bindings, one-armed if.
	TypeUnit
)

var typeNames = [...]string{
	TypeUnknown:    "unknown",
	TypeInt:        "int",
	TypeBool:       "bool",
	TypeString:     "string",
	TypeStorageRef: "storage-ref",
	TypeUnit:       "unit",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "type(?)"
}

// Compatible reports whether a value of type have can be used where want is
// expected. Unknown is compatible with everything until inference settles it.
func Compatible(have, want Type) bool {
	return have == want || have == TypeUnknown || want == TypeUnknown
}

// Value is a compile-time constant.
type Value struct {
	Type Type
	Int  int64
	Bool bool
	Str  string
}

func IntValue(v int64) Value    { return Value{Type: TypeInt, Int: v} }
func BoolValue(v bool) Value    { return Value{Type: TypeBool, Bool: v} }
func StringValue(s string) Value { return Value{Type: TypeString, Str: s} }
func UnitValue() Value          { return Value{Type: TypeUnit} }

// Truthy is used by conditionals.
func (v Value) Truthy() bool {
	switch v.Type {
	case TypeBool:
		return v.Bool
	case TypeInt, TypeStorageRef:
		return v.Int != 0
	}
	return false
}

func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeBool:
		return v.Bool == o.Bool
	case TypeString:
		return v.Str == o.Str
	case TypeUnit:
		return true
	}
	return v.Int == o.Int
}
