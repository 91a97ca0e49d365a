package jsdata

import (
	"fmt"
	"strconv"
)

// Kind identifies the type of a literal value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a JavaScript literal.
type Value struct {
	Kind   Kind
	Str    string
	Num    float64
	Bool   bool
	Items  []Value // KindArray
	Fields []Field // KindObject, in source order
	Pos    Pos
}

// Field is one key/value pair of an object literal.
type Field struct {
	Key   string
	Value Value
}

// Pos is a 1-based source position.
type Pos struct {
	Row    int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Column)
}

// Var is one top-level `var NAME = literal;` declaration.
type Var struct {
	Name  string
	Value Value
}

// Script is the ordered set of declarations in one file.
type Script struct {
	Filename string
	Vars     []Var
}

// Lookup returns the value declared for name.
func (s *Script) Lookup(name string) (Value, bool) {
	for _, v := range s.Vars {
		if v.Name == name {
			return v.Value, true
		}
	}
	return Value{}, false
}

// IsNull reports whether v is the null literal.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Int returns v as an int when it is an integral number.
func (v Value) Int() (int, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	n := int(v.Num)
	if float64(n) != v.Num {
		return 0, false
	}
	return n, true
}

// GoString renders v back as JavaScript source; used in error messages.
func (v Value) GoString() string {
	switch v.Kind {
	case KindString:
		return strconv.Quote(v.Str)
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindArray:
		return fmt.Sprintf("[%d items]", len(v.Items))
	case KindObject:
		return fmt.Sprintf("{%d fields}", len(v.Fields))
	default:
		return "null"
	}
}
