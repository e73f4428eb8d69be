// Package jvm models the subset of the JVM the interpreter understands:
// types, class/method/field names, values, and decoded opcodes.
package jvm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Type: the JVM type lattice we care about
// ---------------------------------------------------------------------------

// Type is one of the JVM types the interpreter models. The set is closed;
// every implementation lives in this file.
type Type interface {
	// Descriptor returns the JVM descriptor form ("I", "[I", "Lfoo/Bar;").
	Descriptor() string
	String() string

	isType()
}

// IntType is the 32-bit signed integer type.
type IntType struct{}

// BooleanType is the boolean type.
type BooleanType struct{}

// CharType is the 16-bit character type.
type CharType struct{}

// ShortType is the 16-bit signed integer type.
type ShortType struct{}

// RefType is a reference to an instance of a named class.
type RefType struct {
	Class ClassName
}

// ArrayType is an array with a fixed element type.
type ArrayType struct {
	Elem Type
}

func (IntType) isType()     {}
func (BooleanType) isType() {}
func (CharType) isType()    {}
func (ShortType) isType()   {}
func (RefType) isType()     {}
func (ArrayType) isType()   {}

func (IntType) Descriptor() string     { return "I" }
func (BooleanType) Descriptor() string { return "Z" }
func (CharType) Descriptor() string    { return "C" }
func (ShortType) Descriptor() string   { return "S" }

func (t RefType) Descriptor() string   { return "L" + string(t.Class) + ";" }
func (t ArrayType) Descriptor() string { return "[" + t.Elem.Descriptor() }

func (IntType) String() string     { return "int" }
func (BooleanType) String() string { return "boolean" }
func (CharType) String() string    { return "char" }
func (ShortType) String() string   { return "short" }
func (t RefType) String() string   { return string(t.Class) }
func (t ArrayType) String() string { return t.Elem.String() + "[]" }

// TypesEqual reports whether two types are structurally identical.
func TypesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Descriptor() == b.Descriptor()
}

// ParseType parses a single JVM type descriptor.
func ParseType(desc string) (Type, error) {
	t, rest, err := parseTypePrefix(desc)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("trailing characters in type descriptor %q", desc)
	}
	return t, nil
}

// parseTypePrefix parses one type from the front of desc and returns the
// remainder.
func parseTypePrefix(desc string) (Type, string, error) {
	if desc == "" {
		return nil, "", fmt.Errorf("empty type descriptor")
	}
	switch desc[0] {
	case 'I':
		return IntType{}, desc[1:], nil
	case 'Z':
		return BooleanType{}, desc[1:], nil
	case 'C':
		return CharType{}, desc[1:], nil
	case 'S':
		return ShortType{}, desc[1:], nil
	case '[':
		elem, rest, err := parseTypePrefix(desc[1:])
		if err != nil {
			return nil, "", err
		}
		return ArrayType{Elem: elem}, rest, nil
	case 'L':
		end := strings.IndexByte(desc, ';')
		if end < 0 {
			return nil, "", fmt.Errorf("unterminated class descriptor %q", desc)
		}
		return RefType{Class: ClassName(desc[1:end])}, desc[end+1:], nil
	}
	return nil, "", fmt.Errorf("unsupported type descriptor %q", desc)
}

// TypeByName resolves the jvm2json textual form of a type ("int", "boolean",
// "char", "short", "ref").
func TypeByName(name string) (Type, error) {
	switch name {
	case "int", "integer":
		return IntType{}, nil
	case "boolean":
		return BooleanType{}, nil
	case "char":
		return CharType{}, nil
	case "short":
		return ShortType{}, nil
	case "ref":
		return RefType{}, nil
	}
	return nil, fmt.Errorf("unsupported type name %q", name)
}
