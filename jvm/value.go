package jvm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Value: tagged runtime datum
// ---------------------------------------------------------------------------

// Kind discriminates the payload of a Value.
type Kind uint8

const (
	KindInt Kind = iota
	KindBoolean
	KindChar
	KindShort
	KindRef
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBoolean:
		return "boolean"
	case KindChar:
		return "char"
	case KindShort:
		return "short"
	case KindRef:
		return "ref"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// nullKey marks a null reference; real heap keys start at 0.
const nullKey = -1

// Value is a tagged runtime value. Scalars carry their payload inline;
// references carry a heap key (or the null marker); arrays and objects are
// heap-resident payloads.
//
// Values are compared by (kind, payload) equality via Equal. The zero Value
// is Int 0.
type Value struct {
	kind Kind

	scalar int32 // int, short, char code point, boolean 0/1
	ref    int   // heap key for KindRef

	elem  Type    // element type for KindArray
	elems []Value // payload for KindArray

	class  ClassName        // class tag for KindObject
	fields map[string]Value // payload for KindObject
}

// FromInt creates an Int value.
func FromInt(n int32) Value {
	return Value{kind: KindInt, scalar: n}
}

// FromBool creates a Boolean value.
func FromBool(b bool) Value {
	v := Value{kind: KindBoolean}
	if b {
		v.scalar = 1
	}
	return v
}

// FromChar creates a Char value.
func FromChar(r rune) Value {
	return Value{kind: KindChar, scalar: int32(r)}
}

// FromShort creates a Short value.
func FromShort(n int16) Value {
	return Value{kind: KindShort, scalar: int32(n)}
}

// RefTo creates a Reference to the given heap key.
func RefTo(key int) Value {
	return Value{kind: KindRef, ref: key}
}

// NullRef creates the null Reference.
func NullRef() Value {
	return Value{kind: KindRef, ref: nullKey}
}

// ArrayOf creates an Array value with the given element type and elements.
func ArrayOf(elem Type, elems []Value) Value {
	return Value{kind: KindArray, elem: elem, elems: elems}
}

// ObjectOf creates an Object value with the given class tag and fields.
func ObjectOf(class ClassName, fields map[string]Value) Value {
	if fields == nil {
		fields = make(map[string]Value)
	}
	return Value{kind: KindObject, class: class, fields: fields}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// Int returns the payload of an Int value.
// Panics if v is not an Int.
func (v Value) Int() int32 {
	if v.kind != KindInt {
		panic("Value.Int: not an int")
	}
	return v.scalar
}

// Bool returns the payload of a Boolean value.
// Panics if v is not a Boolean.
func (v Value) Bool() bool {
	if v.kind != KindBoolean {
		panic("Value.Bool: not a boolean")
	}
	return v.scalar != 0
}

// Char returns the payload of a Char value.
// Panics if v is not a Char.
func (v Value) Char() rune {
	if v.kind != KindChar {
		panic("Value.Char: not a char")
	}
	return rune(v.scalar)
}

// Short returns the payload of a Short value.
// Panics if v is not a Short.
func (v Value) Short() int16 {
	if v.kind != KindShort {
		panic("Value.Short: not a short")
	}
	return int16(v.scalar)
}

// RefKey returns the heap key of a Reference value.
// Panics if v is not a Reference or is null.
func (v Value) RefKey() int {
	if v.kind != KindRef {
		panic("Value.RefKey: not a reference")
	}
	if v.ref == nullKey {
		panic("Value.RefKey: null reference")
	}
	return v.ref
}

// IsNull reports whether v is the null Reference.
func (v Value) IsNull() bool {
	return v.kind == KindRef && v.ref == nullKey
}

// Elems returns the element slice of an Array value.
// Panics if v is not an Array.
func (v Value) Elems() []Value {
	if v.kind != KindArray {
		panic("Value.Elems: not an array")
	}
	return v.elems
}

// ElemType returns the element type of an Array value.
// Panics if v is not an Array.
func (v Value) ElemType() Type {
	if v.kind != KindArray {
		panic("Value.ElemType: not an array")
	}
	return v.elem
}

// Class returns the class tag of an Object value.
// Panics if v is not an Object.
func (v Value) Class() ClassName {
	if v.kind != KindObject {
		panic("Value.Class: not an object")
	}
	return v.class
}

// Field returns the named field of an Object value.
// Panics if v is not an Object.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		panic("Value.Field: not an object")
	}
	f, ok := v.fields[name]
	return f, ok
}

// SetField writes the named field of an Object value. Object fields are
// mutated in place: every Value sharing this object's heap entry observes
// the write.
// Panics if v is not an Object.
func (v Value) SetField(name string, val Value) {
	if v.kind != KindObject {
		panic("Value.SetField: not an object")
	}
	v.fields[name] = val
}

// FieldNames returns the field names of an Object value, unordered.
func (v Value) FieldNames() []string {
	if v.kind != KindObject {
		panic("Value.FieldNames: not an object")
	}
	names := make([]string, 0, len(v.fields))
	for name := range v.fields {
		names = append(names, name)
	}
	return names
}

// AsInt returns the numeric view of a scalar value: ints and shorts
// themselves, chars as their code point, booleans as 0/1.
func (v Value) AsInt() (int32, bool) {
	switch v.kind {
	case KindInt, KindBoolean, KindChar, KindShort:
		return v.scalar, true
	}
	return 0, false
}

// Equal compares values by (kind, payload). Arrays compare elementwise;
// objects compare by class and fields.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt, KindBoolean, KindChar, KindShort:
		return v.scalar == o.scalar
	case KindRef:
		return v.ref == o.ref
	case KindArray:
		if !TypesEqual(v.elem, o.elem) || len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.class != o.class || len(v.fields) != len(o.fields) {
			return false
		}
		for name, f := range v.fields {
			of, ok := o.fields[name]
			if !ok || !f.Equal(of) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", v.scalar)
	case KindBoolean:
		if v.scalar != 0 {
			return "true"
		}
		return "false"
	case KindChar:
		return fmt.Sprintf("'%c'", rune(v.scalar))
	case KindShort:
		return fmt.Sprintf("%ds", v.scalar)
	case KindRef:
		if v.ref == nullKey {
			return "null"
		}
		return fmt.Sprintf("ref(%d)", v.ref)
	case KindArray:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		return fmt.Sprintf("object(%s)", v.class)
	}
	return "?"
}

// DefaultValue returns the default-initialized value for a declared type:
// zero for numeric types, false for booleans, null for references and
// arrays.
func DefaultValue(t Type) Value {
	switch t.(type) {
	case IntType:
		return FromInt(0)
	case BooleanType:
		return FromBool(false)
	case CharType:
		return FromChar(0)
	case ShortType:
		return FromShort(0)
	}
	return NullRef()
}
