package jvm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Names: classes, methods, fields
// ---------------------------------------------------------------------------

// ClassName is a JVM internal class name in slash form,
// e.g. "jpamb/cases/Simple".
type ClassName string

// ClassNameFromDotted converts "jpamb.cases.Simple" to slash form.
func ClassNameFromDotted(s string) ClassName {
	return ClassName(strings.ReplaceAll(s, ".", "/"))
}

// Dotted returns the source-level form, e.g. "jpamb.cases.Simple".
func (c ClassName) Dotted() string {
	return strings.ReplaceAll(string(c), "/", ".")
}

func (c ClassName) String() string { return string(c) }

// AssertionErrorClass is the class whose construction signals a failed
// assertion.
const AssertionErrorClass ClassName = "java/lang/AssertionError"

// ObjectClass is the root class; its no-argument constructor is a no-op.
const ObjectClass ClassName = "java/lang/Object"

// MethodID identifies a method within a class by name and signature.
// Returns is nil for void methods.
type MethodID struct {
	Name    string
	Params  []Type
	Returns Type
}

// Descriptor returns the JVM method descriptor, e.g. "(II)I" or "(I)V".
func (m MethodID) Descriptor() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range m.Params {
		b.WriteString(p.Descriptor())
	}
	b.WriteByte(')')
	if m.Returns == nil {
		b.WriteByte('V')
	} else {
		b.WriteString(m.Returns.Descriptor())
	}
	return b.String()
}

func (m MethodID) String() string {
	return m.Name + ":" + m.Descriptor()
}

// AbsMethodID is a method identifier absolute to its defining class.
type AbsMethodID struct {
	Class  ClassName
	Method MethodID
}

func (m AbsMethodID) String() string {
	return m.Class.Dotted() + "." + m.Method.String()
}

// Key returns a canonical string usable as a map key for this method.
func (m AbsMethodID) Key() string {
	return string(m.Class) + "." + m.Method.String()
}

// IsObjectInit reports whether m is the root-object no-op constructor.
func (m AbsMethodID) IsObjectInit() bool {
	return m.Class == ObjectClass && m.Method.Name == "<init>"
}

// ParseAbsMethodID parses the command-line form of a method identifier,
// e.g. "jpamb.cases.Simple.divideByN:(I)I".
func ParseAbsMethodID(s string) (AbsMethodID, error) {
	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		return AbsMethodID{}, fmt.Errorf("method id %q: missing descriptor", s)
	}
	qualified, desc := s[:colon], s[colon+1:]

	dot := strings.LastIndexByte(qualified, '.')
	if dot <= 0 || dot == len(qualified)-1 {
		return AbsMethodID{}, fmt.Errorf("method id %q: missing class or method name", s)
	}
	class := ClassNameFromDotted(qualified[:dot])
	name := qualified[dot+1:]

	params, returns, err := parseMethodDescriptor(desc)
	if err != nil {
		return AbsMethodID{}, fmt.Errorf("method id %q: %w", s, err)
	}
	return AbsMethodID{
		Class:  class,
		Method: MethodID{Name: name, Params: params, Returns: returns},
	}, nil
}

// parseMethodDescriptor parses "(II)I" style method descriptors. The return
// type is nil for "V".
func parseMethodDescriptor(desc string) ([]Type, Type, error) {
	if len(desc) < 2 || desc[0] != '(' {
		return nil, nil, fmt.Errorf("malformed descriptor %q", desc)
	}
	close := strings.IndexByte(desc, ')')
	if close < 0 {
		return nil, nil, fmt.Errorf("malformed descriptor %q", desc)
	}

	var params []Type
	rest := desc[1:close]
	for rest != "" {
		t, r, err := parseTypePrefix(rest)
		if err != nil {
			return nil, nil, err
		}
		params = append(params, t)
		rest = r
	}

	ret := desc[close+1:]
	if ret == "V" {
		return params, nil, nil
	}
	returns, err := ParseType(ret)
	if err != nil {
		return nil, nil, err
	}
	return params, returns, nil
}

// FieldID identifies a field by name and type.
type FieldID struct {
	Name string
	Type Type
}

// AbsFieldID is a field identifier absolute to its defining class.
type AbsFieldID struct {
	Class ClassName
	Field FieldID
}

func (f AbsFieldID) String() string {
	return string(f.Class) + "." + f.Field.Name
}
