package jvm

import (
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// ClassFile: decompiled class metadata
// ---------------------------------------------------------------------------

// Field is one declared field of a class. Value is the static initial
// value, when the decompiler recorded one.
type Field struct {
	Name   string
	Static bool
	Type   Type
	Value  *Value
}

// ClassFile is the decoded form of one decompiled class: its declared
// fields plus its methods' bytecode, decoded lazily per method.
type ClassFile struct {
	Name   ClassName
	Fields []Field

	methods []classMethod
}

type classMethod struct {
	name     string
	params   []Type
	returns  Type
	bytecode []json.RawMessage
}

// Field returns the declared field with the given name.
func (c *ClassFile) Field(name string) (*Field, bool) {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// MethodOpcodes decodes the instruction list of the method matching id.
func (c *ClassFile) MethodOpcodes(id MethodID) ([]Opcode, error) {
	for i := range c.methods {
		if c.methods[i].matches(id) {
			ops, err := DecodeOpcodes(c.methods[i].bytecode)
			if err != nil {
				return nil, fmt.Errorf("method %s.%s: %w", c.Name, id.Name, err)
			}
			return ops, nil
		}
	}
	return nil, fmt.Errorf("method %s not found in class %s", id, c.Name)
}

func (m *classMethod) matches(id MethodID) bool {
	if m.name != id.Name || len(m.params) != len(id.Params) {
		return false
	}
	for i := range m.params {
		if !TypesEqual(m.params[i], id.Params[i]) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// JSON decoding (jvm2json class files)
// ---------------------------------------------------------------------------

type rawClassFile struct {
	Name    string           `json:"name"`
	Fields  []rawClassField  `json:"fields"`
	Methods []rawClassMethod `json:"methods"`
}

type rawClassField struct {
	Name   string          `json:"name"`
	Static *bool           `json:"static"`
	Access []string        `json:"access"`
	Type   json.RawMessage `json:"type"`
	Value  json.RawMessage `json:"value"`
}

type rawClassMethod struct {
	Name    string            `json:"name"`
	Params  []json.RawMessage `json:"params"`
	Returns json.RawMessage   `json:"returns"`
	Code    struct {
		Bytecode []json.RawMessage `json:"bytecode"`
	} `json:"code"`
}

// DecodeClassFile decodes one decompiled class JSON document.
func DecodeClassFile(data []byte) (*ClassFile, error) {
	var raw rawClassFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed class file: %w", err)
	}

	cf := &ClassFile{Name: ClassName(raw.Name)}

	for _, rf := range raw.Fields {
		t, err := decodeType(rf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", rf.Name, err)
		}
		field := Field{
			Name:   rf.Name,
			Static: isStatic(rf.Static, rf.Access),
			Type:   t,
		}
		if v, ok, err := decodeFieldValue(rf.Value, t); err != nil {
			return nil, fmt.Errorf("field %s: %w", rf.Name, err)
		} else if ok {
			field.Value = &v
		}
		cf.Fields = append(cf.Fields, field)
	}

	for _, rm := range raw.Methods {
		m := classMethod{name: rm.Name, bytecode: rm.Code.Bytecode}
		for _, p := range rm.Params {
			t, err := decodeParamType(p)
			if err != nil {
				return nil, fmt.Errorf("method %s: %w", rm.Name, err)
			}
			m.params = append(m.params, t)
		}
		ret, err := decodeParamType(rm.Returns)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", rm.Name, err)
		}
		m.returns = ret
		cf.methods = append(cf.methods, m)
	}

	return cf, nil
}

func isStatic(flag *bool, access []string) bool {
	if flag != nil {
		return *flag
	}
	for _, a := range access {
		if a == "static" {
			return true
		}
	}
	return false
}

// decodeParamType accepts either a type form directly or a {"type": ...}
// wrapper, both of which appear in decompiler output.
func decodeParamType(msg json.RawMessage) (Type, error) {
	if len(msg) == 0 || string(msg) == "null" {
		return nil, nil
	}
	if t, err := decodeType(msg); err == nil {
		return t, nil
	}
	var wrapped struct {
		Type json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(msg, &wrapped); err != nil {
		return nil, fmt.Errorf("malformed parameter type %s: %w", msg, err)
	}
	return decodeType(wrapped.Type)
}

// decodeFieldValue decodes a static field's recorded initial value, which is
// a bare scalar on the wire. The declared type disambiguates it.
func decodeFieldValue(msg json.RawMessage, t Type) (Value, bool, error) {
	if len(msg) == 0 || string(msg) == "null" {
		return Value{}, false, nil
	}
	switch t.(type) {
	case BooleanType:
		var b bool
		if err := json.Unmarshal(msg, &b); err != nil {
			return Value{}, false, fmt.Errorf("malformed boolean value %s", msg)
		}
		return FromBool(b), true, nil
	case IntType:
		var n int32
		if err := json.Unmarshal(msg, &n); err != nil {
			return Value{}, false, fmt.Errorf("malformed integer value %s", msg)
		}
		return FromInt(n), true, nil
	case CharType:
		var s string
		if err := json.Unmarshal(msg, &s); err == nil && len([]rune(s)) == 1 {
			return FromChar([]rune(s)[0]), true, nil
		}
		var n int32
		if err := json.Unmarshal(msg, &n); err != nil {
			return Value{}, false, fmt.Errorf("malformed char value %s", msg)
		}
		return FromChar(rune(n)), true, nil
	case ShortType:
		var n int16
		if err := json.Unmarshal(msg, &n); err != nil {
			return Value{}, false, fmt.Errorf("malformed short value %s", msg)
		}
		return FromShort(n), true, nil
	}
	// Reference-typed initial values are not modeled; they default to null.
	return Value{}, false, nil
}
