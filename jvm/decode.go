package jvm

import (
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// Decoding of jvm2json bytecode
// ---------------------------------------------------------------------------

// rawOp is the union of fields an instruction object can carry on the wire.
// Which fields are meaningful depends on "opr".
type rawOp struct {
	Opr       string          `json:"opr"`
	Value     json.RawMessage `json:"value"`
	Type      json.RawMessage `json:"type"`
	Index     *int            `json:"index"`
	Amount    *int32          `json:"amount"`
	Words     int             `json:"words"`
	Condition string          `json:"condition"`
	Target    *int            `json:"target"`
	Static    *bool           `json:"static"`
	Field     json.RawMessage `json:"field"`
	Class     json.RawMessage `json:"class"`
	Dim       int             `json:"dim"`
	Access    string          `json:"access"`
	Method    json.RawMessage `json:"method"`
	From      json.RawMessage `json:"from"`
	To        json.RawMessage `json:"to"`
	Operant   string          `json:"operant"`
}

// DecodeOpcodes decodes a method's "bytecode" array into instruction
// variants. The offset of each instruction is its position in the slice.
func DecodeOpcodes(raw []json.RawMessage) ([]Opcode, error) {
	ops := make([]Opcode, 0, len(raw))
	for i, msg := range raw {
		op, err := decodeOpcode(msg)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func decodeOpcode(msg json.RawMessage) (Opcode, error) {
	var r rawOp
	if err := json.Unmarshal(msg, &r); err != nil {
		return nil, fmt.Errorf("malformed instruction: %w", err)
	}

	switch r.Opr {
	case "push":
		v, err := decodeConstant(r.Value)
		if err != nil {
			return nil, err
		}
		return Push{Value: v}, nil

	case "load":
		t, err := decodeType(r.Type)
		if err != nil {
			return nil, err
		}
		return Load{Type: t, Index: intField(r.Index)}, nil

	case "store":
		t, err := decodeType(r.Type)
		if err != nil {
			return nil, err
		}
		return Store{Type: t, Index: intField(r.Index)}, nil

	case "binary":
		t, err := decodeType(r.Type)
		if err != nil {
			return nil, err
		}
		op, err := ParseBinaryOp(r.Operant)
		if err != nil {
			return nil, err
		}
		return Binary{Type: t, Op: op}, nil

	case "incr":
		var amount int32 = 0
		if r.Amount != nil {
			amount = *r.Amount
		}
		return Incr{Index: intField(r.Index), Amount: amount}, nil

	case "dup":
		words := r.Words
		if words == 0 {
			words = 1
		}
		return Dup{Words: words}, nil

	case "if":
		c, err := ParseCondition(r.Condition)
		if err != nil {
			return nil, err
		}
		return If{Condition: c, Target: intField(r.Target)}, nil

	case "ifz":
		c, err := ParseCondition(r.Condition)
		if err != nil {
			return nil, err
		}
		return Ifz{Condition: c, Target: intField(r.Target)}, nil

	case "goto":
		return Goto{Target: intField(r.Target)}, nil

	case "get", "put":
		field, err := decodeField(r.Field)
		if err != nil {
			return nil, err
		}
		static := r.Static != nil && *r.Static
		if r.Opr == "get" {
			return Get{Static: static, Field: field}, nil
		}
		return Put{Static: static, Field: field}, nil

	case "new":
		class, err := decodeClassName(r.Class)
		if err != nil {
			return nil, err
		}
		return New{Class: class}, nil

	case "newarray":
		t, err := decodeType(r.Type)
		if err != nil {
			return nil, err
		}
		dim := r.Dim
		if dim == 0 {
			dim = 1
		}
		return NewArray{Type: t, Dim: dim}, nil

	case "array_load":
		t, err := decodeType(r.Type)
		if err != nil {
			return nil, err
		}
		return ArrayLoad{Type: t}, nil

	case "array_store":
		t, err := decodeType(r.Type)
		if err != nil {
			return nil, err
		}
		return ArrayStore{Type: t}, nil

	case "arraylength":
		return ArrayLength{}, nil

	case "invoke":
		method, isInterface, err := decodeMethodRef(r.Method)
		if err != nil {
			return nil, err
		}
		switch r.Access {
		case "static":
			return InvokeStatic{Method: method}, nil
		case "special":
			return InvokeSpecial{Method: method, IsInterface: isInterface}, nil
		case "virtual", "interface":
			return InvokeVirtual{Method: method}, nil
		}
		return nil, fmt.Errorf("unsupported invoke access %q", r.Access)

	case "return":
		t, err := decodeType(r.Type)
		if err != nil {
			return nil, err
		}
		return Return{Type: t}, nil

	case "cast":
		from, err := decodeType(r.From)
		if err != nil {
			return nil, err
		}
		to, err := decodeType(r.To)
		if err != nil {
			return nil, err
		}
		return Cast{From: from, To: to}, nil
	}

	return nil, fmt.Errorf("unsupported instruction %q", r.Opr)
}

// decodeType decodes the wire form of a type: null, a bare name ("int"), or
// a structured object ({"kind":"array","type":...}, {"kind":"class",
// "name":...}, {"base":"int"}).
func decodeType(msg json.RawMessage) (Type, error) {
	if len(msg) == 0 || string(msg) == "null" {
		return nil, nil
	}

	var name string
	if err := json.Unmarshal(msg, &name); err == nil {
		return TypeByName(name)
	}

	var obj struct {
		Kind string          `json:"kind"`
		Name string          `json:"name"`
		Base string          `json:"base"`
		Type json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(msg, &obj); err != nil {
		return nil, fmt.Errorf("malformed type %s: %w", msg, err)
	}

	switch {
	case obj.Kind == "array":
		elem, err := decodeType(obj.Type)
		if err != nil {
			return nil, err
		}
		return ArrayType{Elem: elem}, nil
	case obj.Kind == "class":
		return RefType{Class: ClassName(obj.Name)}, nil
	case obj.Base != "":
		return TypeByName(obj.Base)
	}
	return nil, fmt.Errorf("unsupported type form %s", msg)
}

// decodeConstant decodes a push literal: null, or {"type":..., "value":...}.
func decodeConstant(msg json.RawMessage) (Value, error) {
	if len(msg) == 0 || string(msg) == "null" {
		return NullRef(), nil
	}

	var c struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(msg, &c); err != nil {
		return Value{}, fmt.Errorf("malformed constant %s: %w", msg, err)
	}

	switch c.Type {
	case "integer", "int":
		var n int32
		if err := json.Unmarshal(c.Value, &n); err != nil {
			return Value{}, fmt.Errorf("malformed integer constant %s: %w", c.Value, err)
		}
		return FromInt(n), nil
	case "boolean":
		var b bool
		if err := json.Unmarshal(c.Value, &b); err != nil {
			return Value{}, fmt.Errorf("malformed boolean constant %s: %w", c.Value, err)
		}
		return FromBool(b), nil
	case "char":
		var s string
		if err := json.Unmarshal(c.Value, &s); err != nil || len([]rune(s)) != 1 {
			return Value{}, fmt.Errorf("malformed char constant %s", c.Value)
		}
		return FromChar([]rune(s)[0]), nil
	case "short":
		var n int16
		if err := json.Unmarshal(c.Value, &n); err != nil {
			return Value{}, fmt.Errorf("malformed short constant %s: %w", c.Value, err)
		}
		return FromShort(n), nil
	}
	return Value{}, fmt.Errorf("unsupported constant type %q", c.Type)
}

// decodeClassName accepts either a bare string or {"kind":"class","name":...}.
func decodeClassName(msg json.RawMessage) (ClassName, error) {
	var name string
	if err := json.Unmarshal(msg, &name); err == nil {
		return ClassName(name), nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(msg, &obj); err != nil || obj.Name == "" {
		return "", fmt.Errorf("malformed class name %s", msg)
	}
	return ClassName(obj.Name), nil
}

// decodeField decodes a field reference: {"class":..., "name":..., "type":...}.
func decodeField(msg json.RawMessage) (AbsFieldID, error) {
	var f struct {
		Class json.RawMessage `json:"class"`
		Name  string          `json:"name"`
		Type  json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(msg, &f); err != nil {
		return AbsFieldID{}, fmt.Errorf("malformed field reference %s: %w", msg, err)
	}
	class, err := decodeClassName(f.Class)
	if err != nil {
		return AbsFieldID{}, err
	}
	t, err := decodeType(f.Type)
	if err != nil {
		return AbsFieldID{}, err
	}
	return AbsFieldID{
		Class: class,
		Field: FieldID{Name: f.Name, Type: t},
	}, nil
}

// decodeMethodRef decodes an invoke target:
// {"ref": {...class...}, "name":..., "args": [...], "returns":...,
// "is_interface": bool}.
func decodeMethodRef(msg json.RawMessage) (AbsMethodID, bool, error) {
	var m struct {
		Ref         json.RawMessage   `json:"ref"`
		Name        string            `json:"name"`
		Args        []json.RawMessage `json:"args"`
		Returns     json.RawMessage   `json:"returns"`
		IsInterface bool              `json:"is_interface"`
	}
	if err := json.Unmarshal(msg, &m); err != nil {
		return AbsMethodID{}, false, fmt.Errorf("malformed method reference %s: %w", msg, err)
	}

	class, err := decodeClassName(m.Ref)
	if err != nil {
		return AbsMethodID{}, false, err
	}

	params := make([]Type, 0, len(m.Args))
	for _, arg := range m.Args {
		t, err := decodeType(arg)
		if err != nil {
			return AbsMethodID{}, false, err
		}
		params = append(params, t)
	}

	returns, err := decodeType(m.Returns)
	if err != nil {
		return AbsMethodID{}, false, err
	}

	return AbsMethodID{
		Class:  class,
		Method: MethodID{Name: m.Name, Params: params, Returns: returns},
	}, m.IsInterface, nil
}

func intField(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
