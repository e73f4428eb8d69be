package suite

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/jpamb/interpreter/jvm"
)

// cborEncMode uses canonical options so identical instruction lists encode
// to identical bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("suite: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// wireOp is the flattened cache form of one instruction. Types travel as
// JVM descriptors ("" for absent); which fields are meaningful depends on
// Op.
type wireOp struct {
	Op        string
	Type      string
	Index     int
	Amount    int32
	Words     int
	Condition string
	Target    int
	Static    bool
	Class     string
	Field     *wireField
	Method    *wireMethod
	Value     *wireValue
	From      string
	To        string
	Dim       int
	Binary    string
	Interface bool
}

type wireField struct {
	Class string
	Name  string
	Type  string
}

type wireMethod struct {
	Class   string
	Name    string
	Params  []string
	Returns string
}

type wireValue struct {
	Kind   string
	Scalar int32
}

// MarshalOpcodes serializes an instruction list to CBOR bytes.
func MarshalOpcodes(ops []jvm.Opcode) ([]byte, error) {
	wire := make([]wireOp, 0, len(ops))
	for i, op := range ops {
		w, err := opToWire(op)
		if err != nil {
			return nil, fmt.Errorf("suite: marshal instruction %d: %w", i, err)
		}
		wire = append(wire, w)
	}
	return cborEncMode.Marshal(wire)
}

// UnmarshalOpcodes deserializes an instruction list from CBOR bytes.
func UnmarshalOpcodes(data []byte) ([]jvm.Opcode, error) {
	var wire []wireOp
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("suite: unmarshal opcodes: %w", err)
	}
	ops := make([]jvm.Opcode, 0, len(wire))
	for i, w := range wire {
		op, err := wireToOp(w)
		if err != nil {
			return nil, fmt.Errorf("suite: unmarshal instruction %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func opToWire(op jvm.Opcode) (wireOp, error) {
	switch op := op.(type) {
	case jvm.Push:
		v, err := valueToWire(op.Value)
		if err != nil {
			return wireOp{}, err
		}
		return wireOp{Op: "push", Value: v}, nil
	case jvm.Load:
		return wireOp{Op: "load", Type: desc(op.Type), Index: op.Index}, nil
	case jvm.Store:
		return wireOp{Op: "store", Type: desc(op.Type), Index: op.Index}, nil
	case jvm.Binary:
		return wireOp{Op: "binary", Type: desc(op.Type), Binary: op.Op.String()}, nil
	case jvm.Incr:
		return wireOp{Op: "incr", Index: op.Index, Amount: op.Amount}, nil
	case jvm.Dup:
		return wireOp{Op: "dup", Words: op.Words}, nil
	case jvm.If:
		return wireOp{Op: "if", Condition: string(op.Condition), Target: op.Target}, nil
	case jvm.Ifz:
		return wireOp{Op: "ifz", Condition: string(op.Condition), Target: op.Target}, nil
	case jvm.Goto:
		return wireOp{Op: "goto", Target: op.Target}, nil
	case jvm.Get:
		return wireOp{Op: "get", Static: op.Static, Field: fieldToWire(op.Field)}, nil
	case jvm.Put:
		return wireOp{Op: "put", Static: op.Static, Field: fieldToWire(op.Field)}, nil
	case jvm.New:
		return wireOp{Op: "new", Class: string(op.Class)}, nil
	case jvm.NewArray:
		return wireOp{Op: "newarray", Type: desc(op.Type), Dim: op.Dim}, nil
	case jvm.ArrayLoad:
		return wireOp{Op: "array_load", Type: desc(op.Type)}, nil
	case jvm.ArrayStore:
		return wireOp{Op: "array_store", Type: desc(op.Type)}, nil
	case jvm.ArrayLength:
		return wireOp{Op: "arraylength"}, nil
	case jvm.InvokeStatic:
		return wireOp{Op: "invoke_static", Method: methodToWire(op.Method)}, nil
	case jvm.InvokeSpecial:
		return wireOp{Op: "invoke_special", Method: methodToWire(op.Method), Interface: op.IsInterface}, nil
	case jvm.InvokeVirtual:
		return wireOp{Op: "invoke_virtual", Method: methodToWire(op.Method)}, nil
	case jvm.Return:
		return wireOp{Op: "return", Type: desc(op.Type)}, nil
	case jvm.Cast:
		return wireOp{Op: "cast", From: desc(op.From), To: desc(op.To)}, nil
	}
	return wireOp{}, fmt.Errorf("unsupported opcode %s", op)
}

func wireToOp(w wireOp) (jvm.Opcode, error) {
	switch w.Op {
	case "push":
		v, err := wireToValue(w.Value)
		if err != nil {
			return nil, err
		}
		return jvm.Push{Value: v}, nil
	case "load":
		t, err := parseDesc(w.Type)
		if err != nil {
			return nil, err
		}
		return jvm.Load{Type: t, Index: w.Index}, nil
	case "store":
		t, err := parseDesc(w.Type)
		if err != nil {
			return nil, err
		}
		return jvm.Store{Type: t, Index: w.Index}, nil
	case "binary":
		t, err := parseDesc(w.Type)
		if err != nil {
			return nil, err
		}
		bop, err := jvm.ParseBinaryOp(w.Binary)
		if err != nil {
			return nil, err
		}
		return jvm.Binary{Type: t, Op: bop}, nil
	case "incr":
		return jvm.Incr{Index: w.Index, Amount: w.Amount}, nil
	case "dup":
		return jvm.Dup{Words: w.Words}, nil
	case "if":
		c, err := jvm.ParseCondition(w.Condition)
		if err != nil {
			return nil, err
		}
		return jvm.If{Condition: c, Target: w.Target}, nil
	case "ifz":
		c, err := jvm.ParseCondition(w.Condition)
		if err != nil {
			return nil, err
		}
		return jvm.Ifz{Condition: c, Target: w.Target}, nil
	case "goto":
		return jvm.Goto{Target: w.Target}, nil
	case "get", "put":
		f, err := wireToField(w.Field)
		if err != nil {
			return nil, err
		}
		if w.Op == "get" {
			return jvm.Get{Static: w.Static, Field: f}, nil
		}
		return jvm.Put{Static: w.Static, Field: f}, nil
	case "new":
		return jvm.New{Class: jvm.ClassName(w.Class)}, nil
	case "newarray":
		t, err := parseDesc(w.Type)
		if err != nil {
			return nil, err
		}
		return jvm.NewArray{Type: t, Dim: w.Dim}, nil
	case "array_load":
		t, err := parseDesc(w.Type)
		if err != nil {
			return nil, err
		}
		return jvm.ArrayLoad{Type: t}, nil
	case "array_store":
		t, err := parseDesc(w.Type)
		if err != nil {
			return nil, err
		}
		return jvm.ArrayStore{Type: t}, nil
	case "arraylength":
		return jvm.ArrayLength{}, nil
	case "invoke_static":
		m, err := wireToMethod(w.Method)
		if err != nil {
			return nil, err
		}
		return jvm.InvokeStatic{Method: m}, nil
	case "invoke_special":
		m, err := wireToMethod(w.Method)
		if err != nil {
			return nil, err
		}
		return jvm.InvokeSpecial{Method: m, IsInterface: w.Interface}, nil
	case "invoke_virtual":
		m, err := wireToMethod(w.Method)
		if err != nil {
			return nil, err
		}
		return jvm.InvokeVirtual{Method: m}, nil
	case "return":
		t, err := parseDesc(w.Type)
		if err != nil {
			return nil, err
		}
		return jvm.Return{Type: t}, nil
	case "cast":
		from, err := parseDesc(w.From)
		if err != nil {
			return nil, err
		}
		to, err := parseDesc(w.To)
		if err != nil {
			return nil, err
		}
		return jvm.Cast{From: from, To: to}, nil
	}
	return nil, fmt.Errorf("unsupported wire opcode %q", w.Op)
}

func fieldToWire(f jvm.AbsFieldID) *wireField {
	return &wireField{
		Class: string(f.Class),
		Name:  f.Field.Name,
		Type:  desc(f.Field.Type),
	}
}

func wireToField(w *wireField) (jvm.AbsFieldID, error) {
	if w == nil {
		return jvm.AbsFieldID{}, fmt.Errorf("missing field reference")
	}
	t, err := parseDesc(w.Type)
	if err != nil {
		return jvm.AbsFieldID{}, err
	}
	return jvm.AbsFieldID{
		Class: jvm.ClassName(w.Class),
		Field: jvm.FieldID{Name: w.Name, Type: t},
	}, nil
}

func methodToWire(m jvm.AbsMethodID) *wireMethod {
	params := make([]string, len(m.Method.Params))
	for i, p := range m.Method.Params {
		params[i] = p.Descriptor()
	}
	return &wireMethod{
		Class:   string(m.Class),
		Name:    m.Method.Name,
		Params:  params,
		Returns: desc(m.Method.Returns),
	}
}

func wireToMethod(w *wireMethod) (jvm.AbsMethodID, error) {
	if w == nil {
		return jvm.AbsMethodID{}, fmt.Errorf("missing method reference")
	}
	params := make([]jvm.Type, len(w.Params))
	for i, p := range w.Params {
		t, err := parseDesc(p)
		if err != nil {
			return jvm.AbsMethodID{}, err
		}
		params[i] = t
	}
	returns, err := parseDesc(w.Returns)
	if err != nil {
		return jvm.AbsMethodID{}, err
	}
	return jvm.AbsMethodID{
		Class:  jvm.ClassName(w.Class),
		Method: jvm.MethodID{Name: w.Name, Params: params, Returns: returns},
	}, nil
}

func valueToWire(v jvm.Value) (*wireValue, error) {
	switch v.Kind() {
	case jvm.KindInt:
		return &wireValue{Kind: "int", Scalar: v.Int()}, nil
	case jvm.KindBoolean:
		w := &wireValue{Kind: "boolean"}
		if v.Bool() {
			w.Scalar = 1
		}
		return w, nil
	case jvm.KindChar:
		return &wireValue{Kind: "char", Scalar: int32(v.Char())}, nil
	case jvm.KindShort:
		return &wireValue{Kind: "short", Scalar: int32(v.Short())}, nil
	case jvm.KindRef:
		if v.IsNull() {
			return &wireValue{Kind: "null"}, nil
		}
	}
	return nil, fmt.Errorf("unsupported push constant %s", v)
}

func wireToValue(w *wireValue) (jvm.Value, error) {
	if w == nil {
		return jvm.Value{}, fmt.Errorf("missing push constant")
	}
	switch w.Kind {
	case "int":
		return jvm.FromInt(w.Scalar), nil
	case "boolean":
		return jvm.FromBool(w.Scalar != 0), nil
	case "char":
		return jvm.FromChar(rune(w.Scalar)), nil
	case "short":
		return jvm.FromShort(int16(w.Scalar)), nil
	case "null":
		return jvm.NullRef(), nil
	}
	return jvm.Value{}, fmt.Errorf("unsupported wire constant %q", w.Kind)
}

func desc(t jvm.Type) string {
	if t == nil {
		return ""
	}
	return t.Descriptor()
}

func parseDesc(s string) (jvm.Type, error) {
	if s == "" {
		return nil, nil
	}
	return jvm.ParseType(s)
}
