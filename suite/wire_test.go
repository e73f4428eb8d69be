package suite

import (
	"testing"

	"github.com/jpamb/interpreter/jvm"
)

func TestWireRoundTrip(t *testing.T) {
	method, err := jvm.ParseAbsMethodID("jpamb.cases.Calls.helper:(II)I")
	if err != nil {
		t.Fatal(err)
	}
	field := jvm.AbsFieldID{
		Class: "jpamb/cases/Simple",
		Field: jvm.FieldID{Name: "$assertionsDisabled", Type: jvm.BooleanType{}},
	}

	ops := []jvm.Opcode{
		jvm.Push{Value: jvm.FromInt(-10)},
		jvm.Push{Value: jvm.FromChar('a')},
		jvm.Push{Value: jvm.NullRef()},
		jvm.Load{Type: jvm.ArrayType{Elem: jvm.IntType{}}, Index: 0},
		jvm.Store{Type: jvm.IntType{}, Index: 2},
		jvm.Binary{Type: jvm.IntType{}, Op: jvm.OpRem},
		jvm.Incr{Index: 1, Amount: -3},
		jvm.Dup{Words: 1},
		jvm.If{Condition: jvm.CondGe, Target: 12},
		jvm.Ifz{Condition: jvm.CondNe, Target: 4},
		jvm.Goto{Target: 0},
		jvm.Get{Static: true, Field: field},
		jvm.Put{Field: field},
		jvm.New{Class: "jpamb/cases/Box"},
		jvm.NewArray{Type: jvm.IntType{}, Dim: 1},
		jvm.ArrayLoad{Type: jvm.IntType{}},
		jvm.ArrayStore{Type: jvm.CharType{}},
		jvm.ArrayLength{},
		jvm.InvokeStatic{Method: method},
		jvm.InvokeSpecial{Method: method, IsInterface: true},
		jvm.InvokeVirtual{Method: method},
		jvm.Return{Type: jvm.IntType{}},
		jvm.Return{},
		jvm.Cast{From: jvm.IntType{}, To: jvm.ShortType{}},
	}

	data, err := MarshalOpcodes(ops)
	if err != nil {
		t.Fatalf("MarshalOpcodes: %v", err)
	}
	decoded, err := UnmarshalOpcodes(data)
	if err != nil {
		t.Fatalf("UnmarshalOpcodes: %v", err)
	}

	if len(decoded) != len(ops) {
		t.Fatalf("decoded %d instructions, want %d", len(decoded), len(ops))
	}
	for i := range ops {
		if decoded[i].String() != ops[i].String() {
			t.Errorf("instruction %d: %s, want %s", i, decoded[i], ops[i])
		}
	}
}

func TestWireEncodingIsStable(t *testing.T) {
	ops := []jvm.Opcode{
		jvm.Push{Value: jvm.FromInt(1)},
		jvm.Return{Type: jvm.IntType{}},
	}
	a, err := MarshalOpcodes(ops)
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalOpcodes(ops)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("identical instruction lists encode differently")
	}
}

func TestWireRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalOpcodes([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for malformed bytes")
	}
}

func TestCacheMissAndHit(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	classData := []byte(`{"name": "A"}`)
	ops := []jvm.Opcode{jvm.Return{}}

	if _, ok := c.Load(classData, "m:()V"); ok {
		t.Error("unexpected hit on empty cache")
	}
	if err := c.Store(classData, "m:()V", ops); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, ok := c.Load(classData, "m:()V")
	if !ok || len(got) != 1 {
		t.Fatalf("Load after Store: %v, %v", got, ok)
	}

	// A different method signature or class body is a different entry.
	if _, ok := c.Load(classData, "other:()V"); ok {
		t.Error("hit for different method")
	}
	if _, ok := c.Load([]byte(`{"name": "B"}`), "m:()V"); ok {
		t.Error("hit for different class body")
	}
}
