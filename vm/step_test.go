package vm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jpamb/interpreter/jvm"
)

// fakeLoader serves hand-built instruction lists and class metadata.
type fakeLoader struct {
	classes map[jvm.ClassName]*jvm.ClassFile
	methods map[string][]jvm.Opcode
	loads   int
}

func (l *fakeLoader) MethodOpcodes(m jvm.AbsMethodID) ([]jvm.Opcode, error) {
	l.loads++
	ops, ok := l.methods[m.Key()]
	if !ok {
		return nil, fmt.Errorf("no method %s", m)
	}
	return ops, nil
}

func (l *fakeLoader) FindClass(c jvm.ClassName) (*jvm.ClassFile, error) {
	cf, ok := l.classes[c]
	if !ok {
		return nil, fmt.Errorf("no class %s", c)
	}
	return cf, nil
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		classes: make(map[jvm.ClassName]*jvm.ClassFile),
		methods: make(map[string][]jvm.Opcode),
	}
}

func (l *fakeLoader) define(t *testing.T, id string, ops ...jvm.Opcode) jvm.AbsMethodID {
	t.Helper()
	m := mustMethod(t, id)
	l.methods[m.Key()] = ops
	return m
}

func mustMethod(t *testing.T, id string) jvm.AbsMethodID {
	t.Helper()
	m, err := jvm.ParseAbsMethodID(id)
	if err != nil {
		t.Fatalf("bad method id %q: %v", id, err)
	}
	return m
}

func mustInputs(t *testing.T, s string) []jvm.Value {
	t.Helper()
	inputs, err := jvm.ParseInputs(s)
	if err != nil {
		t.Fatalf("bad inputs %q: %v", s, err)
	}
	return inputs
}

func runCase(t *testing.T, l *fakeLoader, method jvm.AbsMethodID, inputs string, opts ...Option) *Result {
	t.Helper()
	res, err := New(l, opts...).Run(method, mustInputs(t, inputs))
	if err != nil {
		t.Fatalf("Run(%s, %s): %v", method, inputs, err)
	}
	return res
}

func wantInt(t *testing.T, res *Result, n int32) {
	t.Helper()
	if res.Outcome != OutcomeOk {
		t.Fatalf("outcome = %s, want ok", res.Outcome)
	}
	if res.Value == nil {
		t.Fatal("no returned value")
	}
	got, ok := res.Value.AsInt()
	if !ok || got != n {
		t.Fatalf("returned %s, want %d", res.Value, n)
	}
}

func TestDivide(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Simple.divideByN:(I)I",
		jvm.Push{Value: jvm.FromInt(10)},
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.Binary{Type: jvm.IntType{}, Op: jvm.OpDiv},
		jvm.Return{Type: jvm.IntType{}},
	)

	if res := runCase(t, l, m, "(0)"); res.Outcome != OutcomeDivideByZero {
		t.Errorf("(0): outcome = %s, want divide by zero", res.Outcome)
	}
	wantInt(t, runCase(t, l, m, "(2)"), 5)
	wantInt(t, runCase(t, l, m, "(-3)"), -3)
}

func TestDivisionTruncatesTowardZero(t *testing.T) {
	l := newFakeLoader()
	div := l.define(t, "jpamb.cases.Arith.div:(II)I",
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.Load{Type: jvm.IntType{}, Index: 1},
		jvm.Binary{Type: jvm.IntType{}, Op: jvm.OpDiv},
		jvm.Return{Type: jvm.IntType{}},
	)
	rem := l.define(t, "jpamb.cases.Arith.rem:(II)I",
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.Load{Type: jvm.IntType{}, Index: 1},
		jvm.Binary{Type: jvm.IntType{}, Op: jvm.OpRem},
		jvm.Return{Type: jvm.IntType{}},
	)

	wantInt(t, runCase(t, l, div, "(-7, 2)"), -3)
	wantInt(t, runCase(t, l, rem, "(-7, 2)"), -1)
	if res := runCase(t, l, rem, "(5, 0)"); res.Outcome != OutcomeDivideByZero {
		t.Errorf("rem by zero: outcome = %s", res.Outcome)
	}
}

func TestAssertionError(t *testing.T) {
	l := newFakeLoader()
	l.classes["jpamb/cases/Simple"] = &jvm.ClassFile{
		Name: "jpamb/cases/Simple",
		Fields: []jvm.Field{
			{Name: "$assertionsDisabled", Static: true, Type: jvm.BooleanType{}},
		},
	}
	field := jvm.AbsFieldID{
		Class: "jpamb/cases/Simple",
		Field: jvm.FieldID{Name: "$assertionsDisabled", Type: jvm.BooleanType{}},
	}
	m := l.define(t, "jpamb.cases.Simple.assertPositive:(I)V",
		jvm.Get{Static: true, Field: field},
		jvm.Ifz{Condition: jvm.CondNe, Target: 5},
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.Ifz{Condition: jvm.CondGt, Target: 5},
		jvm.New{Class: jvm.AssertionErrorClass},
		jvm.Return{},
	)

	if res := runCase(t, l, m, "(1)"); res.Outcome != OutcomeOk {
		t.Errorf("(1): outcome = %s, want ok", res.Outcome)
	}
	if res := runCase(t, l, m, "(-1)"); res.Outcome != OutcomeAssertionError {
		t.Errorf("(-1): outcome = %s, want assertion error", res.Outcome)
	}
}

func TestArrayAccess(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Arrays.get:([II)I",
		jvm.Load{Type: jvm.ArrayType{Elem: jvm.IntType{}}, Index: 0},
		jvm.Load{Type: jvm.IntType{}, Index: 1},
		jvm.ArrayLoad{Type: jvm.IntType{}},
		jvm.Return{Type: jvm.IntType{}},
	)

	wantInt(t, runCase(t, l, m, "([I:4,5,6], 1)"), 5)
	if res := runCase(t, l, m, "([I:4,5,6], 3)"); res.Outcome != OutcomeOutOfBounds {
		t.Errorf("index 3: outcome = %s, want out of bounds", res.Outcome)
	}
	if res := runCase(t, l, m, "([I:4,5,6], -1)"); res.Outcome != OutcomeOutOfBounds {
		t.Errorf("index -1: outcome = %s, want out of bounds", res.Outcome)
	}
	if res := runCase(t, l, m, "([I:], 0)"); res.Outcome != OutcomeOutOfBounds {
		t.Errorf("empty array: outcome = %s, want out of bounds", res.Outcome)
	}
}

func TestNullArrayAccess(t *testing.T) {
	l := newFakeLoader()
	load := l.define(t, "jpamb.cases.Arrays.nullLoad:()I",
		jvm.Push{Value: jvm.NullRef()},
		jvm.Push{Value: jvm.FromInt(0)},
		jvm.ArrayLoad{Type: jvm.IntType{}},
		jvm.Return{Type: jvm.IntType{}},
	)
	length := l.define(t, "jpamb.cases.Arrays.nullLength:()I",
		jvm.Push{Value: jvm.NullRef()},
		jvm.ArrayLength{},
		jvm.Return{Type: jvm.IntType{}},
	)

	if res := runCase(t, l, load, "()"); res.Outcome != OutcomeNullPointer {
		t.Errorf("null load: outcome = %s, want null pointer", res.Outcome)
	}
	if res := runCase(t, l, length, "()"); res.Outcome != OutcomeNullPointer {
		t.Errorf("null length: outcome = %s, want null pointer", res.Outcome)
	}
}

// A store through one copy of an array reference must be visible through
// another copy: the reference is a heap key, not the payload.
func TestArrayStoreVisibleThroughAlias(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Arrays.storeLoad:()I",
		jvm.Push{Value: jvm.FromInt(2)},
		jvm.NewArray{Type: jvm.IntType{}, Dim: 1},
		jvm.Dup{Words: 1},
		jvm.Dup{Words: 1},
		jvm.Push{Value: jvm.FromInt(0)},
		jvm.Push{Value: jvm.FromInt(42)},
		jvm.ArrayStore{Type: jvm.IntType{}},
		jvm.Push{Value: jvm.FromInt(0)},
		jvm.ArrayLoad{Type: jvm.IntType{}},
		jvm.Return{Type: jvm.IntType{}},
	)

	wantInt(t, runCase(t, l, m, "()"), 42)
}

func TestNegativeArraySizeClampsToEmpty(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Arrays.negSize:()I",
		jvm.Push{Value: jvm.FromInt(-4)},
		jvm.NewArray{Type: jvm.IntType{}, Dim: 1},
		jvm.ArrayLength{},
		jvm.Return{Type: jvm.IntType{}},
	)

	wantInt(t, runCase(t, l, m, "()"), 0)
}

func TestObjectFieldWriteVisibleThroughAlias(t *testing.T) {
	l := newFakeLoader()
	l.classes["jpamb/cases/Box"] = &jvm.ClassFile{
		Name:   "jpamb/cases/Box",
		Fields: []jvm.Field{{Name: "x", Type: jvm.IntType{}}},
	}
	field := jvm.AbsFieldID{
		Class: "jpamb/cases/Box",
		Field: jvm.FieldID{Name: "x", Type: jvm.IntType{}},
	}
	m := l.define(t, "jpamb.cases.Box.roundTrip:()I",
		jvm.New{Class: "jpamb/cases/Box"},
		jvm.Dup{Words: 1},
		jvm.Dup{Words: 1},
		jvm.Push{Value: jvm.FromInt(7)},
		jvm.Put{Field: field},
		jvm.Get{Field: field},
		jvm.Return{Type: jvm.IntType{}},
	)

	wantInt(t, runCase(t, l, m, "()"), 7)
}

func TestFieldAccessOnNull(t *testing.T) {
	l := newFakeLoader()
	field := jvm.AbsFieldID{
		Class: "jpamb/cases/Box",
		Field: jvm.FieldID{Name: "x", Type: jvm.IntType{}},
	}
	get := l.define(t, "jpamb.cases.Box.nullGet:()I",
		jvm.Push{Value: jvm.NullRef()},
		jvm.Get{Field: field},
		jvm.Return{Type: jvm.IntType{}},
	)
	put := l.define(t, "jpamb.cases.Box.nullPut:()V",
		jvm.Push{Value: jvm.NullRef()},
		jvm.Push{Value: jvm.FromInt(1)},
		jvm.Put{Field: field},
		jvm.Return{},
	)

	if res := runCase(t, l, get, "()"); res.Outcome != OutcomeNullPointer {
		t.Errorf("null get: outcome = %s, want null pointer", res.Outcome)
	}
	if res := runCase(t, l, put, "()"); res.Outcome != OutcomeNullPointer {
		t.Errorf("null put: outcome = %s, want null pointer", res.Outcome)
	}
}

func TestInvokeStatic(t *testing.T) {
	l := newFakeLoader()
	helper := l.define(t, "jpamb.cases.Calls.sub:(II)I",
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.Load{Type: jvm.IntType{}, Index: 1},
		jvm.Binary{Type: jvm.IntType{}, Op: jvm.OpSub},
		jvm.Return{Type: jvm.IntType{}},
	)
	m := l.define(t, "jpamb.cases.Calls.caller:(II)I",
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.Load{Type: jvm.IntType{}, Index: 1},
		jvm.InvokeStatic{Method: helper},
		jvm.Return{Type: jvm.IntType{}},
	)

	// 10 - 4: arguments bind to callee locals in call order.
	wantInt(t, runCase(t, l, m, "(10, 4)"), 6)
}

func TestOutcomePropagatesThroughCalls(t *testing.T) {
	l := newFakeLoader()
	helper := l.define(t, "jpamb.cases.Calls.div:(II)I",
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.Load{Type: jvm.IntType{}, Index: 1},
		jvm.Binary{Type: jvm.IntType{}, Op: jvm.OpDiv},
		jvm.Return{Type: jvm.IntType{}},
	)
	m := l.define(t, "jpamb.cases.Calls.outer:(I)I",
		jvm.Push{Value: jvm.FromInt(100)},
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.InvokeStatic{Method: helper},
		jvm.Return{Type: jvm.IntType{}},
	)

	if res := runCase(t, l, m, "(0)"); res.Outcome != OutcomeDivideByZero {
		t.Errorf("outcome = %s, want divide by zero", res.Outcome)
	}
	wantInt(t, runCase(t, l, m, "(4)"), 25)
}

func TestObjectInitIsNoOp(t *testing.T) {
	l := newFakeLoader()
	l.classes["jpamb/cases/Box"] = &jvm.ClassFile{Name: "jpamb/cases/Box"}
	objectInit := mustMethod(t, "java.lang.Object.<init>:()V")
	m := l.define(t, "jpamb.cases.Box.make:()I",
		jvm.New{Class: "jpamb/cases/Box"},
		jvm.Dup{Words: 1},
		jvm.InvokeSpecial{Method: objectInit},
		jvm.Push{Value: jvm.FromInt(1)},
		jvm.Return{Type: jvm.IntType{}},
	)

	// The constructor call must not create a frame or pop the receiver.
	wantInt(t, runCase(t, l, m, "()"), 1)
}

func TestCastTruncation(t *testing.T) {
	l := newFakeLoader()
	toShort := l.define(t, "jpamb.cases.Casts.toShort:(I)S",
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.Cast{From: jvm.IntType{}, To: jvm.ShortType{}},
		jvm.Return{Type: jvm.ShortType{}},
	)
	toChar := l.define(t, "jpamb.cases.Casts.toChar:(I)C",
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.Cast{From: jvm.IntType{}, To: jvm.CharType{}},
		jvm.Return{Type: jvm.CharType{}},
	)

	res := runCase(t, l, toShort, "(65537)")
	if res.Outcome != OutcomeOk || res.Value == nil || res.Value.Short() != 1 {
		t.Errorf("short cast: %s %v", res.Outcome, res.Value)
	}

	res = runCase(t, l, toChar, "(-1)")
	if res.Outcome != OutcomeOk || res.Value == nil || res.Value.Char() != 0xFFFF {
		t.Errorf("char cast: %s %v", res.Outcome, res.Value)
	}
}

func TestCharInputWidensThroughArithmetic(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Chars.code:(C)I",
		jvm.Load{Type: jvm.CharType{}, Index: 0},
		jvm.Push{Value: jvm.FromInt(0)},
		jvm.Binary{Type: jvm.IntType{}, Op: jvm.OpAdd},
		jvm.Return{Type: jvm.IntType{}},
	)

	wantInt(t, runCase(t, l, m, "('a')"), 97)
}

func TestBooleanInputBindsAsInt(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Bools.id:(Z)I",
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.Return{Type: jvm.IntType{}},
	)

	wantInt(t, runCase(t, l, m, "(true)"), 1)
	wantInt(t, runCase(t, l, m, "(false)"), 0)
}

func TestIncrAndLoop(t *testing.T) {
	l := newFakeLoader()
	// sum 0..n-1 with a counted loop
	m := l.define(t, "jpamb.cases.Loops.sum:(I)I",
		jvm.Push{Value: jvm.FromInt(0)}, // 0: acc
		jvm.Store{Type: jvm.IntType{}, Index: 1},
		jvm.Push{Value: jvm.FromInt(0)}, // 2: i
		jvm.Store{Type: jvm.IntType{}, Index: 2},
		jvm.Load{Type: jvm.IntType{}, Index: 2}, // 4: loop head
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.If{Condition: jvm.CondGe, Target: 13},
		jvm.Load{Type: jvm.IntType{}, Index: 1},
		jvm.Load{Type: jvm.IntType{}, Index: 2},
		jvm.Binary{Type: jvm.IntType{}, Op: jvm.OpAdd},
		jvm.Store{Type: jvm.IntType{}, Index: 1},
		jvm.Incr{Index: 2, Amount: 1},
		jvm.Goto{Target: 4},
		jvm.Load{Type: jvm.IntType{}, Index: 1}, // 13
		jvm.Return{Type: jvm.IntType{}},
	)

	wantInt(t, runCase(t, l, m, "(5)"), 10)
	wantInt(t, runCase(t, l, m, "(0)"), 0)
}

func TestUnsupportedInstructionIsDefect(t *testing.T) {
	l := newFakeLoader()
	field := jvm.AbsFieldID{
		Class: "jpamb/cases/Box",
		Field: jvm.FieldID{Name: "x", Type: jvm.IntType{}},
	}
	m := l.define(t, "jpamb.cases.Box.putStatic:()V",
		jvm.Push{Value: jvm.FromInt(1)},
		jvm.Put{Static: true, Field: field},
		jvm.Return{},
	)

	_, err := New(l).Run(m, nil)
	if !errors.Is(err, ErrUnknownInstruction) {
		t.Errorf("err = %v, want ErrUnknownInstruction", err)
	}
}

func TestStackUnderflowIsDefect(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Bad.underflow:()I",
		jvm.Return{Type: jvm.IntType{}},
	)

	_, err := New(l).Run(m, nil)
	if !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("err = %v, want ErrStackUnderflow", err)
	}
}

func TestUnsetLocalIsDefect(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Bad.unsetLocal:()I",
		jvm.Load{Type: jvm.IntType{}, Index: 3},
		jvm.Return{Type: jvm.IntType{}},
	)

	_, err := New(l).Run(m, nil)
	if !errors.Is(err, ErrUnsetLocal) {
		t.Errorf("err = %v, want ErrUnsetLocal", err)
	}
}
