package vm

import (
	"testing"

	"github.com/jpamb/interpreter/jvm"
)

func TestBudgetExhaustion(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Loops.forever:()V",
		jvm.Goto{Target: 0},
	)

	res := runCase(t, l, m, "()", WithBudget(250))
	if res.Outcome != OutcomeTimeout {
		t.Fatalf("outcome = %s, want *", res.Outcome)
	}
	if res.Steps != 250 {
		t.Errorf("steps = %d, want 250", res.Steps)
	}
	if res.Outcome.String() != "*" {
		t.Errorf("token = %q, want *", res.Outcome.String())
	}
}

// Raising the budget must never change the result of a run that already
// finished: only "*" runs may flip, and only to the fixed terminal result.
func TestBudgetMonotonicity(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Loops.sum2:(I)I",
		jvm.Push{Value: jvm.FromInt(0)},
		jvm.Store{Type: jvm.IntType{}, Index: 1},
		jvm.Load{Type: jvm.IntType{}, Index: 0}, // 2: loop head
		jvm.Ifz{Condition: jvm.CondLe, Target: 10},
		jvm.Load{Type: jvm.IntType{}, Index: 1},
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.Binary{Type: jvm.IntType{}, Op: jvm.OpAdd},
		jvm.Store{Type: jvm.IntType{}, Index: 1},
		jvm.Incr{Index: 0, Amount: -1},
		jvm.Goto{Target: 2},
		jvm.Load{Type: jvm.IntType{}, Index: 1}, // 10
		jvm.Return{Type: jvm.IntType{}},
	)

	base := runCase(t, l, m, "(4)")
	wantInt(t, base, 10)
	if base.Outcome != OutcomeOk {
		t.Fatalf("outcome = %s, want ok", base.Outcome)
	}

	for _, budget := range []int{base.Steps, base.Steps + 1, base.Steps * 100, DefaultBudget} {
		res := runCase(t, l, m, "(4)", WithBudget(budget))
		if res.Outcome != base.Outcome || res.Steps != base.Steps {
			t.Errorf("budget %d: (%s, %d), want (%s, %d)",
				budget, res.Outcome, res.Steps, base.Outcome, base.Steps)
		}
		if !res.Value.Equal(*base.Value) {
			t.Errorf("budget %d: value = %s, want %s", budget, res.Value, base.Value)
		}
	}

	// One step short of termination still reports "*".
	short := runCase(t, l, m, "(4)", WithBudget(base.Steps-1))
	if short.Outcome != OutcomeTimeout {
		t.Errorf("budget %d: outcome = %s, want *", base.Steps-1, short.Outcome)
	}

	// A diverging run stays "*" at every budget; only its step count grows.
	loop := l.define(t, "jpamb.cases.Loops.forever:()V",
		jvm.Goto{Target: 0},
	)
	for _, budget := range []int{10, 1000} {
		res := runCase(t, l, loop, "()", WithBudget(budget))
		if res.Outcome != OutcomeTimeout || res.Steps != budget {
			t.Errorf("budget %d: (%s, %d), want (*, %d)",
				budget, res.Outcome, res.Steps, budget)
		}
	}
}

func TestDefaultBudget(t *testing.T) {
	l := newFakeLoader()
	in := New(l)
	if in.Budget() != DefaultBudget {
		t.Errorf("budget = %d, want %d", in.Budget(), DefaultBudget)
	}

	in = New(l, WithBudget(0))
	if in.Budget() != DefaultBudget {
		t.Errorf("budget with zero option = %d, want %d", in.Budget(), DefaultBudget)
	}
}

func TestStepsCounted(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Simple.three:()I",
		jvm.Push{Value: jvm.FromInt(1)},
		jvm.Push{Value: jvm.FromInt(2)},
		jvm.Binary{Type: jvm.IntType{}, Op: jvm.OpAdd},
		jvm.Return{Type: jvm.IntType{}},
	)

	res := runCase(t, l, m, "()")
	if res.Steps != 4 {
		t.Errorf("steps = %d, want 4", res.Steps)
	}
}

// Two runs of the same case must agree on outcome, value, and step count.
func TestDeterminism(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Loops.sum2:(I)I",
		jvm.Push{Value: jvm.FromInt(0)},
		jvm.Store{Type: jvm.IntType{}, Index: 1},
		jvm.Load{Type: jvm.IntType{}, Index: 0}, // 2: loop head
		jvm.Ifz{Condition: jvm.CondLe, Target: 10},
		jvm.Load{Type: jvm.IntType{}, Index: 1},
		jvm.Load{Type: jvm.IntType{}, Index: 0},
		jvm.Binary{Type: jvm.IntType{}, Op: jvm.OpAdd},
		jvm.Store{Type: jvm.IntType{}, Index: 1},
		jvm.Incr{Index: 0, Amount: -1},
		jvm.Goto{Target: 2},
		jvm.Load{Type: jvm.IntType{}, Index: 1}, // 10
		jvm.Return{Type: jvm.IntType{}},
	)

	first := runCase(t, l, m, "(4)")
	second := runCase(t, l, m, "(4)")

	wantInt(t, first, 10)
	if first.Outcome != second.Outcome || first.Steps != second.Steps {
		t.Errorf("runs disagree: (%s, %d) vs (%s, %d)",
			first.Outcome, first.Steps, second.Outcome, second.Steps)
	}
	if !first.Value.Equal(*second.Value) {
		t.Errorf("values disagree: %s vs %s", first.Value, second.Value)
	}
}

func TestBytecodeMemoizesMethods(t *testing.T) {
	l := newFakeLoader()
	m := l.define(t, "jpamb.cases.Loops.spin:()V",
		jvm.Goto{Target: 0},
	)

	in := New(l, WithBudget(50))
	if _, err := in.Run(m, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if l.loads != 1 {
		t.Errorf("loader consulted %d times, want 1", l.loads)
	}
}

func TestStaticFieldDefaults(t *testing.T) {
	l := newFakeLoader()
	l.classes["jpamb/cases/Statics"] = &jvm.ClassFile{
		Name: "jpamb/cases/Statics",
		Fields: []jvm.Field{
			{Name: "flag", Static: true, Type: jvm.BooleanType{}},
		},
	}
	code := NewBytecode(l)

	v, err := code.StaticField(jvm.AbsFieldID{
		Class: "jpamb/cases/Statics",
		Field: jvm.FieldID{Name: "flag", Type: jvm.BooleanType{}},
	})
	if err != nil {
		t.Fatalf("StaticField: %v", err)
	}
	if v.Bool() {
		t.Error("unset boolean static should default to false")
	}

	if _, err := code.StaticField(jvm.AbsFieldID{
		Class: "jpamb/cases/Statics",
		Field: jvm.FieldID{Name: "missing"},
	}); err == nil {
		t.Error("expected error for missing static field")
	}
}

func TestArrayInputMaterializedOnHeap(t *testing.T) {
	inputs := []jvm.Value{jvm.ArrayOf(jvm.IntType{}, []jvm.Value{jvm.FromInt(9)})}
	m := jvm.AbsMethodID{
		Class:  "jpamb/cases/Arrays",
		Method: jvm.MethodID{Name: "f", Params: []jvm.Type{jvm.ArrayType{Elem: jvm.IntType{}}}},
	}

	st := initialState(m, inputs)
	fr, err := st.Frame()
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	bound, err := fr.Local(0)
	if err != nil {
		t.Fatalf("Local: %v", err)
	}
	if bound.Kind() != jvm.KindRef {
		t.Fatalf("bound kind = %s, want ref", bound.Kind())
	}
	arr, err := st.Heap.Get(bound.RefKey())
	if err != nil {
		t.Fatalf("Heap.Get: %v", err)
	}
	if arr.Kind() != jvm.KindArray || len(arr.Elems()) != 1 {
		t.Errorf("heap entry = %s, want one-element array", arr)
	}
}
