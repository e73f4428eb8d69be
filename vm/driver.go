package vm

import (
	"github.com/tliron/commonlog"

	"github.com/jpamb/interpreter/jvm"
)

// DefaultBudget is the step budget used when none is configured.
const DefaultBudget = 100000

var log = commonlog.GetLogger("jpamb.vm")

// Interpreter drives runs: it builds the initial state for a case and
// applies Step until a terminal result or budget exhaustion. The budget is
// the only cancellation mechanism; it makes the non-termination outcome
// exactly "exceeded N steps".
type Interpreter struct {
	code   *Bytecode
	budget int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithBudget sets the maximum number of steps per run.
func WithBudget(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.budget = n
		}
	}
}

// New creates an Interpreter over the given program image.
func New(loader Loader, opts ...Option) *Interpreter {
	in := &Interpreter{
		code:   NewBytecode(loader),
		budget: DefaultBudget,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Budget returns the configured step budget.
func (in *Interpreter) Budget() int {
	return in.budget
}

// Run executes method with the given concrete inputs and returns its
// terminal result. A non-nil error means the interpreter itself failed;
// no outcome is reported in that case.
func (in *Interpreter) Run(method jvm.AbsMethodID, inputs []jvm.Value) (*Result, error) {
	st := initialState(method, inputs)
	log.Debugf("run %s%v budget=%d", method, inputs, in.budget)

	for i := 0; i < in.budget; i++ {
		if fr, err := st.Frame(); err == nil {
			if op, err := in.code.At(fr.PC); err == nil {
				log.Debugf("%s: %s", fr.PC, op)
			}
		}

		next, res, err := Step(st, in.code)
		if err != nil {
			return nil, err
		}
		if res != nil {
			res.Steps = i + 1
			log.Debugf("terminated after %d steps: %s", res.Steps, res.Outcome)
			return res, nil
		}
		st = next
	}

	log.Debugf("budget of %d steps exhausted", in.budget)
	return &Result{Outcome: OutcomeTimeout, Steps: in.budget}, nil
}

// initialState builds the entry state for a run: each input is bound to
// local slot 0..k-1 of a fresh frame. Booleans widen to 0/1 ints; arrays
// are materialized into the heap and bound by reference.
func initialState(method jvm.AbsMethodID, inputs []jvm.Value) *State {
	fr := NewFrame(method)
	st := NewState(fr)

	for i, v := range inputs {
		switch v.Kind() {
		case jvm.KindBoolean:
			if v.Bool() {
				fr.SetLocal(i, jvm.FromInt(1))
			} else {
				fr.SetLocal(i, jvm.FromInt(0))
			}
		case jvm.KindArray, jvm.KindObject:
			key := st.Heap.Alloc(v)
			fr.SetLocal(i, jvm.RefTo(key))
		default:
			fr.SetLocal(i, v)
		}
	}
	return st
}
