package vm

import (
	"fmt"

	"github.com/jpamb/interpreter/jvm"
)

// Outcome is the terminal classification of a run.
type Outcome uint8

const (
	// OutcomeOk is normal completion: the call stack emptied on a return.
	OutcomeOk Outcome = iota
	// OutcomeDivideByZero is an integer division or remainder with a zero
	// right operand.
	OutcomeDivideByZero
	// OutcomeAssertionError is the construction of the assertion-error
	// class.
	OutcomeAssertionError
	// OutcomeOutOfBounds is an array access outside [0, length).
	OutcomeOutOfBounds
	// OutcomeNullPointer is a dereference of the null reference.
	OutcomeNullPointer
	// OutcomeTimeout means the step budget ran out. It asserts only "did
	// not finish in time", never "loops forever".
	OutcomeTimeout
)

// String returns the literal token reported for this outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOk:
		return "ok"
	case OutcomeDivideByZero:
		return "divide by zero"
	case OutcomeAssertionError:
		return "assertion error"
	case OutcomeOutOfBounds:
		return "out of bounds"
	case OutcomeNullPointer:
		return "null pointer"
	case OutcomeTimeout:
		return "*"
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

// Result is the terminal result of a run: the outcome, the value returned
// by the entry method when it completed normally with one, and the number
// of steps consumed.
type Result struct {
	Outcome Outcome
	Value   *jvm.Value
	Steps   int
}
