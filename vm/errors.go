package vm

import "errors"

// Defect sentinels. These mark failures of the interpreter or its input
// image, never properties of the analyzed program; callers must keep them
// distinct from the Outcome taxonomy.
var (
	// ErrUnknownInstruction marks an instruction variant the interpreter
	// does not model.
	ErrUnknownInstruction = errors.New("unknown instruction")

	// ErrUnsetLocal marks a read of a local variable slot before any write.
	ErrUnsetLocal = errors.New("local slot read before write")

	// ErrTypeMismatch marks a value whose kind violates an instruction's
	// precondition.
	ErrTypeMismatch = errors.New("operand type mismatch")

	// ErrStackUnderflow marks a pop from an empty operand stack.
	ErrStackUnderflow = errors.New("operand stack underflow")

	// ErrBadReference marks a reference to a heap key with no entry, or a
	// field access that the heap object does not declare.
	ErrBadReference = errors.New("dangling reference")

	// ErrMalformedProgram marks a program counter outside the method's
	// instruction list or an otherwise inconsistent program image.
	ErrMalformedProgram = errors.New("malformed program")
)
