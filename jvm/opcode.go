package jvm

import "fmt"

// ---------------------------------------------------------------------------
// Opcode: decoded instruction variants
// ---------------------------------------------------------------------------

// Opcode is one decoded instruction. The variant set is closed: every
// implementation lives in this file, and the interpreter dispatches over it
// exhaustively, failing loudly on anything it does not model.
type Opcode interface {
	String() string

	isOpcode()
}

// BinaryOp is an integer arithmetic operator.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpRem:
		return "rem"
	}
	return fmt.Sprintf("binaryop(%d)", uint8(op))
}

// ParseBinaryOp resolves the wire name of an arithmetic operator.
func ParseBinaryOp(name string) (BinaryOp, error) {
	switch name {
	case "add":
		return OpAdd, nil
	case "sub":
		return OpSub, nil
	case "mul":
		return OpMul, nil
	case "div":
		return OpDiv, nil
	case "rem":
		return OpRem, nil
	}
	return 0, fmt.Errorf("unsupported binary operator %q", name)
}

// Condition is a comparison predicate for conditional branches.
type Condition string

const (
	CondEq Condition = "eq"
	CondNe Condition = "ne"
	CondLt Condition = "lt"
	CondLe Condition = "le"
	CondGt Condition = "gt"
	CondGe Condition = "ge"
)

// ParseCondition resolves the wire name of a branch predicate.
func ParseCondition(name string) (Condition, error) {
	switch c := Condition(name); c {
	case CondEq, CondNe, CondLt, CondLe, CondGt, CondGe:
		return c, nil
	}
	return "", fmt.Errorf("unsupported branch condition %q", name)
}

// Push pushes a literal value.
type Push struct {
	Value Value
}

// Load pushes a copy of a local variable slot.
type Load struct {
	Type  Type
	Index int
}

// Store pops a value into a local variable slot.
type Store struct {
	Type  Type
	Index int
}

// Binary pops two values and pushes the result of an arithmetic operator.
type Binary struct {
	Type Type
	Op   BinaryOp
}

// Incr adds a constant to an integer local in place.
type Incr struct {
	Index  int
	Amount int32
}

// Dup duplicates the top of the operand stack.
type Dup struct {
	Words int
}

// If pops two values and branches to Target if the condition holds.
type If struct {
	Condition Condition
	Target    int
}

// Ifz pops one value and branches to Target if it compares to zero.
type Ifz struct {
	Condition Condition
	Target    int
}

// Goto transfers control unconditionally.
type Goto struct {
	Target int
}

// Get reads a static field (Static) or pops a receiver and reads an
// instance field.
type Get struct {
	Static bool
	Field  AbsFieldID
}

// Put pops a value (and, for instance fields, a receiver) and writes a
// field.
type Put struct {
	Static bool
	Field  AbsFieldID
}

// New allocates a class instance and pushes a reference to it.
type New struct {
	Class ClassName
}

// NewArray pops a length and allocates a default-zeroed array.
type NewArray struct {
	Type Type
	Dim  int
}

// ArrayLoad pops an index and an array reference and pushes the element.
type ArrayLoad struct {
	Type Type
}

// ArrayStore pops a value, an index, and an array reference and overwrites
// the element.
type ArrayStore struct {
	Type Type
}

// ArrayLength pops an array reference and pushes its length.
type ArrayLength struct{}

// InvokeStatic calls a static method.
type InvokeStatic struct {
	Method AbsMethodID
}

// InvokeSpecial calls a constructor, private method, or superclass method.
type InvokeSpecial struct {
	Method      AbsMethodID
	IsInterface bool
}

// InvokeVirtual calls an instance method.
type InvokeVirtual struct {
	Method AbsMethodID
}

// Return pops the current frame, handing a value of Type (nil for void)
// back to the caller.
type Return struct {
	Type Type
}

// Cast reinterprets the top of stack from one numeric type to another,
// applying the target width's truncation rule.
type Cast struct {
	From Type
	To   Type
}

func (Push) isOpcode()          {}
func (Load) isOpcode()          {}
func (Store) isOpcode()         {}
func (Binary) isOpcode()        {}
func (Incr) isOpcode()          {}
func (Dup) isOpcode()           {}
func (If) isOpcode()            {}
func (Ifz) isOpcode()           {}
func (Goto) isOpcode()          {}
func (Get) isOpcode()           {}
func (Put) isOpcode()           {}
func (New) isOpcode()           {}
func (NewArray) isOpcode()      {}
func (ArrayLoad) isOpcode()     {}
func (ArrayStore) isOpcode()    {}
func (ArrayLength) isOpcode()   {}
func (InvokeStatic) isOpcode()  {}
func (InvokeSpecial) isOpcode() {}
func (InvokeVirtual) isOpcode() {}
func (Return) isOpcode()        {}
func (Cast) isOpcode()          {}

func (o Push) String() string  { return fmt.Sprintf("push %s", o.Value) }
func (o Load) String() string  { return fmt.Sprintf("load:%s %d", typeName(o.Type), o.Index) }
func (o Store) String() string { return fmt.Sprintf("store:%s %d", typeName(o.Type), o.Index) }
func (o Binary) String() string {
	return fmt.Sprintf("%s:%s", o.Op, typeName(o.Type))
}
func (o Incr) String() string { return fmt.Sprintf("incr %d %d", o.Index, o.Amount) }
func (o Dup) String() string  { return fmt.Sprintf("dup %d", o.Words) }
func (o If) String() string   { return fmt.Sprintf("if %s %d", o.Condition, o.Target) }
func (o Ifz) String() string  { return fmt.Sprintf("ifz %s %d", o.Condition, o.Target) }
func (o Goto) String() string { return fmt.Sprintf("goto %d", o.Target) }
func (o Get) String() string {
	if o.Static {
		return fmt.Sprintf("getstatic %s", o.Field)
	}
	return fmt.Sprintf("getfield %s", o.Field)
}
func (o Put) String() string {
	if o.Static {
		return fmt.Sprintf("putstatic %s", o.Field)
	}
	return fmt.Sprintf("putfield %s", o.Field)
}
func (o New) String() string      { return fmt.Sprintf("new %s", o.Class) }
func (o NewArray) String() string { return fmt.Sprintf("newarray:%s", typeName(o.Type)) }
func (o ArrayLoad) String() string {
	return fmt.Sprintf("array_load:%s", typeName(o.Type))
}
func (o ArrayStore) String() string {
	return fmt.Sprintf("array_store:%s", typeName(o.Type))
}
func (ArrayLength) String() string    { return "arraylength" }
func (o InvokeStatic) String() string { return fmt.Sprintf("invokestatic %s", o.Method) }
func (o InvokeSpecial) String() string {
	return fmt.Sprintf("invokespecial %s", o.Method)
}
func (o InvokeVirtual) String() string {
	return fmt.Sprintf("invokevirtual %s", o.Method)
}
func (o Return) String() string {
	if o.Type == nil {
		return "return"
	}
	return fmt.Sprintf("return:%s", typeName(o.Type))
}
func (o Cast) String() string {
	return fmt.Sprintf("cast %s->%s", typeName(o.From), typeName(o.To))
}

// typeName renders a possibly-nil type for disassembly.
func typeName(t Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}
