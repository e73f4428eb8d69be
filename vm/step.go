package vm

import (
	"fmt"

	"github.com/jpamb/interpreter/jvm"
)

// Step applies exactly one instruction: the one addressed by the top
// frame's program counter. It returns the next state to continue, a
// non-nil Result if the instruction terminated the run, or an error if the
// interpreter cannot faithfully execute the instruction.
//
// Dispatch is exhaustive over the closed jvm.Opcode variant set; anything
// that falls through is ErrUnknownInstruction, a defect distinct from every
// outcome.
func Step(st *State, code *Bytecode) (*State, *Result, error) {
	fr, err := st.Frame()
	if err != nil {
		return nil, nil, err
	}
	op, err := code.At(fr.PC)
	if err != nil {
		return nil, nil, err
	}

	switch op := op.(type) {
	case jvm.Push:
		fr.Push(op.Value)
		fr.PC = fr.PC.Advance(1)
		return st, nil, nil

	case jvm.Load:
		return stepLoad(st, fr, op)

	case jvm.Store:
		v, err := fr.Pop()
		if err != nil {
			return nil, nil, err
		}
		fr.SetLocal(op.Index, v)
		fr.PC = fr.PC.Advance(1)
		return st, nil, nil

	case jvm.Binary:
		return stepBinary(st, fr, op)

	case jvm.Incr:
		return stepIncr(st, fr, op)

	case jvm.Dup:
		if op.Words != 1 {
			return nil, nil, fmt.Errorf("%w: dup of %d words at %s", ErrUnknownInstruction, op.Words, fr.PC)
		}
		v, err := fr.Peek()
		if err != nil {
			return nil, nil, err
		}
		fr.Push(v)
		fr.PC = fr.PC.Advance(1)
		return st, nil, nil

	case jvm.If:
		return stepIf(st, fr, op.Condition, op.Target, false)

	case jvm.Ifz:
		return stepIf(st, fr, op.Condition, op.Target, true)

	case jvm.Goto:
		fr.PC = fr.PC.WithOffset(op.Target)
		return st, nil, nil

	case jvm.Get:
		if op.Static {
			v, err := code.StaticField(op.Field)
			if err != nil {
				return nil, nil, err
			}
			fr.Push(v)
			fr.PC = fr.PC.Advance(1)
			return st, nil, nil
		}
		return stepGetField(st, fr, op.Field)

	case jvm.Put:
		if op.Static {
			return nil, nil, fmt.Errorf("%w: putstatic at %s", ErrUnknownInstruction, fr.PC)
		}
		return stepPutField(st, fr, op.Field)

	case jvm.New:
		return stepNew(st, fr, op.Class, code)

	case jvm.NewArray:
		return stepNewArray(st, fr, op)

	case jvm.ArrayLoad:
		return stepArrayLoad(st, fr)

	case jvm.ArrayStore:
		return stepArrayStore(st, fr)

	case jvm.ArrayLength:
		return stepArrayLength(st, fr)

	case jvm.InvokeStatic:
		return stepInvoke(st, fr, op.Method, len(op.Method.Method.Params))

	case jvm.InvokeSpecial:
		if op.Method.IsObjectInit() {
			fr.PC = fr.PC.Advance(1)
			return st, nil, nil
		}
		return stepInvoke(st, fr, op.Method, len(op.Method.Method.Params)+1)

	case jvm.InvokeVirtual:
		return stepInvoke(st, fr, op.Method, len(op.Method.Method.Params)+1)

	case jvm.Return:
		return stepReturn(st, fr, op.Type)

	case jvm.Cast:
		return stepCast(st, fr, op)
	}

	return nil, nil, fmt.Errorf("%w: %s at %s", ErrUnknownInstruction, op, fr.PC)
}

// stepLoad pushes a copy of a local slot after checking the slot holds a
// value of the declared category. A mismatch is a defect, never an
// outcome.
func stepLoad(st *State, fr *Frame, op jvm.Load) (*State, *Result, error) {
	v, err := fr.Local(op.Index)
	if err != nil {
		return nil, nil, err
	}
	switch op.Type.(type) {
	case jvm.RefType, jvm.ArrayType:
		if v.Kind() != jvm.KindRef {
			return nil, nil, fmt.Errorf("%w: load:ref slot %d holds %s at %s",
				ErrTypeMismatch, op.Index, v.Kind(), fr.PC)
		}
	default:
		if _, ok := v.AsInt(); !ok {
			return nil, nil, fmt.Errorf("%w: load:%s slot %d holds %s at %s",
				ErrTypeMismatch, op.Type, op.Index, v.Kind(), fr.PC)
		}
	}
	fr.Push(v)
	fr.PC = fr.PC.Advance(1)
	return st, nil, nil
}

// stepBinary pops v2 then v1 (v1 was pushed first, so v1 is the left
// operand) and pushes v1 op v2. A zero right operand of div or rem is the
// divide-by-zero outcome.
func stepBinary(st *State, fr *Frame, op jvm.Binary) (*State, *Result, error) {
	v2, err := popNumeric(fr)
	if err != nil {
		return nil, nil, err
	}
	v1, err := popNumeric(fr)
	if err != nil {
		return nil, nil, err
	}

	var result int32
	switch op.Op {
	case jvm.OpAdd:
		result = v1 + v2
	case jvm.OpSub:
		result = v1 - v2
	case jvm.OpMul:
		result = v1 * v2
	case jvm.OpDiv:
		if v2 == 0 {
			return nil, &Result{Outcome: OutcomeDivideByZero}, nil
		}
		result = v1 / v2
	case jvm.OpRem:
		if v2 == 0 {
			return nil, &Result{Outcome: OutcomeDivideByZero}, nil
		}
		result = v1 % v2
	default:
		return nil, nil, fmt.Errorf("%w: binary operator %s at %s", ErrUnknownInstruction, op.Op, fr.PC)
	}

	fr.Push(jvm.FromInt(result))
	fr.PC = fr.PC.Advance(1)
	return st, nil, nil
}

func stepIncr(st *State, fr *Frame, op jvm.Incr) (*State, *Result, error) {
	v, err := fr.Local(op.Index)
	if err != nil {
		return nil, nil, err
	}
	n, ok := v.AsInt()
	if !ok {
		return nil, nil, fmt.Errorf("%w: incr of %s local at %s", ErrTypeMismatch, v.Kind(), fr.PC)
	}
	fr.SetLocal(op.Index, jvm.FromInt(n+op.Amount))
	fr.PC = fr.PC.Advance(1)
	return st, nil, nil
}

// stepIf evaluates a conditional branch. The two-operand form compares
// v1 (pushed first) against v2; the zero form compares the single popped
// value against zero.
func stepIf(st *State, fr *Frame, cond jvm.Condition, target int, zero bool) (*State, *Result, error) {
	var v1, v2 int32
	var err error
	if zero {
		v1, err = popNumeric(fr)
		if err != nil {
			return nil, nil, err
		}
	} else {
		v2, err = popNumeric(fr)
		if err != nil {
			return nil, nil, err
		}
		v1, err = popNumeric(fr)
		if err != nil {
			return nil, nil, err
		}
	}

	jump, err := compare(cond, v1, v2)
	if err != nil {
		return nil, nil, fmt.Errorf("%w at %s", err, fr.PC)
	}
	if jump {
		fr.PC = fr.PC.WithOffset(target)
	} else {
		fr.PC = fr.PC.Advance(1)
	}
	return st, nil, nil
}

func compare(cond jvm.Condition, v1, v2 int32) (bool, error) {
	switch cond {
	case jvm.CondEq:
		return v1 == v2, nil
	case jvm.CondNe:
		return v1 != v2, nil
	case jvm.CondLt:
		return v1 < v2, nil
	case jvm.CondLe:
		return v1 <= v2, nil
	case jvm.CondGt:
		return v1 > v2, nil
	case jvm.CondGe:
		return v1 >= v2, nil
	}
	return false, fmt.Errorf("%w: branch condition %q", ErrUnknownInstruction, cond)
}

func stepGetField(st *State, fr *Frame, field jvm.AbsFieldID) (*State, *Result, error) {
	ref, err := fr.Pop()
	if err != nil {
		return nil, nil, err
	}
	if ref.Kind() != jvm.KindRef {
		return nil, nil, fmt.Errorf("%w: getfield receiver is %s at %s", ErrTypeMismatch, ref.Kind(), fr.PC)
	}
	if ref.IsNull() {
		return nil, &Result{Outcome: OutcomeNullPointer}, nil
	}

	obj, err := st.Heap.Get(ref.RefKey())
	if err != nil {
		return nil, nil, err
	}
	if obj.Kind() != jvm.KindObject {
		return nil, nil, fmt.Errorf("%w: getfield on %s at %s", ErrTypeMismatch, obj.Kind(), fr.PC)
	}
	v, ok := obj.Field(field.Field.Name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: field %s on %s", ErrBadReference, field.Field.Name, obj.Class())
	}
	fr.Push(v)
	fr.PC = fr.PC.Advance(1)
	return st, nil, nil
}

// stepPutField writes an instance field in place: unlike arrays, object
// identity matters for field writes, so the write is visible through every
// reference sharing the heap entry.
func stepPutField(st *State, fr *Frame, field jvm.AbsFieldID) (*State, *Result, error) {
	value, err := fr.Pop()
	if err != nil {
		return nil, nil, err
	}
	ref, err := fr.Pop()
	if err != nil {
		return nil, nil, err
	}
	if ref.Kind() != jvm.KindRef {
		return nil, nil, fmt.Errorf("%w: putfield receiver is %s at %s", ErrTypeMismatch, ref.Kind(), fr.PC)
	}
	if ref.IsNull() {
		return nil, &Result{Outcome: OutcomeNullPointer}, nil
	}

	obj, err := st.Heap.Get(ref.RefKey())
	if err != nil {
		return nil, nil, err
	}
	if obj.Kind() != jvm.KindObject {
		return nil, nil, fmt.Errorf("%w: putfield on %s at %s", ErrTypeMismatch, obj.Kind(), fr.PC)
	}
	obj.SetField(field.Field.Name, value)
	fr.PC = fr.PC.Advance(1)
	return st, nil, nil
}

// stepNew allocates a default-initialized instance. Constructing the
// assertion-error class is the assertion-error outcome: reaching its `new`
// means the program's assertion already failed.
func stepNew(st *State, fr *Frame, class jvm.ClassName, code *Bytecode) (*State, *Result, error) {
	if class == jvm.AssertionErrorClass {
		return nil, &Result{Outcome: OutcomeAssertionError}, nil
	}

	obj, err := code.NewInstance(class)
	if err != nil {
		return nil, nil, err
	}
	key := st.Heap.Alloc(obj)
	fr.Push(jvm.RefTo(key))
	fr.PC = fr.PC.Advance(1)
	return st, nil, nil
}

func stepNewArray(st *State, fr *Frame, op jvm.NewArray) (*State, *Result, error) {
	if op.Dim != 1 {
		return nil, nil, fmt.Errorf("%w: %d-dimensional newarray at %s", ErrUnknownInstruction, op.Dim, fr.PC)
	}
	size, err := popNumeric(fr)
	if err != nil {
		return nil, nil, err
	}
	if size < 0 {
		size = 0
	}

	elems := make([]jvm.Value, size)
	for i := range elems {
		elems[i] = jvm.DefaultValue(op.Type)
	}
	key := st.Heap.Alloc(jvm.ArrayOf(op.Type, elems))
	fr.Push(jvm.RefTo(key))
	fr.PC = fr.PC.Advance(1)
	return st, nil, nil
}

func stepArrayLoad(st *State, fr *Frame) (*State, *Result, error) {
	index, err := popNumeric(fr)
	if err != nil {
		return nil, nil, err
	}
	arr, _, res, err := popArray(st, fr)
	if res != nil || err != nil {
		return nil, res, err
	}

	elems := arr.Elems()
	if index < 0 || int(index) >= len(elems) {
		return nil, &Result{Outcome: OutcomeOutOfBounds}, nil
	}
	fr.Push(elems[index])
	fr.PC = fr.PC.Advance(1)
	return st, nil, nil
}

// stepArrayStore overwrites one element copy-on-write: the heap entry is
// replaced with a rebuilt array value, so stale Value handles never observe
// the write except through the heap key.
func stepArrayStore(st *State, fr *Frame) (*State, *Result, error) {
	value, err := fr.Pop()
	if err != nil {
		return nil, nil, err
	}
	index, err := popNumeric(fr)
	if err != nil {
		return nil, nil, err
	}
	arr, key, res, err := popArray(st, fr)
	if res != nil || err != nil {
		return nil, res, err
	}

	elems := arr.Elems()
	if index < 0 || int(index) >= len(elems) {
		return nil, &Result{Outcome: OutcomeOutOfBounds}, nil
	}

	rebuilt := make([]jvm.Value, len(elems))
	copy(rebuilt, elems)
	rebuilt[index] = value
	if err := st.Heap.Set(key, jvm.ArrayOf(arr.ElemType(), rebuilt)); err != nil {
		return nil, nil, err
	}
	fr.PC = fr.PC.Advance(1)
	return st, nil, nil
}

func stepArrayLength(st *State, fr *Frame) (*State, *Result, error) {
	arr, _, res, err := popArray(st, fr)
	if res != nil || err != nil {
		return nil, res, err
	}
	fr.Push(jvm.FromInt(int32(len(arr.Elems()))))
	fr.PC = fr.PC.Advance(1)
	return st, nil, nil
}

// popArray pops an array reference and resolves it through the heap. A
// null reference is the null-pointer outcome; a non-array heap entry is a
// defect.
func popArray(st *State, fr *Frame) (jvm.Value, int, *Result, error) {
	ref, err := fr.Pop()
	if err != nil {
		return jvm.Value{}, 0, nil, err
	}
	if ref.Kind() != jvm.KindRef {
		return jvm.Value{}, 0, nil, fmt.Errorf("%w: array reference is %s at %s", ErrTypeMismatch, ref.Kind(), fr.PC)
	}
	if ref.IsNull() {
		return jvm.Value{}, 0, &Result{Outcome: OutcomeNullPointer}, nil
	}
	key := ref.RefKey()
	arr, err := st.Heap.Get(key)
	if err != nil {
		return jvm.Value{}, 0, nil, err
	}
	if arr.Kind() != jvm.KindArray {
		return jvm.Value{}, 0, nil, fmt.Errorf("%w: array access on %s at %s", ErrTypeMismatch, arr.Kind(), fr.PC)
	}
	return arr, key, nil, nil
}

// stepInvoke pops argc argument values and binds them, in call order, to
// locals 0..argc-1 of a fresh frame (the last-popped value was pushed
// first). For instance calls the receiver is argument 0.
func stepInvoke(st *State, fr *Frame, method jvm.AbsMethodID, argc int) (*State, *Result, error) {
	callee := NewFrame(method)
	for i := argc - 1; i >= 0; i-- {
		arg, err := fr.Pop()
		if err != nil {
			return nil, nil, err
		}
		callee.SetLocal(i, arg)
	}
	st.Frames.Push(callee)
	// The caller's pc stays put: the callee's return advances it.
	return st, nil, nil
}

// stepReturn pops the current frame. A typed return hands the popped value
// to the caller; when the call stack empties the run completed normally.
func stepReturn(st *State, fr *Frame, returns jvm.Type) (*State, *Result, error) {
	if _, ok := st.Frames.Pop(); !ok {
		return nil, nil, fmt.Errorf("%w: return with no active frame", ErrMalformedProgram)
	}

	var returned *jvm.Value
	if returns != nil {
		v, err := fr.Pop()
		if err != nil {
			return nil, nil, err
		}
		returned = &v
	}

	caller, ok := st.Frames.Peek()
	if !ok {
		return nil, &Result{Outcome: OutcomeOk, Value: returned}, nil
	}
	if returned != nil {
		caller.Push(*returned)
	}
	caller.PC = caller.PC.Advance(1)
	return st, nil, nil
}

// stepCast reinterprets the top of stack with the target width's
// truncation rule: shorts truncate to 16 signed bits, chars to 16 unsigned
// bits.
func stepCast(st *State, fr *Frame, op jvm.Cast) (*State, *Result, error) {
	n, err := popNumeric(fr)
	if err != nil {
		return nil, nil, err
	}

	switch op.To.(type) {
	case jvm.ShortType:
		fr.Push(jvm.FromShort(int16(n)))
	case jvm.CharType:
		fr.Push(jvm.FromChar(rune(uint16(n))))
	case jvm.IntType:
		fr.Push(jvm.FromInt(n))
	default:
		return nil, nil, fmt.Errorf("%w: cast %s to %s at %s", ErrUnknownInstruction, op.From, op.To, fr.PC)
	}
	fr.PC = fr.PC.Advance(1)
	return st, nil, nil
}

// popNumeric pops a value and returns its numeric view (ints and shorts
// themselves, chars as code points, booleans as 0/1).
func popNumeric(fr *Frame) (int32, error) {
	v, err := fr.Pop()
	if err != nil {
		return 0, err
	}
	n, ok := v.AsInt()
	if !ok {
		return 0, fmt.Errorf("%w: expected numeric operand, got %s at %s", ErrTypeMismatch, v.Kind(), fr.PC)
	}
	return n, nil
}
