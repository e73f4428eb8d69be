package vm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jpamb/interpreter/jvm"
)

// Frame is one method activation: local variable slots, an operand stack,
// and a program counter. Exactly one Frame exists per active (possibly
// recursive) activation; it is created by a call instruction and destroyed
// by the matching return.
type Frame struct {
	Locals map[int]jvm.Value
	Stack  Stack[jvm.Value]
	PC     PC
}

// NewFrame creates a frame positioned at the first instruction of method,
// with no locals set.
func NewFrame(method jvm.AbsMethodID) *Frame {
	return &Frame{
		Locals: make(map[int]jvm.Value),
		PC:     PC{Method: method},
	}
}

// Local reads a local slot. Reading an unset slot is an interpreter
// defect, not a program outcome.
func (f *Frame) Local(index int) (jvm.Value, error) {
	v, ok := f.Locals[index]
	if !ok {
		return jvm.Value{}, fmt.Errorf("%w: slot %d at %s", ErrUnsetLocal, index, f.PC)
	}
	return v, nil
}

// SetLocal writes a local slot.
func (f *Frame) SetLocal(index int, v jvm.Value) {
	f.Locals[index] = v
}

// Push pushes a value on the operand stack.
func (f *Frame) Push(v jvm.Value) {
	f.Stack.Push(v)
}

// Pop removes and returns the top of the operand stack.
func (f *Frame) Pop() (jvm.Value, error) {
	v, ok := f.Stack.Pop()
	if !ok {
		return jvm.Value{}, fmt.Errorf("%w: at %s", ErrStackUnderflow, f.PC)
	}
	return v, nil
}

// Peek returns the top of the operand stack without removing it.
func (f *Frame) Peek() (jvm.Value, error) {
	v, ok := f.Stack.Peek()
	if !ok {
		return jvm.Value{}, fmt.Errorf("%w: at %s", ErrStackUnderflow, f.PC)
	}
	return v, nil
}

func (f *Frame) String() string {
	indexes := make([]int, 0, len(f.Locals))
	for i := range f.Locals {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	parts := make([]string, 0, len(indexes))
	for _, i := range indexes {
		parts = append(parts, fmt.Sprintf("%d:%s", i, f.Locals[i]))
	}
	return fmt.Sprintf("<{%s}, depth=%d, %s>", strings.Join(parts, ", "), f.Stack.Len(), f.PC)
}
