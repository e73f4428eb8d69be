package vm

import "fmt"

// State is the unit of transition: a heap plus the stack of call frames,
// innermost frame on top. A State is owned by exactly one run; no two runs
// share one.
type State struct {
	Heap   *Heap
	Frames Stack[*Frame]
}

// NewState creates a state with an empty heap and the given entry frame.
func NewState(entry *Frame) *State {
	st := &State{Heap: NewHeap()}
	st.Frames.Push(entry)
	return st
}

// Frame returns the currently executing (top) frame. An empty call stack
// while execution is in progress is an interpreter defect.
func (st *State) Frame() (*Frame, error) {
	f, ok := st.Frames.Peek()
	if !ok {
		return nil, fmt.Errorf("%w: no active frame", ErrMalformedProgram)
	}
	return f, nil
}
