package vm

import (
	"fmt"

	"github.com/jpamb/interpreter/jvm"
)

// PC addresses one instruction: a method identifier and an offset into its
// instruction list.
type PC struct {
	Method jvm.AbsMethodID
	Offset int
}

// Advance returns a PC moved forward by n instructions.
func (pc PC) Advance(n int) PC {
	pc.Offset += n
	return pc
}

// WithOffset returns a PC redirected to the given offset in the same
// method.
func (pc PC) WithOffset(offset int) PC {
	pc.Offset = offset
	return pc
}

func (pc PC) String() string {
	return fmt.Sprintf("%s:%d", pc.Method, pc.Offset)
}
