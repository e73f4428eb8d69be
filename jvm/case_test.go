package jvm

import "testing"

func TestParseInputs(t *testing.T) {
	tests := []struct {
		in   string
		want []Value
	}{
		{"()", nil},
		{"(10, 0)", []Value{FromInt(10), FromInt(0)}},
		{"(-5)", []Value{FromInt(-5)}},
		{"(true)", []Value{FromBool(true)}},
		{"(false, 3)", []Value{FromBool(false), FromInt(3)}},
		{"('a')", []Value{FromChar('a')}},
		{"([I:1,2,3])", []Value{ArrayOf(IntType{}, []Value{FromInt(1), FromInt(2), FromInt(3)})}},
		{"([I:])", []Value{ArrayOf(IntType{}, nil)}},
		{"([C:'a','b'])", []Value{ArrayOf(CharType{}, []Value{FromChar('a'), FromChar('b')})}},
		{"([C:','])", []Value{ArrayOf(CharType{}, []Value{FromChar(',')})}},
		{"([C:',',','])", []Value{ArrayOf(CharType{}, []Value{FromChar(','), FromChar(',')})}},
		{"([I:1,2], 7)", []Value{ArrayOf(IntType{}, []Value{FromInt(1), FromInt(2)}), FromInt(7)}},
	}

	for _, tt := range tests {
		got, err := ParseInputs(tt.in)
		if err != nil {
			t.Errorf("ParseInputs(%q): %v", tt.in, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParseInputs(%q) = %d values, want %d", tt.in, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if !got[i].Equal(tt.want[i]) {
				t.Errorf("ParseInputs(%q)[%d] = %s, want %s", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestParseInputsErrors(t *testing.T) {
	bad := []string{
		"",
		"10, 0",
		"(10",
		"(hello)",
		"('ab')",
		"([I:1,2",
		"([X:1])",
	}
	for _, s := range bad {
		if _, err := ParseInputs(s); err == nil {
			t.Errorf("ParseInputs(%q): expected error", s)
		}
	}
}
