package jvm

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Case input parsing
// ---------------------------------------------------------------------------

// ParseInputs parses the parenthesized input literal of a case, for example
// "(10, 0)", "(true)", "('a')", "([I:1,2,3])", or "()".
func ParseInputs(s string) ([]Value, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("input %q: expected parenthesized tuple", s)
	}

	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, nil
	}

	tokens, err := splitTopLevel(inner)
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", s, err)
	}

	values := make([]Value, 0, len(tokens))
	for _, tok := range tokens {
		v, err := ParseInputValue(tok)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", s, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// ParseInputValue parses one input literal: an integer, a boolean, a quoted
// char, or a typed array ("[I:1,2,3]", "[C:'a','b']").
func ParseInputValue(tok string) (Value, error) {
	tok = strings.TrimSpace(tok)
	switch {
	case tok == "true":
		return FromBool(true), nil
	case tok == "false":
		return FromBool(false), nil
	case strings.HasPrefix(tok, "'"):
		return parseCharLiteral(tok)
	case strings.HasPrefix(tok, "[I"):
		return parseArrayLiteral(tok, IntType{})
	case strings.HasPrefix(tok, "[C"):
		return parseArrayLiteral(tok, CharType{})
	}

	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return Value{}, fmt.Errorf("unsupported value literal %q", tok)
	}
	return FromInt(int32(n)), nil
}

func parseCharLiteral(tok string) (Value, error) {
	runes := []rune(tok)
	if len(runes) != 3 || runes[0] != '\'' || runes[2] != '\'' {
		return Value{}, fmt.Errorf("malformed char literal %q", tok)
	}
	return FromChar(runes[1]), nil
}

// parseArrayLiteral parses "[I:1,2,3]" / "[C:'a','b']" forms. An array with
// no elements is written "[I:]" or "[I]".
func parseArrayLiteral(tok string, elem Type) (Value, error) {
	if !strings.HasSuffix(tok, "]") {
		return Value{}, fmt.Errorf("malformed array literal %q", tok)
	}
	body := tok[2 : len(tok)-1]
	body = strings.TrimPrefix(body, ":")
	body = strings.TrimSpace(body)
	if body == "" {
		return ArrayOf(elem, nil), nil
	}

	parts, err := splitTopLevel(body)
	if err != nil {
		return Value{}, fmt.Errorf("malformed array literal %q: %w", tok, err)
	}
	elems := make([]Value, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch elem.(type) {
		case CharType:
			v, err := parseCharLiteral(part)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		default:
			n, err := strconv.ParseInt(part, 10, 32)
			if err != nil {
				return Value{}, fmt.Errorf("malformed array element %q", part)
			}
			elems = append(elems, FromInt(int32(n)))
		}
	}
	return ArrayOf(elem, elems), nil
}

// splitTopLevel splits on commas that are not nested inside brackets or
// quotes.
func splitTopLevel(s string) ([]string, error) {
	var tokens []string
	depth := 0
	inQuote := false
	start := 0

	for i, r := range s {
		switch {
		case inQuote:
			if r == '\'' {
				inQuote = false
			}
		case r == '\'':
			inQuote = true
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets")
			}
		case r == ',' && depth == 0:
			tokens = append(tokens, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if depth != 0 || inQuote {
		return nil, fmt.Errorf("unbalanced brackets or quotes")
	}
	tokens = append(tokens, strings.TrimSpace(s[start:]))
	return tokens, nil
}
