// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package pattern

import (
	"fmt"
	"strings"
)

// bracketExpr parses a "[...]" bracket expression, writing its regexp
// translation to sb. The leading "[" has already been consumed by sl.
func bracketExpr(sb *strings.Builder, sl *stringLexer, mode Mode) error {
	// TODO: surely char classes can be mixed with others, e.g. [[:foo:]xyz]
	if name, err := charClass(sl.peekRest()); err != nil {
		return &SyntaxError{msg: "charClass invalid", err: err}
	} else if name != "" {
		sb.WriteByte('[')
		sb.WriteString(name)
		sl.i += len(name)
		return nil
	}
	if mode&Filenames != 0 {
		for _, c := range sl.peekRest() {
			if c == ']' {
				break
			} else if c == '/' {
				sb.WriteString("\\[")
				return nil
			}
		}
	}
	sb.WriteByte('[')
	c := sl.next()
	if c == '\x00' {
		return &SyntaxError{msg: "[ was not matched with a closing ]"}
	}
	switch c {
	case '!', '^':
		sb.WriteByte('^')
		if c = sl.next(); c == '\x00' {
			return &SyntaxError{msg: "[ was not matched with a closing ]"}
		}
	}
	if c == ']' {
		sb.WriteByte(']')
		if c = sl.next(); c == '\x00' {
			return &SyntaxError{msg: "[ was not matched with a closing ]"}
		}
	}
	for {
		sb.WriteByte(c)
		switch c {
		case '\x00':
			return &SyntaxError{msg: "[ was not matched with a closing ]"}
		case '\\':
			if c = sl.next(); c != '0' {
				sb.WriteByte(c)
			}
		case '-':
			start := sl.last()
			end := sl.peekNext()
			// TODO: what about overlapping ranges, like: [a--z]
			if end != ']' && start > end {
				return &SyntaxError{msg: fmt.Sprintf("invalid range: %c-%c", start, end)}
			}
		case ']':
			return nil
		}
		c = sl.next()
	}
}

func charClass(s string) (string, error) {
	if strings.HasPrefix(s, "[.") || strings.HasPrefix(s, "[=") {
		return "", fmt.Errorf("collating features not available")
	}
	name, ok := strings.CutPrefix(s, "[:")
	if !ok {
		return "", nil
	}
	name, _, ok = strings.Cut(name, ":]]")
	if !ok {
		return "", fmt.Errorf("[[: was not matched with a closing :]]")
	}
	switch name {
	case "alnum", "alpha", "ascii", "blank", "cntrl", "digit", "graph",
		"lower", "print", "punct", "space", "upper", "word", "xdigit":
	default:
		return "", fmt.Errorf("invalid character class: %q", name)
	}
	return s[:len(name)+5], nil
}
