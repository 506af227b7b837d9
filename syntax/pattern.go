// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

func posixCharClass(s string) (string, error) {
	if !strings.HasPrefix(s, "[[:") {
		return "", nil
	}
	name := s[3:]
	end := strings.Index(name, ":]]")
	if end < 0 {
		return "", fmt.Errorf("[[: was not matched with a closing :]]")
	}
	name = name[:end]
	switch name {
	case "alnum", "alpha", "ascii", "blank", "cntrl", "digit", "graph",
		"lower", "print", "punct", "space", "upper", "word", "xdigit":
	default:
		return "", fmt.Errorf("invalid character class: %q", name)
	}
	return s[:len(name)+6], nil
}

// PatternRune returns whether a rune has special meaning in a pattern
// expression. The ones that do are '*', '?', '[' and '\\'.
func PatternRune(r rune) bool {
	return r == '*' || r == '?' || r == '[' || r == '\\'
}

func anyPatternRune(s string) bool {
	for _, r := range s {
		if PatternRune(r) {
			return true
		}
	}
	return false
}

// TranslatePattern turns a shell pattern expression into a regular
// expression that can be used with regexp.Compile. It will return an
// error if the input pattern was incorrect. Otherwise, the returned
// expression is ensured to be valid syntax.
func TranslatePattern(pattern string, greedy bool) (string, error) {
	if !anyPatternRune(pattern) { // short-cut without a string copy
		return pattern, nil
	}
	var buf bytes.Buffer
	for i := 0; i < len(pattern); i++ {
		var err error
		i, err = translatePatternByte(&buf, pattern, i, greedy)
		if err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// translatePatternByte translates the pattern token starting at index i and
// returns the index of its last consumed byte.
func translatePatternByte(buf *bytes.Buffer, pattern string, i int, greedy bool) (int, error) {
	switch c := pattern[i]; c {
	case '*':
		buf.WriteString(".*")
		if !greedy {
			buf.WriteByte('?')
		}
	case '?':
		buf.WriteString(".")
	case '\\':
		buf.WriteByte(c)
		i++
		buf.WriteByte(pattern[i])
	case '[':
		return translateBracket(buf, pattern, i)
	default:
		buf.WriteString(regexp.QuoteMeta(string(c)))
	}
	return i, nil
}

// translateBracket translates a "[...]" bracket expression, or a POSIX
// named class such as "[[:alpha:]]", starting at the opening bracket.
func translateBracket(buf *bytes.Buffer, pattern string, i int) (int, error) {
	name, err := posixCharClass(pattern[i:])
	if err != nil {
		return i, err
	}
	if name != "" {
		buf.WriteString(name)
		return i + len(name) - 1, nil
	}
	buf.WriteByte('[')
	if i++; i >= len(pattern) {
		return i, fmt.Errorf("[ was not matched with a closing ]")
	}
	c := pattern[i]
	if c == '!' {
		c = '^'
	}
	buf.WriteByte(c)
	for {
		if i++; i >= len(pattern) {
			return i, fmt.Errorf("[ was not matched with a closing ]")
		}
		c = pattern[i]
		buf.WriteByte(c)
		if c == ']' {
			break
		}
	}
	return i, nil
}
