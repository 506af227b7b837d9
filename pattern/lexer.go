// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package pattern

import (
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// stringLexer helps us tokenize a pattern string.
// Note that we can use the null byte '\x00' to signal "no character" as shell strings cannot contain null bytes.
// TODO: should the tokenization be based on runes? e.g: [á-é]
type stringLexer struct {
	s string
	i int
}

func (sl *stringLexer) next() byte {
	if sl.i >= len(sl.s) {
		return '\x00'
	}
	c := sl.s[sl.i]
	sl.i++
	return c
}

func (sl *stringLexer) last() byte {
	if sl.i < 2 {
		return '\x00'
	}
	return sl.s[sl.i-2]
}

func (sl *stringLexer) peekNext() byte {
	if sl.i >= len(sl.s) {
		return '\x00'
	}
	return sl.s[sl.i]
}

func (sl *stringLexer) peekRest() string {
	return sl.s[sl.i:]
}

// regexpNext consumes one pattern token from sl and writes its regexp
// translation to sb. It returns io.EOF once the pattern is exhausted.
func regexpNext(sb *strings.Builder, sl *stringLexer, mode Mode) error {
	switch c := sl.next(); c {
	case '\x00':
		return io.EOF
	case '*':
		return star(sb, sl, mode)
	case '?':
		if mode&Filenames != 0 {
			sb.WriteString("[^/]")
		} else {
			sb.WriteByte('.')
		}
	case '\\':
		c = sl.next()
		if c == '\x00' {
			return &SyntaxError{msg: `\ at end of pattern`}
		}
		sb.WriteString(regexp.QuoteMeta(string(c)))
	case '[':
		return bracketExpr(sb, sl, mode)
	default:
		if c > utf8.RuneSelf {
			sb.WriteByte(c)
		} else {
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return nil
}

// star handles a "*" token, including the "**" globstar form Filenames mode
// gives special meaning to as a whole path element.
func star(sb *strings.Builder, sl *stringLexer, mode Mode) error {
	if mode&Filenames == 0 {
		// * - matches anything when not in filename mode
		sb.WriteString(".*")
		return nil
	}
	// "**" only acts as globstar if it is alone as a path element.
	singleBefore := sl.i == 1 || sl.last() == '/'
	if sl.peekNext() == '*' {
		sl.i++
		singleAfter := sl.i == len(sl.s) || sl.peekNext() == '/'
		if mode&NoGlobStar == 0 && singleBefore && singleAfter {
			if sl.peekNext() == '/' {
				// **/ - like "**" but requiring a trailing slash when matching
				sl.i++
				sb.WriteString("((/|[^/.][^/]*)*/)?")
			} else {
				// ** - match any number of slashes or "*" path elements
				sb.WriteString("(/|[^/.][^/]*)*")
			}
			return nil
		}
		// foo**, **bar, or NoGlobStar - behaves like "*" below
	}
	// * - matches anything except slashes and leading dots
	if singleBefore {
		sb.WriteString("([^/.][^/]*)?")
	} else {
		sb.WriteString("[^/]*")
	}
	return nil
}
