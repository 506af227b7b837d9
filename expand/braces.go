// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"strconv"

	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// Braces performs Bash brace expansion on a word. For example, passing it a
// single-literal word "foo{bar,baz}" will return two single-literal words,
// "foobar" and "foobaz".
//
// The word is expected to have already been processed by
// [syntax.SplitBraces], so that any brace expansions show up as
// *syntax.BraceExp word parts.
//
// It does not return an error; malformed brace expansions are simply skipped.
func Braces(word *syntax.Word) []*syntax.Word {
	any := false
	for _, wp := range word.Parts {
		if _, ok := wp.(*syntax.BraceExp); ok {
			any = true
			break
		}
	}
	if !any {
		return []*syntax.Word{word}
	}
	words := []*syntax.Word{{}}
	for _, wp := range word.Parts {
		be, ok := wp.(*syntax.BraceExp)
		if !ok {
			for _, w := range words {
				w.Parts = append(w.Parts, wp)
			}
			continue
		}
		var elems []*syntax.Word
		if be.Sequence {
			elems = sequenceElems(be)
		} else {
			for _, elem := range be.Elems {
				elems = append(elems, Braces(elem)...)
			}
		}
		var next []*syntax.Word
		for _, w := range words {
			for _, elem := range elems {
				nw := &syntax.Word{}
				nw.Parts = append(nw.Parts, w.Parts...)
				nw.Parts = append(nw.Parts, elem.Parts...)
				next = append(next, nw)
			}
		}
		words = next
	}
	return words
}

// sequenceElems expands a {x..y[..incr]} brace sequence into its literal
// elements, in order.
func sequenceElems(be *syntax.BraceExp) []*syntax.Word {
	from := be.Elems[0].Lit()
	to := be.Elems[1].Lit()
	incr := 1
	if len(be.Elems) == 3 {
		if n, err := strconv.Atoi(be.Elems[2].Lit()); err == nil && n != 0 {
			incr = n
		}
	}
	var words []*syntax.Word
	if be.Chars {
		lo, hi := from[0], to[0]
		step := incr
		if lo > hi && step > 0 {
			step = -step
		} else if lo < hi && step < 0 {
			step = -step
		}
		for c := int(lo); (step > 0 && c <= int(hi)) || (step < 0 && c >= int(hi)); c += step {
			words = append(words, litWordOf(string(rune(c))))
		}
		return words
	}
	lo, _ := strconv.Atoi(from)
	hi, _ := strconv.Atoi(to)
	width := 0
	if (len(from) > 1 && from[0] == '0') || (len(to) > 1 && to[0] == '0') {
		if len(from) > len(to) {
			width = len(from)
		} else {
			width = len(to)
		}
	}
	step := incr
	if lo > hi && step > 0 {
		step = -step
	} else if lo < hi && step < 0 {
		step = -step
	}
	for n := lo; (step > 0 && n <= hi) || (step < 0 && n >= hi); n += step {
		s := strconv.Itoa(n)
		if width > 0 {
			neg := n < 0
			if neg {
				s = s[1:]
			}
			for len(s) < width {
				s = "0" + s
			}
			if neg {
				s = "-" + s
			}
		}
		words = append(words, litWordOf(s))
	}
	return words
}

func litWordOf(s string) *syntax.Word {
	return &syntax.Word{Parts: []syntax.WordPart{&syntax.Lit{Value: s}}}
}
