// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

// byte classifiers used by the scanner to decide which token reader to
// dispatch to, depending on the current quoting context.

// regOps reports whether b forms or starts a regular (unquoted) token.
func regOps(b byte) bool {
	return b == ';' || b == '"' || b == '\'' || b == '(' ||
		b == ')' || b == '$' || b == '|' || b == '&' ||
		b == '>' || b == '<' || b == '`'
}

// paramOps reports whether b should be tokenized inside a parameter expansion.
func paramOps(b byte) bool {
	return b == '}' || b == '#' || b == ':' || b == '-' || b == '+' ||
		b == '=' || b == '?' || b == '%' || b == '[' || b == ']' ||
		b == '/' || b == '^' || b == ','
}

// arithmOps reports whether b should be tokenized inside an arithmetic expansion.
func arithmOps(b byte) bool {
	return b == '+' || b == '-' || b == '!' || b == '*' ||
		b == '/' || b == '%' || b == '(' || b == ')' ||
		b == '^' || b == '<' || b == '>' || b == ':' ||
		b == '=' || b == ',' || b == '?' || b == '|' ||
		b == '&' || b == ']'
}

func wordBreak(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == ';' ||
		b == '&' || b == '>' || b == '<' || b == '|' ||
		b == '(' || b == ')' || b == '\r'
}

// byteAt returns the byte at index i of src, or 0 if i is out of bounds.
// Used throughout the token readers for one-byte-ahead lookahead.
func byteAt(src []byte, i int) byte {
	if i >= len(src) {
		return 0
	}
	return src[i]
}
