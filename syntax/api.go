// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"io"
	"iter"
	"strconv"
	"strings"
)

// LangVariant describes a shell dialect accepted by the parser, or produced
// by [Quote].
type LangVariant int

const (
	LangBash LangVariant = iota
	LangPOSIX
	LangMirBSDKorn
	LangAuto
)

func (l LangVariant) String() string {
	switch l {
	case LangBash:
		return "bash"
	case LangPOSIX:
		return "posix"
	case LangMirBSDKorn:
		return "mksh"
	case LangAuto:
		return "auto"
	}
	return "unknown shell language variant"
}

// ParserOption is a function which can be passed to [NewParser]
// to alter its behavior. To apply options, they must be passed
// as arguments to NewParser.
type ParserOption func(*Parser)

// KeepComments makes the parser parse comments and attach them to nodes, as
// opposed to discarding them.
func KeepComments(enabled bool) ParserOption {
	return func(p *Parser) {
		if enabled {
			p.mode |= ParseComments
		} else {
			p.mode &^= ParseComments
		}
	}
}

// Variant changes the shell language variant that the parser will accept.
//
// Currently, only the [LangBash] and [LangPOSIX] variants affect parsing
// behavior; the others are accepted for interface compatibility with the
// wider dialect but are parsed the same as [LangBash].
func Variant(l LangVariant) ParserOption {
	return func(p *Parser) {
		if l == LangPOSIX {
			p.mode |= PosixConformant
		} else {
			p.mode &^= PosixConformant
		}
	}
}

// Parser holds the internal state of the parsing mechanism of a program.
//
// A Parser can be reused once created, to parse many different sources. It
// is not safe for concurrent use.
type Parser struct {
	mode ParseMode
}

// NewParser allocates a new [Parser] and applies any number of options.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads and parses a shell program with an optional name, and returns
// the parsed top-level File.
func (p *Parser) Parse(r io.Reader, name string) (*File, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(src, name, p.mode)
}

// Document parses a here-document-style body: a single [Word], whose
// contents run to the end of the reader rather than stopping at blanks.
// This is useful to parse the values of here-strings and similar
// standalone word sources found outside of a full program.
func (p *Parser) Document(r io.Reader) (*Word, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	pp := parserFree.Get().(*parser)
	pp.reset()
	alloc := &struct {
		f File
		l [16]int
	}{}
	pp.f = &alloc.f
	pp.f.Lines = alloc.l[:1]
	pp.src, pp.mode = src, p.mode
	pp.quote = hdocBody
	pp.hdocStop = nil
	pp.next()
	w := pp.word()
	werr := pp.err
	parserFree.Put(pp)
	if werr != nil {
		return nil, werr
	}
	return &w, nil
}

// WordsSeq is like calling [Parser.Parse] on a line made up of words
// separated by blanks, and then iterating over each argument word in the
// resulting simple command. It is used to parse values like alias bodies or
// $IFS-separated word lists that are not full shell programs.
func (p *Parser) WordsSeq(r io.Reader) iter.Seq2[*Word, error] {
	return func(yield func(*Word, error) bool) {
		src, err := io.ReadAll(r)
		if err != nil {
			yield(nil, err)
			return
		}
		file, err := Parse(src, "", p.mode)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, stmt := range file.Stmts {
			call, ok := stmt.Cmd.(*CallExpr)
			if !ok {
				continue
			}
			for i := range call.Args {
				if !yield(&call.Args[i], nil) {
					return
				}
			}
		}
	}
}

// ValidName returns whether s is a valid name as per the POSIX spec for
// shell variable and function names.
func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

var keywords = map[string]bool{
	"if": true, "then": true, "elif": true, "else": true, "fi": true,
	"while": true, "until": true, "for": true, "in": true, "do": true,
	"done": true, "case": true, "esac": true, "function": true,
	"select": true, "coproc": true, "time": true,
	"{": true, "}": true, "!": true, "[[": true, "]]": true,
}

// IsKeyword returns whether s is a reserved shell keyword, e.g. "if" or "do".
func IsKeyword(s string) bool {
	return keywords[s]
}

// Quote returns a quoted version of the literal string s, so that the result
// is always expanded by the given language variant into the literal string
// unchanged. If s doesn't require any quoting, it is returned unchanged.
//
// Quoting is necessary when using values in shell code, such as when
// injecting variable values into a script via a template, or reusing the
// string value that a [expand.Variable] held.
func Quote(s string, lang LangVariant) (string, error) {
	shouldEscape := false
	for _, r := range s {
		if r > 127 {
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_-./:=@%,+", r):
		default:
			shouldEscape = true
		}
	}
	if !shouldEscape {
		if s == "" {
			return "''", nil
		}
		return s, nil
	}
	switch lang {
	case LangBash, LangAuto:
		if !strings.ContainsRune(s, '\'') && !strings.ContainsAny(s, "\x00") {
			return "'" + s + "'", nil
		}
		// fall back to a $'...' ANSI-C-quoted string
		var sb strings.Builder
		sb.WriteString("$'")
		for _, r := range s {
			switch r {
			case '\'', '\\':
				sb.WriteByte('\\')
				sb.WriteRune(r)
			case '\n':
				sb.WriteString(`\n`)
			default:
				sb.WriteRune(r)
			}
		}
		sb.WriteByte('\'')
		return sb.String(), nil
	default:
		if !strings.ContainsRune(s, '\'') {
			return "'" + s + "'", nil
		}
		return strconv.Quote(s), nil
	}
}
