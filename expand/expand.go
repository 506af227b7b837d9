// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package expand handles all kinds of shell word expansions.
package expand

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/shellgei/rusty-bash-sub001/pattern"
	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// UnsetParameterError is returned by [Literal] and [Fields] when an unset
// parameter is expanded and [Config.NoUnset] is true.
type UnsetParameterError struct {
	Expr    *syntax.ParamExp
	Message string
}

func (u UnsetParameterError) Error() string {
	return fmt.Sprintf("%s: %s", u.Expr.Param.Value, u.Message)
}

// Config specifies details about how shell expansion should be performed.
// Some fields can be omitted entirely if their functionality is not needed.
type Config struct {
	// Env is used to get and, if it also implements [WriteEnviron], set
	// environment variables when performing shell expansions. Some
	// special parameters are also expanded via this interface, such as:
	//
	//   - "#", "*", "@", "?", "$", "PPID", "!", "0", "-"
	//
	// A nil Env is equivalent to [ListEnviron] with no elements.
	Env Environ

	// CmdSubst is used to expand command substitutions. If nil, a command
	// substitution errors with "command substitution not supported".
	CmdSubst func(io.Writer, *syntax.CmdSubst) error

	// ProcSubst is used to expand process substitutions. If nil, a
	// process substitution errors with "process substitution not supported".
	ProcSubst func(*syntax.ProcSubst) (string, error)

	// ReadDir2 is used to read directory entries for filename globbing. If
	// nil, globbing is disabled and patterns are left as literal text.
	ReadDir2 func(string) ([]fs.DirEntry, error)

	// GlobStar corresponds to the shell option that gives "**" its globstar
	// meaning in patterns. Only the final path element of a pattern is
	// matched against directory entries, so "**" never descends into
	// subdirectories.
	GlobStar bool
	// NoCaseGlob corresponds to the shell option that makes globbing
	// case-insensitive.
	NoCaseGlob bool
	// NullGlob corresponds to the shell option that removes a globbing
	// pattern entirely if it matches no files, rather than leaving it
	// unexpanded.
	NullGlob bool
	// NoUnset corresponds to the shell option that errors whenever an
	// undefined variable is expanded.
	NoUnset bool
}

func (cfg *Config) ifs() string {
	if vr := cfg.Env.Get("IFS"); vr.IsSet() {
		return vr.String()
	}
	return " \t\n"
}

func (cfg *Config) envGet(name string) string {
	if cfg.Env == nil {
		return ""
	}
	return cfg.Env.Get(name).String()
}

func (cfg *Config) envSet(name, value string) error {
	we, ok := cfg.Env.(WriteEnviron)
	if !ok {
		return fmt.Errorf("environment is read-only")
	}
	vr := cfg.Env.Get(name)
	vr.Set = true
	vr.Kind = String
	vr.Str = value
	vr.List = nil
	vr.Map = nil
	return we.Set(name, vr)
}

func prepareConfig(cfg *Config) *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Env == nil {
		cfg.Env = make(mapWriteEnviron)
	}
	return cfg
}

// mapWriteEnviron is the default [WriteEnviron] used when [Config.Env] is
// left nil, e.g. by callers that only care about expanding literal text.
type mapWriteEnviron map[string]Variable

func (m mapWriteEnviron) Get(name string) Variable { return m[name] }

func (m mapWriteEnviron) Set(name string, vr Variable) error {
	if !vr.IsSet() {
		delete(m, name)
		return nil
	}
	m[name] = vr
	return nil
}

func (m mapWriteEnviron) Each(fn func(name string, vr Variable) bool) {
	for name, vr := range m {
		if !fn(name, vr) {
			return
		}
	}
}

// Literal expands a single shell word. It is similar to [Fields], but the
// result is a single string. This is the behavior when using a variable as
// the value in a shell assignment, for example.
func Literal(cfg *Config, word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	cfg = prepareConfig(cfg)
	var sb strings.Builder
	for _, wp := range word.Parts {
		if err := cfg.wordPart(&sb, wp, quoteDouble); err != nil {
			return sb.String(), err
		}
	}
	return sb.String(), nil
}

// Document expands a single shell word as if it were within double quotes,
// but without having to escape any characters. This is the behavior of the
// body of a shell here-document.
func Document(cfg *Config, word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	cfg = prepareConfig(cfg)
	var sb strings.Builder
	for _, wp := range word.Parts {
		if err := cfg.wordPart(&sb, wp, quoteDouble); err != nil {
			return sb.String(), err
		}
	}
	return sb.String(), nil
}

// Pattern expands a single shell word as a pattern, for use in a case
// clause, the right-hand side of "[[ expr == pattern ]]", or similar. It is
// like [Literal], except that quoted parts of the word are kept quoted by
// escaping any pattern-special characters, so they are matched literally.
func Pattern(cfg *Config, word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	cfg = prepareConfig(cfg)
	var sb strings.Builder
	for _, wp := range word.Parts {
		if err := cfg.wordPart(&sb, wp, quotePattern); err != nil {
			return sb.String(), err
		}
	}
	return sb.String(), nil
}

// Fields expands a number of words as if they were arguments in a shell
// command, including brace expansion, parameter expansion, command
// substitution, arithmetic expansion, quote removal, field splitting, and
// filename expansion (globbing). Tilde prefixes such as "~" are not expanded
// and stay literal text.
func Fields(cfg *Config, words ...*syntax.Word) ([]string, error) {
	cfg = prepareConfig(cfg)
	var fields []string
	for _, word := range words {
		braceWord, _ := syntax.SplitBraces(word)
		for _, expWord := range Braces(braceWord) {
			wfields, err := cfg.wordFields(expWord.Parts)
			if err != nil {
				return fields, err
			}
			for _, wfield := range wfields {
				field := cfg.fieldJoin(wfield)
				if len(wfield) == 1 && wfield[0].quote == quoteNone && hasGlobChars(field) {
					matches, err := cfg.globField(field)
					if err != nil {
						return fields, err
					}
					if len(matches) > 0 {
						fields = append(fields, matches...)
						continue
					}
					if cfg.NullGlob {
						continue
					}
				}
				if field != "" || len(wfield) > 0 && anyQuoted(wfield) {
					fields = append(fields, field)
				}
			}
		}
	}
	return fields, nil
}

// quoteLevel describes whether, and how, a fragment of an expanded word was
// quoted in its source.
type quoteLevel uint8

const (
	quoteNone quoteLevel = iota
	quoteDouble
	quotePattern
)

// fieldPart is a fragment of an unsplit field, tagged with whether it came
// from a quoted context. Quoted fragments are never subject to field
// splitting or globbing.
type fieldPart struct {
	str   string
	quote quoteLevel
}

func anyQuoted(parts []fieldPart) bool {
	for _, p := range parts {
		if p.quote != quoteNone {
			return true
		}
	}
	return false
}

func (cfg *Config) fieldJoin(parts []fieldPart) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.str)
	}
	return sb.String()
}

func hasGlobChars(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

func (cfg *Config) globField(pat string) ([]string, error) {
	dir, file := path.Split(pat)
	if dir == "" {
		dir = "."
	} else {
		dir = filepath.Clean(dir)
	}
	names, err := cfg.glob(dir, file)
	if err != nil {
		return nil, nil
	}
	if dir != "." {
		prefix := path.Dir(pat + "x")
		for i, n := range names {
			names[i] = filepath.Join(prefix, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

// glob matches pat against the entries of dir, honoring cfg.NoCaseGlob.
func (cfg *Config) glob(dir, pat string) ([]string, error) {
	if cfg.ReadDir2 == nil {
		return nil, nil
	}
	entries, err := cfg.ReadDir2(dir)
	if err != nil {
		return nil, nil
	}
	mode := pattern.Filenames | pattern.EntireString
	if cfg.NoCaseGlob {
		mode |= pattern.NoGlobCase
	}
	if !cfg.GlobStar {
		mode |= pattern.NoGlobStar
	}
	expr, err := pattern.Regexp(pat, mode)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(pat, ".") {
			continue
		}
		if re.MatchString(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// wordFields splits the given word parts by their field boundaries, honoring
// IFS and quoting rules; it returns the unjoined field parts, deferring
// joining and globbing to the caller.
func (cfg *Config) wordFields(wps []syntax.WordPart) ([][]fieldPart, error) {
	var sb strings.Builder
	var fields [][]fieldPart
	var curField []fieldPart
	flush := func() {
		if len(curField) > 0 {
			fields = append(fields, curField)
		}
		curField = nil
	}
	flushLit := func() {
		if sb.Len() > 0 {
			curField = append(curField, fieldPart{str: sb.String(), quote: quoteNone})
			sb.Reset()
		}
	}
	ifs := cfg.ifs()
	isSep := func(r rune) bool { return strings.ContainsRune(ifs, r) }
	for _, wp := range wps {
		switch x := wp.(type) {
		case *syntax.Lit:
			for _, r := range x.Value {
				if isSep(r) {
					flushLit()
					flush()
				} else {
					sb.WriteRune(r)
				}
			}
		case *syntax.SglQuoted:
			flushLit()
			curField = append(curField, fieldPart{str: x.Value, quote: quoteDouble})
		case *syntax.DblQuoted:
			flushLit()
			if len(x.Parts) == 1 {
				if pe, ok := x.Parts[0].(*syntax.ParamExp); ok && quotedParamIsArray(pe) {
					list, err := cfg.paramList(pe)
					if err != nil {
						return fields, err
					}
					for j, s := range list {
						if j > 0 {
							flush()
						}
						curField = append(curField, fieldPart{str: s, quote: quoteDouble})
					}
					continue
				}
			}
			var qsb strings.Builder
			for _, qp := range x.Parts {
				if err := cfg.wordPart(&qsb, qp, quoteDouble); err != nil {
					return fields, err
				}
			}
			curField = append(curField, fieldPart{str: qsb.String(), quote: quoteDouble})
		case *syntax.ParamExp:
			if !quotedParamIsArray(x) {
				flushLit()
				var psb strings.Builder
				if err := cfg.wordPart(&psb, x, quoteNone); err != nil {
					return fields, err
				}
				for _, r := range psb.String() {
					if isSep(r) {
						flushLit()
						flush()
					} else {
						sb.WriteRune(r)
					}
				}
				continue
			}
			flushLit()
			list, err := cfg.paramList(x)
			if err != nil {
				return fields, err
			}
			for j, s := range list {
				if j > 0 {
					flush()
				}
				curField = append(curField, fieldPart{str: s, quote: quoteNone})
			}
		default:
			flushLit()
			var psb strings.Builder
			if err := cfg.wordPart(&psb, wp, quoteNone); err != nil {
				return fields, err
			}
			for _, r := range psb.String() {
				if isSep(r) {
					flushLit()
					flush()
				} else {
					sb.WriteRune(r)
				}
			}
		}
	}
	flushLit()
	flush()
	return fields, nil
}

// quotedParamIsArray reports whether a ParamExp refers to "$@" or an array
// that should expand into multiple fields rather than a single IFS-joined
// one, e.g. "${arr[@]}".
func quotedParamIsArray(pe *syntax.ParamExp) bool {
	if pe.Param.Value == "@" {
		return true
	}
	if pe.Ind != nil && pe.Ind.Word.Lit() == "@" {
		return true
	}
	return false
}

func (cfg *Config) wordPart(sb *strings.Builder, wp syntax.WordPart, q quoteLevel) error {
	switch x := wp.(type) {
	case *syntax.Lit:
		val := x.Value
		if q == quotePattern {
			val = escapeLiteral(val)
		}
		sb.WriteString(val)
	case *syntax.SglQuoted:
		val := x.Value
		if q == quotePattern {
			val = pattern.QuoteMeta(val, 0)
		}
		sb.WriteString(val)
	case *syntax.DblQuoted:
		for _, dp := range x.Parts {
			if err := cfg.wordPart(sb, dp, q); err != nil {
				return err
			}
		}
	case *syntax.ParamExp:
		str, _, err := cfg.paramExp(x)
		if err != nil {
			return err
		}
		if q == quotePattern {
			str = pattern.QuoteMeta(str, 0)
		}
		sb.WriteString(str)
	case *syntax.CmdSubst:
		if cfg.CmdSubst == nil {
			return fmt.Errorf("command substitution not supported")
		}
		var csb strings.Builder
		if err := cfg.CmdSubst(&csb, x); err != nil {
			return err
		}
		sb.WriteString(strings.TrimRight(csb.String(), "\n"))
	case *syntax.ArithmExp:
		n, err := Arithm(cfg, x.X)
		if err != nil {
			return err
		}
		sb.WriteString(fmt.Sprint(n))
	case *syntax.ProcSubst:
		if cfg.ProcSubst == nil {
			return fmt.Errorf("process substitution not supported")
		}
		path, err := cfg.ProcSubst(x)
		if err != nil {
			return err
		}
		sb.WriteString(path)
	case *syntax.ExtGlob:
		sb.WriteString(x.Op.String())
		sb.WriteString(x.Pattern.Value)
		sb.WriteByte(')')
	case *syntax.BraceExp:
		// reached only if the caller skipped Braces; render unexpanded.
		for i, elem := range x.Elems {
			if i > 0 {
				sb.WriteByte(',')
			}
			lit, err := Literal(cfg, elem)
			if err != nil {
				return err
			}
			sb.WriteString(lit)
		}
	default:
		return fmt.Errorf("unhandled word part: %T", wp)
	}
	return nil
}

func escapeLiteral(s string) string {
	return pattern.QuoteMeta(s, 0)
}

// paramList expands a ParamExp known to represent an array or "$@" into its
// individual element strings.
func (cfg *Config) paramList(pe *syntax.ParamExp) ([]string, error) {
	str, list, err := cfg.paramExp(pe)
	if err != nil {
		return nil, err
	}
	if list != nil {
		return list, nil
	}
	if str == "" {
		return nil, nil
	}
	return []string{str}, nil
}

// Format implements the basic behavior of printf(1) and the shell's printf
// and echo builtins. It returns the formatted string, the number of
// arguments consumed, and any error encountered.
func Format(cfg *Config, format string, args []string) (string, int, error) {
	cfg = prepareConfig(cfg)
	var sb strings.Builder
	var argIdx int
	nextArg := func() string {
		if argIdx >= len(args) {
			return ""
		}
		s := args[argIdx]
		argIdx++
		return s
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			if c == '\\' && i+1 < len(format) {
				if r, n, ok := decodeEscape(format[i+1:]); ok {
					sb.WriteRune(r)
					i += n
					continue
				}
			}
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(format) {
			sb.WriteByte(c)
			break
		}
		start := i
		i++
		for i < len(format) && strings.ContainsRune("-+ #0123456789.", rune(format[i])) {
			i++
		}
		if i >= len(format) {
			sb.WriteString(format[start:])
			break
		}
		verb := format[i]
		spec := format[start : i+1]
		switch verb {
		case '%':
			sb.WriteByte('%')
		case 's':
			sb.WriteString(fmt.Sprintf(spec, nextArg()))
		case 'd', 'i':
			sb.WriteString(fmt.Sprintf(spec[:len(spec)-1]+"d", atoi(nextArg())))
		case 'x', 'X', 'o':
			sb.WriteString(fmt.Sprintf(spec, atoi(nextArg())))
		case 'c':
			arg := nextArg()
			if len(arg) > 0 {
				sb.WriteByte(arg[0])
			}
		case 'b':
			sb.WriteString(expandBackslash(nextArg()))
		case 'q':
			q, _ := syntax.Quote(nextArg(), syntax.LangBash)
			sb.WriteString(q)
		case 'f', 'g', 'e', 'G', 'E':
			var f float64
			fmt.Sscanf(nextArg(), "%f", &f)
			sb.WriteString(fmt.Sprintf(spec, f))
		default:
			sb.WriteString(spec)
		}
	}
	return sb.String(), argIdx, nil
}

func decodeEscape(s string) (rune, int, bool) {
	if len(s) == 0 {
		return 0, 0, false
	}
	switch s[0] {
	case 'n':
		return '\n', 1, true
	case 't':
		return '\t', 1, true
	case 'r':
		return '\r', 1, true
	case '\\':
		return '\\', 1, true
	}
	return 0, 0, false
}

func expandBackslash(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			if r, n, ok := decodeEscape(s[i+1:]); ok {
				sb.WriteRune(r)
				i += n
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// ReadFields splits s into at most n fields the way the shell's read builtin
// does, using IFS as the separator. If raw is false, backslash sequences are
// interpreted as in the default (non -r) mode of read.
func ReadFields(cfg *Config, s string, n int, raw bool) []string {
	cfg = prepareConfig(cfg)
	ifs := cfg.ifs()
	esc := make([]bool, len(s)) // esc[i]: s[i] followed a backslash
	if !raw {
		var sb strings.Builder
		esc = esc[:0]
		for i := 0; i < len(s); i++ {
			esc = append(esc, s[i] == '\\' && i+1 < len(s))
			if esc[len(esc)-1] {
				i++
			}
			sb.WriteByte(s[i])
		}
		s = sb.String()
	}
	isSpace := func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }
	var fields []string
	i := 0
	for i < len(s) {
		for i < len(s) && !esc[i] && isSpace(rune(s[i])) && strings.ContainsRune(ifs, rune(s[i])) {
			i++
		}
		if i >= len(s) {
			break
		}
		start := i
		for i < len(s) {
			r := rune(s[i])
			if !esc[i] && strings.ContainsRune(ifs, r) {
				if n > 0 && len(fields)+1 >= n {
					i = len(s)
					break
				}
				break
			}
			i++
		}
		fields = append(fields, s[start:i])
		if i < len(s) {
			i++
		}
	}
	return fields
}
