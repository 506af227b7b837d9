// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shellgei/rusty-bash-sub001/pattern"
	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// paramExp resolves a parameter expansion to either a single joined string,
// or, when the expansion represents an array that should split into several
// fields (e.g. "$@" or "${arr[@]}"), a list of per-element strings. Only one
// of the two return values is meaningful at a time; list is nil unless the
// expansion is a multi-field array reference.
func (cfg *Config) paramExp(pe *syntax.ParamExp) (string, []string, error) {
	name := pe.Param.Value
	_, vr := cfg.Env.Get(name).Resolve(cfg.Env)

	if pe.Ind != nil {
		idx := pe.Ind.Word.Lit()
		if (idx == "@" || idx == "*") && (vr.Kind == Indexed || vr.Kind == Associative) {
			list := vr.List
			if vr.Kind == Associative {
				list = mapValues(vr.Map)
			}
			if pe.Length {
				return strconv.Itoa(len(list)), nil, nil
			}
			if idx == "@" {
				return "", append([]string(nil), list...), nil
			}
			return strings.Join(list, cfg.ifsFirst()), nil, nil
		}
		str, err := cfg.elemValue(vr, pe)
		if err != nil {
			return "", nil, err
		}
		if pe.Length {
			return strconv.Itoa(utf8.RuneCountInString(str)), nil, nil
		}
		return cfg.paramModifiers(pe, str, vr)
	}

	if name == "@" {
		if pe.Length {
			return strconv.Itoa(len(vr.List)), nil, nil
		}
		return "", append([]string(nil), vr.List...), nil
	}

	str := vr.String()
	if name == "*" {
		str = strings.Join(vr.List, cfg.ifsFirst())
	} else if vr.Kind == Indexed {
		if len(vr.List) > 0 {
			str = vr.List[0]
		} else {
			str = ""
		}
	} else if vr.Kind == Associative {
		str = vr.Map["0"]
	}

	if pe.Length {
		return strconv.Itoa(utf8.RuneCountInString(str)), nil, nil
	}

	return cfg.paramModifiers(pe, str, vr)
}

func mapValues(m map[string]string) []string {
	list := make([]string, 0, len(m))
	for _, v := range m {
		list = append(list, v)
	}
	return list
}

// elemValue resolves a single array element, e.g. ${arr[2]} or
// ${map[key]}.
func (cfg *Config) elemValue(vr Variable, pe *syntax.ParamExp) (string, error) {
	switch vr.Kind {
	case Associative:
		key, err := Literal(cfg, &pe.Ind.Word)
		if err != nil {
			return "", err
		}
		return vr.Map[key], nil
	case Indexed:
		n, err := Arithm(cfg, &pe.Ind.Word)
		if err != nil {
			return "", err
		}
		if n < 0 {
			n += len(vr.List)
		}
		if n < 0 || n >= len(vr.List) {
			return "", nil
		}
		return vr.List[n], nil
	default:
		n, err := Arithm(cfg, &pe.Ind.Word)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return vr.String(), nil
		}
		return "", nil
	}
}

// paramModifiers applies any of the slicing, search-and-replace,
// unset/null-handling, trimming, and case modifiers that a [syntax.ParamExp]
// may carry, on top of the already-resolved scalar value str.
func (cfg *Config) paramModifiers(pe *syntax.ParamExp, str string, vr Variable) (string, []string, error) {
	set := vr.IsSet()

	if pe.Slice != nil {
		var err error
		str, err = cfg.sliceStr(str, pe.Slice)
		if err != nil {
			return "", nil, err
		}
	}

	if pe.Repl != nil {
		var err error
		str, err = cfg.replaceStr(str, pe.Repl)
		if err != nil {
			return "", nil, err
		}
	}

	if pe.Exp != nil {
		return cfg.paramExpOp(pe, str, set)
	}

	if !set && cfg.NoUnset && pe.Slice == nil && pe.Repl == nil {
		return "", nil, UnsetParameterError{Expr: pe, Message: "unbound variable"}
	}

	return str, nil, nil
}

func (cfg *Config) sliceStr(str string, sl *syntax.Slice) (string, error) {
	r := []rune(str)
	off, err := Arithm(cfg, &sl.Offset)
	if err != nil {
		return "", err
	}
	if off < 0 {
		off += len(r)
	}
	if off < 0 {
		off = 0
	}
	if off > len(r) {
		off = len(r)
	}
	length := len(r) - off
	if sl.Length.Parts != nil {
		length, err = Arithm(cfg, &sl.Length)
		if err != nil {
			return "", err
		}
		if length < 0 {
			length += len(r) - off
		}
	}
	if length < 0 {
		length = 0
	}
	end := off + length
	if end > len(r) {
		end = len(r)
	}
	if off > end {
		return "", nil
	}
	return string(r[off:end]), nil
}

func (cfg *Config) replaceStr(str string, repl *syntax.Replace) (string, error) {
	orig, err := Pattern(cfg, &repl.Orig)
	if err != nil {
		return "", err
	}
	with, err := Literal(cfg, &repl.With)
	if err != nil {
		return "", err
	}
	if orig == "" {
		return str, nil
	}

	anchorPrefix := strings.HasPrefix(orig, "#")
	anchorSuffix := strings.HasPrefix(orig, "%")
	if anchorPrefix || anchorSuffix {
		orig = orig[1:]
	}

	mode := pattern.Shortest
	expr, err := pattern.Regexp(orig, mode)
	if err != nil {
		return str, nil
	}
	switch {
	case anchorPrefix:
		expr = "^(?:" + expr + ")"
	case anchorSuffix:
		expr = "(?:" + expr + ")$"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return str, nil
	}

	if repl.All {
		return re.ReplaceAllLiteralString(str, with), nil
	}
	loc := re.FindStringIndex(str)
	if loc == nil {
		return str, nil
	}
	return str[:loc[0]] + with + str[loc[1]:], nil
}

// paramExpOp applies the modifier named by pe.Exp.Op, e.g. default values,
// error-if-unset, prefix/suffix trimming, or case conversion.
func (cfg *Config) paramExpOp(pe *syntax.ParamExp, str string, set bool) (string, []string, error) {
	exp := pe.Exp
	empty := !set || str == ""
	switch exp.Op {
	case syntax.SubstColMinus, syntax.SubstMinus:
		useDefault := !set
		if exp.Op == syntax.SubstColMinus {
			useDefault = empty
		}
		if useDefault {
			s, err := Literal(cfg, &exp.Word)
			return s, nil, err
		}
		return str, nil, nil
	case syntax.SubstColPlus, syntax.SubstPlus:
		useAlt := set
		if exp.Op == syntax.SubstColPlus {
			useAlt = !empty
		}
		if useAlt {
			s, err := Literal(cfg, &exp.Word)
			return s, nil, err
		}
		return "", nil, nil
	case syntax.SubstColQuest, syntax.SubstQuest:
		mustErr := !set
		if exp.Op == syntax.SubstColQuest {
			mustErr = empty
		}
		if mustErr {
			msg, _ := Literal(cfg, &exp.Word)
			if msg == "" {
				msg = "parameter null or not set"
			}
			return "", nil, UnsetParameterError{Expr: pe, Message: msg}
		}
		return str, nil, nil
	case syntax.SubstColAssgn, syntax.SubstAssgn:
		mustAssign := !set
		if exp.Op == syntax.SubstColAssgn {
			mustAssign = empty
		}
		if mustAssign {
			val, err := Literal(cfg, &exp.Word)
			if err != nil {
				return "", nil, err
			}
			if err := cfg.envSet(pe.Param.Value, val); err != nil {
				return "", nil, err
			}
			return val, nil, nil
		}
		return str, nil, nil
	case syntax.RemSmallPrefix, syntax.RemLargePrefix:
		pat, err := Pattern(cfg, &exp.Word)
		if err != nil || pat == "" {
			return str, nil, nil
		}
		return trimMatch(str, pat, true, exp.Op == syntax.RemLargePrefix), nil, nil
	case syntax.RemSmallSuffix, syntax.RemLargeSuffix:
		pat, err := Pattern(cfg, &exp.Word)
		if err != nil || pat == "" {
			return str, nil, nil
		}
		return trimMatch(str, pat, false, exp.Op == syntax.RemLargeSuffix), nil, nil
	case syntax.UpperFirst:
		return mapFirst(str, unicode.ToUpper), nil, nil
	case syntax.UpperAll:
		return strings.ToUpper(str), nil, nil
	case syntax.LowerFirst:
		return mapFirst(str, unicode.ToLower), nil, nil
	case syntax.LowerAll:
		return strings.ToLower(str), nil, nil
	default:
		return str, nil, nil
	}
}

func mapFirst(s string, f func(rune) rune) string {
	if s == "" {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(f(r)) + s[n:]
}

// trimMatch removes the shortest or longest match of pat from either the
// start or the end of str.
func trimMatch(str, pat string, prefix, longest bool) string {
	mode := pattern.Mode(0)
	if !longest {
		mode |= pattern.Shortest
	}
	expr, err := pattern.Regexp(pat, mode)
	if err != nil {
		return str
	}
	if !prefix && !longest {
		// The leftmost match of an end-anchored expression is the longest
		// suffix, so try the suffixes from the shortest one up instead.
		re, err := regexp.Compile("^(?:" + expr + ")$")
		for i := len(str); err == nil && i >= 0; i-- {
			if (i == len(str) || utf8.RuneStart(str[i])) && re.MatchString(str[i:]) {
				return str[:i]
			}
		}
		return str
	}
	if prefix {
		expr = "^(?:" + expr + ")"
	} else {
		expr = "(?:" + expr + ")$"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return str
	}
	loc := re.FindStringIndex(str)
	if loc == nil {
		return str
	}
	return str[:loc[0]] + str[loc[1]:]
}

// ifsFirst returns the first character of IFS, used to join "$*" and
// similar whole-array expansions; it defaults to a space.
func (cfg *Config) ifsFirst() string {
	ifs := cfg.ifs()
	if ifs == "" {
		return ""
	}
	return string(ifs[0])
}
