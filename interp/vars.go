// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"os"
	"strconv"
	"strings"

	"github.com/shellgei/rusty-bash-sub001/expand"
	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// overlayEnviron is a layer of local variables on top of a parent
// [expand.WriteEnviron]. Looking up a name walks up through the overlay
// chain until a set variable is found, or the parent is reached.
//
// funcScope marks an overlay pushed by entering a shell function; only
// "local"-declared names get their own entry at that level. background
// marks an overlay used by a background job or subshell, which gets a
// private copy-on-write view of its parent so that writes don't leak back.
type overlayEnviron struct {
	parent    expand.WriteEnviron
	values    map[string]expand.Variable
	funcScope bool
	background bool
}

func newOverlayEnviron(parent expand.WriteEnviron, background bool) *overlayEnviron {
	return &overlayEnviron{parent: parent, background: background}
}

func (o *overlayEnviron) Get(name string) expand.Variable {
	if vr, ok := o.values[name]; ok {
		return vr
	}
	if o.parent != nil {
		return o.parent.Get(name)
	}
	return expand.Variable{}
}

func (o *overlayEnviron) Set(name string, vr expand.Variable) error {
	if o.values == nil {
		o.values = make(map[string]expand.Variable)
	}
	// A background overlay keeps every write. Otherwise, a name this overlay
	// does not hold yet is written through to the parent if we are a function
	// scope and the name is not being declared local, or if the name is
	// already set further up the chain, so that global assignments remain
	// visible after the overlay is discarded.
	if o.parent != nil && !o.background {
		if _, ok := o.values[name]; !ok {
			if o.funcScope && !vr.Local || !o.funcScope && o.parent.Get(name).IsSet() {
				return o.parent.Set(name, vr)
			}
		}
	}
	o.values[name] = vr
	return nil
}

func (o *overlayEnviron) Each(fn func(name string, vr expand.Variable) bool) {
	seen := make(map[string]bool, len(o.values))
	for name, vr := range o.values {
		seen[name] = true
		if !fn(name, vr) {
			return
		}
	}
	if o.parent != nil {
		o.parent.Each(func(name string, vr expand.Variable) bool {
			if seen[name] {
				return true
			}
			return fn(name, vr)
		})
	}
}

// delete marks name as locally unset within this overlay, shadowing any
// value the parent might still have.
func (o *overlayEnviron) delete(name string) {
	if o.values == nil {
		o.values = make(map[string]expand.Variable)
	}
	o.values[name] = expand.Variable{}
}

// lookupVar returns the current value of name, consulting the special
// dollar-prefixed parameters the shell synthesizes on the fly before
// falling back to the regular variable overlay chain.
func (r *Runner) lookupVar(name string) expand.Variable {
	if name == "" {
		return expand.Variable{}
	}
	switch name {
	case "#":
		return r.strVar(strconv.Itoa(len(r.Params)))
	case "@", "*":
		return expand.Variable{Set: true, Kind: expand.Indexed, List: append([]string(nil), r.Params...)}
	case "?":
		return r.strVar(strconv.Itoa(int(r.exit.code)))
	case "$":
		return r.strVar(strconv.Itoa(os.Getpid()))
	case "PPID":
		return r.strVar(strconv.Itoa(os.Getppid()))
	case "!":
		if len(r.bgProcs) == 0 {
			return expand.Variable{}
		}
		return r.strVar(strconv.Itoa(len(r.bgProcs)))
	case "0":
		if r.filename != "" {
			return r.strVar(r.filename)
		}
		return r.strVar("gush")
	case "-":
		return r.strVar(r.optFlags())
	}
	if n, err := strconv.Atoi(name); err == nil {
		if n == 0 {
			return r.strVar(r.filename)
		}
		if n < 1 || n > len(r.Params) {
			return expand.Variable{}
		}
		return r.strVar(r.Params[n-1])
	}
	return r.writeEnv.Get(name)
}

func (r *Runner) strVar(s string) expand.Variable {
	return expand.Variable{Set: true, Kind: expand.String, Str: s}
}

// optFlags renders the currently active single-letter runner options, for $-.
func (r *Runner) optFlags() string {
	var sb strings.Builder
	for i, opt := range &shellOptsTable {
		if opt.flag != ' ' && r.opts[i] {
			sb.WriteByte(opt.flag)
		}
	}
	return sb.String()
}

// getVar is a convenience wrapper returning a variable's plain string value,
// used by the arithmetic evaluator where untyped values decay to their
// string (or zero, if unset) form.
func (r *Runner) getVar(name string) string {
	return r.lookupVar(name).String()
}

// VarStr returns the plain string value of a shell variable, or "" if it is
// unset. Intended for callers outside the package, such as a prompt
// renderer, that only need read access to a single variable's value.
func (r *Runner) VarStr(name string) string {
	return r.lookupVar(name).String()
}

// envGet is used by code paths, such as builtins, that only care about a
// variable's exported-environment string representation.
func (r *Runner) envGet(name string) string {
	return r.lookupVar(name).String()
}

// setVar stores vr under name, refusing to overwrite read-only variables
// outside of the Reset bootstrap.
func (r *Runner) setVar(name string, vr expand.Variable) {
	if name == "" {
		return
	}
	if prev := r.writeEnv.Get(name); prev.ReadOnly {
		r.errf("%s: readonly variable\n", name)
		r.exit = exitStatus{code: 1}
		return
	}
	vr.Set = true
	if vr.Kind == expand.Unknown {
		vr.Kind = expand.String
	}
	r.writeEnv.Set(name, vr)
}

// setVarString is shorthand for setting a plain string-valued variable.
func (r *Runner) setVarString(name, val string) {
	r.setVar(name, expand.Variable{Set: true, Kind: expand.String, Str: val})
}

// delVar removes name's value entirely, as with "unset".
func (r *Runner) delVar(name string) {
	if name == "" {
		return
	}
	if o, ok := r.writeEnv.(*overlayEnviron); ok {
		o.delete(name)
		return
	}
	r.writeEnv.Set(name, expand.Variable{})
}

// setFunc records body under name as a callable shell function.
func (r *Runner) setFunc(name string, body *syntax.Stmt) {
	if r.Funcs == nil {
		r.Funcs = make(map[string]*syntax.Stmt)
	}
	r.Funcs[name] = body
}

// loneWord expands word, which must resolve to exactly one field, as used
// wherever the grammar requires a single literal such as a variable name.
func (r *Runner) loneWord(word *syntax.Word) string {
	str, err := expand.Literal(r.ecfg, word)
	r.expandErr(err)
	return str
}

// assignVal computes the new value an assignment should produce for name,
// given whatever it held before (prev), honoring append ("+=") and the
// array/associative-array forms of the right-hand side.
func (r *Runner) assignVal(prev expand.Variable, as *syntax.Assign, valType string) expand.Variable {
	if as.Array != nil {
		return r.assignArray(prev, as)
	}
	var str string
	if as.Value != nil {
		str = r.literal(as.Value)
	}
	switch valType {
	case "-i":
		n, _ := strconv.Atoi(str)
		str = strconv.Itoa(n)
	}
	if as.Append && prev.IsSet() {
		switch prev.Kind {
		case expand.Indexed:
			list := append(append([]string(nil), prev.List...), str)
			return expand.Variable{Set: true, Kind: expand.Indexed, List: list}
		default:
			str = prev.String() + str
		}
	}
	return expand.Variable{Set: true, Kind: expand.String, Str: str}
}

// assignArray builds an Indexed or Associative variable from an array
// literal assignment, such as "arr=(a b c)" or "arr=([x]=1 [y]=2)".
func (r *Runner) assignArray(prev expand.Variable, as *syntax.Assign) expand.Variable {
	elems := as.Array.Elems
	assoc := false
	for _, elem := range elems {
		if elem.Index != nil {
			if _, err := strconv.Atoi(r.loneWord(elem.Index)); err != nil {
				assoc = true
				break
			}
		}
	}
	if assoc {
		m := map[string]string{}
		if as.Append && prev.Kind == expand.Associative {
			for k, v := range prev.Map {
				m[k] = v
			}
		}
		for _, elem := range elems {
			key := ""
			if elem.Index != nil {
				key = r.loneWord(elem.Index)
			}
			val := ""
			if elem.Value != nil {
				val = r.literal(elem.Value)
			}
			m[key] = val
		}
		return expand.Variable{Set: true, Kind: expand.Associative, Map: m}
	}
	var list []string
	if as.Append && prev.Kind == expand.Indexed {
		list = append(list, prev.List...)
	}
	next := len(list)
	for _, elem := range elems {
		idx := next
		if elem.Index != nil {
			if n, err := strconv.Atoi(r.loneWord(elem.Index)); err == nil {
				idx = n
			}
		}
		val := ""
		if elem.Value != nil {
			val = r.literal(elem.Value)
		}
		for len(list) <= idx {
			list = append(list, "")
		}
		list[idx] = val
		next = idx + 1
	}
	return expand.Variable{Set: true, Kind: expand.Indexed, List: list}
}

// setVarWithIndex stores val at an array index or associative key of name,
// as used by indexed assignments like "arr[2]=foo" or "map[key]=foo".
func (r *Runner) setVarWithIndex(prev expand.Variable, name string, index syntax.ArithmExpr, vr expand.Variable) {
	if index == nil {
		r.setVar(name, vr)
		return
	}
	val := vr.String()
	if w, ok := index.(*syntax.Word); ok {
		if lit := r.loneWord(w); lit != "" {
			if prev.Kind != expand.Associative {
				prev = expand.Variable{Set: true, Kind: expand.Associative, Map: map[string]string{}}
			}
			m := map[string]string{}
			for k, v := range prev.Map {
				m[k] = v
			}
			m[lit] = val
			r.setVar(name, expand.Variable{Set: true, Kind: expand.Associative, Map: m})
			return
		}
	}
	n := r.arithm(index)
	list := append([]string(nil), prev.List...)
	for len(list) <= n {
		list = append(list, "")
	}
	list[n] = val
	r.setVar(name, expand.Variable{Set: true, Kind: expand.Indexed, List: list})
}
