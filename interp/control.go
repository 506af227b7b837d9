// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"fmt"
	"iter"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shellgei/rusty-bash-sub001/expand"
	"github.com/shellgei/rusty-bash-sub001/pattern"
	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// runForClause drives both for-in and C-style for loops, plus the "select"
// menu variant of for-in.
func (r *Runner) runForClause(ctx context.Context, cm *syntax.ForClause, trace *tracer) {
	switch y := cm.Loop.(type) {
	case *syntax.WordIter:
		name := y.Name.Value
		items := r.Params // for i; do ...

		inToken := y.InPos.IsValid()
		if inToken {
			items = r.fields(y.Items...) // for i in ...; do ...
		}

		if cm.Select {
			r.runSelectMenu(ctx, name, items, cm.Do)
		}

		for _, field := range items {
			r.setVarString(name, field)
			trace.stringf("for %s in", y.Name.Value)
			if inToken {
				for _, item := range y.Items {
					trace.string(" ")
					trace.expr(item)
				}
			} else {
				trace.string(` "$@"`)
			}
			trace.newLineFlush()
			if r.runLoopBody(ctx, cm.Do) {
				break
			}
		}
	case *syntax.CStyleLoop:
		if y.Init != nil {
			r.arithm(y.Init)
		}
		for y.Cond == nil || r.arithm(y.Cond) != 0 {
			if !r.exit.ok() || r.runLoopBody(ctx, cm.Do) {
				break
			}
			if y.Post != nil {
				r.arithm(y.Post)
			}
		}
	}
}

// runSelectMenu implements the body of "select NAME in ITEMS", printing a
// numbered menu to stderr, reading one line of input into REPLY, and
// setting NAME to the chosen item before running the loop body once.
func (r *Runner) runSelectMenu(ctx context.Context, name string, items []string, do []*syntax.Stmt) {
	ps3 := selectPromptDefault
	if e := r.envGet(selectPromptVar); e != "" {
		ps3 = e
	}

	prompt := func() []byte {
		for i, word := range items {
			r.errf("%d) %v\n", i+1, word)
		}
		r.errf("%s", ps3)

		line, err := r.readLine(ctx, true)
		if err != nil {
			r.exit.code = 1
			return nil
		}
		return line
	}

	var choice []byte
	for len(choice) == 0 {
		choice = prompt()
	}

	reply := string(choice)
	r.setVarString(replyVarName, reply)

	if c, _ := strconv.Atoi(reply); c > 0 && c <= len(items) {
		r.setVarString(name, items[c-1])
	}

	r.runLoopBody(ctx, do)
}

// runDeclClause implements declare/local/export/readonly/nameref, which
// all share the same flag parsing and assignment machinery but differ in
// which attributes they set and whether they require function scope.
func (r *Runner) runDeclClause(cm *syntax.DeclClause) {
	local, global := false, false
	var modes []string
	valType := ""
	switch cm.Variant.Value {
	case "declare":
		// When used in a function, "declare" acts as "local"
		// unless the "-g" option is used.
		local = r.inFunc
	case "local":
		if !r.inFunc {
			r.errf("local: can only be used in a function\n")
			r.exit.code = 1
			return
		}
		local = true
	case "export":
		modes = append(modes, "-x")
	case "readonly":
		modes = append(modes, "-r")
	case "nameref":
		valType = "-n"
	}
assignLoop:
	for as := range r.expandDeclArgs(cm.Args) {
		fp := flagParser{remaining: []string{as.Name.Value}}
		for fp.more() {
			switch flag := fp.flag(); flag {
			case "-x", "-r":
				modes = append(modes, flag)
			case "-a", "-A", "-n":
				valType = flag
			case "-g":
				global = true
			default:
				r.errf("declare: invalid option %q\n", flag)
				r.exit.code = 2
				return
			}
			continue assignLoop
		}
		name := as.Name.Value
		if !syntax.ValidName(name) {
			r.errf("declare: invalid name %q\n", name)
			r.exit.code = 1
			return
		}
		vr := r.lookupVar(as.Name.Value)
		if as.Naked {
			if valType == "-A" {
				vr.Kind = expand.Associative
			} else {
				vr.Kind = expand.KeepValue
			}
		} else {
			vr = r.assignVal(vr, as, valType)
		}
		if global {
			vr.Local = false
		} else if local {
			vr.Local = true
		}
		for _, mode := range modes {
			switch mode {
			case "-x":
				vr.Exported = true
			case "-r":
				vr.ReadOnly = true
			}
		}
		r.setVar(name, vr)
	}
}

// trapCallback parses and runs the shell code registered for a trap (ERR,
// EXIT, ...), restoring the runner's exit status afterward so the trap's
// own commands never clobber the status that triggered it.
func (r *Runner) trapCallback(ctx context.Context, callback, name string) {
	if callback == "" {
		return // nothing to do
	}
	if r.handlingTrap {
		return // don't recurse, as that could lead to cycles
	}
	r.handlingTrap = true

	p := syntax.NewParser()
	// TODO: do this parsing when "trap" is called?
	file, err := p.Parse(strings.NewReader(callback), name+" trap")
	if err != nil {
		r.errf(name+"trap: %v\n", err)
		// ignore errors in the callback
		return
	}
	oldExit := r.exit
	r.stmts(ctx, file.Stmts)
	r.exit = oldExit // traps on EXIT or ERR should not modify the result

	r.handlingTrap = false
}

// expandDeclArgs yields one [syntax.Assign] per name given to
// declare/local/export/readonly/nameref, splitting a dynamic argument like
// "declare $x" (where $x itself expands to "name=value") into its own
// synthetic assignment.
func (r *Runner) expandDeclArgs(args []*syntax.Assign) iter.Seq[*syntax.Assign] {
	return func(yield func(*syntax.Assign) bool) {
		for _, as := range args {
			// Convert "declare $x" into "declare value".
			// Don't use syntax.Parser here, as we only want the basic
			// splitting by '='.
			if as.Name != nil {
				if !yield(as) {
					return
				}
				continue
			}
			for _, field := range r.fields(as.Value) {
				as := &syntax.Assign{}
				name, val, ok := strings.Cut(field, "=")
				as.Name = &syntax.Lit{Value: name}
				if !ok {
					as.Naked = true
				} else {
					as.Value = &syntax.Word{Parts: []syntax.WordPart{
						&syntax.Lit{Value: val},
					}}
				}
				if !yield(as) {
					return
				}
			}
		}
	}
}

// runLoopBody runs one pass of a loop body, consuming one level of a
// pending "continue" or "break" so that nested loops each swallow exactly
// one of their own.
func (r *Runner) runLoopBody(ctx context.Context, stmts []*syntax.Stmt) bool {
	oldInLoop := r.inLoop
	r.inLoop = true
	defer func() { r.inLoop = oldInLoop }()
	for _, stmt := range stmts {
		r.stmt(ctx, stmt)
		if r.contnEnclosing > 0 {
			r.contnEnclosing--
			return r.contnEnclosing > 0
		}
		if r.breakEnclosing > 0 {
			r.breakEnclosing--
			return true
		}
	}
	return false
}

// match reports whether name satisfies the extended glob pattern pat, as
// used by "case" arms.
func match(pat, name string) bool {
	expr, err := pattern.Regexp(pat, pattern.EntireString)
	if err != nil {
		return false
	}
	rx := regexp.MustCompile(expr)
	return rx.MatchString(name)
}

// elapsedString renders a duration the way the "time" builtin reports it,
// either as posix-style seconds or as bash's "NmN.NNNs".
func elapsedString(d time.Duration, posix bool) string {
	if posix {
		return fmt.Sprintf("%.2f", d.Seconds())
	}
	min := int(d.Minutes())
	sec := math.Mod(d.Seconds(), 60.0)
	return fmt.Sprintf("%dm%.3fs", min, sec)
}
