// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// builtinIntrospect implements the builtins that inspect or report on
// shell state rather than change it: "type", "alias"/"unalias", "trap",
// "wait", and the test expression evaluators "test"/"[".
func (r *Runner) builtinIntrospect(ctx context.Context, pos syntax.Pos, name string, args []string) (exit exitStatus) {
	switch name {
	case "type":
		return r.builtinType(args)
	case "alias":
		return r.builtinAlias(args)
	case "unalias":
		for _, name := range args {
			delete(r.alias, name)
		}
	case "trap":
		return r.builtinTrap(args)
	case "wait":
		return r.builtinWait(args)
	case "[":
		if len(args) == 0 || args[len(args)-1] != "]" {
			r.errf("%v: [: missing matching ]\n", pos)
			exit.code = 2
			return exit
		}
		args = args[:len(args)-1]
		return r.builtinTest(ctx, pos, args)
	case "test":
		return r.builtinTest(ctx, pos, args)
	}
	return exit
}

func (r *Runner) builtinType(args []string) (exit exitStatus) {
	anyNotFound := false
	mode := ""
	fp := flagParser{remaining: args}
	for fp.more() {
		switch flag := fp.flag(); flag {
		case "-a", "-f", "-P", "--help":
			r.errf("command: NOT IMPLEMENTED\n")
			exit.code = 3
			return exit
		case "-p", "-t":
			mode = flag
		default:
			r.errf("command: invalid option %q\n", flag)
			exit.code = 2
			return exit
		}
	}
	args = fp.args()
	for _, arg := range args {
		if mode == "-p" {
			if path, err := LookPathDir(r.Dir, r.writeEnv, arg); err == nil {
				r.outf("%s\n", path)
			} else {
				anyNotFound = true
			}
			continue
		}
		if syntax.IsKeyword(arg) {
			if mode == "-t" {
				r.out("keyword\n")
			} else {
				r.outf("%s is a shell keyword\n", arg)
			}
			continue
		}
		if als, ok := r.alias[arg]; ok && r.opts[optExpandAliases] {
			var buf bytes.Buffer
			if len(als.args) > 0 {
				printer := syntax.NewPrinter()
				printer.Print(&buf, &syntax.CallExpr{
					Args: als.args,
				})
			}
			if als.blank {
				buf.WriteByte(' ')
			}
			if mode == "-t" {
				r.out("alias\n")
			} else {
				r.outf("%s is aliased to `%s'\n", arg, &buf)
			}
			continue
		}
		if _, ok := r.Funcs[arg]; ok {
			if mode == "-t" {
				r.out("function\n")
			} else {
				r.outf("%s is a function\n", arg)
			}
			continue
		}
		if IsBuiltin(arg) {
			if mode == "-t" {
				r.out("builtin\n")
			} else {
				r.outf("%s is a shell builtin\n", arg)
			}
			continue
		}
		if path, err := LookPathDir(r.Dir, r.writeEnv, arg); err == nil {
			if mode == "-t" {
				r.out("file\n")
			} else {
				r.outf("%s is %s\n", arg, path)
			}
			continue
		}
		if mode != "-t" {
			r.errf("type: %s: not found\n", arg)
		}
		anyNotFound = true
	}
	if anyNotFound {
		exit.code = 1
	}
	return exit
}

func (r *Runner) builtinAlias(args []string) (exit exitStatus) {
	show := func(name string, als alias) {
		var buf bytes.Buffer
		if len(als.args) > 0 {
			printer := syntax.NewPrinter()
			printer.Print(&buf, &syntax.CallExpr{
				Args: als.args,
			})
		}
		if als.blank {
			buf.WriteByte(' ')
		}
		r.outf("alias %s='%s'\n", name, &buf)
	}

	if len(args) == 0 {
		for name, als := range r.alias {
			show(name, als)
		}
	}
argsLoop:
	for _, arg := range args {
		name, src, ok := strings.Cut(arg, "=")
		if !ok {
			als, ok := r.alias[name]
			if !ok {
				r.errf("alias: %q not found\n", name)
				continue
			}
			show(name, als)
			continue
		}

		// TODO: parse any CallExpr perhaps, or even any Stmt
		parser := syntax.NewParser()
		var words []*syntax.Word
		for w, err := range parser.WordsSeq(strings.NewReader(src)) {
			if err != nil {
				r.errf("alias: could not parse %q: %v\n", src, err)
				continue argsLoop
			}
			words = append(words, w)
		}

		if r.alias == nil {
			r.alias = make(map[string]alias)
		}
		r.alias[name] = alias{
			args:  words,
			blank: strings.TrimRight(src, " \t") != src,
		}
	}
	return exit
}

func (r *Runner) builtinTrap(args []string) (exit exitStatus) {
	fp := flagParser{remaining: args}
	callback := "-"
	for fp.more() {
		switch flag := fp.flag(); flag {
		case "-l", "-p":
			r.errf("trap: %q: NOT IMPLEMENTED flag\n", flag)
			exit.code = 2
			return exit
		case "-":
			// default signal
		default:
			r.errf("trap: %q: invalid option\n", flag)
			r.errf("trap: usage: trap [-lp] [[arg] signal_spec ...]\n")
			exit.code = 2
			return exit
		}
	}
	args = fp.args()
	switch len(args) {
	case 0:
		// Print non-default signals
		if r.callbackExit != "" {
			r.outf("trap -- %q EXIT\n", r.callbackExit)
		}
		if r.callbackErr != "" {
			r.outf("trap -- %q ERR\n", r.callbackErr)
		}
	case 1:
		// assume it's a signal, the default will be restored
	default:
		callback = args[0]
		args = args[1:]
	}
	// For now, treat both empty and - the same since ERR and EXIT have no
	// default callback.
	if callback == "-" {
		callback = ""
	}
	for _, arg := range args {
		switch arg {
		case "ERR":
			r.callbackErr = callback
		case "EXIT":
			r.callbackExit = callback
		default:
			r.errf("trap: %s: invalid signal specification\n", arg)
			exit.code = 2
			return exit
		}
	}
	return exit
}

func (r *Runner) builtinWait(args []string) (exit exitStatus) {
	fp := flagParser{remaining: args}
	for fp.more() {
		switch flag := fp.flag(); flag {
		case "-n", "-p":
			r.errf("wait: unsupported option %q\n", flag)
			exit.code = 2
			return exit
		default:
			r.errf("wait: invalid option %q\n", flag)
			exit.code = 2
			return exit
		}
	}
	if len(args) == 0 {
		// Note that "wait" without arguments always returns exit status zero.
		for _, bg := range r.bgProcs {
			<-bg.done
		}
		return exit
	}
	for _, arg := range args {
		arg, ok := strings.CutPrefix(arg, "g")
		pid := atoi(arg)
		if !ok || pid <= 0 || pid > int64(len(r.bgProcs)) {
			r.errf("wait: pid %s is not a child of this shell\n", arg)
			exit.code = 1
			return exit
		}
		bg := r.bgProcs[pid-1]
		<-bg.done
		exit = *bg.exit
	}
	return exit
}

func (r *Runner) builtinTest(ctx context.Context, pos syntax.Pos, args []string) (exit exitStatus) {
	parseErr := false
	p := testParser{
		rem: args,
		err: func(err error) {
			r.errf("%v: %v\n", pos, err)
			parseErr = true
		},
	}
	p.next()
	expr := p.classicTest("[", false)
	if parseErr {
		exit.code = 2
		return exit
	}
	exit.oneIf(r.bashTest(ctx, expr, true) == "")
	return exit
}

// TODO: atoi is duplicated in the expand package.

// atoi is like [strconv.ParseInt](s, 10, 64), but it ignores errors and trims whitespace.
func atoi(s string) int64 {
	s = strings.TrimSpace(s)
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
