// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// builtinControlFlow implements the builtins that affect the runner's
// control flow: no-ops, exit/return/break/continue, and the various ways
// of running more shell code in the current scope (eval, source, exec,
// command, builtin).
func (r *Runner) builtinControlFlow(ctx context.Context, pos syntax.Pos, name string, args []string) (exit exitStatus) {
	failf := func(code uint8, format string, a ...any) exitStatus {
		r.errf(format, a...)
		exit.code = code
		return exit
	}
	switch name {
	case ":", "true":
	case "false":
		exit.code = 1
	case "exit":
		switch len(args) {
		case 0:
			exit = r.lastExit
		case 1:
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return failf(2, "invalid exit status code: %q\n", args[0])
			}
			exit.code = uint8(n)
		default:
			return failf(1, "exit cannot take multiple arguments\n")
		}
		exit.exiting = true
	case "shift":
		n := 1
		switch len(args) {
		case 0:
		case 1:
			if n2, err := strconv.Atoi(args[0]); err == nil {
				n = n2
				break
			}
			fallthrough
		default:
			return failf(2, "usage: shift [n]\n")
		}
		if n >= len(r.Params) {
			r.Params = nil
		} else {
			r.Params = r.Params[n:]
		}
	case "break", "continue":
		if !r.inLoop {
			return failf(0, "%s is only useful in a loop\n", name)
		}
		enclosing := &r.breakEnclosing
		if name == "continue" {
			enclosing = &r.contnEnclosing
		}
		switch len(args) {
		case 0:
			*enclosing = 1
		case 1:
			if n, err := strconv.Atoi(args[0]); err == nil {
				*enclosing = n
				break
			}
			fallthrough
		default:
			return failf(2, "usage: %s [n]\n", name)
		}
	case "return":
		if !r.inFunc && !r.inSource {
			return failf(1, "return: can only be done from a func or sourced script\n")
		}
		switch len(args) {
		case 0:
		case 1:
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return failf(2, "invalid return status code: %q\n", args[0])
			}
			exit.code = uint8(n)
		default:
			return failf(2, "return: too many arguments\n")
		}
		exit.returning = true
	case "exec":
		// TODO: Consider unix.Exec, i.e. actually replacing
		// the process. It's in theory what a shell should do,
		// but in practice it would kill the entire Go process
		// and it's not available on Windows.
		if len(args) == 0 {
			r.keepRedirs = true
			break
		}
		r.exit.exiting = true
		r.exec(ctx, pos, args)
		exit = r.exit
	case "eval":
		src := strings.Join(args, " ")
		p := syntax.NewParser()
		file, err := p.Parse(strings.NewReader(src), "")
		if err != nil {
			return failf(1, "eval: %v\n", err)
		}
		r.stmts(ctx, file.Stmts)
		exit = r.exit
	case "source", ".":
		return r.builtinSource(ctx, pos, args)
	case "builtin":
		if len(args) < 1 {
			break
		}
		if !IsBuiltin(args[0]) {
			exit.code = 1
			return exit
		}
		exit = r.builtin(ctx, pos, args[0], args[1:])
	case "command":
		return r.builtinCommand(ctx, pos, args)
	}
	return exit
}

// builtinSource implements "source"/".", which parses and runs another
// script's statements in the current scope, optionally with its own
// positional parameters.
func (r *Runner) builtinSource(ctx context.Context, pos syntax.Pos, args []string) (exit exitStatus) {
	if len(args) < 1 {
		r.errf("%v: source: need filename\n", pos)
		exit.code = 2
		return exit
	}
	path, err := scriptFromPathDir(r.Dir, r.writeEnv, args[0])
	if err != nil {
		// If the script was not found in PATH or there was any error, pass
		// the source path to the open handler so it has a chance to look
		// at files it manages (eg: virtual filesystem), and also allow
		// it to look for the sourced script in the current directory.
		path = args[0]
	}
	f, err := r.open(ctx, path, os.O_RDONLY, 0, false)
	if err != nil {
		r.errf("source: %v\n", err)
		exit.code = 1
		return exit
	}
	defer f.Close()
	p := syntax.NewParser()
	file, err := p.Parse(f, path)
	if err != nil {
		r.errf("source: %v\n", err)
		exit.code = 1
		return exit
	}

	// Keep the current versions of some fields we might modify.
	oldParams := r.Params
	oldSourceSetParams := r.sourceSetParams
	oldInSource := r.inSource

	// If we run "source file args...", set said args as parameters.
	// Otherwise, keep the current parameters.
	sourceArgs := len(args[1:]) > 0
	if sourceArgs {
		r.Params = args[1:]
		r.sourceSetParams = false
	}
	// We want to track if the sourced file explicitly sets the
	// parameters.
	r.sourceSetParams = false
	r.inSource = true // know that we're inside a sourced script.
	r.stmts(ctx, file.Stmts)

	// If we modified the parameters and the sourced file didn't
	// explicitly set them, we restore the old ones.
	if sourceArgs && !r.sourceSetParams {
		r.Params = oldParams
	}
	r.sourceSetParams = oldSourceSetParams
	r.inSource = oldInSource

	exit = r.exit
	exit.returning = false
	return exit
}

// builtinCommand implements "command", which either runs args bypassing
// function lookup, or with -v reports how each arg would be resolved.
func (r *Runner) builtinCommand(ctx context.Context, pos syntax.Pos, args []string) (exit exitStatus) {
	show := false
	fp := flagParser{remaining: args}
	for fp.more() {
		switch flag := fp.flag(); flag {
		case "-v":
			show = true
		default:
			r.errf("command: invalid option %q\n", flag)
			exit.code = 2
			return exit
		}
	}
	args = fp.args()
	if len(args) == 0 {
		return exit
	}
	if !show {
		if IsBuiltin(args[0]) {
			return r.builtin(ctx, pos, args[0], args[1:])
		}
		r.exec(ctx, pos, args)
		return r.exit
	}
	last := uint8(0)
	for _, arg := range args {
		last = 0
		if r.Funcs[arg] != nil || IsBuiltin(arg) {
			r.outf("%s\n", arg)
		} else if path, err := LookPathDir(r.Dir, r.writeEnv, arg); err == nil {
			r.outf("%s\n", path)
		} else {
			last = 1
		}
	}
	exit.code = last
	return exit
}
