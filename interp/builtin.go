// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// IsBuiltin returns true if the given word is a shell builtin.
func IsBuiltin(name string) bool {
	switch name {
	case ":", "true", "false", "exit", "set", "shift", "unset",
		"echo", "printf", "break", "continue", "pwd", "cd",
		"wait", "builtin", "trap", "type", "source", ".", "command",
		"dirs", "pushd", "popd", "umask", "alias", "unalias",
		"fg", "bg", "getopts", "eval", "test", "[", "exec",
		"return", "read", "mapfile", "readarray", "shopt":
		return true
	}
	return false
}

type errBuiltinExitStatus exitStatus

func (e errBuiltinExitStatus) Error() string {
	return fmt.Sprintf("builtin exit status %d", e.code)
}

// Builtin allows [ExecHandlerFunc] implementations to execute any builtin,
// which can be useful for an exec handler to wrap or combine builtin calls.
//
// Note that a non-nil error may be returned in cases where the builtin
// alters the control flow of the runner, even if the builtin did not fail.
// For example, this is the case with `exit 0` or `return`.
func (hc HandlerContext) Builtin(ctx context.Context, args []string) error {
	if hc.kind != handlerKindExec {
		return fmt.Errorf("HandlerContext.Builtin can only be called via an ExecHandlerFunc")
	}
	exit := hc.runner.builtin(ctx, hc.Pos, args[0], args[1:])
	if exit != (exitStatus{}) {
		return errBuiltinExitStatus(exit)
	}
	return nil
}

// builtin dispatches to the group of builtins name belongs to. Each group
// lives in its own file and owns the nested switch over its own names,
// so that no single function carries the weight of every builtin's logic.
func (r *Runner) builtin(ctx context.Context, pos syntax.Pos, name string, args []string) exitStatus {
	switch name {
	case ":", "true", "false", "exit", "shift", "break", "continue",
		"return", "exec", "eval", "source", ".", "builtin", "command":
		return r.builtinControlFlow(ctx, pos, name, args)
	case "set", "unset", "read", "getopts", "readarray", "mapfile", "shopt":
		return r.builtinVarsAndOpts(ctx, pos, name, args)
	case "echo", "printf":
		return r.builtinOutput(name, args)
	case "pwd", "cd", "dirs", "pushd", "popd":
		return r.builtinDirStack(ctx, pos, name, args)
	case "type", "alias", "unalias", "trap", "wait", "test", "[":
		return r.builtinIntrospect(ctx, pos, name, args)
	default:
		// "umask", "fg", "bg"
		r.errf("%s: unimplemented builtin\n", name)
		return exitStatus{code: 2}
	}
}

func absPath(dir, path string) string {
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return filepath.Clean(path) // TODO: this clean is likely unnecessary
}

func (r *Runner) absPath(path string) string {
	return absPath(r.Dir, path)
}

// optStatusText returns a shell option's status text display
func (r *Runner) optStatusText(status bool) string {
	if status {
		return "on"
	}
	return "off"
}

func (r *Runner) printOptLine(name string, enabled, supported bool) {
	state := r.optStatusText(enabled)
	if supported {
		r.outf("%s\t%s\n", name, state)
		return
	}
	r.outf("%s\t%s\t(%q not supported)\n", name, state, r.optStatusText(!enabled))
}
