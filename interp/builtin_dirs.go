// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"cmp"
	"context"
	"path/filepath"
	"slices"

	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// builtinDirStack implements "pwd" and the directory-stack builtins
// "cd", "dirs", "pushd", and "popd".
func (r *Runner) builtinDirStack(ctx context.Context, pos syntax.Pos, name string, args []string) (exit exitStatus) {
	switch name {
	case "pwd":
		return r.builtinPwd(args)
	case "cd":
		return r.builtinCd(ctx, args)
	case "dirs":
		for i, dir := range slices.Backward(r.dirStack) {
			r.outf("%s", dir)
			if i > 0 {
				r.out(" ")
			}
		}
		r.out("\n")
	case "pushd":
		return r.builtinPushd(ctx, args)
	case "popd":
		return r.builtinPopd(ctx, args)
	}
	return exit
}

func (r *Runner) builtinPwd(args []string) (exit exitStatus) {
	evalSymlinks := false
	for len(args) > 0 {
		switch args[0] {
		case "-L":
			evalSymlinks = false
		case "-P":
			evalSymlinks = true
		default:
			r.errf("invalid option: %q\n", args[0])
			exit.code = 2
			return exit
		}
		args = args[1:]
	}
	pwd := r.envGet("PWD")
	if evalSymlinks {
		var err error
		pwd, err = filepath.EvalSymlinks(pwd)
		if err != nil {
			exit.fatal(err) // perhaps overly dramatic?
			return exit
		}
	}
	r.outf("%s\n", pwd)
	return exit
}

func (r *Runner) builtinCd(ctx context.Context, args []string) (exit exitStatus) {
	var path string
	switch len(args) {
	case 0:
		path = r.envGet("HOME")
	case 1:
		path = args[0]

		// replicate the commonly implemented behavior of `cd -`
		// ref: https://www.man7.org/linux/man-pages/man1/cd.1p.html#OPERANDS
		if path == "-" {
			path = r.envGet("OLDPWD")
			r.outf("%s\n", path)
		}
	default:
		r.errf("usage: cd [dir]\n")
		exit.code = 2
		return exit
	}
	exit.code = r.changeDir(ctx, path)
	return exit
}

func (r *Runner) builtinPushd(ctx context.Context, args []string) (exit exitStatus) {
	change := true
	if len(args) > 0 && args[0] == "-n" {
		change = false
		args = args[1:]
	}
	swap := func() string {
		oldtop := r.dirStack[len(r.dirStack)-1]
		top := r.dirStack[len(r.dirStack)-2]
		r.dirStack[len(r.dirStack)-1] = top
		r.dirStack[len(r.dirStack)-2] = oldtop
		return top
	}
	switch len(args) {
	case 0:
		if !change {
			return exit
		}
		if len(r.dirStack) < 2 {
			r.errf("pushd: no other directory\n")
			exit.code = 1
			return exit
		}
		newtop := swap()
		if code := r.changeDir(ctx, newtop); code != 0 {
			exit.code = code
			return exit
		}
		r.builtin(ctx, syntax.Pos{}, "dirs", nil)
	case 1:
		if change {
			if code := r.changeDir(ctx, args[0]); code != 0 {
				exit.code = code
				return exit
			}
			r.dirStack = append(r.dirStack, r.Dir)
		} else {
			r.dirStack = append(r.dirStack, args[0])
			swap()
		}
		r.builtin(ctx, syntax.Pos{}, "dirs", nil)
	default:
		r.errf("pushd: too many arguments\n")
		exit.code = 2
		return exit
	}
	return exit
}

func (r *Runner) builtinPopd(ctx context.Context, args []string) (exit exitStatus) {
	change := true
	if len(args) > 0 && args[0] == "-n" {
		change = false
		args = args[1:]
	}
	switch len(args) {
	case 0:
		if len(r.dirStack) < 2 {
			r.errf("popd: directory stack empty\n")
			exit.code = 1
			return exit
		}
		oldtop := r.dirStack[len(r.dirStack)-1]
		r.dirStack = r.dirStack[:len(r.dirStack)-1]
		if change {
			newtop := r.dirStack[len(r.dirStack)-1]
			if code := r.changeDir(ctx, newtop); code != 0 {
				exit.code = code
				return exit
			}
		} else {
			r.dirStack[len(r.dirStack)-1] = oldtop
		}
		r.builtin(ctx, syntax.Pos{}, "dirs", nil)
	default:
		r.errf("popd: invalid argument\n")
		exit.code = 2
		return exit
	}
	return exit
}

func (r *Runner) changeDir(ctx context.Context, path string) uint8 {
	path = cmp.Or(path, ".")
	path = r.absPath(path)
	info, err := r.stat(ctx, path)
	if err != nil || !info.IsDir() {
		return 1
	}
	if r.access(ctx, path, access_X_OK) != nil {
		return 1
	}
	r.Dir = path
	r.setVarString("OLDPWD", r.envGet("PWD"))
	r.setVarString("PWD", path)
	return 0
}
