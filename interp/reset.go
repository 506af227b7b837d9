// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/shellgei/rusty-bash-sub001/expand"
)

// Reset returns a runner to its initial state, right before the first call to
// Run or Reset.
//
// Typically, this function only needs to be called if a runner is reused to run
// multiple programs non-incrementally. Not calling Reset between each run will
// mean that the shell state will be kept, including variables, options, and the
// current directory.
func (r *Runner) Reset() {
	if !r.usedNew {
		panic("use interp.New to construct a Runner")
	}
	if !r.didReset {
		r.captureOrigState()
		r.bootstrapExecChain()
		r.bootstrapTempDir()
	}
	r.resetState()
	r.seedEnvironment()
}

// captureOrigState remembers the fields a [RunnerOption] configured before
// the first Reset, so later Resets can restore them instead of zeroing them.
func (r *Runner) captureOrigState() {
	r.origDir = r.Dir
	r.origParams = r.Params
	r.origOpts = r.opts
	r.origStdin = r.stdin
	r.origStdout = r.stdout
	r.origStderr = r.stderr
}

// bootstrapExecChain builds the final exec handler by chaining any
// middlewares registered via [ExecHandlers] around the base handler.
func (r *Runner) bootstrapExecChain() {
	if r.execHandler != nil && len(r.execMiddlewares) > 0 {
		panic("interp.ExecHandler should be replaced with interp.ExecHandlers, not mixed")
	}
	if r.execHandler == nil {
		r.execHandler = DefaultExecHandler(2 * time.Second)
	}
	// Middlewares are chained from first to last, and each can call the
	// next in the chain, so we need to construct the chain backwards.
	for _, mw := range slices.Backward(r.execMiddlewares) {
		r.execHandler = mw(r.execHandler)
	}
}

// bootstrapTempDir fills tempDir once, since Env does not change afterward.
func (r *Runner) bootstrapTempDir() {
	if dir := r.Env.Get("TMPDIR").String(); filepath.IsAbs(dir) {
		r.tempDir = dir
	} else {
		r.tempDir = os.TempDir()
	}
	// Clean it as we will later do a string prefix match.
	r.tempDir = filepath.Clean(r.tempDir)
}

// resetState clears all per-run shell state, leaving only the fields
// fixed at construction time (handlers, the original directory/params/
// options/streams, and the long-lived Vars map).
func (r *Runner) resetState() {
	*r = Runner{
		Env:            r.Env,
		tempDir:        r.tempDir,
		callHandler:    r.callHandler,
		execHandler:    r.execHandler,
		openHandler:    r.openHandler,
		readDirHandler: r.readDirHandler,
		statHandler:    r.statHandler,

		// These can be set by functions like [Dir] or [Params], but
		// builtins can overwrite them; reset the fields to whatever the
		// constructor set up.
		Dir:    r.origDir,
		Params: r.origParams,
		opts:   r.origOpts,
		stdin:  r.origStdin,
		stdout: r.origStdout,
		stderr: r.origStderr,

		origDir:    r.origDir,
		origParams: r.origParams,
		origOpts:   r.origOpts,
		origStdin:  r.origStdin,
		origStdout: r.origStdout,
		origStderr: r.origStderr,

		// emptied below, to reuse the space
		Vars: r.Vars,

		dirStack: r.dirStack[:0],
		usedNew:  r.usedNew,
	}
	// Ensure we stop referencing any pointers before we reuse bgProcs.
	clear(r.bgProcs)
	r.bgProcs = r.bgProcs[:0]

	if r.Vars == nil {
		r.Vars = make(map[string]expand.Variable)
	} else {
		clear(r.Vars)
	}
}

// seedEnvironment populates the handful of variables every shell expects
// to find set (HOME, UID/EUID/GID, PWD, IFS, OPTIND) and pushes the
// initial directory onto the pushd/popd stack.
func (r *Runner) seedEnvironment() {
	// TODO(v4): Use the supplied Env directly if it implements enough methods.
	r.writeEnv = &overlayEnviron{parent: r.Env}
	if !r.writeEnv.Get("HOME").IsSet() {
		home, _ := os.UserHomeDir()
		r.setVarString("HOME", home)
	}
	if !r.writeEnv.Get("UID").IsSet() {
		r.setVar("UID", expand.Variable{
			Set:      true,
			Kind:     expand.String,
			ReadOnly: true,
			Str:      strconv.Itoa(os.Getuid()),
		})
	}
	if !r.writeEnv.Get("EUID").IsSet() {
		r.setVar("EUID", expand.Variable{
			Set:      true,
			Kind:     expand.String,
			ReadOnly: true,
			Str:      strconv.Itoa(os.Geteuid()),
		})
	}
	if !r.writeEnv.Get("GID").IsSet() {
		r.setVar("GID", expand.Variable{
			Set:      true,
			Kind:     expand.String,
			ReadOnly: true,
			Str:      strconv.Itoa(os.Getgid()),
		})
	}
	r.setVarString("PWD", r.Dir)
	r.setVarString("IFS", " \t\n")
	r.setVarString("OPTIND", "1")

	r.dirStack = append(r.dirStack, r.Dir)

	r.didReset = true
}
