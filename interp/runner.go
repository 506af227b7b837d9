// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/shellgei/rusty-bash-sub001/expand"
	"github.com/shellgei/rusty-bash-sub001/syntax"
)

const (
	// selectPromptVar, or PS3, is the variable Bash consults for the prompt
	// a "select" loop prints while it waits for the user's choice. Its
	// default is [selectPromptDefault].
	selectPromptVar = "PS3"
	// selectPromptDefault is PS3's value when it has never been set.
	selectPromptDefault = "#? "
	// replyVarName, or REPLY, holds the last line read by "select" or a
	// bare "read" with no variable names of its own.
	replyVarName = "REPLY"
)

// stop reports whether the current statement tree walk should halt before
// running anything else: a trap already fired "return" or "exit", the
// context was cancelled, or "set -n" is suppressing execution entirely.
func (r *Runner) stop(ctx context.Context) bool {
	// Some traps trigger on exit, so we do want those to run.
	if !r.handlingTrap && (r.exit.returning || r.exit.exiting) {
		return true
	}
	if err := ctx.Err(); err != nil {
		r.exit.fatal(err)
		return true
	}
	if r.opts[optNoExec] {
		return true
	}
	return false
}

// stmt runs a single top-level statement, forking it into a background
// job first if it ends in "&".
func (r *Runner) stmt(ctx context.Context, st *syntax.Stmt) {
	if r.stop(ctx) {
		return
	}
	r.exit = exitStatus{}
	if st.Background {
		r2 := r.subshell(true)
		st2 := *st
		st2.Background = false
		bg := bgProc{
			done: make(chan struct{}),
			exit: new(exitStatus),
		}
		r.bgProcs = append(r.bgProcs, bg)
		go func() {
			r2.Run(ctx, &st2)
			r2.exit.exiting = false // subshells don't exit the parent shell
			*bg.exit = r2.exit
			close(bg.done)
		}()
	} else {
		r.runStmtRedirected(ctx, st)
	}
	r.lastExit = r.exit
}

// runStmtRedirected applies a statement's own redirections, runs its
// command, and decides whether the failure (if any) should trip "errexit"
// or fire the ERR trap.
func (r *Runner) runStmtRedirected(ctx context.Context, st *syntax.Stmt) {
	oldIn, oldOut, oldErr := r.stdin, r.stdout, r.stderr
	for _, rd := range st.Redirs {
		cls, err := r.applyRedirect(ctx, rd)
		if err != nil {
			r.exit.code = 1
			break
		}
		if cls != nil {
			defer cls.Close()
		}
	}
	if r.exit.ok() && st.Cmd != nil {
		r.cmd(ctx, st.Cmd)
	}
	if st.Negated {
		// TODO: negate the entire [exitStatus] here, wiping errors
		r.exit.oneIf(r.exit.ok())
	} else if b, ok := st.Cmd.(*syntax.BinaryCmd); ok && (b.Op == syntax.AndStmt || b.Op == syntax.OrStmt) {
	} else if !r.exit.ok() && !r.noErrExit {
		r.trapCallback(ctx, r.callbackErr, "error")
		// If the "errexit" option is set and a command failed, exit the shell. Exceptions:
		//
		//   conditions (if <cond>, while <cond>, etc)
		//   part of && or || lists; excluded via "else" above
		//   preceded by !; excluded via "else" above
		if r.opts[optErrExit] {
			r.exit.exiting = true
		}
	}
	if !r.keepRedirs {
		r.stdin, r.stdout, r.stderr = oldIn, oldOut, oldErr
	}
}

// cmd walks a single command node, dispatching on its concrete AST type.
func (r *Runner) cmd(ctx context.Context, cm syntax.Command) {
	if r.stop(ctx) {
		return
	}

	tracingEnabled := r.opts[optXTrace]
	trace := r.tracer()

	switch cm := cm.(type) {
	case *syntax.Block:
		r.stmts(ctx, cm.Stmts)
	case *syntax.Subshell:
		r2 := r.subshell(false)
		r2.stmts(ctx, cm.Stmts)
		r2.exit.exiting = false // subshells don't exit the parent shell
		r.exit = r2.exit
	case *syntax.CallExpr:
		r.runCallExpr(ctx, cm, trace, tracingEnabled)
	case *syntax.BinaryCmd:
		r.runBinaryCmd(ctx, cm)
	case *syntax.IfClause:
		oldNoErrExit := r.noErrExit
		r.noErrExit = true
		r.stmts(ctx, cm.Cond)
		r.noErrExit = oldNoErrExit

		if r.exit.ok() {
			r.stmts(ctx, cm.Then)
			break
		}
		r.exit.code = 0
		if cm.Else != nil {
			r.cmd(ctx, cm.Else)
		}
	case *syntax.WhileClause:
		for !r.stop(ctx) {
			oldNoErrExit := r.noErrExit
			r.noErrExit = true
			r.stmts(ctx, cm.Cond)
			r.noErrExit = oldNoErrExit

			stop := r.exit.ok() == cm.Until
			r.exit.code = 0
			if stop || r.runLoopBody(ctx, cm.Do) {
				break
			}
		}
	case *syntax.ForClause:
		r.runForClause(ctx, cm, trace)
	case *syntax.FuncDecl:
		r.setFunc(cm.Name.Value, cm.Body)
	case *syntax.ArithmCmd:
		r.exit.oneIf(r.arithm(cm.X) == 0)
	case *syntax.LetClause:
		r.runLetClause(cm, trace, tracingEnabled)
	case *syntax.CaseClause:
		trace.string("case ")
		trace.expr(cm.Word)
		trace.string(" in")
		trace.newLineFlush()
		str := r.literal(cm.Word)
		for _, ci := range cm.Items {
			for _, word := range ci.Patterns {
				pat := r.pattern(word)
				if match(pat, str) {
					r.stmts(ctx, ci.Stmts)
					return
				}
			}
		}
	case *syntax.TestClause:
		if r.bashTest(ctx, cm.X, false) == "" && r.exit.ok() {
			// to preserve exit status code 2 for regex errors, etc
			r.exit.code = 1
		}
	case *syntax.DeclClause:
		r.runDeclClause(cm)
	case *syntax.TimeClause:
		r.runTimeClause(ctx, cm)
	default:
		panic(fmt.Sprintf("unhandled command node: %T", cm))
	}
}

// runCallExpr handles a simple command: alias expansion, leading
// assignments, and either the naked-assignment form ("foo=bar" with no
// command name) or a full call with optional per-command env overrides.
func (r *Runner) runCallExpr(ctx context.Context, cm *syntax.CallExpr, trace *tracer, tracingEnabled bool) {
	// Use a new slice, to not modify the slice in the alias map.
	args := cm.Args
	for i := 0; i < len(args); {
		if !r.opts[optExpandAliases] {
			break
		}
		als, ok := r.alias[args[i].Lit()]
		if !ok {
			break
		}
		args = slices.Replace(args, i, i+1, als.args...)
		if !als.blank {
			break
		}
		i += len(als.args)
	}
	r.lastExpandExit = exitStatus{}
	fields := r.fields(args...)
	if len(fields) == 0 {
		for _, as := range cm.Assigns {
			prev := r.lookupVar(as.Name.Value)
			// Here we have a naked "foo=bar", so if we inherited a local var from a parent
			// function we want to signal that we are modifying the parent var rather than
			// creating a new local var via "local foo=bar".
			// TODO: there is likely a better way to do this.
			prev.Local = false

			vr := r.assignVal(prev, as, "")
			r.setVarWithIndex(prev, as.Name.Value, as.Index, vr)

			if !tracingEnabled {
				continue
			}

			// Strangely enough, it seems like Bash prints original
			// source for arrays, but the expanded value otherwise.
			// TODO: add test cases for x[i]=y and x+=y.
			if as.Array != nil {
				trace.expr(as)
			} else if as.Value != nil {
				val, err := syntax.Quote(vr.String(), syntax.LangBash)
				if err != nil { // should never happen
					panic(err)
				}
				trace.stringf("%s=%s", as.Name.Value, val)
			}
			trace.newLineFlush()
		}
		// If interpreting the last expansion like $(foo) failed,
		// and the expansion and assignments otherwise succeeded,
		// we need to surface that last exit code.
		if r.exit.ok() {
			r.exit = r.lastExpandExit
		}
		return
	}

	type restoreVar struct {
		name string
		vr   expand.Variable
	}
	var restores []restoreVar

	for _, as := range cm.Assigns {
		name := as.Name.Value
		prev := r.lookupVar(name)

		vr := r.assignVal(prev, as, "")
		// Inline command vars are always exported.
		vr.Exported = true

		restores = append(restores, restoreVar{name, prev})

		r.setVar(name, vr)
	}

	trace.call(fields[0], fields[1:]...)
	trace.newLineFlush()

	r.call(ctx, cm.Args[0].Pos(), fields)
	for _, restore := range restores {
		r.setVar(restore.name, restore.vr)
	}
}

// runBinaryCmd handles &&, ||, and pipelines.
func (r *Runner) runBinaryCmd(ctx context.Context, cm *syntax.BinaryCmd) {
	switch cm.Op {
	case syntax.AndStmt, syntax.OrStmt:
		oldNoErrExit := r.noErrExit
		r.noErrExit = true
		r.stmt(ctx, cm.X)
		r.noErrExit = oldNoErrExit
		if r.exit.ok() == (cm.Op == syntax.AndStmt) {
			r.stmt(ctx, cm.Y)
		}
	case syntax.Pipe, syntax.PipeAll:
		pr, pw, err := os.Pipe()
		if err != nil {
			r.exit.fatal(err) // not being able to create a pipe is rare but critical
			return
		}
		r2 := r.subshell(true)
		r2.stdout = pw
		if cm.Op == syntax.PipeAll {
			r2.stderr = pw
		} else {
			r2.stderr = r.stderr
		}
		r.stdin = pr
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			r2.stmt(ctx, cm.X)
			r2.exit.exiting = false // subshells don't exit the parent shell
			pw.Close()
			wg.Done()
		}()
		r.stmt(ctx, cm.Y)
		pr.Close()
		wg.Wait()
		if r.opts[optPipeFail] && !r2.exit.ok() && r.exit.ok() {
			r.exit = r2.exit
		}
		if r2.exit.fatalExit {
			r.exit.fatal(r2.exit.err) // surface fatal errors immediately
		}
	}
}

// runLetClause evaluates each arithmetic expression of a "let" command in
// turn; the overall exit status reflects the final expression's value.
func (r *Runner) runLetClause(cm *syntax.LetClause, trace *tracer, tracingEnabled bool) {
	var val int
	for _, expr := range cm.Exprs {
		val = r.arithm(expr)

		if !tracingEnabled {
			continue
		}

		switch expr := expr.(type) {
		case *syntax.Word:
			qs, err := syntax.Quote(r.literal(expr), syntax.LangBash)
			if err != nil {
				return
			}
			trace.stringf("let %v", qs)
		case *syntax.BinaryArithm, *syntax.UnaryArithm:
			trace.expr(cm)
		case *syntax.ParenArithm:
			// TODO
		}
	}

	trace.newLineFlush()
	r.exit.oneIf(val == 0)
}

// runTimeClause runs the wrapped statement (if any) and reports its
// elapsed wall-clock time in the "time" builtin's posix or bash format.
func (r *Runner) runTimeClause(ctx context.Context, cm *syntax.TimeClause) {
	start := time.Now()
	if cm.Stmt != nil {
		r.stmt(ctx, cm.Stmt)
	}
	format := "%s\t%s\n"
	if cm.PosixFormat {
		format = "%s %s\n"
	} else {
		r.outf("\n")
	}
	real := time.Since(start)
	r.outf(format, "real", elapsedString(real, cm.PosixFormat))
	// TODO: can we do these?
	r.outf(format, "user", elapsedString(0, cm.PosixFormat))
	r.outf(format, "sys", elapsedString(0, cm.PosixFormat))
}

// stmts runs a sequence of statements in order, stopping early if any of
// them triggers [Runner.stop].
func (r *Runner) stmts(ctx context.Context, stmts []*syntax.Stmt) {
	for _, stmt := range stmts {
		r.stmt(ctx, stmt)
	}
}

// call resolves args[0] as a function, then a builtin, then an external
// command, and runs whichever it finds.
func (r *Runner) call(ctx context.Context, pos syntax.Pos, args []string) {
	if r.stop(ctx) {
		return
	}
	if r.callHandler != nil {
		var err error
		args, err = r.callHandler(r.newHandlerContext(ctx, handlerKindCall, pos), args)
		if err != nil {
			// handler's custom fatal error
			r.exit.fatal(err)
			return
		}
	}
	name := args[0]
	if body := r.Funcs[name]; body != nil {
		// stack them to support nested func calls
		oldParams := r.Params
		r.Params = args[1:]
		oldInFunc := r.inFunc
		r.inFunc = true

		// Functions run in a nested scope.
		// Note that [Runner.exec] below does something similar.
		origEnv := r.writeEnv
		r.writeEnv = &overlayEnviron{parent: r.writeEnv, funcScope: true}

		r.stmt(ctx, body)

		r.writeEnv = origEnv

		r.Params = oldParams
		r.inFunc = oldInFunc
		r.exit.returning = false
		return
	}
	if IsBuiltin(name) {
		r.exit = r.builtin(ctx, pos, name, args[1:])
		return
	}
	r.exec(ctx, pos, args)
}

// exec hands args off to the configured exec handler, an external process
// by default.
func (r *Runner) exec(ctx context.Context, pos syntax.Pos, args []string) {
	r.exit.fromHandlerError(r.execHandler(r.newHandlerContext(ctx, handlerKindExec, pos), args))
}
