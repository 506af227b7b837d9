// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	mathrand "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/shellgei/rusty-bash-sub001/expand"
	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// fifoNamePrefix marks the named pipes this package creates under the
// runner's temp dir for process substitution; [Runner.openFile] uses it to
// recognize and bypass the open handler for its own plumbing.
const fifoNamePrefix = "sh-interp-"

// fillExpandConfig builds the [expand.Config] that backs every word
// expansion the runner performs, wiring command substitution and process
// substitution into the runner's own statement walker.
func (r *Runner) fillExpandConfig(ctx context.Context) {
	r.ectx = ctx
	r.ecfg = &expand.Config{
		Env:       envAdapter{r},
		CmdSubst:  r.expandCmdSubst,
		ProcSubst: r.expandProcSubst,
	}
	r.updateExpandOpts()
}

// expandCmdSubst runs the body of a $(...) or `...` command substitution,
// taking the "$(<file)" shortcut when the body is nothing but a plain
// input redirect.
func (r *Runner) expandCmdSubst(w io.Writer, cs *syntax.CmdSubst) error {
	switch len(cs.Stmts) {
	case 0: // nothing to do
		return nil
	case 1: // $(<file)
		word := catRedirectWord(cs.Stmts[0])
		if word == nil {
			break
		}
		path := r.literal(word)
		f, err := r.open(r.ectx, path, os.O_RDONLY, 0, true)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, f)
		f.Close()
		return err
	}
	r2 := r.subshell(false)
	r2.stdout = w
	r2.stmts(r.ectx, cs.Stmts)
	r2.exit.exiting = false // subshells don't exit the parent shell
	r.lastExpandExit = r2.exit
	if r2.exit.fatalExit {
		return r2.exit.err // surface fatal errors immediately
	}
	return nil
}

// expandProcSubst runs the body of a <(...) or >(...) process
// substitution in the background, connecting it to the caller through a
// freshly created named pipe whose path is returned as the substituted
// word.
func (r *Runner) expandProcSubst(ps *syntax.ProcSubst) (string, error) {
	if runtime.GOOS == "windows" {
		return "", fmt.Errorf("TODO: support process substitution on Windows")
	}
	if len(ps.Stmts) == 0 { // nothing to do
		return os.DevNull, nil
	}

	path, err := r.makeFifoPath()
	if err != nil {
		return "", err
	}

	r2 := r.subshell(true)
	stdout := r.origStdout
	// TODO: note that `man bash` mentions that `wait` only waits for the last
	// process substitution as long as it is $!; the logic here would mean we wait for all of them.
	bg := bgProc{
		done: make(chan struct{}),
		exit: new(exitStatus),
	}
	r.bgProcs = append(r.bgProcs, bg)
	ctx := r.ectx
	go func() {
		defer func() {
			*bg.exit = r2.exit
			close(bg.done)
		}()
		switch ps.Op {
		case syntax.CmdIn:
			f, err := os.OpenFile(path, os.O_WRONLY, 0)
			if err != nil {
				r.errf("cannot open fifo for stdout: %v\n", err)
				return
			}
			r2.stdout = f
			defer func() {
				if err := f.Close(); err != nil {
					r.errf("closing stdout fifo: %v\n", err)
				}
				os.Remove(path)
			}()
		default: // syntax.CmdOut
			f, err := os.OpenFile(path, os.O_RDONLY, 0)
			if err != nil {
				r.errf("cannot open fifo for stdin: %v\n", err)
				return
			}
			r2.stdin = f
			r2.stdout = stdout

			defer func() {
				f.Close()
				os.Remove(path)
			}()
		}
		r2.stmts(ctx, ps.Stmts)
		r2.exit.exiting = false // subshells don't exit the parent shell
	}()
	return path, nil
}

// makeFifoPath creates a fresh named pipe under the runner's temp dir and
// returns its path. We can't atomically create a random unused temporary
// FIFO, so, similar to [os.CreateTemp], we keep trying new random paths
// until one does not exist; a uint64 is used because a uint32 runs into
// retries too easily.
func (r *Runner) makeFifoPath() (string, error) {
	for try := 0; ; try++ {
		path := filepath.Join(r.tempDir, fifoNamePrefix+strconv.FormatUint(mathrand.Uint64(), 16))
		err := mkfifo(path, 0o666)
		if err == nil {
			return path, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("cannot create fifo: %v", err)
		}
		if try > 100 {
			return "", fmt.Errorf("giving up at creating fifo: %v", err)
		}
	}
}

// catRedirectWord checks if a statement is of the form "$(<file)". The
// redirect word is returned if there's a match, and nil otherwise.
func catRedirectWord(stmt *syntax.Stmt) *syntax.Word {
	if stmt.Cmd != nil || stmt.Negated || stmt.Background || stmt.Coprocess {
		return nil
	}
	if len(stmt.Redirs) != 1 {
		return nil
	}
	rd := stmt.Redirs[0]
	if rd.Op != syntax.RdrIn {
		return nil
	}
	return rd.Word
}

// updateExpandOpts syncs the shell options that affect word expansion
// (globbing, nullglob, nounset, ...) into the active [expand.Config].
func (r *Runner) updateExpandOpts() {
	if r.opts[optNoGlob] {
		r.ecfg.ReadDir2 = nil
	} else {
		r.ecfg.ReadDir2 = func(s string) ([]fs.DirEntry, error) {
			return r.readDirHandler(r.newHandlerContext(r.ectx, handlerKindReadDir, unknownPos), s)
		}
	}
	r.ecfg.GlobStar = r.opts[optGlobStar]
	r.ecfg.NoCaseGlob = r.opts[optNoCaseGlob]
	r.ecfg.NullGlob = r.opts[optNullGlob]
	r.ecfg.NoUnset = r.opts[optNoUnset]
}

// expandErr reports an expansion error to stderr and decides, by error
// type or message, whether it should be treated as fatal to the shell.
func (r *Runner) expandErr(err error) {
	if err == nil {
		return
	}
	errMsg := err.Error()
	fmt.Fprintln(r.stderr, errMsg)
	switch {
	case errors.As(err, &expand.UnsetParameterError{}):
	case errMsg == "invalid indirect expansion":
		// TODO: These errors are treated as fatal by bash.
		// Make the error type reflect that.
	case strings.HasSuffix(errMsg, "not supported"):
		// TODO: This "has suffix" is a temporary measure until the expand
		// package supports all syntax nodes like extended globbing.
	default:
		return // other cases do not exit
	}
	r.exit.code = 1
	r.exit.exiting = true
}

func (r *Runner) arithm(expr syntax.ArithmExpr) int {
	n, err := expand.Arithm(r.ecfg, expr)
	r.expandErr(err)
	return n
}

func (r *Runner) fields(words ...*syntax.Word) []string {
	strs, err := expand.Fields(r.ecfg, words...)
	r.expandErr(err)
	return strs
}

func (r *Runner) literal(word *syntax.Word) string {
	str, err := expand.Literal(r.ecfg, word)
	r.expandErr(err)
	return str
}

func (r *Runner) document(word *syntax.Word) string {
	str, err := expand.Document(r.ecfg, word)
	r.expandErr(err)
	return str
}

func (r *Runner) pattern(word *syntax.Word) string {
	str, err := expand.Pattern(r.ecfg, word)
	r.expandErr(err)
	return str
}

// envAdapter exposes [Runner]'s variables to the expand package.
type envAdapter struct {
	r *Runner
}

var _ expand.WriteEnviron = envAdapter{}

func (e envAdapter) Get(name string) expand.Variable {
	return e.r.lookupVar(name)
}

func (e envAdapter) Set(name string, vr expand.Variable) error {
	e.r.setVar(name, vr)
	return nil // TODO: return any errors
}

func (e envAdapter) Each(fn func(name string, vr expand.Variable) bool) {
	e.r.writeEnv.Each(fn)
}

// unknownPos is passed to [Runner.newHandlerContext] by callers that have
// no meaningful source position to report.
var unknownPos syntax.Pos

// newHandlerContext builds the context value a handler function sees,
// bundling the runner's current streams, directory, and a private
// overlay of its variables.
func (r *Runner) newHandlerContext(ctx context.Context, kind handlerKind, pos syntax.Pos) context.Context {
	hc := HandlerContext{
		runner: r,
		kind:   kind,
		Env:    &overlayEnviron{parent: r.writeEnv},
		Dir:    r.Dir,
		Pos:    pos,
		Stdout: r.stdout,
		Stderr: r.stderr,
	}
	if r.stdin != nil { // do not leave hc.Stdin as a typed nil
		hc.Stdin = r.stdin
	}
	return context.WithValue(ctx, handlerCtxKey{}, hc)
}

func (r *Runner) out(s string) {
	io.WriteString(r.stdout, s)
}

func (r *Runner) outf(format string, a ...any) {
	fmt.Fprintf(r.stdout, format, a...)
}

func (r *Runner) errf(format string, a ...any) {
	fmt.Fprintf(r.stderr, format, a...)
}

// open resolves path through the configured open handler, except for the
// FIFOs the interpreter creates itself for process substitution, which
// bypass the handler since [os.OpenFile] is required for their Unix
// semantics to work at all.
//
// Matching by directory and basename prefix isn't perfect, but works. If
// we want FIFOs to use a handler in the future, they probably need their
// own separate handler API matching Unix-like semantics.
func (r *Runner) open(ctx context.Context, path string, flags int, mode os.FileMode, print bool) (io.ReadWriteCloser, error) {
	dir, name := filepath.Split(path)
	dir = strings.TrimSuffix(dir, "/")
	if dir == r.tempDir && strings.HasPrefix(name, fifoNamePrefix) {
		return os.OpenFile(path, flags, mode)
	}

	f, err := r.openHandler(r.newHandlerContext(ctx, handlerKindOpen, unknownPos), path, flags, mode)
	// TODO: support wrapped PathError returned from openHandler.
	switch err.(type) {
	case nil:
		return f, nil
	case *os.PathError:
		if print {
			r.errf("%v\n", err)
		}
	default: // handler's custom fatal error
		r.exit.fatal(err)
	}
	return nil, err
}

func (r *Runner) stat(ctx context.Context, name string) (fs.FileInfo, error) {
	path := absPath(r.Dir, name)
	return r.statHandler(ctx, path, true)
}

func (r *Runner) lstat(ctx context.Context, name string) (fs.FileInfo, error) {
	path := absPath(r.Dir, name)
	return r.statHandler(ctx, path, false)
}
