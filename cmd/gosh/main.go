// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// gosh is a command-line driver for the interpreter in [interp]: it wires
// together script/-c/interactive dispatch, PS1/PS2 prompt rendering, and
// HISTFILE load/append around a single [interp.Runner].
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/google/renameio/v2"
	"golang.org/x/term"

	"github.com/shellgei/rusty-bash-sub001/interp"
	"github.com/shellgei/rusty-bash-sub001/syntax"
)

var command = flag.String("c", "", "command to be executed")

func main() {
	flag.Parse()
	err := runAll()
	var es interp.ExitStatus
	if errors.As(err, &es) {
		os.Exit(int(es))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAll() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := interp.New(interp.Interactive(true), interp.StdIO(os.Stdin, os.Stdout, os.Stderr))
	if err != nil {
		return err
	}

	if *command != "" {
		return run(ctx, r, strings.NewReader(*command), "")
	}
	if flag.NArg() == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return runInteractive(ctx, r)
		}
		return run(ctx, r, os.Stdin, "")
	}
	for _, path := range flag.Args() {
		if err := runPath(ctx, r, path); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, r *interp.Runner, reader io.Reader, name string) error {
	prog, err := syntax.NewParser().Parse(reader, name)
	if err != nil {
		return err
	}
	r.Reset()
	return r.Run(ctx, prog)
}

func runPath(ctx context.Context, r *interp.Runner, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return run(ctx, r, f, path)
}

// runInteractive drives the prompt → feed → parse → execute loop of spec's
// main loop, with PS1/PS2 rendered from the runner's own variables and
// HISTFILE loaded on entry and persisted atomically on exit.
func runInteractive(ctx context.Context, r *interp.Runner) error {
	histFile := histFilePath(r)
	history := loadHistory(histFile, histSize(r))
	defer saveHistory(histFile, history)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          renderPrompt(r, "PS1", "$ "),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	for _, line := range history {
		rl.SaveHistory(line)
	}

	var pending strings.Builder
	parser := syntax.NewParser()
	for {
		rl.SetPrompt(renderPrompt(r, "PS1", "$ "))
		if pending.Len() > 0 {
			rl.SetPrompt(renderPrompt(r, "PS2", "> "))
		}
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			pending.Reset()
			continue
		case err != nil: // io.EOF or the underlying terminal closing
			return nil
		}

		pending.WriteString(line)
		pending.WriteByte('\n')

		prog, perr := parser.Parse(strings.NewReader(pending.String()), "")
		if perr != nil {
			if incompleteInput(perr) {
				continue // wait for a continuation line under PS2
			}
			fmt.Fprintln(os.Stderr, perr)
			pending.Reset()
			continue
		}

		src := strings.TrimSuffix(pending.String(), "\n")
		pending.Reset()
		if src != "" {
			history = append(history, src)
			rl.SaveHistory(src)
		}

		// Note: no Reset here — an interactive session keeps its variable
		// and function state across statements, unlike the one-shot
		// script/-c path in run(), which resets before its single Run.
		if runErr := r.Run(ctx, prog); runErr != nil {
			if _, ok := interp.IsExitStatus(runErr); !ok {
				fmt.Fprintln(os.Stderr, runErr)
			}
		}
		if r.Exited() {
			return nil
		}
	}
}

// incompleteInput reports whether a parse error is the kind that means
// "more input is needed to close an open construct" (an unterminated quote,
// heredoc, or compound command), as opposed to a genuine syntax error. The
// parser reports both cases as a [syntax.ParseError] reaching EOF while a
// nesting is still open, recognizable by its "reached EOF" phrasing.
func incompleteInput(err error) bool {
	var perr *syntax.ParseError
	if !errors.As(err, &perr) {
		return false
	}
	return strings.Contains(perr.Text, "reached EOF")
}

func histFilePath(r *interp.Runner) string {
	if v := r.VarStr("HISTFILE"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.gosh_history"
}

func histSize(r *interp.Runner) int {
	if v := r.VarStr("HISTFILESIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return 500
}

func loadHistory(path string, max int) []string {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, strings.ReplaceAll(sc.Text(), "\x00", "\n"))
	}
	if max > 0 && len(lines) > max {
		lines = lines[len(lines)-max:]
	}
	return lines
}

// saveHistory persists the accumulated session history atomically, so a
// concurrent shell or a crash mid-write never truncates HISTFILE.
func saveHistory(path string, lines []string) {
	if path == "" {
		return
	}
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(strings.ReplaceAll(line, "\n", "\x00"))
		sb.WriteByte('\n')
	}
	_ = renameio.WriteFile(path, []byte(sb.String()), 0o600)
}

// renderPrompt expands the small set of backslash escapes spec.md names
// (\w, \h, \u, \!, \$) in a PS1/PS2-style variable, falling back to a
// literal default when the variable is unset. History numbers are not
// tracked: \! always renders as "0".
func renderPrompt(r *interp.Runner, varName, fallback string) string {
	raw := r.VarStr(varName)
	if raw == "" {
		raw = fallback
	}
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'w':
			sb.WriteString(r.VarStr("PWD"))
		case 'h':
			host, _ := os.Hostname()
			sb.WriteString(host)
		case 'u':
			if u, err := user.Current(); err == nil {
				sb.WriteString(u.Username)
			}
		case '!':
			sb.WriteString("0")
		case '$':
			if os.Geteuid() == 0 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('$')
			}
		default:
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}
