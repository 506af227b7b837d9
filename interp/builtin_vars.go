// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/shellgei/rusty-bash-sub001/expand"
	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// builtinVarsAndOpts implements the builtins that read or mutate shell
// state outside of plain variable assignment: shell options, positional
// parameters, input-reading ("read", "readarray"/"mapfile"), and option
// parsing ("getopts").
func (r *Runner) builtinVarsAndOpts(ctx context.Context, pos syntax.Pos, name string, args []string) (exit exitStatus) {
	failf := func(code uint8, format string, a ...any) exitStatus {
		r.errf(format, a...)
		exit.code = code
		return exit
	}
	switch name {
	case "set":
		if err := Params(args...)(r); err != nil {
			return failf(2, "set: %v\n", err)
		}
		r.updateExpandOpts()
	case "unset":
		vars := true
		funcs := true
	unsetOpts:
		for i, arg := range args {
			switch arg {
			case "-v":
				funcs = false
			case "-f":
				vars = false
			default:
				args = args[i:]
				break unsetOpts
			}
		}

		for _, arg := range args {
			if vars && r.lookupVar(arg).IsSet() {
				r.delVar(arg)
			} else if _, ok := r.Funcs[arg]; ok && funcs {
				delete(r.Funcs, arg)
			}
		}
	case "read":
		return r.builtinRead(ctx, args)
	case "getopts":
		return r.builtinGetopts(args)
	case "readarray", "mapfile":
		return r.builtinMapfile(name, args)
	case "shopt":
		return r.builtinShopt(args)
	}
	return exit
}

func (r *Runner) builtinRead(ctx context.Context, args []string) (exit exitStatus) {
	var prompt string
	raw := false
	silent := false
	fp := flagParser{remaining: args}
	for fp.more() {
		switch flag := fp.flag(); flag {
		case "-s":
			silent = true
		case "-r":
			raw = true
		case "-p":
			prompt = fp.value()
			if prompt == "" {
				r.errf("read: -p: option requires an argument\n")
				exit.code = 2
				return exit
			}
		default:
			r.errf("read: invalid option %q\n", flag)
			exit.code = 2
			return exit
		}
	}

	args = fp.args()
	for _, name := range args {
		if !syntax.ValidName(name) {
			r.errf("read: invalid identifier %q\n", name)
			exit.code = 2
			return exit
		}
	}

	if prompt != "" {
		r.out(prompt)
	}

	var line []byte
	var err error
	if silent {
		// Note that on Windows, syscall.Stdin is of type uintptr.
		line, err = term.ReadPassword(int(syscall.Stdin))
	} else {
		line, err = r.readLine(ctx, raw)
	}
	if len(args) == 0 {
		args = append(args, replyVarName)
	}

	values := expand.ReadFields(r.ecfg, string(line), len(args), raw)
	for i, name := range args {
		val := ""
		if i < len(values) {
			val = values[i]
		}
		r.setVarString(name, val)
	}

	// We can get data back from readLine and an error at the same time, so
	// check err after we process the data.
	if err != nil {
		exit.code = 1
	}
	return exit
}

func (r *Runner) builtinGetopts(args []string) (exit exitStatus) {
	if len(args) < 2 {
		r.errf("getopts: usage: getopts optstring name [arg ...]\n")
		exit.code = 2
		return exit
	}
	optind, _ := strconv.Atoi(r.envGet("OPTIND"))
	if optind-1 != r.optState.argidx {
		if optind < 1 {
			optind = 1
		}
		r.optState = getopts{argidx: optind - 1}
	}
	optstr := args[0]
	name := args[1]
	if !syntax.ValidName(name) {
		r.errf("getopts: invalid identifier: %q\n", name)
		exit.code = 2
		return exit
	}
	args = args[2:]
	if len(args) == 0 {
		args = r.Params
	}
	diagnostics := !strings.HasPrefix(optstr, ":")

	opt, optarg, done := r.optState.next(optstr, args)

	r.setVarString(name, string(opt))
	r.delVar("OPTARG")
	switch {
	case opt == '?' && diagnostics && !done:
		r.errf("getopts: illegal option -- %q\n", optarg)
	case opt == ':' && diagnostics:
		r.errf("getopts: option requires an argument -- %q\n", optarg)
	default:
		if optarg != "" {
			r.setVarString("OPTARG", optarg)
		}
	}
	if optind-1 != r.optState.argidx {
		r.setVarString("OPTIND", strconv.FormatInt(int64(r.optState.argidx+1), 10))
	}

	exit.oneIf(done)
	return exit
}

func (r *Runner) builtinMapfile(name string, args []string) (exit exitStatus) {
	dropDelim := false
	delim := "\n"
	fp := flagParser{remaining: args}
	for fp.more() {
		switch flag := fp.flag(); flag {
		case "-t":
			// Remove the delim from each line read
			dropDelim = true
		case "-d":
			if len(fp.remaining) == 0 {
				r.errf("%s: -d: option requires an argument\n", name)
				exit.code = 2
				return exit
			}
			delim = fp.value()
			if delim == "" {
				// Bash sets the delim to an ASCII NUL if provided with an empty
				// string.
				delim = "\x00"
			}
		default:
			r.errf("%s: invalid option %q\n", name, flag)
			exit.code = 2
			return exit
		}
	}

	args = fp.args()
	var arrayName string
	switch len(args) {
	case 0:
		arrayName = "MAPFILE"
	case 1:
		if !syntax.ValidName(args[0]) {
			r.errf("%s: invalid identifier %q\n", name, args[0])
			exit.code = 2
			return exit
		}
		arrayName = args[0]
	default:
		r.errf("%s: Only one array name may be specified, %v\n", name, args)
		exit.code = 2
		return exit
	}

	var vr expand.Variable
	vr.Kind = expand.Indexed
	scanner := bufio.NewScanner(r.stdin)
	scanner.Split(mapfileSplit(delim[0], dropDelim))
	for scanner.Scan() {
		vr.List = append(vr.List, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		r.errf("%s: unable to read, %v\n", name, err)
		exit.code = 2
		return exit
	}
	r.setVar(arrayName, vr)
	return exit
}

func (r *Runner) builtinShopt(args []string) (exit exitStatus) {
	mode := ""
	posixOpts := false
	fp := flagParser{remaining: args}
	for fp.more() {
		switch flag := fp.flag(); flag {
		case "-s", "-u":
			mode = flag
		case "-o":
			posixOpts = true
		case "-p", "-q":
			panic("unhandled shopt flag: " + flag)
		default:
			r.errf("shopt: invalid option %q\n", flag)
			exit.code = 2
			return exit
		}
	}
	args = fp.args()
	bash := !posixOpts
	if len(args) == 0 {
		if bash {
			for i, opt := range bashOptsTable {
				r.printOptLine(opt.name, r.opts[len(shellOptsTable)+i], opt.supported)
			}
			return exit
		}
		for i, opt := range &shellOptsTable {
			r.printOptLine(opt.name, r.opts[i], true)
		}
		return exit
	}
	for _, arg := range args {
		i, opt := r.optByName(arg, bash)
		if opt == nil {
			r.errf("shopt: invalid option name %q\n", arg)
			exit.code = 1
			return exit
		}

		var (
			bo        *bashOpt
			supported = true // default for shell options
		)
		if bash {
			bo = &bashOptsTable[i-len(shellOptsTable)]
			supported = bo.supported
		}

		switch mode {
		case "-s", "-u":
			if bash && !supported {
				r.errf("shopt: invalid option name %q %q (%q not supported)\n", arg, r.optStatusText(bo.defaultState), r.optStatusText(!bo.defaultState))
				exit.code = 1
				return exit
			}
			*opt = mode == "-s"
		default: // ""
			r.printOptLine(arg, *opt, supported)
		}
	}
	r.updateExpandOpts()
	return exit
}

// mapfileSplit returns a suitable Split function for a [bufio.Scanner];
// the code is mostly stolen from [bufio.ScanLines].
func mapfileSplit(delim byte, dropDelim bool) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.IndexByte(data, delim); i >= 0 {
			// We have a full newline-terminated line.
			if dropDelim {
				return i + 1, data[0:i], nil
			} else {
				return i + 1, data[0 : i+1], nil
			}
		}
		// If we're at EOF, we have a final, non-terminated line. Return it.
		if atEOF {
			return len(data), data, nil
		}
		// Request more data.
		return 0, nil, nil
	}
}

// flagParser is used to parse builtin flags.
//
// It's similar to the getopts implementation, but with some key differences.
// First, the API is designed for Go loops, making it easier to use directly.
// Second, it doesn't require the awkward ":ab" syntax that getopts uses.
// Third, it supports "-a" flags as well as "+a".
type flagParser struct {
	current   string
	remaining []string
}

func (p *flagParser) more() bool {
	if p.current != "" {
		// We're still parsing part of "-ab".
		return true
	}
	if len(p.remaining) == 0 {
		// Nothing left.
		p.remaining = nil
		return false
	}
	arg := p.remaining[0]
	if arg == "--" {
		// We explicitly stop parsing flags.
		p.remaining = p.remaining[1:]
		return false
	}
	if len(arg) == 0 || (arg[0] != '-' && arg[0] != '+') {
		// The next argument is not a flag.
		return false
	}
	// More flags to come.
	return true
}

func (p *flagParser) flag() string {
	arg := p.current
	if arg == "" {
		arg = p.remaining[0]
		p.remaining = p.remaining[1:]
	} else {
		p.current = ""
	}
	if len(arg) > 2 {
		// We have "-ab", so return "-a" and keep "-b".
		p.current = arg[:1] + arg[2:]
		arg = arg[:2]
	}
	return arg
}

func (p *flagParser) value() string {
	if len(p.remaining) == 0 {
		return ""
	}
	arg := p.remaining[0]
	p.remaining = p.remaining[1:]
	return arg
}

func (p *flagParser) args() []string { return p.remaining }

type getopts struct {
	argidx  int
	runeidx int
}

func (g *getopts) next(optstr string, args []string) (opt rune, optarg string, done bool) {
	if len(args) == 0 || g.argidx >= len(args) {
		return '?', "", true
	}
	arg := []rune(args[g.argidx])
	if len(arg) < 2 || arg[0] != '-' || arg[1] == '-' {
		return '?', "", true
	}

	opts := arg[1:]
	opt = opts[g.runeidx]
	if g.runeidx+1 < len(opts) {
		g.runeidx++
	} else {
		g.argidx++
		g.runeidx = 0
	}

	i := strings.IndexRune(optstr, opt)
	if i < 0 {
		// invalid option
		return '?', string(opt), false
	}

	if i+1 < len(optstr) && optstr[i+1] == ':' {
		if g.argidx >= len(args) {
			// missing argument
			return ':', string(opt), false
		}
		optarg = args[g.argidx]
		g.argidx++
		g.runeidx = 0
	}

	return opt, optarg, false
}
