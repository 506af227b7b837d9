// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// TODO(v4): the arithmetic APIs should return int64 for portability with 32-bit systems,
// even if Bash only supports native int sizes.

// Arithm evaluates an arithmetic expression tree, resolving variable
// references through cfg and applying any assignment operators it
// encounters along the way.
func Arithm(cfg *Config, expr syntax.ArithmExpr) (int, error) {
	switch expr := expr.(type) {
	case *syntax.Word:
		return wordArithm(cfg, expr)
	case *syntax.ParenArithm:
		return Arithm(cfg, expr.X)
	case *syntax.UnaryArithm:
		return unaryArithm(cfg, expr)
	case *syntax.BinaryArithm:
		return binaryArithm(cfg, expr)
	default:
		panic(fmt.Sprintf("unexpected arithm expr: %T", expr))
	}
}

// wordArithm evaluates a bare word, chasing variable references until a
// non-identifier value is reached, then parses whatever is left as a
// base-10 integer, defaulting to 0. A chain of maxNameRefDepth references
// fails with a recursion error.
func wordArithm(cfg *Config, w *syntax.Word) (int, error) {
	str, err := Literal(cfg, w)
	if err != nil {
		return 0, err
	}
	i := 0
	for syntax.ValidName(str) {
		val := cfg.envGet(str)
		if val == "" {
			break
		}
		if i++; i >= maxNameRefDepth {
			return 0, fmt.Errorf("expression recursion level exceeded")
		}
		str = val
	}
	return int(atoi(str)), nil
}

// unaryArithm handles prefix/postfix increment and decrement along with
// the logical-not, bitwise-not and unary plus/minus operators.
func unaryArithm(cfg *Config, expr *syntax.UnaryArithm) (int, error) {
	switch expr.Op {
	case syntax.Inc, syntax.Dec:
		return incDecArithm(cfg, expr)
	}
	val, err := Arithm(cfg, expr.X)
	if err != nil {
		return 0, err
	}
	switch expr.Op {
	case syntax.Not:
		return oneIf(val == 0), nil
	case syntax.BitNegation:
		return ^val, nil
	case syntax.Plus:
		return val, nil
	default: // syntax.Minus
		return -val, nil
	}
}

func incDecArithm(cfg *Config, expr *syntax.UnaryArithm) (int, error) {
	name := expr.X.(*syntax.Word).Lit()
	old := atoi(cfg.envGet(name))
	val := old
	if expr.Op == syntax.Inc {
		val++
	} else {
		val--
	}
	if err := cfg.envSet(name, strconv.FormatInt(val, 10)); err != nil {
		return 0, err
	}
	if expr.Post {
		return int(old), nil
	}
	return int(val), nil
}

// binaryArithm dispatches assignment operators, the ternary conditional,
// and plain binary operators to their respective evaluators.
func binaryArithm(cfg *Config, expr *syntax.BinaryArithm) (int, error) {
	switch expr.Op {
	case syntax.Assgn, syntax.AddAssgn, syntax.SubAssgn,
		syntax.MulAssgn, syntax.QuoAssgn, syntax.RemAssgn,
		syntax.AndAssgn, syntax.OrAssgn, syntax.XorAssgn,
		syntax.ShlAssgn, syntax.ShrAssgn:
		return cfg.assgnArit(expr)
	case syntax.TernQuest: // TernColon can't happen here
		return ternaryArithm(cfg, expr)
	}
	left, err := Arithm(cfg, expr.X)
	if err != nil {
		return 0, err
	}
	right, err := Arithm(cfg, expr.Y)
	if err != nil {
		return 0, err
	}
	return binArit(expr.Op, left, right)
}

func ternaryArithm(cfg *Config, expr *syntax.BinaryArithm) (int, error) {
	cond, err := Arithm(cfg, expr.X)
	if err != nil {
		return 0, err
	}
	branches := expr.Y.(*syntax.BinaryArithm) // must have Op==TernColon
	if cond == 1 {
		return Arithm(cfg, branches.X)
	}
	return Arithm(cfg, branches.Y)
}

func oneIf(b bool) int {
	if b {
		return 1
	}
	return 0
}

// atoi is like [strconv.ParseInt](s, 10, 64), but it ignores errors and trims whitespace.
func atoi(s string) int64 {
	s = strings.TrimSpace(s)
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
