// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"fmt"
	"strconv"

	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// assgnArit applies a compound-assignment arithmetic operator (=, +=, -=,
// and so on) to the named variable and stores the result back through
// cfg.envSet.
func (cfg *Config) assgnArit(b *syntax.BinaryArithm) (int, error) {
	name := b.X.(*syntax.Word).Lit()
	val := atoi(cfg.envGet(name))
	rhs, err := Arithm(cfg, b.Y)
	if err != nil {
		return 0, err
	}
	arg := int64(rhs)
	val, err = applyAssignOp(b.Op, val, arg)
	if err != nil {
		return 0, err
	}
	if err := cfg.envSet(name, strconv.FormatInt(val, 10)); err != nil {
		return 0, err
	}
	return int(val), nil
}

func applyAssignOp(op syntax.BinAritOperator, val, arg int64) (int64, error) {
	switch op {
	case syntax.Assgn:
		return arg, nil
	case syntax.AddAssgn:
		return val + arg, nil
	case syntax.SubAssgn:
		return val - arg, nil
	case syntax.MulAssgn:
		return val * arg, nil
	case syntax.QuoAssgn:
		if arg == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return val / arg, nil
	case syntax.RemAssgn:
		if arg == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return val % arg, nil
	case syntax.AndAssgn:
		return val & arg, nil
	case syntax.OrAssgn:
		return val | arg, nil
	case syntax.XorAssgn:
		return val ^ arg, nil
	case syntax.ShlAssgn:
		return val << uint(arg), nil
	default: // syntax.ShrAssgn
		return val >> uint(arg), nil
	}
}
