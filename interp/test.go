// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"

	"golang.org/x/term"

	"github.com/shellgei/rusty-bash-sub001/expand"
	"github.com/shellgei/rusty-bash-sub001/syntax"
)

// non-empty string is true, empty string is false
func (r *Runner) bashTest(ctx context.Context, expr syntax.TestExpr, classic bool) string {
	switch x := expr.(type) {
	case *syntax.Word:
		return r.loneWord(x)
	case *syntax.ParenTest:
		return r.bashTest(ctx, x.X, classic)
	case *syntax.BinaryTest:
		if r.binTest(ctx, x.Op, r.bashTest(ctx, x.X, classic), r.bashTest(ctx, x.Y, classic)) {
			return "1"
		}
		return ""
	case *syntax.UnaryTest:
		if r.unTest(ctx, x.Op, r.bashTest(ctx, x.X, classic)) {
			return "1"
		}
		return ""
	}
	return ""
}

func (r *Runner) binTest(ctx context.Context, op syntax.BinTestOperator, x, y string) bool {
	switch op {
	case syntax.TsReMatch:
		re, err := regexp.Compile(y)
		if err != nil {
			return false
		}
		return re.MatchString(x)
	case syntax.TsNewer:
		i1, i2 := r.statNoErr(ctx, x), r.statNoErr(ctx, y)
		if i1 == nil || i2 == nil {
			return false
		}
		return i1.ModTime().After(i2.ModTime())
	case syntax.TsOlder:
		i1, i2 := r.statNoErr(ctx, x), r.statNoErr(ctx, y)
		if i1 == nil || i2 == nil {
			return false
		}
		return i1.ModTime().Before(i2.ModTime())
	case syntax.TsDevIno:
		i1, i2 := r.statNoErr(ctx, x), r.statNoErr(ctx, y)
		return i1 != nil && i2 != nil && os.SameFile(i1, i2)
	case syntax.TsEql:
		return atoi(x) == atoi(y)
	case syntax.TsNeq:
		return atoi(x) != atoi(y)
	case syntax.TsLeq:
		return atoi(x) <= atoi(y)
	case syntax.TsGeq:
		return atoi(x) >= atoi(y)
	case syntax.TsLss:
		return atoi(x) < atoi(y)
	case syntax.TsGtr:
		return atoi(x) > atoi(y)
	case syntax.AndTest:
		return x != "" && y != ""
	case syntax.OrTest:
		return x != "" || y != ""
	case syntax.TsEqual:
		return x == y
	case syntax.TsNequal:
		return x != y
	case syntax.TsBefore:
		return x < y
	case syntax.TsAfter:
		return x > y
	default:
		panic(fmt.Sprintf("unhandled binary test op: %v", op))
	}
}

// statNoErr stats through the Runner's handler chain, discarding the error;
// test operators treat a failed stat as "condition false" rather than fatal.
func (r *Runner) statNoErr(ctx context.Context, name string) fs.FileInfo {
	info, err := r.stat(ctx, name)
	if err != nil {
		return nil
	}
	return info
}

func statMode(ctx context.Context, r *Runner, name string, mode os.FileMode) bool {
	info := r.statNoErr(ctx, name)
	return info != nil && info.Mode()&mode != 0
}

func (r *Runner) unTest(ctx context.Context, op syntax.UnTestOperator, x string) bool {
	switch op {
	case syntax.TsExists:
		return r.statNoErr(ctx, x) != nil
	case syntax.TsRegFile:
		info := r.statNoErr(ctx, x)
		return info != nil && info.Mode().IsRegular()
	case syntax.TsDirect:
		return statMode(ctx, r, x, os.ModeDir)
	case syntax.TsCharSp:
		return statMode(ctx, r, x, os.ModeCharDevice)
	case syntax.TsBlckSp:
		info := r.statNoErr(ctx, x)
		return info != nil && info.Mode()&os.ModeDevice != 0 && info.Mode()&os.ModeCharDevice == 0
	case syntax.TsNmPipe:
		return statMode(ctx, r, x, os.ModeNamedPipe)
	case syntax.TsSocket:
		return statMode(ctx, r, x, os.ModeSocket)
	case syntax.TsSmbLink:
		return statMode(ctx, r, x, os.ModeSymlink)
	case syntax.TsSticky:
		return statMode(ctx, r, x, os.ModeSticky)
	case syntax.TsGIDSet:
		return statMode(ctx, r, x, os.ModeSetgid)
	case syntax.TsUIDSet:
		return statMode(ctx, r, x, os.ModeSetuid)
	case syntax.TsGrpOwn, syntax.TsUsrOwn:
		return r.unTestOwnOrGrp(ctx, op, x)
	case syntax.TsModif:
		info := r.statNoErr(ctx, x)
		return info != nil && info.ModTime().After(r.startTime)
	case syntax.TsRead:
		return r.access(ctx, x, access_R_OK) == nil
	case syntax.TsWrite:
		return r.access(ctx, x, access_W_OK) == nil
	case syntax.TsExec:
		return r.access(ctx, x, access_X_OK) == nil
	case syntax.TsNoEmpty:
		info := r.statNoErr(ctx, x)
		return info != nil && info.Size() > 0
	case syntax.TsFdTerm:
		return isFdTerminal(x)
	case syntax.TsEmpStr:
		return x == ""
	case syntax.TsNempStr:
		return x != ""
	case syntax.TsOptSet:
		_, status := r.optByName(x, true)
		return status != nil && *status
	case syntax.TsVarSet:
		return r.lookupVar(x).IsSet()
	case syntax.TsRefVar:
		return r.lookupVar(x).Kind == expand.NameRef
	case syntax.TsNot:
		return x == ""
	default:
		panic(fmt.Sprintf("unhandled unary test op: %v", op))
	}
}

// isFdTerminal reports whether the file descriptor named by x refers to a
// terminal. x is expected to be a small non-negative integer, as produced by
// shell redirections (e.g. "[ -t 1 ]").
func isFdTerminal(x string) bool {
	fd, err := strconv.Atoi(x)
	if err != nil || fd < 0 {
		return false
	}
	return term.IsTerminal(fd)
}
