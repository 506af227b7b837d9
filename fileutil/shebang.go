// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package fileutil

import (
	"regexp"
	"strings"
)

var (
	shebangRe = regexp.MustCompile(`^#!\s?/(usr/)?bin/(env\s+)?(sh|bash)\s`)
	extRe     = regexp.MustCompile(`\.(sh|bash)$`)

	shebangNameRe = regexp.MustCompile(`^#![ \t]*/(?:usr/)?bin/(?:env[ \t]+)?(sh|bash|mksh|bats|zsh)(?:\s|$)`)
)

// Shebang parses a "#!" line at the start of bs and returns the name of the
// shell it runs (sh, bash, mksh, bats or zsh), or "" if there is none. It
// supports variations with /usr and env, and spaces or tabs after "#!".
func Shebang(bs []byte) string {
	m := shebangNameRe.FindSubmatch(bs)
	if m == nil {
		return ""
	}
	return string(m[1])
}

// HasShebang reports whether bs begins with a valid sh or bash shebang.
// It supports variations with /usr and env.
func HasShebang(bs []byte) bool {
	return shebangRe.Match(bs)
}

func hasShellExt(name string) bool {
	return extRe.MatchString(name)
}

// hasOtherExt reports whether name carries a dot extension that isn't the
// shell one, which rules the file out as a script outright.
func hasOtherExt(name string) bool {
	return strings.IndexByte(name, '.') > 0
}
