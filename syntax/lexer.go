// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

func (p *parser) next() {
	if p.npos >= len(p.src) {
		p.tok = _EOF
		return
	}
	p.spaced, p.newLine = false, false
	b, q := p.src[p.npos], p.quote
	p.pos = Pos(p.npos + 1)
	if p.nextInQuote(b, q) {
		return
	}
	b, done := p.skipBlank(b, q)
	if done {
		return
	}
	p.pos = Pos(p.npos + 1)
	p.scanToken(b, q)
}

// nextInQuote handles the token readers specific to a quoting context, such
// as single/double quotes, heredoc bodies, or parameter expansion
// replacements. It reports whether it fully handled the current byte; if it
// returns false, next falls back to the regular whitespace-skipping and
// token-scanning path.
func (p *parser) nextInQuote(b byte, q quoteState) bool {
	switch q {
	case hdocWord:
		if wordBreak(b) {
			p.tok = illegalTok
			p.spaced = true
			return true
		}
	case paramExpRepl:
		switch b {
		case '}':
			p.npos++
			p.tok = rightBrace
		case '/':
			p.npos++
			p.tok = slash
		case '`', '"', '$':
			p.tok = p.dqToken(b)
		default:
			p.advanceLitOther(q)
		}
		return true
	case dblQuotes:
		if b == '`' || b == '"' || b == '$' {
			p.tok = p.dqToken(b)
		} else {
			p.advanceLitDquote()
		}
		return true
	case hdocBody, hdocBodyTabs:
		if b == '`' || b == '$' {
			p.tok = p.dqToken(b)
		} else if p.hdocStop == nil {
			p.tok = illegalTok
		} else {
			p.advanceLitHdoc()
		}
		return true
	case paramExpExp:
		switch b {
		case '}':
			p.npos++
			p.tok = rightBrace
		case '`', '"', '$':
			p.tok = p.dqToken(b)
		default:
			p.advanceLitOther(q)
		}
		return true
	case sglQuotes:
		if b == '\'' {
			p.npos++
			p.tok = sglQuote
		} else {
			p.advanceLitOther(q)
		}
		return true
	}
	return false
}

// skipBlank consumes spaces, tabs, line continuations, newlines, and any
// pending heredoc bodies, returning the next significant byte. The second
// return value reports whether next should return immediately, because
// either EOF was reached or an illegal token was found (p.tok is already
// set in that case).
func (p *parser) skipBlank(b byte, q quoteState) (byte, bool) {
	for {
		switch b {
		case ' ', '\t', '\r':
			p.spaced = true
			p.npos++
		case '\n':
			p.spaced, p.newLine = true, true
			if q == arithmExprLet {
				p.tok = illegalTok
				return b, true
			}
			p.npos++
			p.f.Lines = append(p.f.Lines, p.npos)
			if len(p.heredocs) > p.buriedHdocs {
				if p.doHeredocs(); p.tok == _EOF {
					return b, true
				}
			}
		case '\\':
			if p.npos < len(p.src)-1 && p.src[p.npos+1] == '\n' {
				p.npos += 2
				p.f.Lines = append(p.f.Lines, p.npos)
			} else {
				return b, false
			}
		default:
			return b, false
		}
		if p.npos >= len(p.src) {
			p.tok = _EOF
			return b, true
		}
		b = p.src[p.npos]
	}
}

// scanToken picks the right token reader for b given the current quoting
// context q, once whitespace has already been skipped.
func (p *parser) scanToken(b byte, q quoteState) {
	switch {
	case q&allRegTokens != 0:
		switch b {
		case ';', '"', '\'', '(', ')', '$', '|', '&', '>', '<', '`':
			p.tok = p.regToken(b)
		case '#':
			p.npos++
			bs, _ := p.readUntil('\n')
			p.npos += len(bs)
			if p.mode&ParseComments > 0 {
				p.f.Comments = append(p.f.Comments, &Comment{
					Hash: p.pos,
					Text: string(bs),
				})
			}
			p.next()
		case '?', '*', '+', '@', '!':
			if p.bash() && p.npos+1 < len(p.src) && p.src[p.npos+1] == '(' {
				switch b {
				case '?':
					p.tok = globQuest
				case '*':
					p.tok = globStar
				case '+':
					p.tok = globPlus
				case '@':
					p.tok = globAt
				default: // '!'
					p.tok = globExcl
				}
				p.npos += 2
			} else {
				p.advanceLitNone()
			}
		default:
			p.advanceLitNone()
		}
	case q == paramExpOff && b == ':':
		// to avoid :- and such
		p.npos++
		p.tok = colon
	case q&allParamArith != 0 && (b == '+' || b == '-'):
		p.advanceLitOther(q)
	case q&allParamExp != 0 && paramOps(b):
		p.tok = p.paramToken(b)
	case q&allArithmExpr != 0 && arithmOps(b):
		p.tok = p.arithmToken(b)
	case q == testRegexp:
		if b == '(' {
			p.advanceLitRe()
		} else if regOps(b) {
			p.tok = p.regToken(b)
		} else {
			p.advanceLitRe()
		}
	case regOps(b):
		p.tok = p.regToken(b)
	default:
		p.advanceLitOther(q)
	}
}
