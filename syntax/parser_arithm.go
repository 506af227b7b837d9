// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

// couldBeArithm peeks ahead, without consuming any input permanently, to
// decide whether a "((" starts an arithmetic command/expansion or is in
// fact two nested subshells.
func (p *parser) couldBeArithm() (could bool) {
	// save state
	oldTok := p.tok
	oldNpos := p.npos
	oldLines := len(p.f.Lines)
	p.next()
	lparens := 0
tokLoop:
	for p.tok != _EOF {
		switch p.tok {
		case leftParen, dollParen:
			lparens++
		case dollDblParen, dblLeftParen:
			lparens += 2
		case rightParen:
			if lparens == 0 {
				could = p.peekArithmEnd()
				break tokLoop
			}
			lparens--
		}
		p.next()
	}
	// recover state
	p.tok = oldTok
	p.npos = oldNpos
	p.f.Lines = p.f.Lines[:oldLines]
	return
}

// arithmOpLevel returns the binding strength of an arithmetic operator
// token, used for precedence climbing in arithmExpr. Higher binds tighter.
func arithmOpLevel(tok Token) int {
	switch tok {
	case Comma:
		return 0
	case AddAssgn, SubAssgn, MulAssgn, QuoAssgn, RemAssgn, AndAssgn,
		OrAssgn, XorAssgn, ShlAssgn, ShrAssgn:
		return 1
	case Assgn:
		return 2
	case Quest, Colon:
		return 3
	case AndExpr, OrExpr:
		return 4
	case And, Or, Xor:
		return 5
	case Eql, Neq:
		return 6
	case Lss, Gtr, Leq, Geq:
		return 7
	case Shl, Shr:
		return 8
	case Add, Sub:
		return 9
	case Mul, Quo, Rem:
		return 10
	case Pow:
		return 11
	}
	return -1
}

// arithmExpr implements precedence climbing over arithmOpLevel: level
// starts at 0 and recurses up to 11 before falling to arithmExprBase for
// the atoms and unary/postfix operators.
func (p *parser) arithmExpr(ftok Token, fpos Pos, level int, compact bool) ArithmExpr {
	if p.tok == _EOF || p.peekArithmEnd() {
		return nil
	}
	var left ArithmExpr
	if level > 11 {
		left = p.arithmExprBase(ftok, fpos, compact)
	} else {
		left = p.arithmExpr(ftok, fpos, level+1, compact)
	}
	if compact && p.spaced {
		return left
	}
	newLevel := arithmOpLevel(p.tok)
	if newLevel < 0 {
		switch p.tok {
		case _Lit, _LitWord:
			p.curErr("not a valid arithmetic operator: %s", p.val)
			return nil
		case rightParen, _EOF:
		default:
			if p.quote == arithmExpr {
				p.curErr("not a valid arithmetic operator: %v", p.tok)
				return nil
			}
		}
	}
	if newLevel < 0 || newLevel < level {
		return left
	}
	b := &BinaryArithm{
		OpPos: p.pos,
		Op:    p.tok,
		X:     left,
	}
	if p.next(); compact && p.spaced {
		p.followErr(b.OpPos, b.Op.String(), "an expression")
	}
	if b.Y = p.arithmExpr(b.Op, b.OpPos, newLevel, compact); b.Y == nil {
		p.followErr(b.OpPos, b.Op.String(), "an expression")
	}
	return b
}

func (p *parser) arithmExprBase(ftok Token, fpos Pos, compact bool) ArithmExpr {
	var x ArithmExpr
	switch p.tok {
	case Inc, Dec, Not:
		pre := &UnaryArithm{OpPos: p.pos, Op: p.tok}
		p.next()
		pre.X = p.arithmExprBase(pre.Op, pre.OpPos, compact)
		return pre
	case leftParen:
		pe := &ParenArithm{Lparen: p.pos}
		p.next()
		if pe.X = p.arithmExpr(leftParen, pe.Lparen, 0, false); pe.X == nil {
			p.posErr(pe.Lparen, "parentheses must enclose an expression")
		}
		pe.Rparen = p.matched(pe.Lparen, leftParen, rightParen)
		x = pe
	case Add, Sub:
		ue := &UnaryArithm{OpPos: p.pos, Op: p.tok}
		if p.next(); compact && p.spaced {
			p.followErr(ue.OpPos, ue.Op.String(), "an expression")
		}
		if ue.X = p.arithmExpr(ue.Op, ue.OpPos, 0, compact); ue.X == nil {
			p.followErr(ue.OpPos, ue.Op.String(), "an expression")
		}
		x = ue
	case bckQuote:
		if p.quote == arithmExprLet {
			return nil
		}
		fallthrough
	default:
		w := p.word()
		if w.Parts == nil {
			p.followErr(fpos, ftok.String(), "an expression")
		}
		x = &w
	}
	if compact && p.spaced {
		return x
	}
	if p.tok == Inc || p.tok == Dec {
		u := &UnaryArithm{
			Post:  true,
			OpPos: p.pos,
			Op:    p.tok,
			X:     x,
		}
		p.next()
		return u
	}
	return x
}

func (p *parser) peekArithmEnd() bool {
	return p.tok == rightParen && p.npos < len(p.src) && p.src[p.npos] == ')'
}

func (p *parser) arithmEnd(ltok Token, lpos Pos, old saveState) Pos {
	if p.peekArithmEnd() {
		p.npos++
	} else {
		p.matchingErr(lpos, ltok, dblRightParen)
	}
	p.postNested(old)
	pos := p.pos
	p.next()
	return pos
}

func stopToken(tok Token) bool {
	switch tok {
	case _EOF, semicolon, And, Or, AndExpr, OrExpr, pipeAll, dblSemicolon,
		semiFall, dblSemiFall, rightParen:
		return true
	}
	return false
}
