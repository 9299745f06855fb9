package fnslang

import (
	"fmt"
	"strconv"

	"github.com/blackcoderx/schemacheck/pkg/schematron/token"
)

// unaryFuncs take one argument and push [argument, name]: count and
// round take a node, number takes a full expression.
var unaryFuncs = []string{"count", "round", "number"}

// comparisonOps, longest first so "<=" is tried before "<".
var comparisonOps = []string{"<=", ">=", "!=", "<", ">", "="}

// nodeChainOps, the bare arithmetic a node word may chain into without
// parentheses (spec §4.1, corrected grounding on tokenizer.py's
// `node = element + ZeroOrMore(((mul|minus) + element)...)`, extended
// to "+"/"mod" per spec's full arithmetic token set).
var nodeChainOps = []string{"*", "-", "+", "mod"}

// Parse tokenizes a Grammar A expression into a postfix token.Stream,
// ready for fnsexpr.Eval. It mirrors the precedence structure of
// original_source/schematron/tokenizer.py: expr (or) term (and) factor
// (general_comp) atom (funcs | node | not parenthesized-expr).
func Parse(text string) (token.Stream, error) {
	p := &parser{lx: newLexer(text)}
	p.parseExpr()
	if p.err != nil {
		return nil, p.err
	}
	p.lx.skipSpace()
	if !p.lx.eof() {
		return nil, fmt.Errorf("fnslang: unexpected trailing input at %d: %q", p.lx.pos, string(p.lx.src[p.lx.pos:]))
	}
	return p.out, nil
}

type parser struct {
	lx  *lexer
	out token.Stream
	err error
}

func (p *parser) push(t token.Token) {
	p.out = append(p.out, t)
}

func (p *parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("fnslang: "+format, args...)
	}
}

// parseExpr := term (or term)*
func (p *parser) parseExpr() {
	p.parseTerm()
	for p.err == nil && p.lx.matchKeyword("or") {
		p.parseTerm()
		p.push(token.Op("or"))
	}
}

// parseTerm := factor (and factor)*
func (p *parser) parseTerm() {
	p.parseFactor()
	for p.err == nil && p.lx.matchKeyword("and") {
		p.parseFactor()
		p.push(token.Op("and"))
	}
}

// parseFactor := atom (comparison (number|atom|string))*
func (p *parser) parseFactor() {
	p.parseAtom()
	for p.err == nil {
		op, ok := p.matchComparison()
		if !ok {
			return
		}
		p.parseComparand()
		p.push(token.Op(op))
	}
}

func (p *parser) matchComparison() (string, bool) {
	for _, op := range comparisonOps {
		if p.lx.hasPrefix(op) {
			p.lx.consume(op)
			return op, true
		}
	}
	return "", false
}

// parseComparand handles the right-hand side of a comparison: a
// literal number/string, or a full atom (node or nested expression).
func (p *parser) parseComparand() {
	if num, ok := p.lx.scanNumber(); ok {
		p.pushNumber(num)
		return
	}
	if s, ok := p.lx.scanQuoted(); ok {
		p.push(token.Str(s))
		return
	}
	p.parseAtom()
}

func (p *parser) pushNumber(text string) {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.fail("invalid number literal %q", text)
		return
	}
	p.push(token.Number(text, n))
}

// parseAtom := funcs | node-chain | (not)? '(' expr ')'
func (p *parser) parseAtom() {
	if p.err != nil {
		return
	}
	if p.tryParseFunc() {
		return
	}
	if p.lx.matchKeyword("not") {
		p.parseAtom()
		p.push(token.Op("not"))
		return
	}
	if p.lx.hasPrefix("(") {
		p.lx.consume("(")
		p.parseExpr()
		if !p.lx.hasPrefix(")") {
			p.fail("expected ')' at %d", p.lx.pos)
			return
		}
		p.lx.consume(")")
		return
	}
	if num, ok := p.lx.scanNumber(); ok {
		p.pushNumber(num)
		return
	}
	if s, ok := p.lx.scanQuoted(); ok {
		p.push(token.Str(s))
		return
	}
	p.parseNodeChain()
}

// parseNodeChain := element ((* | - | + | mod) element)*
func (p *parser) parseNodeChain() {
	word, ok := p.lx.scanNodeWord()
	if !ok {
		p.fail("expected node reference at %d", p.lx.pos)
		return
	}
	p.push(token.Node(word))
	for {
		op, ok := p.matchNodeChainOp()
		if !ok {
			return
		}
		next, ok := p.lx.scanNodeWord()
		if !ok {
			p.fail("expected node reference after %q at %d", op, p.lx.pos)
			return
		}
		p.push(token.Node(next))
		p.push(token.Op(op))
	}
}

func (p *parser) matchNodeChainOp() (string, bool) {
	if p.lx.matchKeyword("mod") {
		return "mod", true
	}
	for _, op := range []string{"*", "-", "+"} {
		if p.lx.hasPrefix(op) {
			p.lx.consume(op)
			return op, true
		}
	}
	return "", false
}

// tryParseFunc attempts every recognized function keyword in turn. It
// does not consume input on failure to match a keyword at all, but once
// a keyword matches it commits (parse errors inside the argument list
// are real errors, not backtrack signals — matching the original's
// non-backtracking pyparsing grammar).
func (p *parser) tryParseFunc() bool {
	for _, name := range unaryFuncs {
		if p.lx.matchKeyword(name) {
			p.expectOpenParen()
			if name == "number" {
				p.parseExpr()
			} else {
				p.parseNodeChain()
			}
			p.expectCloseParen()
			p.push(token.Op(name))
			return true
		}
	}
	switch {
	case p.lx.matchKeyword("sum"):
		p.expectOpenParen()
		p.parseNodeChain()
		p.expectCloseParen()
		p.push(token.Op("sum"))
		return true
	case p.lx.matchKeyword("substring"):
		p.expectOpenParen()
		p.parseNodeChain()
		p.expectComma()
		start, ok := p.lx.scanNumber()
		if !ok {
			p.fail("substring: expected start offset at %d", p.lx.pos)
			return true
		}
		p.pushNumber(start)
		hasLen := false
		if p.lx.hasPrefix(",") {
			p.lx.consume(",")
			length, ok := p.lx.scanNumber()
			if !ok {
				p.fail("substring: expected length at %d", p.lx.pos)
				return true
			}
			p.pushNumber(length)
			hasLen = true
		}
		p.expectCloseParen()
		if hasLen {
			p.push(token.Op("substring3"))
		} else {
			p.push(token.Op("substring2"))
		}
		return true
	case p.lx.matchKeyword("concat"):
		p.expectOpenParen()
		p.parseNodeChain()
		count := 1
		for p.lx.hasPrefix(",") {
			p.lx.consume(",")
			p.parseNodeChain()
			count++
		}
		p.expectCloseParen()
		p.push(token.Number(strconv.Itoa(count), float64(count)))
		p.push(token.Op("concat"))
		return true
	case p.lx.matchKeyword("usch:getFileName"):
		p.expectOpenParen()
		p.expectCloseParen()
		p.push(token.Op("usch:getFileName"))
		return true
	case p.lx.matchKeyword("usch:compareDate"):
		p.expectOpenParen()
		p.parseNodeChain()
		p.expectComma()
		p.parseNodeChain()
		p.expectCloseParen()
		p.push(token.Op("usch:compareDate"))
		return true
	case p.lx.matchKeyword("usch:iif"):
		p.expectOpenParen()
		p.parseExpr()
		p.expectComma()
		p.parseExpr()
		p.expectComma()
		p.parseExpr()
		p.expectCloseParen()
		p.push(token.Op("usch:iif"))
		return true
	}
	return false
}

func (p *parser) expectOpenParen() {
	if !p.lx.hasPrefix("(") {
		p.fail("expected '(' at %d", p.lx.pos)
		return
	}
	p.lx.consume("(")
}

func (p *parser) expectCloseParen() {
	if p.err != nil {
		return
	}
	if !p.lx.hasPrefix(")") {
		p.fail("expected ')' at %d", p.lx.pos)
		return
	}
	p.lx.consume(")")
}

func (p *parser) expectComma() {
	if p.err != nil {
		return
	}
	if !p.lx.hasPrefix(",") {
		p.fail("expected ',' at %d", p.lx.pos)
		return
	}
	p.lx.consume(",")
}
