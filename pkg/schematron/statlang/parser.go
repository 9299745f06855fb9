package statlang

import (
	"fmt"
	"strconv"

	"github.com/blackcoderx/schemacheck/pkg/schematron/token"
)

// generalComp, longest-spelling-first so "|<=|" is tried before "|<|".
var generalComp = []string{"|<=|", "|>=|", "|<>|", "|<|", "|>|", "|=|"}

// periodComp, longest first ("<=" before "<").
var periodComp = []string{"<=", ">=", "<>", "<", ">", "="}

var unaryFuncNames = []string{"abs", "floor"}
var binaryFuncNames = []string{"isnull", "nullif"}

// Parse tokenizes a Grammar B control expression into a postfix
// token.Stream, mirroring
// original_source/src/schemachecker/stat/tokenizer.py's grammar:
// condition := log_expr ((and|or) log_expr)*
// log_expr  := period_cond | arith_expr comp arith_expr (comp arith_expr)?
func Parse(text string) (token.Stream, error) {
	p := &parser{lx: newLexer(text)}
	p.parseCondition()
	if p.err != nil {
		return nil, p.err
	}
	p.lx.skipSpace()
	if !p.lx.eof() {
		return nil, fmt.Errorf("statlang: unexpected trailing input at %d: %q", p.lx.pos, string(p.lx.src[p.lx.pos:]))
	}
	return p.out, nil
}

// ParsePeriodCondition tokenizes a standalone "(&np < 20250101)"-style
// period predicate (spec §4.6 STAT step 3), used outside of "condition"
// context by the period-applicability check.
func ParsePeriodCondition(text string) (token.Stream, error) {
	p := &parser{lx: newLexer(text)}
	p.parsePeriodCond()
	if p.err != nil {
		return nil, p.err
	}
	p.lx.skipSpace()
	if !p.lx.eof() {
		return nil, fmt.Errorf("statlang: unexpected trailing input at %d", p.lx.pos)
	}
	return p.out, nil
}

type parser struct {
	lx  *lexer
	out token.Stream
	err error
}

func (p *parser) push(t token.Token) { p.out = append(p.out, t) }

func (p *parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("statlang: "+format, args...)
	}
}

func (p *parser) parseCondition() {
	p.parseLogExpr()
	for p.err == nil {
		if p.lx.matchKeyword("and") {
			p.parseLogExpr()
			p.push(token.Op("and"))
			continue
		}
		if p.lx.matchKeyword("or") {
			p.parseLogExpr()
			p.push(token.Op("or"))
			continue
		}
		return
	}
}

// parseLogExpr handles a period predicate, a plain comparison, or a
// ternary comparison ("a |op1| b |op2| c"), per the redesign recorded
// in DESIGN.md's statlang entry: the ternary form is recognized here, at parse
// time, and collapsed into one explicit "ternary_cmp" token instead of
// the original's pair of runtime toggle flags.
func (p *parser) parseLogExpr() {
	if p.lx.hasPrefix("(") {
		save := p.lx.pos
		saveOut := len(p.out)
		if p.tryParsePeriodCond() {
			return
		}
		p.lx.pos = save
		p.out = p.out[:saveOut]
		p.err = nil
	}
	p.parseArithExpr()
	op1, ok := p.matchGeneralComp()
	if !ok {
		p.fail("expected comparison operator at %d", p.lx.pos)
		return
	}
	p.parseArithExpr()
	if op2, ok := p.matchGeneralComp(); ok {
		p.parseArithExpr()
		p.push(token.Op("ternary_cmp:" + op1 + ":" + op2))
		return
	}
	p.push(token.Op(op1))
}

func (p *parser) matchGeneralComp() (string, bool) {
	for _, op := range generalComp {
		if p.lx.hasPrefix(op) {
			p.lx.consume(op)
			return op, true
		}
	}
	return "", false
}

// tryParsePeriodCond attempts "(" comp_expr ")"; returns false (with no
// side effects the caller hasn't already saved/restored) if the input
// doesn't actually hold a period predicate.
func (p *parser) tryParsePeriodCond() bool {
	if !p.lx.hasPrefix("(") {
		return false
	}
	save := p.lx.pos
	p.lx.consume("(")
	if !p.lx.hasPrefix("&np") {
		p.lx.pos = save
		return false
	}
	p.parsePeriodComp()
	for p.err == nil {
		if p.lx.matchKeyword("and") {
			p.parsePeriodComp()
			p.push(token.Op("and"))
			continue
		}
		if p.lx.matchKeyword("or") {
			p.parsePeriodComp()
			p.push(token.Op("or"))
			continue
		}
		break
	}
	if p.err != nil {
		return false
	}
	if !p.lx.hasPrefix(")") {
		p.lx.pos = save
		return false
	}
	p.lx.consume(")")
	return true
}

func (p *parser) parsePeriodCond() {
	if !p.lx.hasPrefix("(") {
		p.fail("expected '(' at %d", p.lx.pos)
		return
	}
	p.lx.consume("(")
	p.parsePeriodComp()
	for p.err == nil {
		if p.lx.matchKeyword("and") {
			p.parsePeriodComp()
			p.push(token.Op("and"))
			continue
		}
		if p.lx.matchKeyword("or") {
			p.parsePeriodComp()
			p.push(token.Op("or"))
			continue
		}
		break
	}
	if p.err != nil {
		return
	}
	if !p.lx.hasPrefix(")") {
		p.fail("expected ')' at %d", p.lx.pos)
		return
	}
	p.lx.consume(")")
}

// parsePeriodComp := '&np' (period_comp period_code | 'in' '(' period_list ')')
func (p *parser) parsePeriodComp() {
	if !p.lx.matchKeyword("&np") {
		p.fail("expected '&np' at %d", p.lx.pos)
		return
	}
	p.push(token.Period())
	if p.lx.matchKeyword("in") {
		if !p.lx.hasPrefix("(") {
			p.fail("expected '(' after 'in' at %d", p.lx.pos)
			return
		}
		p.lx.consume("(")
		var codes []string
		code, ok := p.lx.scanNatural()
		if !ok {
			p.fail("expected period code at %d", p.lx.pos)
			return
		}
		codes = append(codes, code)
		for p.lx.hasPrefix(",") {
			p.lx.consume(",")
			code, ok := p.lx.scanNatural()
			if !ok {
				p.fail("expected period code at %d", p.lx.pos)
				return
			}
			codes = append(codes, code)
		}
		if !p.lx.hasPrefix(")") {
			p.fail("expected ')' at %d", p.lx.pos)
			return
		}
		p.lx.consume(")")
		for _, c := range codes {
			n, _ := strconv.ParseFloat(c, 64)
			p.push(token.Number(c, n))
		}
		p.push(token.Number(strconv.Itoa(len(codes)), float64(len(codes))))
		p.push(token.Op("in"))
		return
	}
	op, ok := p.matchPeriodComp()
	if !ok {
		p.fail("expected period comparison operator at %d", p.lx.pos)
		return
	}
	code, ok := p.lx.scanNatural()
	if !ok {
		p.fail("expected period code at %d", p.lx.pos)
		return
	}
	n, _ := strconv.ParseFloat(code, 64)
	p.push(token.Number(code, n))
	p.push(token.Op(op))
}

func (p *parser) matchPeriodComp() (string, bool) {
	for _, op := range periodComp {
		if p.lx.hasPrefix(op) {
			p.lx.consume(op)
			return op, true
		}
	}
	return "", false
}

// parseArithExpr := term ((+|-) term)*
func (p *parser) parseArithExpr() {
	p.parseTerm()
	for p.err == nil {
		if p.lx.hasPrefix("+") {
			p.lx.consume("+")
			p.parseTerm()
			p.push(token.Op("+"))
			continue
		}
		if p.lx.hasPrefix("-") && !p.lx.hasPrefix("--") {
			p.lx.consume("-")
			p.parseTerm()
			p.push(token.Op("-"))
			continue
		}
		return
	}
}

// parseTerm := multiplic ((*|/) multiplic)*
func (p *parser) parseTerm() {
	p.parseMultiplic()
	for p.err == nil {
		if p.lx.hasPrefix("*") {
			p.lx.consume("*")
			p.parseMultiplic()
			p.push(token.Op("*"))
			continue
		}
		if p.lx.hasPrefix("/") {
			p.lx.consume("/")
			p.parseMultiplic()
			p.push(token.Op("/"))
			continue
		}
		return
	}
}

// parseMultiplic := '(' arith_expr ')' | number | element | summa | func
func (p *parser) parseMultiplic() {
	if p.err != nil {
		return
	}
	if p.lx.hasPrefix("(") {
		p.lx.consume("(")
		p.parseArithExpr()
		if !p.lx.hasPrefix(")") {
			p.fail("expected ')' at %d", p.lx.pos)
			return
		}
		p.lx.consume(")")
		return
	}
	if p.lx.matchKeyword("sum") {
		p.parseValidArea()
		p.push(token.Op("sum"))
		return
	}
	if p.tryParseFunc() {
		return
	}
	if p.lx.hasPrefix("{") {
		p.parseElement()
		return
	}
	if num, ok := p.lx.scanSignedNumber(); ok {
		p.pushNumber(num)
		return
	}
	p.fail("expected value at %d", p.lx.pos)
}

func (p *parser) pushNumber(text string) {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.fail("invalid number literal %q", text)
		return
	}
	p.push(token.Number(text, n))
}

// parseValidArea := element | func | '(' arith_expr ')'
func (p *parser) parseValidArea() {
	if p.lx.hasPrefix("{") {
		p.parseElement()
		return
	}
	if p.tryParseFunc() {
		return
	}
	if p.lx.hasPrefix("(") {
		p.lx.consume("(")
		p.parseArithExpr()
		if !p.lx.hasPrefix(")") {
			p.fail("expected ')' at %d", p.lx.pos)
			return
		}
		p.lx.consume(")")
		return
	}
	p.fail("expected sum() argument at %d", p.lx.pos)
}

// tryParseFunc handles abs/floor (unary), isnull/nullif (binary),
// round (2- or 3-arg), coalesce (variadic). Every function pushes an
// explicit argument count ahead of its name: the original source
// tracks (and discards) an args counter for this and separately
// infers round/coalesce's arity at *evaluation* time by sniffing
// operand types on the stack (see DESIGN.md) — collapsing both into
// one explicit count at parse time removes the guesswork.
func (p *parser) tryParseFunc() bool {
	for _, name := range unaryFuncNames {
		if p.lx.matchKeyword(name) {
			p.expectOpenParen()
			p.parseArithExpr()
			p.expectCloseParen()
			p.push(token.Number("1", 1))
			p.push(token.Op(name))
			return true
		}
	}
	for _, name := range binaryFuncNames {
		if p.lx.matchKeyword(name) {
			p.expectOpenParen()
			p.parseArithExpr()
			p.expectComma()
			p.parseArithExpr()
			p.expectCloseParen()
			p.push(token.Number("2", 2))
			p.push(token.Op(name))
			return true
		}
	}
	if p.lx.matchKeyword("round") {
		p.expectOpenParen()
		p.parseArithExpr()
		p.expectComma()
		p.parseArithExpr()
		count := 2
		if p.lx.hasPrefix(",") {
			p.lx.consume(",")
			p.parseArithExpr()
			count = 3
		}
		p.expectCloseParen()
		p.push(token.Number(strconv.Itoa(count), float64(count)))
		p.push(token.Op("round"))
		return true
	}
	if p.lx.matchKeyword("coalesce") {
		p.expectOpenParen()
		p.parseArithExpr()
		count := 1
		for p.lx.hasPrefix(",") {
			p.lx.consume(",")
			p.parseArithExpr()
			count++
		}
		p.expectCloseParen()
		p.push(token.Number(strconv.Itoa(count), float64(count)))
		p.push(token.Op("coalesce"))
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

// parseElement := ('{{' coords '}}') | ('{' coords '}')
// The doubled braces mark a previous-period reference (spec §4.1); the
// resulting token.Element has Value "prev" so statexpr knows to
// resolve it against the prior period's
// frame map instead of the current one.
func (p *parser) parseElement() {
	prev := false
	if p.lx.hasPrefix("{{") {
		prev = true
		p.lx.consume("{{")
	} else if p.lx.hasPrefix("{") {
		p.lx.consume("{")
	} else {
		p.fail("expected '{' at %d", p.lx.pos)
		return
	}

	var coords [][]string
	section, ok := p.parseBracketedSection()
	if !ok {
		return
	}
	coords = append(coords, section)
	row, ok := p.parseBracketedAxis(true)
	if !ok {
		return
	}
	coords = append(coords, row)
	entry, ok := p.parseBracketedAxis(true)
	if !ok {
		return
	}
	coords = append(coords, entry)

	for i := 0; i < 3 && p.lx.hasPrefix("["); i++ {
		spec, ok := p.parseBracketedAxis(false)
		if !ok {
			return
		}
		coords = append(coords, spec)
	}

	if prev {
		if !p.lx.hasPrefix("}}") {
			p.fail("expected '}}' at %d", p.lx.pos)
			return
		}
		p.lx.consume("}}")
	} else {
		if !p.lx.hasPrefix("}") {
			p.fail("expected '}' at %d", p.lx.pos)
			return
		}
		p.lx.consume("}")
	}

	t := token.Element(coords)
	if prev {
		t.Value = "prev"
	}
	p.push(t)
}

func (p *parser) parseBracketedSection() ([]string, bool) {
	if !p.lx.hasPrefix("[") {
		p.fail("expected '[' at %d", p.lx.pos)
		return nil, false
	}
	p.lx.consume("[")
	n, ok := p.lx.scanNatural()
	if !ok {
		p.fail("expected section number at %d", p.lx.pos)
		return nil, false
	}
	if !p.lx.hasPrefix("]") {
		p.fail("expected ']' at %d", p.lx.pos)
		return nil, false
	}
	p.lx.consume("]")
	return []string{n}, true
}

// parseBracketedAxis parses "[...]" for a row/entry (numeric, natural
// positions) or a spec (alnum/Cyrillic values), per the numeric flag.
func (p *parser) parseBracketedAxis(numeric bool) ([]string, bool) {
	if !p.lx.hasPrefix("[") {
		p.fail("expected '[' at %d", p.lx.pos)
		return nil, false
	}
	p.lx.consume("[")
	if p.lx.hasPrefix("*") {
		p.lx.consume("*")
		if !p.lx.hasPrefix("]") {
			p.fail("expected ']' at %d", p.lx.pos)
			return nil, false
		}
		p.lx.consume("]")
		return []string{"*"}, true
	}

	var axis []string
	for {
		var ok bool
		if numeric {
			ok = p.parsePosition(&axis)
		} else {
			ok = p.parseSpecValue(&axis)
		}
		if !ok {
			return nil, false
		}
		if p.lx.hasPrefix(",") {
			p.lx.consume(",")
			continue
		}
		break
	}
	if !p.lx.hasPrefix("]") {
		p.fail("expected ']' at %d", p.lx.pos)
		return nil, false
	}
	p.lx.consume("]")
	return axis, true
}

// parsePosition appends one natural, or a "n1-n2" diap (pushed as
// n1, n2, "-", matching push_nat-then-push_diap's append order in
// tokenizer.py), to axis.
func (p *parser) parsePosition(axis *[]string) bool {
	n1, ok := p.lx.scanNatural()
	if !ok {
		p.fail("expected number at %d", p.lx.pos)
		return false
	}
	save := p.lx.pos
	if p.lx.hasPrefix("-") {
		p.lx.consume("-")
		n2, ok := p.lx.scanNatural()
		if ok {
			*axis = append(*axis, n1, n2, "-")
			return true
		}
		p.lx.pos = save
	}
	*axis = append(*axis, n1)
	return true
}

func (p *parser) parseSpecValue(axis *[]string) bool {
	v1, ok := p.lx.scanSpecVal()
	if !ok {
		p.fail("expected specifics value at %d", p.lx.pos)
		return false
	}
	save := p.lx.pos
	if p.lx.hasPrefix("-") {
		p.lx.consume("-")
		v2, ok := p.lx.scanSpecVal()
		if ok {
			*axis = append(*axis, v1, v2, "-")
			return true
		}
		p.lx.pos = save
	}
	*axis = append(*axis, v1)
	return true
}
