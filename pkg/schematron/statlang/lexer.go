// Package statlang tokenizes Grammar B (STAT tabular control
// expressions, spec §4.1) into a postfix token.Stream. Pure text-in,
// token.Stream-out, mirroring
// original_source/src/schemachecker/stat/tokenizer.py's Tokenizer class.
package statlang

import "strings"

const cyrillicLower = "абвгдеёжзийклмнопрстуфхцчшщъыьэюя"
const cyrillicUpper = "АБВГДЕЁЖЗИЙКЛМНОПРСТУФХЦЧШЩЪЫЬЭЮЯ"

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isLatin(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isSpecValChar matches the tokenizer.py `spec_val` alphabet: Latin,
// Cyrillic, digits and '.'.
func isSpecValChar(r rune) bool {
	return isLatin(r) || isDigit(r) || r == '.' ||
		strings.ContainsRune(cyrillicLower, r) || strings.ContainsRune(cyrillicUpper, r)
}

type lexer struct {
	src []rune
	pos int
}

func newLexer(text string) *lexer {
	return &lexer{src: []rune(text)}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\n' || l.src[l.pos] == '\t') {
		l.pos++
	}
}

func (l *lexer) eof() bool { return l.pos >= len(l.src) }

func (l *lexer) hasPrefix(s string) bool {
	l.skipSpace()
	rs := []rune(s)
	if l.pos+len(rs) > len(l.src) {
		return false
	}
	for i, r := range rs {
		if l.src[l.pos+i] != r {
			return false
		}
	}
	return true
}

func (l *lexer) consume(s string) {
	l.skipSpace()
	l.pos += len([]rune(s))
}

func (l *lexer) wordBoundaryAfter(n int) bool {
	p := l.pos + n
	if p >= len(l.src) {
		return true
	}
	r := l.src[p]
	return !isLatin(r) && !isDigit(r)
}

func (l *lexer) matchKeyword(kw string) bool {
	l.skipSpace()
	rs := []rune(kw)
	if l.pos+len(rs) > len(l.src) {
		return false
	}
	for i, r := range rs {
		if l.src[l.pos+i] != r {
			return false
		}
	}
	if !l.wordBoundaryAfter(len(rs)) {
		return false
	}
	l.pos += len(rs)
	return true
}

// scanNatural reads an unsigned integer (row/section/column codes).
func (l *lexer) scanNatural() (string, bool) {
	l.skipSpace()
	start := l.pos
	for !l.eof() && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		return "", false
	}
	return string(l.src[start:l.pos]), true
}

// scanSignedNumber reads an optionally-signed integer or decimal
// literal (arithmetic operands), per tokenizer.py's integer_s/float_s.
func (l *lexer) scanSignedNumber() (string, bool) {
	l.skipSpace()
	start := l.pos
	if !l.eof() && l.src[l.pos] == '-' {
		l.pos++
	}
	digitStart := l.pos
	for !l.eof() && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == digitStart {
		l.pos = start
		return "", false
	}
	if !l.eof() && l.src[l.pos] == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		l.pos++
		for !l.eof() && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	return string(l.src[start:l.pos]), true
}

// scanSpecVal reads one specifics-axis value word (form/OKATO-style codes).
func (l *lexer) scanSpecVal() (string, bool) {
	l.skipSpace()
	start := l.pos
	for !l.eof() && isSpecValChar(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		return "", false
	}
	return string(l.src[start:l.pos]), true
}
