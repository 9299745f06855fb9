// Package fnsexpr interprets the postfix token.Stream produced by
// fnslang against a parsed xmldoc.Document, returning the Schematron
// test's truth value. It mirrors original_source/schematron/parser.py's
// _evaluate_stack: a small recursive stack machine, not a compiled VM.
package fnsexpr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/token"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
)

// Cache holds per-document memoization of node lookups and function
// results. Grounded on parser.py's `_cached_node`/`_cached_func`
// decorators — present in the original source but commented out
// there; this module carries them live (spec requires evaluation
// caching cleared once per document), keeping the original's key
// scheme (`context/node` and `func/context/args`).
type Cache struct {
	nodes map[string]any
	funcs map[string]any
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{nodes: map[string]any{}, funcs: map[string]any{}}
}

// Clear empties both maps, called once before evaluating a new document.
func (c *Cache) Clear() {
	for k := range c.nodes {
		delete(c.nodes, k)
	}
	for k := range c.funcs {
		delete(c.funcs, k)
	}
}

// Assertion bundles the document, the context path the test string was
// written against ("Файл/Документ"-style), and the cache. One
// Assertion per Schematron rule evaluation.
type Assertion struct {
	Doc     *xmldoc.Document
	Context string
	Cache   *Cache
}

// Eval evaluates stream (consumed in place — callers should pass a
// stream.Clone() if they intend to re-evaluate it) and returns the
// resulting value: bool, float64 or string, matching the dynamic
// typing _evaluate_stack relies on. Every evaluation failure is
// returned as a *result.ParserError carrying the document's filename.
func Eval(stream token.Stream, a *Assertion) (any, error) {
	if a.Cache == nil {
		a.Cache = NewCache()
	}
	s := stream
	v, err := evalStream(&s, a)
	if err != nil {
		return nil, &result.ParserError{Filename: a.Doc.Filename, Cause: err}
	}
	if !s.Empty() {
		return nil, &result.ParserError{Filename: a.Doc.Filename, Cause: fmt.Errorf("fnsexpr: %d unconsumed tokens after evaluation", len(s))}
	}
	return v, nil
}

func evalStream(s *token.Stream, a *Assertion) (any, error) {
	if s.Empty() {
		return nil, fmt.Errorf("fnsexpr: empty expression")
	}
	tok := s.Pop()
	switch tok.Kind {
	case token.KindNumber:
		return tok.Num, nil
	case token.KindString:
		return strings.Trim(tok.Value, "'"), nil
	case token.KindNode:
		return evalNode(tok.Value, a)
	case token.KindOperator:
		return evalOp(tok.Value, s, a)
	default:
		return nil, fmt.Errorf("fnsexpr: unexpected token kind %v", tok.Kind)
	}
}

func evalNode(node string, a *Assertion) (any, error) {
	key := fmt.Sprintf("//%s/%s", a.Context, node)
	if v, ok := a.Cache.nodes[key]; ok {
		return v, nil
	}
	matches := a.Doc.Query(fmt.Sprintf("%s/%s", a.Context, node))
	var v any
	if strings.Contains(node, "@") {
		if len(matches) == 0 {
			v = ""
		} else {
			v = matches[0].Value
		}
	} else {
		v = len(matches) > 0
	}
	a.Cache.nodes[key] = v
	return v, nil
}

func evalOp(op string, s *token.Stream, a *Assertion) (any, error) {
	switch op {
	case "usch:getFileName":
		name := a.Doc.Filename
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[:i]
		}
		return name, nil

	case "not":
		arg, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		return !toBool(arg), nil

	case "count":
		raw := s.Pop()
		if raw.Kind != token.KindNode {
			return nil, fmt.Errorf("fnsexpr: count() expects a node argument, got %v", raw.Kind)
		}
		key := funcKey("count", a.Context, raw.Value)
		if v, ok := a.Cache.funcs[key]; ok {
			return v, nil
		}
		matches := a.Doc.Query(fmt.Sprintf("%s/%s", a.Context, raw.Value))
		v := float64(len(matches))
		a.Cache.funcs[key] = v
		return v, nil

	case "round":
		arg, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		key := funcKey("round", a.Context, arg)
		if v, ok := a.Cache.funcs[key]; ok {
			return v, nil
		}
		f, err := toFloat(arg)
		if err != nil {
			return nil, fmt.Errorf("fnsexpr: round(): %w", err)
		}
		v := math.Round(f)
		a.Cache.funcs[key] = v
		return v, nil

	case "sum", "number":
		// Both are identity wrappers in Grammar A (C1-C7's "sum"/"number"
		// tag the sub-expression's type for the caller; they do not
		// transform the value), matching _sum_func/_number_func. Still
		// routed through the function cache so repeated evaluation of the
		// same sub-expression (main pass + error-template re-evaluation)
		// shares one cache entry with every other function call.
		v, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		key := funcKey(op, a.Context, v)
		if cached, ok := a.Cache.funcs[key]; ok {
			return cached, nil
		}
		a.Cache.funcs[key] = v
		return v, nil

	case "<", "<=", "=", ">", ">=", "!=":
		right, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		left, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		return compare(op, left, right)

	case "*", "-", "+", "mod":
		right, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		left, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		return arith(op, left, right)

	case "and", "or":
		right, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		left, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		if op == "and" {
			return toBool(left) && toBool(right), nil
		}
		return toBool(left) || toBool(right), nil

	case "usch:compareDate":
		right, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		left, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		return toStringValue(left) == toStringValue(right), nil

	case "substring2":
		start, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		node, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		key := funcKey("substring", a.Context, toStringValue(node), start, 0)
		if v, ok := a.Cache.funcs[key]; ok {
			return v, nil
		}
		v, err := substring(toStringValue(node), start, 0)
		if err != nil {
			return nil, err
		}
		a.Cache.funcs[key] = v
		return v, nil

	case "substring3":
		length, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		start, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		node, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		lf, err := toFloat(length)
		if err != nil {
			return nil, fmt.Errorf("fnsexpr: substring(): %w", err)
		}
		key := funcKey("substring", a.Context, toStringValue(node), start, int(lf))
		if v, ok := a.Cache.funcs[key]; ok {
			return v, nil
		}
		v, err := substring(toStringValue(node), start, int(lf))
		if err != nil {
			return nil, err
		}
		a.Cache.funcs[key] = v
		return v, nil

	case "usch:iif":
		fval, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		tval, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		cond, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		if toBool(cond) {
			return tval, nil
		}
		return fval, nil

	case "concat":
		countV, err := evalStream(s, a)
		if err != nil {
			return nil, err
		}
		n, err := toFloat(countV)
		if err != nil {
			return nil, fmt.Errorf("fnsexpr: concat(): %w", err)
		}
		parts := make([]string, int(n))
		for i := int(n) - 1; i >= 0; i-- {
			v, err := evalStream(s, a)
			if err != nil {
				return nil, err
			}
			parts[i] = toStringValue(v)
		}
		return strings.Join(parts, ""), nil

	default:
		return nil, fmt.Errorf("fnsexpr: unknown operator %q", op)
	}
}

// funcKey builds a Cache.funcs key from a function name, the context
// path it was called under, and its evaluated argument tuple, matching
// parser.py's commented-out `_cached_func` key shape.
func funcKey(name, context string, args ...any) string {
	return fmt.Sprintf("%s/%s/%v", name, context, args)
}

func substring(text string, start any, length int) (string, error) {
	f, err := toFloat(start)
	if err != nil {
		return "", fmt.Errorf("substring(): %w", err)
	}
	runes := []rune(text)
	from := int(f) - 1
	if from < 0 {
		from = 0
	}
	if from > len(runes) {
		from = len(runes)
	}
	if length <= 0 {
		return string(runes[from:]), nil
	}
	to := from + length
	if to > len(runes) {
		to = len(runes)
	}
	return string(runes[from:to]), nil
}

func arith(op string, a, b any) (float64, error) {
	af, err := toFloat(a)
	if err != nil {
		return 0, fmt.Errorf("arithmetic %q: %w", op, err)
	}
	bf, err := toFloat(b)
	if err != nil {
		return 0, fmt.Errorf("arithmetic %q: %w", op, err)
	}
	switch op {
	case "*":
		return af * bf, nil
	case "-":
		return af - bf, nil
	case "+":
		return af + bf, nil
	case "mod":
		return math.Mod(af, bf), nil
	}
	return 0, fmt.Errorf("unknown arithmetic op %q", op)
}

func compare(op string, a, b any) (bool, error) {
	// "<" is unconditionally string-lexicographic, never numeric, even
	// when both operands happen to parse as numbers — two node-returned
	// values like "9" and "10" compare as strings ("10" < "9"), not
	// as the numbers 9 and 10.
	if op == "<" {
		return toStringValue(a) < toStringValue(b), nil
	}

	af, aerr := toFloat(a)
	bf, berr := toFloat(b)
	if aerr == nil && berr == nil {
		switch op {
		case "<=":
			return af <= bf, nil
		case "=":
			return af == bf, nil
		case ">":
			return af > bf, nil
		case ">=":
			return af >= bf, nil
		case "!=":
			return af != bf, nil
		}
	}
	as, bs := toStringValue(a), toStringValue(b)
	switch op {
	case "<=":
		return as <= bs, nil
	case "=":
		return as == bs, nil
	case ">":
		return as > bs, nil
	case ">=":
		return as >= bs, nil
	case "!=":
		return as != bs, nil
	}
	return false, fmt.Errorf("unknown comparison op %q", op)
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return false
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to number", t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %v to number", v)
	}
}

func toStringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatFloat(t, 'f', 0, 64)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprintf("%v", v)
	}
}
