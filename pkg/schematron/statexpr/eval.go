// Package statexpr interprets the postfix token.Stream statlang
// produces against a set of per-section DataFrames, evaluating STAT
// control expressions and period predicates. Grounded on
// original_source/src/schemachecker/stat/interpreter.py's Interpreter
// and PeriodInterpreter classes.
package statexpr

import (
	"fmt"
	"strings"

	"github.com/blackcoderx/schemacheck/pkg/schematron/dataframe"
	"github.com/blackcoderx/schemacheck/pkg/schematron/token"
)

// Cache holds per-document memoization, cleared once per document —
// STAT's expressions are cheap enough that only the resolved frames
// benefit, mirrored from fnsexpr.Cache's shape (spec §8 requires
// caching on both expression engines, not just FNS's).
type Cache struct {
	frames map[string]*dataframe.DataFrame
}

func NewCache() *Cache { return &Cache{frames: map[string]*dataframe.DataFrame{}} }

func (c *Cache) Clear() {
	for k := range c.frames {
		delete(c.frames, k)
	}
}

// Frames maps a section number (as the compendium assigns it, e.g.
// "1", "2") to the current period's parsed DataFrame. PrevFrames is
// the same shape for the previous reporting period, used by "{{...}}"
// element references; it may be nil if no previous-period data was
// supplied.
type Frames map[string]*dataframe.DataFrame

// kind discriminates an Operand's payload, replacing the original's
// "method reference as promise" duck-typing with an explicit tagged
// variant (spec.md §9 Design Notes, "Lazy sum").
type kind int

const (
	kindScalar kind = iota
	kindFrame
	kindPendingSum
)

// Operand is the evaluator's single value type: a scalar, a resolved
// DataFrame, or a DataFrame with a pending `sum` waiting to learn its
// axis from the other side of a binary operation.
type Operand struct {
	kind   kind
	scalar float64
	frame  *dataframe.DataFrame
}

func scalarOperand(v float64) Operand                  { return Operand{kind: kindScalar, scalar: v} }
func frameOperand(f *dataframe.DataFrame) Operand       { return Operand{kind: kindFrame, frame: f} }
func pendingSumOperand(f *dataframe.DataFrame) Operand  { return Operand{kind: kindPendingSum, frame: f} }

// resolvePending forces a PendingSum to a concrete Scalar/Frame given
// the shape the other operand needs (axis 2 = full reduction, 0 = sum
// columns, 1 = sum rows), mirroring _evaluate_context.
func resolvePending(o Operand, axis int) Operand {
	if o.kind != kindPendingSum {
		return o
	}
	if axis == 2 {
		return scalarOperand(o.frame.SumAll())
	}
	return frameOperand(o.frame.SumAxis(axis))
}

// checkContext resolves any PendingSum operand(s) against the other
// operand's shape, matching _check_context/_evaluate_context.
func checkContext(a, b Operand) (Operand, Operand, error) {
	aPending := a.kind == kindPendingSum
	bPending := b.kind == kindPendingSum
	switch {
	case aPending && bPending:
		return resolvePending(a, 2), resolvePending(b, 2), nil
	case aPending:
		return resolvePendingAgainst(a, b)
	case bPending:
		r, l, err := resolvePendingAgainst(b, a)
		return l, r, err
	default:
		return a, b, nil
	}
}

func resolvePendingAgainst(pending, other Operand) (Operand, Operand, error) {
	if other.kind == kindScalar {
		return resolvePending(pending, 2), other, nil
	}
	rows, cols := other.frame.Dim()
	switch {
	case rows == 1 && cols == 1:
		v, err := other.frame.GetScalar()
		if err != nil {
			return Operand{}, Operand{}, err
		}
		return resolvePending(pending, 2), scalarOperand(v), nil
	case rows == 1:
		return resolvePending(pending, 0), other, nil
	case cols == 1:
		return resolvePending(pending, 1), other, nil
	default:
		return Operand{}, Operand{}, fmt.Errorf("statexpr: ambiguous shape for sum context: %dx%d", rows, cols)
	}
}

func toFloat(o Operand) (float64, error) {
	switch o.kind {
	case kindScalar:
		return o.scalar, nil
	case kindFrame:
		return o.frame.GetScalar()
	default:
		return o.frame.SumAll(), nil
	}
}

// Condition evaluates a postfix control-expression stream, returning
// its boolean result. Matches Interpreter.evaluate_expr: an
// ErrEmptyExtract anywhere in the tree is recovered as "passed" (spec
// §4.3's soft-fail contract for missing data).
func Condition(stream token.Stream, frames, prevFrames Frames, cache *Cache) (bool, error) {
	if cache == nil {
		cache = NewCache()
	}
	s := stream
	v, err := evalBool(&s, frames, prevFrames, cache)
	if err == dataframe.ErrEmptyExtract {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return v, nil
}

// ConditionGuard evaluates a predicate used to decide whether a
// control applies at all (spec §4.6 STAT step 2's applicability
// check) — unlike Condition, an empty extract here means the guard
// itself is unsatisfied, matching evaluate_expr_cond's `except
// EmptyExtract: return False`.
func ConditionGuard(stream token.Stream, frames, prevFrames Frames, cache *Cache) (bool, error) {
	if cache == nil {
		cache = NewCache()
	}
	s := stream
	v, err := evalBool(&s, frames, prevFrames, cache)
	if err == dataframe.ErrEmptyExtract {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v, nil
}

func evalBool(s *token.Stream, frames, prevFrames Frames, cache *Cache) (bool, error) {
	v, err := evalOperand(s, frames, prevFrames, cache)
	if err != nil {
		return false, err
	}
	f, err := toFloat(v)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

func evalOperand(s *token.Stream, frames, prevFrames Frames, cache *Cache) (Operand, error) {
	if s.Empty() {
		return Operand{}, fmt.Errorf("statexpr: empty expression")
	}
	tok := s.Pop()
	switch tok.Kind {
	case token.KindNumber:
		return scalarOperand(tok.Num), nil
	case token.KindElement:
		return resolveElement(tok, frames, prevFrames, cache)
	case token.KindOperator:
		return evalOp(tok.Value, s, frames, prevFrames, cache)
	default:
		return Operand{}, fmt.Errorf("statexpr: unexpected token kind %v", tok.Kind)
	}
}

func resolveElement(tok token.Token, frames, prevFrames Frames, cache *Cache) (Operand, error) {
	if len(tok.Coords) < 3 {
		return Operand{}, fmt.Errorf("statexpr: malformed element reference")
	}
	sectionKey := tok.Coords[0][0]
	set := frames
	prefix := "cur"
	if tok.Value == "prev" {
		set = prevFrames
		prefix = "prev"
	}
	df, ok := set[sectionKey]
	if !ok || df == nil {
		return Operand{}, fmt.Errorf("statexpr: unknown section %q", sectionKey)
	}
	rows := tok.Coords[1]
	cols := tok.Coords[2]
	var specs [][]string
	for _, s := range tok.Coords[3:] {
		specs = append(specs, s)
	}

	key := elementKey(prefix, sectionKey, rows, cols, specs)
	got, cached := cache.frames[key]
	if !cached {
		var err error
		got, err = df.Get(rows, cols, specs...)
		if err != nil {
			return Operand{}, err
		}
		cache.frames[key] = got
	}

	r, c := got.Dim()
	if r == 1 && c == 1 {
		v, err := got.GetScalar()
		if err != nil {
			return Operand{}, err
		}
		return scalarOperand(v), nil
	}
	return frameOperand(got), nil
}

// elementKey identifies a resolved element reference for Cache.frames:
// which period (cur/prev), section, row/column spans and extra specs
// it was built from, matching interpreter.py's per-document memoization
// of resolved element lookups.
func elementKey(prefix, sectionKey string, rows, cols []string, specs [][]string) string {
	return fmt.Sprintf("%s/%s/%v/%v/%v", prefix, sectionKey, rows, cols, specs)
}

func evalOp(op string, s *token.Stream, frames, prevFrames Frames, cache *Cache) (Operand, error) {
	if strings.HasPrefix(op, "ternary_cmp:") {
		return evalTernaryCompare(op, s, frames, prevFrames, cache)
	}

	switch op {
	case "sum":
		arg, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		if arg.kind == kindScalar {
			return arg, nil
		}
		return pendingSumOperand(arg.frame), nil

	case "abs":
		return evalUnaryFrameFn(s, frames, prevFrames, cache, func(df *dataframe.DataFrame) *dataframe.DataFrame { return df.Abs() })

	case "floor":
		_, err := popArgCount(s)
		if err != nil {
			return Operand{}, err
		}
		arg, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		if arg.kind == kindScalar {
			return arg, nil
		}
		return scalarOperand(arg.frame.Floor()), nil

	case "isnull":
		n, err := popArgCount(s)
		if err != nil {
			return Operand{}, err
		}
		if n != 2 {
			return Operand{}, fmt.Errorf("statexpr: isnull expects 2 args, got %d", n)
		}
		sub, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		el, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		if el.kind == kindScalar {
			if el.scalar == 0 {
				subF, err := toFloat(sub)
				if err != nil {
					return Operand{}, err
				}
				return scalarOperand(subF), nil
			}
			return el, nil
		}
		substitution, err := toFloat(sub)
		if err != nil {
			return Operand{}, err
		}
		return frameOperand(el.frame.FillNone(substitution)), nil

	case "nullif":
		n, err := popArgCount(s)
		if err != nil {
			return Operand{}, err
		}
		if n != 2 {
			return Operand{}, fmt.Errorf("statexpr: nullif expects 2 args, got %d", n)
		}
		b, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		a, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		af, aerr := toFloat(a)
		bf, berr := toFloat(b)
		if aerr == nil && berr == nil && af == bf {
			return scalarOperand(0), nil
		}
		return scalarOperand(1), nil

	case "round":
		n, err := popArgCount(s)
		if err != nil {
			return Operand{}, err
		}
		opType := 0
		if n == 3 {
			opTypeOperand, err := evalOperand(s, frames, prevFrames, cache)
			if err != nil {
				return Operand{}, err
			}
			f, err := toFloat(opTypeOperand)
			if err != nil {
				return Operand{}, err
			}
			opType = int(f)
		}
		_ = opType
		precOperand, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		prec, err := toFloat(precOperand)
		if err != nil {
			return Operand{}, err
		}
		elOperand, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		if elOperand.kind == kindScalar {
			mult := pow10(int(prec))
			return scalarOperand(roundHalfAwayFromZero(elOperand.scalar*mult) / mult), nil
		}
		return frameOperand(elOperand.frame.Round(int(prec))), nil

	case "coalesce":
		n, err := popArgCount(s)
		if err != nil {
			return Operand{}, err
		}
		args := make([]Operand, n)
		for i := n - 1; i >= 0; i-- {
			args[i], err = evalOperand(s, frames, prevFrames, cache)
			if err != nil {
				return Operand{}, err
			}
		}
		for _, a := range args {
			if a.kind == kindScalar && a.scalar != 0 {
				return a, nil
			}
			if a.kind != kindScalar && !a.frame.IsNone() {
				return a, nil
			}
		}
		return args[0], nil

	case "+", "-", "*", "/":
		right, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		left, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		return applyArith(op, left, right)

	case "and", "or":
		right, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		left, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		lf, err := toFloat(left)
		if err != nil {
			return Operand{}, err
		}
		rf, err := toFloat(right)
		if err != nil {
			return Operand{}, err
		}
		if op == "and" {
			return boolOperand(lf != 0 && rf != 0), nil
		}
		return boolOperand(lf != 0 || rf != 0), nil

	case "|<|", "|<=|", "|=|", "|>|", "|>=|", "|<>|":
		right, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		left, err := evalOperand(s, frames, prevFrames, cache)
		if err != nil {
			return Operand{}, err
		}
		return applyCompare(op, left, right)

	default:
		return Operand{}, fmt.Errorf("statexpr: unknown operator %q", op)
	}
}

func evalUnaryFrameFn(s *token.Stream, frames, prevFrames Frames, cache *Cache, f func(*dataframe.DataFrame) *dataframe.DataFrame) (Operand, error) {
	if _, err := popArgCount(s); err != nil {
		return Operand{}, err
	}
	arg, err := evalOperand(s, frames, prevFrames, cache)
	if err != nil {
		return Operand{}, err
	}
	if arg.kind == kindScalar {
		return arg, nil
	}
	return frameOperand(f(arg.frame)), nil
}

func popArgCount(s *token.Stream) (int, error) {
	if s.Empty() {
		return 0, fmt.Errorf("statexpr: missing argument count")
	}
	t := s.Pop()
	if t.Kind != token.KindNumber {
		return 0, fmt.Errorf("statexpr: expected argument count token")
	}
	return int(t.Num), nil
}

func boolOperand(b bool) Operand {
	if b {
		return scalarOperand(1)
	}
	return scalarOperand(0)
}

func applyArith(op string, left, right Operand) (Operand, error) {
	left, right, err := checkContext(left, right)
	if err != nil {
		return Operand{}, err
	}
	if left.kind == kindScalar && right.kind == kindScalar {
		v, err := arithScalar(op, left.scalar, right.scalar)
		return scalarOperand(v), err
	}
	var other any
	var base *dataframe.DataFrame
	if left.kind != kindScalar {
		base = left.frame
		if right.kind == kindScalar {
			other = right.scalar
		} else {
			other = right.frame
		}
		out, err := base.Arith(op, other)
		if err != nil {
			return Operand{}, err
		}
		return frameOperand(out), nil
	}
	// right is the frame, left is scalar: DataFrame arithmetic is
	// data-op-other in the original, so swap only for commutative
	// cases; non-commutative ops need the scalar applied as "other".
	out, err := right.frame.Arith(op, left.scalar)
	if err != nil {
		return Operand{}, err
	}
	return frameOperand(out), nil
}

func arithScalar(op string, a, b float64) (float64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		return a / b, nil
	}
	return 0, fmt.Errorf("unknown arithmetic op %q", op)
}

func applyCompare(op string, left, right Operand) (Operand, error) {
	left, right, err := checkContext(left, right)
	if err != nil {
		return Operand{}, err
	}
	plain := strings.Trim(op, "|")
	if left.kind == kindScalar && right.kind == kindScalar {
		ok, err := scalarCompare(plain, left.scalar, right.scalar)
		return boolOperand(ok), err
	}
	var df *dataframe.DataFrame
	var other any
	if left.kind != kindScalar {
		df = left.frame
		if right.kind == kindScalar {
			other = right.scalar
		} else {
			other = right.frame
		}
	} else {
		df = right.frame
		other = left.scalar
		plain = flip(plain)
	}
	if plain == "<>" {
		plain = "!="
	}
	ok, err := df.Compare(plain, other)
	return boolOperand(ok), err
}

func flip(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op
	}
}

func scalarCompare(op string, a, b float64) (bool, error) {
	switch op {
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case "=":
		return a == b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	case "<>":
		return a != b, nil
	}
	return false, fmt.Errorf("unknown comparison op %q", op)
}

// evalTernaryCompare handles "a |op1| b |op2| c", pushed by statlang
// as a single token wrapping three sub-expressions (spec.md §9's
// "Ternary comparison flags" redesign note): evaluate a, b, c once
// each and apply (a op1 b) && (b op2 c).
func evalTernaryCompare(op string, s *token.Stream, frames, prevFrames Frames, cache *Cache) (Operand, error) {
	parts := strings.SplitN(strings.TrimPrefix(op, "ternary_cmp:"), ":", 2)
	if len(parts) != 2 {
		return Operand{}, fmt.Errorf("statexpr: malformed ternary comparison token %q", op)
	}
	op1, op2 := parts[0], parts[1]

	c, err := evalOperand(s, frames, prevFrames, cache)
	if err != nil {
		return Operand{}, err
	}
	b, err := evalOperand(s, frames, prevFrames, cache)
	if err != nil {
		return Operand{}, err
	}
	a, err := evalOperand(s, frames, prevFrames, cache)
	if err != nil {
		return Operand{}, err
	}

	left, err := applyCompare(op1, a, b)
	if err != nil {
		return Operand{}, err
	}
	right, err := applyCompare(op2, b, c)
	if err != nil {
		return Operand{}, err
	}
	return boolOperand(left.scalar != 0 && right.scalar != 0), nil
}

// EvaluatePeriod runs a period predicate stream against the report's
// actual period code, mirroring PeriodInterpreter: a tiny dedicated
// variant with only comparison/and/or/in, no DataFrame access at all.
// Period codes compare lexicographically, matching the original's
// plain `operator.lt` applied to the two period strings.
func EvaluatePeriod(stream token.Stream, period string) (bool, error) {
	s := stream
	return evalPeriod(&s, period)
}

func evalPeriod(s *token.Stream, period string) (bool, error) {
	if s.Empty() {
		return false, fmt.Errorf("statexpr: empty period expression")
	}
	tok := s.Pop()
	switch tok.Kind {
	case token.KindOperator:
		switch tok.Value {
		case "and", "or":
			right, err := evalPeriod(s, period)
			if err != nil {
				return false, err
			}
			left, err := evalPeriod(s, period)
			if err != nil {
				return false, err
			}
			if tok.Value == "and" {
				return left && right, nil
			}
			return left || right, nil
		case "in":
			n, err := popArgCount(s)
			if err != nil {
				return false, err
			}
			codes := make([]string, n)
			for i := n - 1; i >= 0; i-- {
				codeTok, err := popPeriodOperand(s, period)
				if err != nil {
					return false, err
				}
				codes[i] = codeTok
			}
			reportPeriod, err := popPeriodOperand(s, period)
			if err != nil {
				return false, err
			}
			for _, c := range codes {
				if c == reportPeriod {
					return true, nil
				}
			}
			return false, nil
		case "<", "<=", "=", ">", ">=", "<>":
			right, err := popPeriodOperand(s, period)
			if err != nil {
				return false, err
			}
			left, err := popPeriodOperand(s, period)
			if err != nil {
				return false, err
			}
			return periodCompare(tok.Value, left, right)
		default:
			return false, fmt.Errorf("statexpr: unknown period operator %q", tok.Value)
		}
	default:
		return false, fmt.Errorf("statexpr: unexpected token kind %v at period expression top", tok.Kind)
	}
}

// popPeriodOperand evaluates the next stack entry as a period-valued
// operand: a literal period code (number) or the "&np" report-period
// symbol, which resolves to the actual report period.
func popPeriodOperand(s *token.Stream, period string) (string, error) {
	if s.Empty() {
		return "", fmt.Errorf("statexpr: missing period operand")
	}
	tok := s.Pop()
	switch tok.Kind {
	case token.KindNumber:
		return tok.Value, nil
	case token.KindPeriod:
		return period, nil
	default:
		return "", fmt.Errorf("statexpr: expected period operand, got token kind %v", tok.Kind)
	}
}

func periodCompare(op, a, b string) (bool, error) {
	switch op {
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case "=":
		return a == b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	case "<>":
		return a != b, nil
	}
	return false, fmt.Errorf("unknown period comparison op %q", op)
}

func pow10(n int) float64 {
	v := 1.0
	if n >= 0 {
		for i := 0; i < n; i++ {
			v *= 10
		}
		return v
	}
	for i := 0; i < -n; i++ {
		v /= 10
	}
	return v
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}
