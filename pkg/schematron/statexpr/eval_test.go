package statexpr

import (
	"testing"

	"github.com/blackcoderx/schemacheck/pkg/schematron/dataframe"
	"github.com/blackcoderx/schemacheck/pkg/schematron/statlang"
)

func oneCellFrame(section string, value float64) dataframe.DataFrame {
	rows := []dataframe.RowSource{{Code: 1, Specs: map[string]string{}, Cells: map[string]float64{"1": value}}}
	return *dataframe.Build(rows, dataframe.ColumnLayout{"1": 0})
}

func TestSimpleComparisonControl(t *testing.T) {
	stream, err := statlang.Parse("{[1][1][1]} |=| 42")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := oneCellFrame("1", 42)
	ok, err := Condition(stream, Frames{"1": &f}, nil, NewCache())
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !ok {
		t.Fatal("expected control to pass")
	}
}

func TestTernaryCompareControl(t *testing.T) {
	stream, err := statlang.Parse("0 |<=| {[1][01][3]} |<=| 100")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rows := []dataframe.RowSource{{Code: 1, Specs: map[string]string{}, Cells: map[string]float64{"3": 42}}}
	f := dataframe.Build(rows, dataframe.ColumnLayout{"3": 0})
	ok, err := Condition(stream, Frames{"1": f}, nil, NewCache())
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !ok {
		t.Fatal("expected 42 to satisfy 0 <= x <= 100")
	}
}

func TestTernaryCompareControlFails(t *testing.T) {
	stream, err := statlang.Parse("0 |<=| {[1][01][3]} |<=| 100")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rows := []dataframe.RowSource{{Code: 1, Specs: map[string]string{}, Cells: map[string]float64{"3": 150}}}
	f := dataframe.Build(rows, dataframe.ColumnLayout{"3": 0})
	ok, err := Condition(stream, Frames{"1": f}, nil, NewCache())
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if ok {
		t.Fatal("expected 150 to violate 0 <= x <= 100")
	}
}

func TestArithmeticControl(t *testing.T) {
	stream, err := statlang.Parse("{[1][1][1]} + {[1][1][2]} |=| {[1][1][3]}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rows := []dataframe.RowSource{{Code: 1, Specs: map[string]string{}, Cells: map[string]float64{"1": 10, "2": 20, "3": 30}}}
	f := dataframe.Build(rows, dataframe.ColumnLayout{"1": 0, "2": 1, "3": 2})
	ok, err := Condition(stream, Frames{"1": f}, nil, NewCache())
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !ok {
		t.Fatal("expected 10+20=30")
	}
}

func TestSimpleComparisonControlPopulatesFrameCache(t *testing.T) {
	stream, err := statlang.Parse("{[1][1][1]} |=| 42")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := oneCellFrame("1", 42)
	cache := NewCache()
	if _, err := Condition(stream, Frames{"1": &f}, nil, cache); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if len(cache.frames) == 0 {
		t.Fatal("expected the element reference to populate the frame cache")
	}
}

func TestEvaluatePeriodComparison(t *testing.T) {
	stream, err := statlang.ParsePeriodCondition("(&np < 20250101)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ok, err := EvaluatePeriod(stream, "20240101")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !ok {
		t.Fatal("expected 20240101 < 20250101")
	}
}

func TestEvaluatePeriodAndOr(t *testing.T) {
	stream, err := statlang.ParsePeriodCondition("(&np >= 20240101 and &np <= 20241231)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ok, err := EvaluatePeriod(stream, "20240601")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !ok {
		t.Fatal("expected 20240601 to fall inside the 2024 range")
	}

	ok, err = EvaluatePeriod(stream.Clone(), "20250601")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if ok {
		t.Fatal("expected 20250601 to fall outside the 2024 range")
	}
}

func TestEvaluatePeriodIn(t *testing.T) {
	stream, err := statlang.ParsePeriodCondition("(&np in (20240101,20240401,20240701))")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ok, err := EvaluatePeriod(stream, "20240401")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !ok {
		t.Fatal("expected 20240401 to be a member of the period list")
	}

	ok, err = EvaluatePeriod(stream.Clone(), "20241001")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if ok {
		t.Fatal("expected 20241001 not to be a member of the period list")
	}
}
