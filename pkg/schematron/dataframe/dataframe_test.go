package dataframe

import "testing"

func sampleFrame() *DataFrame {
	rows := []RowSource{
		{Code: 1, Specs: map[string]string{}, Cells: map[string]float64{"10": 5, "20": 7}},
		{Code: 2, Specs: map[string]string{}, Cells: map[string]float64{"10": 3, "20": 9}},
		{Code: 3, Specs: map[string]string{}, Cells: map[string]float64{"10": 1, "20": 2}},
	}
	columns := ColumnLayout{"10": 0, "20": 1}
	return Build(rows, columns)
}

func TestGetSingleCell(t *testing.T) {
	df := sampleFrame()
	got, err := df.Get([]string{"2"}, []string{"10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := got.GetScalar()
	if err != nil {
		t.Fatalf("GetScalar: %v", err)
	}
	if v != 3 {
		t.Fatalf("got %v, want 3", v)
	}
}

func TestGetRangeAndWildcard(t *testing.T) {
	df := sampleFrame()
	got, err := df.Get([]string{"1", "3", "-"}, []string{"*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, c := got.Dim()
	if r != 1 || c != 2 {
		t.Fatalf("got dim %dx%d, want 1x2 (only row 2 is strictly between 1 and 3)", r, c)
	}
}

func TestGetEmptyExtract(t *testing.T) {
	df := sampleFrame()
	_, err := df.Get([]string{"99"}, []string{"10"})
	if err != ErrEmptyExtract {
		t.Fatalf("expected ErrEmptyExtract, got %v", err)
	}
}

func TestSumAll(t *testing.T) {
	df := sampleFrame()
	got := df.SumAll()
	if got != 27 {
		t.Fatalf("got %v, want 27", got)
	}
}

func TestCompareAllElements(t *testing.T) {
	df := sampleFrame()
	ok, err := df.Compare(">=", 0.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected all cells >= 0")
	}
}
