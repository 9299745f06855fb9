package fnslang

import (
	"testing"

	"github.com/blackcoderx/schemacheck/pkg/schematron/token"
)

func tokEq(a, b token.Token) bool {
	if a.Kind != b.Kind || a.Value != b.Value || a.Num != b.Num {
		return false
	}
	return true
}

func TestParseComparison(t *testing.T) {
	stream, err := Parse("ИНН = '1234567890'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := token.Stream{
		token.Node("ИНН"),
		token.Str("'1234567890'"),
		token.Op("="),
	}
	if len(stream) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(stream), len(want), stream)
	}
	for i := range want {
		if !tokEq(stream[i], want[i]) {
			t.Errorf("token %d: got %+v want %+v", i, stream[i], want[i])
		}
	}
}

func TestParseBoolAndOr(t *testing.T) {
	stream, err := Parse("КПП = '123' and ОКТМО = '456' or ИНН = '789'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lastOp := stream[len(stream)-1]
	if lastOp.Value != "or" {
		t.Fatalf("expected outermost op 'or', got %q", lastOp.Value)
	}
}

func TestParseNodeArithmeticChain(t *testing.T) {
	stream, err := Parse("Сумма1 - Сумма2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := token.Stream{
		token.Node("Сумма1"),
		token.Node("Сумма2"),
		token.Op("-"),
	}
	if len(stream) != len(want) {
		t.Fatalf("got %d tokens: %+v", len(stream), stream)
	}
	for i := range want {
		if !tokEq(stream[i], want[i]) {
			t.Errorf("token %d: got %+v want %+v", i, stream[i], want[i])
		}
	}
}

func TestParseCountFunc(t *testing.T) {
	stream, err := Parse("count(Документ) = 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stream[0].Kind != token.KindNode || stream[0].Value != "Документ" {
		t.Fatalf("expected node first, got %+v", stream[0])
	}
	if stream[1].Value != "count" {
		t.Fatalf("expected 'count' second, got %+v", stream[1])
	}
}

func TestParseSubstringTwoArg(t *testing.T) {
	stream, err := Parse("substring(Код, 2)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := stream[len(stream)-1]
	if last.Value != "substring2" {
		t.Fatalf("expected substring2 op, got %+v", last)
	}
}

func TestParseSubstringThreeArg(t *testing.T) {
	stream, err := Parse("substring(Код, 2, 5)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := stream[len(stream)-1]
	if last.Value != "substring3" {
		t.Fatalf("expected substring3 op, got %+v", last)
	}
}

func TestParseConcatVariadic(t *testing.T) {
	stream, err := Parse("concat(А, Б, В)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := len(stream)
	if stream[n-1].Value != "concat" {
		t.Fatalf("expected trailing 'concat' op, got %+v", stream[n-1])
	}
	countTok := stream[n-2]
	if countTok.Kind != token.KindNumber || countTok.Num != 3 {
		t.Fatalf("expected arg count 3 before concat, got %+v", countTok)
	}
}

func TestParseUschIif(t *testing.T) {
	stream, err := Parse("usch:iif(А = '1', Б, В)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stream[len(stream)-1].Value != "usch:iif" {
		t.Fatalf("expected trailing usch:iif, got %+v", stream[len(stream)-1])
	}
}

func TestParseUschGetFileName(t *testing.T) {
	stream, err := Parse("usch:getFileName()")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stream) != 1 || stream[0].Value != "usch:getFileName" {
		t.Fatalf("expected single usch:getFileName token, got %+v", stream)
	}
}

func TestParseNot(t *testing.T) {
	stream, err := Parse("not(Атрибут = '1')")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stream[len(stream)-1].Value != "not" {
		t.Fatalf("expected trailing not, got %+v", stream[len(stream)-1])
	}
}

func TestParseTrailingGarbageFails(t *testing.T) {
	_, err := Parse("ИНН = '1' foo")
	if err == nil {
		t.Fatal("expected error on trailing garbage")
	}
}
