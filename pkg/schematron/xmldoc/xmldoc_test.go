package xmldoc

import (
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestParseDetectsUTF8ByDefault(t *testing.T) {
	doc, err := Parse("report.xml", []byte(`<Файл><Документ Сумма1="120"/></Файл>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Charset != "utf-8" {
		t.Fatalf("got charset %q, want utf-8", doc.Charset)
	}
	if doc.Root.Local != "Файл" {
		t.Fatalf("got root local name %q", doc.Root.Local)
	}
}

func TestParseFallsBackToCP1251(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String(`<?xml version="1.0"?><Файл><ФИО>Иванов</ФИО></Файл>`)
	if err != nil {
		t.Fatalf("encode cp1251: %v", err)
	}
	// The whole document is cp1251 bytes with no declared encoding; its
	// Cyrillic is invalid UTF-8, which makes the first (utf-8) parse
	// attempt fail, exercising the fallback.
	content := []byte(encoded)

	doc, err := Parse("report.xml", content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Charset != "cp1251" {
		t.Fatalf("got charset %q, want cp1251", doc.Charset)
	}
	fio := doc.Root.FindDescendants("ФИО")
	if len(fio) != 1 {
		t.Fatalf("got %d ФИО nodes, want 1", len(fio))
	}
	if fio[0].Text != "Иванов" {
		t.Fatalf("got decoded text %q, want Иванов", fio[0].Text)
	}
}

func TestQueryResolvesAttributeAtEnd(t *testing.T) {
	doc, err := Parse("report.xml", []byte(`<Файл><Документ Сумма1="120"/></Файл>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	matches := doc.Query("//Файл/Документ/@Сумма1")
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if !matches[0].IsAttr || matches[0].Value != "120" {
		t.Fatalf("got %+v", matches[0])
	}
}

func TestQueryRootAsFirstSegment(t *testing.T) {
	doc, err := Parse("report.xml", []byte(`<Файл ИдФайл="report"/>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	matches := doc.Query("Файл/@ИдФайл")
	if len(matches) != 1 || matches[0].Value != "report" {
		t.Fatalf("got %+v", matches)
	}
}

func TestExistsAndCount(t *testing.T) {
	doc, err := Parse("report.xml", []byte(`<Файл><Документ/><Документ/></Файл>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !doc.Exists("//Файл/Документ") {
		t.Fatal("expected //Файл/Документ to exist")
	}
	if doc.Count("//Файл/Документ") != 2 {
		t.Fatalf("got count %d, want 2", doc.Count("//Файл/Документ"))
	}
	if doc.Exists("//Файл/Отсутствует") {
		t.Fatal("expected a nonexistent element not to exist")
	}
}

func TestHasAncestorWithAttrAndNamed(t *testing.T) {
	doc, err := Parse("report.xml", []byte(`<Файл variant="x"><xs:choice xmlns:xs="ns"><Документ minOccurs="0"/></xs:choice></Файл>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	docs := doc.Root.FindDescendants("Документ")
	if len(docs) != 1 {
		t.Fatalf("got %d Документ nodes", len(docs))
	}
	n := docs[0]
	if !n.HasAncestorNamed("choice") {
		t.Fatal("expected an ancestor named \"choice\"")
	}
	if n.HasAncestorWithAttr("minOccurs", "0") {
		t.Fatal("minOccurs=\"0\" is on n itself, not an ancestor, so this must not match")
	}
	if !n.HasAncestorWithAttr("variant", "x") {
		t.Fatal("expected the root ancestor's variant=\"x\" attribute to be found")
	}
}

func TestSegmentsInterleaveTextAroundChildren(t *testing.T) {
	doc, err := Parse("report.xml", []byte(`<p>before <b>bold</b> after</p>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	root := doc.Root
	if len(root.Segments) != 2 {
		t.Fatalf("got %d segments, want 2 (before-child, after-child)", len(root.Segments))
	}
	if root.Segments[0] != "before " {
		t.Fatalf("got segment[0] %q", root.Segments[0])
	}
	if root.Segments[1] != " after" {
		t.Fatalf("got segment[1] %q", root.Segments[1])
	}
}
