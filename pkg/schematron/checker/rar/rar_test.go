package rar

import (
	"os"
	"path/filepath"
	"testing"

	compendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/rar"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
)

const sampleXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Файл"/>
</xs:schema>`

func buildCompendium(t *testing.T) *compendium.Compendium {
	t.Helper()
	dir := t.TempDir()
	compDir := filepath.Join(dir, "compendium")
	if err := os.MkdirAll(compDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(compDir, "5-o-1_2.xsd"), []byte(sampleXSD), 0o644); err != nil {
		t.Fatalf("write xsd: %v", err)
	}
	c, err := compendium.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestCheckFileResolvesSchemeFromDocumentAttributes(t *testing.T) {
	doc, err := xmldoc.Parse("report.xml", []byte(`<Файл ВерсФорм="1.2"><ФормаОтч НомФорм="5"/></Файл>`))
	if err != nil {
		t.Fatalf("parse doc: %v", err)
	}

	ck := New(buildCompendium(t))
	res, err := ck.CheckFile(doc)
	if err != nil {
		t.Fatalf("CheckFile: %v", err)
	}
	if len(res.Asserts) != 0 {
		t.Fatalf("got asserts %+v", res.Asserts)
	}
}

func TestCheckFileReturnsSchemeNotFoundWhenAttributesMissing(t *testing.T) {
	doc, err := xmldoc.Parse("report.xml", []byte(`<Файл/>`))
	if err != nil {
		t.Fatalf("parse doc: %v", err)
	}

	ck := New(buildCompendium(t))
	if _, err := ck.CheckFile(doc); err == nil {
		t.Fatal("expected SchemeNotFound error")
	}
}
