package edo

import (
	"os"
	"path/filepath"
	"testing"

	compendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/edo"
	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
)

const sampleXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Документ"/>
</xs:schema>`

func buildCompendium(t *testing.T) *compendium.Compendium {
	t.Helper()
	dir := t.TempDir()
	compDir := filepath.Join(dir, "compendium")
	if err := os.MkdirAll(compDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(compDir, "mark_reestr.xsd"), []byte(sampleXSD), 0o644); err != nil {
		t.Fatalf("write xsd: %v", err)
	}
	c, err := compendium.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestCheckFilePassesWhenIdFileMatches(t *testing.T) {
	doc, err := xmldoc.Parse("mark_reestr_2023.xml", []byte(`<Документ ИдФайл="mark_reestr_2023"/>`))
	if err != nil {
		t.Fatalf("parse doc: %v", err)
	}

	ck := New(buildCompendium(t))
	res, err := ck.CheckFile(doc)
	if err != nil {
		t.Fatalf("CheckFile: %v", err)
	}
	if res.Status != result.StatusPassed {
		t.Fatalf("got status %v, asserts %v", res.Status, res.Asserts)
	}
}

func TestCheckFileFailsSchOnIdFileMismatch(t *testing.T) {
	doc, err := xmldoc.Parse("mark_reestr_2023.xml", []byte(`<Документ ИдФайл="something_else"/>`))
	if err != nil {
		t.Fatalf("parse doc: %v", err)
	}

	ck := New(buildCompendium(t))
	res, err := ck.CheckFile(doc)
	if err != nil {
		t.Fatalf("CheckFile: %v", err)
	}
	if res.Status != result.StatusFailedSch {
		t.Fatalf("got status %v", res.Status)
	}
	if len(res.Asserts) != 1 || res.Asserts[0].ErrorCode != "0400400007" {
		t.Fatalf("got asserts %+v", res.Asserts)
	}
}

func TestCheckFileReturnsSchemeNotFoundForUnknownPrefix(t *testing.T) {
	doc, err := xmldoc.Parse("unknown_prefix_2023.xml", []byte(`<Документ ИдФайл="unknown_prefix_2023"/>`))
	if err != nil {
		t.Fatalf("parse doc: %v", err)
	}

	ck := New(buildCompendium(t))
	if _, err := ck.CheckFile(doc); err == nil {
		t.Fatal("expected SchemeNotFound error")
	}
}
