package stat

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleMetaForm = `<?xml version="1.0" encoding="UTF-8"?>
<metaForm OKUD="0601234" idf="1">
  <section code="1" name="Раздел 1">
    <column code="1" type="N"/>
    <column code="2" type="B"/>
    <column code="lit" type="N"/>
    <row code="1" type="N"/>
    <row code="2" type="C"/>
  </section>
  <control id="0010001" name="Графа 1 больше 0" rule="{[1][1][1]} |>=| 0" condition="" periodClause=""/>
  <control id="0010002" name="Пропускаем, ссылается на прошлый период" rule="{{[1][1][1]}} |=| 0" condition="" periodClause=""/>
  <dic id="d1" name="Словарь">
    <term id="1">Первый</term>
  </dic>
</metaForm>`

func writeForm(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	compDir := filepath.Join(dir, "compendium")
	if err := os.MkdirAll(compDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(compDir, "form.xml"), []byte(sampleMetaForm), 0o644); err != nil {
		t.Fatalf("write form: %v", err)
	}
	return dir
}

func TestLoadParsesSectionsAndSkipsBTypeColumnsAndCTypeRows(t *testing.T) {
	dir := writeForm(t)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	form, err := c.Lookup("0601234_1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	sec, ok := form.Sections["1"]
	if !ok {
		t.Fatal("expected section 1 to be loaded")
	}
	if _, ok := sec.Columns["2"]; ok {
		t.Fatal("type=B column should have been filtered out")
	}
	if _, ok := sec.Columns["lit"]; ok {
		t.Fatal("non-numeric column code should have been filtered out")
	}
	if _, ok := sec.Columns["1"]; !ok {
		t.Fatal("expected column 1 to be present")
	}
	if _, ok := sec.Rows["2"]; ok {
		t.Fatal("type=C row should have been filtered out")
	}
	if _, ok := sec.Rows["1"]; !ok {
		t.Fatal("expected row 1 to be present")
	}
}

func TestLoadDropsControlsReferencingPreviousPeriod(t *testing.T) {
	dir := writeForm(t)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	form, err := c.Lookup("0601234_1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if len(form.Controls) != 1 {
		t.Fatalf("got %d controls, want 1 (the {{...}} control should be dropped)", len(form.Controls))
	}
	if form.Controls[0].ID != "0010001" {
		t.Fatalf("got control id %q", form.Controls[0].ID)
	}
	if form.Controls[0].Section != "1" {
		t.Fatalf("got control section %q, want %q", form.Controls[0].Section, "1")
	}
}

func TestLookupMissingKeyErrors(t *testing.T) {
	dir := writeForm(t)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := c.Lookup("9999999_9"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
