package rar

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Файл"/>
</xs:schema>`

func TestLoadKeyIsThreePartButLookupKeyIsTwoPart(t *testing.T) {
	dir := t.TempDir()
	compDir := filepath.Join(dir, "compendium")
	if err := os.MkdirAll(compDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(compDir, "5-o-1_2.xsd"), []byte(sampleXSD), 0o644); err != nil {
		t.Fatalf("write xsd: %v", err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Load indexes this file as "5.1.2" (three parts: num, ver1, ver2).
	// Lookup only ever builds a two-part key ("num.ver"), so a hit
	// requires the document's own version attribute to already contain
	// the embedded dot — the same quirk the original source exhibits.
	schema, ok := c.Lookup("5", "1.2")
	if !ok {
		t.Fatal("expected lookup to succeed when formVer carries the embedded dot")
	}
	if schema == nil {
		t.Fatal("expected non-nil schema")
	}

	if _, ok := c.Lookup("5", "1"); ok {
		t.Fatal("expected lookup miss for a plain two-part version that doesn't match the stored three-part key")
	}
}

func TestLoadIgnoresNonMatchingFilenames(t *testing.T) {
	dir := t.TempDir()
	compDir := filepath.Join(dir, "compendium")
	if err := os.MkdirAll(compDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(compDir, "not-a-scheme.xsd"), []byte(sampleXSD), 0o644); err != nil {
		t.Fatalf("write xsd: %v", err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.byKey) != 0 {
		t.Fatalf("expected no entries loaded, got %d", len(c.byKey))
	}
}
