package compendium

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildManifestSortsKeys(t *testing.T) {
	data, err := BuildManifest("fns", []string{"1152017", "1151006"})
	if err != nil {
		t.Fatalf("BuildManifest: %v", err)
	}
	if err := ValidateManifest(data); err != nil {
		t.Fatalf("ValidateManifest: %v", err)
	}
}

func TestValidateManifestRejectsMissingKeys(t *testing.T) {
	if err := ValidateManifest([]byte(`{"family": "fns"}`)); err == nil {
		t.Fatal("expected a schema validation error for a manifest missing \"keys\"")
	}
}

func TestWriteManifestWritesFile(t *testing.T) {
	dir := t.TempDir()
	if err := WriteManifest(dir, "stat", []string{"0601234_1"}); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if err := ValidateManifest(data); err != nil {
		t.Fatalf("round-tripped manifest failed validation: %v", err)
	}
}
