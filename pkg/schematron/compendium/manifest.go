// Package compendium holds the bookkeeping shared by every family
// loader (fns, stat, edo, rar): a small JSON manifest listing which
// catalogue keys a compendium directory declared at load time, so an
// operator can diff compendium rollouts across deployments without
// re-parsing every XSD. Grounded on the teacher's
// pkg/core/tools/schema.go, the one place the teacher validates a
// document against a JSON Schema with gojsonschema — there is no JSON
// document anywhere else in this domain, so the manifest sidecar is
// the one concrete home that dependency gets here.
package compendium

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// Manifest records which keys a single family's compendium load
// produced.
type Manifest struct {
	Family string   `json:"family"`
	Keys   []string `json:"keys"`
}

const manifestSchemaJSON = `{
  "type": "object",
  "required": ["family", "keys"],
  "additionalProperties": false,
  "properties": {
    "family": {"type": "string", "minLength": 1},
    "keys": {"type": "array", "items": {"type": "string"}}
  }
}`

// BuildManifest sorts keys for deterministic output and serializes the
// result to indented JSON.
func BuildManifest(family string, keys []string) ([]byte, error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return json.MarshalIndent(Manifest{Family: family, Keys: sorted}, "", "  ")
}

// ValidateManifest checks data against the manifest JSON Schema above.
func ValidateManifest(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(manifestSchemaJSON)
	docLoader := gojsonschema.NewBytesLoader(data)

	res, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("compendium: failed to validate manifest: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("compendium: manifest failed schema validation: %v", msgs)
	}
	return nil
}

// WriteManifest builds, validates, and writes manifest.json into dir.
// Validation runs before the write so a schema regression never lands
// a malformed sidecar on disk.
func WriteManifest(dir, family string, keys []string) error {
	data, err := BuildManifest(family, keys)
	if err != nil {
		return err
	}
	if err := ValidateManifest(data); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644)
}
