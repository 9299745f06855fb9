// Package edo loads the EDO compendium: one XSD per filename prefix.
// Grounded one-for-one on
// original_source/src/schemachecker/edo/edo_checker.go's
// setup_compendium (prefix derivation, mark/pros suffix stripping).
package edo

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xsdschema"
)

// Compendium indexes compiled XSD schemas by filename prefix.
type Compendium struct {
	byPrefix map[string]*xsdschema.Schema
}

// Lookup resolves reportFilename to its XSD validator, applying the
// same mark/pros trailing-4-char stripping rule at lookup time (the
// original derives the prefix identically on both sides).
func (c *Compendium) Lookup(reportFilename string) (*xsdschema.Schema, bool) {
	prefix := Prefix(reportFilename)
	s, ok := c.byPrefix[prefix]
	return s, ok
}

// Keys returns every declared filename prefix, for manifest reporting.
func (c *Compendium) Keys() []string {
	keys := make([]string, 0, len(c.byPrefix))
	for k := range c.byPrefix {
		keys = append(keys, k)
	}
	return keys
}

// Prefix derives the compendium key from a filename: the first two
// underscore-separated tokens, with a trailing 4-char suffix dropped
// if that prefix starts with "mark" or "pros" (case-insensitive).
func Prefix(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(base, "_")
	n := 2
	if len(parts) < n {
		n = len(parts)
	}
	prefix := strings.Join(parts[:n], "_")
	lower := strings.ToLower(prefix)
	if strings.HasPrefix(lower, "mark") || strings.HasPrefix(lower, "pros") {
		if len(prefix) > 4 {
			prefix = prefix[:len(prefix)-4]
		}
	}
	return prefix
}

// Load walks root/compendium, compiling every *.xsd file found and
// indexing it by Prefix(file).
func Load(root string) (*Compendium, error) {
	c := &Compendium{byPrefix: make(map[string]*xsdschema.Schema)}
	compRoot := filepath.Join(root, "compendium")

	err := filepath.WalkDir(compRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return &result.XsdParseError{File: path, Cause: err}
		}
		schema, err := xsdschema.Compile(path, raw)
		if err != nil {
			return &result.XsdParseError{File: path, Cause: err}
		}
		c.byPrefix[Prefix(path)] = schema
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
