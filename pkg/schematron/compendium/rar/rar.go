// Package rar loads the RAR compendium: one XSD per filename matching
// "(\d+)-o-(\d+)_(\d+).xsd", keyed by "num.ver1.ver2". Grounded
// one-for-one on
// original_source/src/schemachecker/rar/rar_checker.go's
// setup_compendium/_set_scheme.
package rar

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xsdschema"
)

var filenamePattern = regexp.MustCompile(`(\d+)-o-(\d+)_(\d+)\.xsd$`)

// Compendium indexes compiled XSD schemas by "num.ver1.ver2".
type Compendium struct {
	byKey map[string]*xsdschema.Schema
}

// Lookup resolves a (form number, form version) pair, as read from a
// document's `<Файл ВерсФорм="..">/<ФормаОтч НомФорм="..">`
// attributes, to its XSD validator.
func (c *Compendium) Lookup(formNum, formVer string) (*xsdschema.Schema, bool) {
	s, ok := c.byKey[fmt.Sprintf("%s.%s", formNum, formVer)]
	return s, ok
}

// Keys returns every declared "num.ver1.ver2" key, for manifest reporting.
func (c *Compendium) Keys() []string {
	keys := make([]string, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	return keys
}

// Load walks root/compendium, compiling every XSD matching
// filenamePattern and indexing it under its derived key.
func Load(root string) (*Compendium, error) {
	c := &Compendium{byKey: make(map[string]*xsdschema.Schema)}
	compRoot := filepath.Join(root, "compendium")

	err := filepath.WalkDir(compRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		m := filenamePattern.FindStringSubmatch(filepath.Base(path))
		if m == nil {
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
		key := fmt.Sprintf("%s.%s.%s", m[1], m[2], m[3])
		c.byKey[key] = schema
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
