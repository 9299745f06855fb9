// Package fns loads the FNS compendium: the vendor catalogue of
// declared forms plus, per version, a compiled XSD validator. Grounded
// on spec.md §4.4's field list and on
// original_source/src/schematron/fns/xsd_resolver.go's (KND, version)
// key shape — there the lookup hit a database; here the database
// front-end is out of scope (spec §2) so the same key resolves
// against an in-memory catalogue parsed from one XML file instead.
package fns

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blang/semver"

	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xsdschema"
)

// VersionEntry is one declared version of a form.
type VersionEntry struct {
	XSDName    string
	XSD        *xsdschema.Schema
	DateFrom   string
	DateTill   string
	InfoFormat string
}

// Descriptor is one KND's catalogue entry: its display aliases and the
// set of versions declared for it.
type Descriptor struct {
	KND        string
	AliasShort string
	AliasFull  string
	Versions   map[string]VersionEntry
}

// Compendium is the full FNS catalogue, indexed by KND.
type Compendium struct {
	byKND map[string]Descriptor
}

// Lookup resolves (KND, version) to the XSD validator a document must
// pass. Returns result.SchemeNotFound when no declared version matches.
func (c *Compendium) Lookup(knd, version string) (VersionEntry, error) {
	desc, ok := c.byKND[knd]
	if !ok {
		return VersionEntry{}, &result.SchemeNotFound{KND: knd, Version: version}
	}
	ve, ok := desc.Versions[version]
	if !ok {
		return VersionEntry{}, &result.SchemeNotFound{KND: knd, Version: version}
	}
	return ve, nil
}

// Descriptor returns the catalogue entry for knd, if declared.
func (c *Compendium) Descriptor(knd string) (Descriptor, bool) {
	d, ok := c.byKND[knd]
	return d, ok
}

// Keys returns every declared KND, for manifest reporting.
func (c *Compendium) Keys() []string {
	keys := make([]string, 0, len(c.byKND))
	for k := range c.byKND {
		keys = append(keys, k)
	}
	return keys
}

// LatestVersion returns the highest declared version string for knd,
// ordered with semver.Compare rather than lexicographically so "5.10"
// sorts after "5.9". Vendor version numbers are rarely full
// MAJOR.MINOR.PATCH triples ("5.03" is typical), so each dot-separated
// component is normalized into a semver segment, missing components
// filling in as zero. Falls back to plain string ordering for any
// version that still fails to parse (non-numeric component), so a
// malformed catalogue entry can never abort the lookup.
func (c *Compendium) LatestVersion(knd string) (string, bool) {
	desc, ok := c.byKND[knd]
	if !ok || len(desc.Versions) == 0 {
		return "", false
	}

	var best string
	var bestSV semver.Version
	haveBest := false
	for v := range desc.Versions {
		sv, err := parseCatalogueVersion(v)
		if err != nil {
			if best == "" || v > best {
				best = v
			}
			continue
		}
		if !haveBest || sv.GT(bestSV) {
			bestSV, best, haveBest = sv, v, true
		}
	}
	return best, true
}

// parseCatalogueVersion coerces a vendor version string like "5.03"
// into a three-component semver.Version ("5.3.0").
func parseCatalogueVersion(v string) (semver.Version, error) {
	parts := strings.Split(v, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	for i, p := range parts {
		n := strings.TrimLeft(p, "0")
		if n == "" {
			n = "0"
		}
		parts[i] = n
	}
	return semver.Parse(strings.Join(parts[:3], "."))
}

// catalogueFormat holds the attributes of one <format> element of the
// vendor catalogue file (one per KND); its <version> children are read
// separately in Load.
type catalogueFormat struct {
	KND        string `xml:"knd,attr"`
	AliasShort string `xml:"alias_short,attr"`
	AliasFull  string `xml:"alias_full,attr"`
	Direction  string `xml:"direction,attr"`
	Obsolete   string `xml:"obsolete,attr"`
}

// Load reads catalogueFile (the vendor catalogue) and xsdRoot (the
// directory the catalogue's xsd_name entries are relative to),
// filtering to direction in {"ФНС", ""} and non-obsolete entries, per
// spec.md §4.4. Every XSD is parsed eagerly; the first failure aborts
// the whole load (result.XsdParseError / result.CompendiumParseError).
func Load(catalogueFile, xsdRoot string) (*Compendium, error) {
	raw, err := os.ReadFile(catalogueFile)
	if err != nil {
		return nil, &result.CompendiumParseError{File: catalogueFile, Cause: err}
	}
	doc, err := xmldoc.Parse(catalogueFile, raw)
	if err != nil {
		return nil, &result.CompendiumParseError{File: catalogueFile, Cause: err}
	}

	c := &Compendium{byKND: make(map[string]Descriptor)}

	for _, node := range doc.Root.FindDescendants("format") {
		f := catalogueFormat{
			KND:        attrOr(node, "knd"),
			AliasShort: attrOr(node, "alias_short"),
			AliasFull:  attrOr(node, "alias_full"),
			Direction:  attrOr(node, "direction"),
			Obsolete:   attrOr(node, "obsolete"),
		}
		if f.Direction != "ФНС" && f.Direction != "" {
			continue
		}
		if f.Obsolete == "true" {
			continue
		}
		if f.KND == "" {
			return nil, &result.CompendiumParseError{File: catalogueFile, Cause: fmt.Errorf("format element missing knd attribute")}
		}

		desc := Descriptor{KND: f.KND, AliasShort: f.AliasShort, AliasFull: f.AliasFull, Versions: make(map[string]VersionEntry)}
		for _, vnode := range node.FindDescendants("version") {
			number := attrOr(vnode, "number")
			xsdName := attrOr(vnode, "xsd")
			if number == "" || xsdName == "" {
				return nil, &result.CompendiumParseError{File: catalogueFile, Cause: fmt.Errorf("version element missing number/xsd for KND %s", f.KND)}
			}
			xsdPath := filepath.Join(xsdRoot, xsdName)
			xsdRaw, err := os.ReadFile(xsdPath)
			if err != nil {
				return nil, &result.XsdParseError{File: xsdPath, Cause: err}
			}
			schema, err := xsdschema.Compile(xsdPath, xsdRaw)
			if err != nil {
				return nil, &result.XsdParseError{File: xsdPath, Cause: err}
			}
			desc.Versions[number] = VersionEntry{
				XSDName:    xsdName,
				XSD:        schema,
				DateFrom:   attrOr(vnode, "date_from"),
				DateTill:   attrOr(vnode, "date_till"),
				InfoFormat: attrOr(vnode, "info_format"),
			}
		}
		c.byKND[f.KND] = desc
	}

	return c, nil
}

func attrOr(n *xmldoc.Node, name string) string {
	v, _ := n.Attr(name)
	return strings.TrimSpace(v)
}
