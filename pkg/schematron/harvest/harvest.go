// Package harvest implements the assertion harvester (C5): given a
// compiled XSD's parsed tree, it enumerates every Schematron-style
// assertion embedded under <xs:appinfo>/<pattern>/<rule>/<assert> and,
// for a concrete document, filters to the ones that actually apply.
// Grounded one-for-one on
// original_source/src/schemachecker/fns/fns_checker.go's _get_asserts
// and _get_error.
package harvest

import (
	"strings"

	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xsdschema"
)

// ErrorTemplate is the rendered error an assertion reports on failure:
// a code, a whitespace-collapsed text template, and the ordered list
// of "<select>" node-chain placeholders embedded in that text.
type ErrorTemplate struct {
	Code         string
	Text         string
	Placeholders []string
}

// Assertion is one evaluation job: a Schematron test expression bound
// to a context, with the error it reports if the test fails.
type Assertion struct {
	PatternName string
	Context     string
	Test        string
	Error       ErrorTemplate
}

// Harvest walks schema's appinfo tree and returns every assertion that
// applies to doc: its parent element isn't declared minOccurs=0, and
// its context either resolves against doc or sits under an xs:choice
// (silently skipped when absent there). A required context absent
// from doc returns result.ContextError.
func Harvest(schema *xsdschema.Schema, doc *xmldoc.Document) ([]Assertion, error) {
	var out []Assertion

	for _, appinfo := range schema.Tree.Root.FindDescendants("appinfo") {
		if appinfo.HasAncestorWithAttr("minOccurs", "0") {
			continue
		}

		for _, pattern := range appinfo.Children {
			if pattern.Local != "pattern" {
				continue
			}
			name, ok := pattern.Attr("name")
			if !ok || name == "" {
				continue
			}

			for _, rule := range pattern.Children {
				if rule.Local != "rule" {
					continue
				}
				context, _ := rule.Attr("context")

				if !doc.Exists("//" + context) {
					if appinfo.HasAncestorNamed("choice") {
						continue
					}
					return nil, &result.ContextError{Context: context, Filename: doc.Filename}
				}

				for _, assertNode := range rule.Children {
					if assertNode.Local != "assert" {
						continue
					}
					test, _ := assertNode.Attr("test")

					for _, errorNode := range assertNode.Children {
						out = append(out, Assertion{
							PatternName: name,
							Context:     context,
							Test:        test,
							Error:       buildErrorTemplate(errorNode),
						})
					}
				}
			}
		}
	}

	return out, nil
}

// buildErrorTemplate renders one <error code="..">text <select
// select="..."/> more text</error> node into its flattened template,
// collecting "<select>" placeholders in document order.
func buildErrorTemplate(errorNode *xmldoc.Node) ErrorTemplate {
	code, _ := errorNode.Attr("code")

	var b strings.Builder
	var placeholders []string
	segs := errorNode.Segments
	for i, child := range errorNode.Children {
		if i < len(segs) {
			b.WriteString(segs[i])
		}
		sel, _ := child.Attr("select")
		placeholders = append(placeholders, sel)
		b.WriteString(sel)
	}
	if len(segs) > 0 {
		b.WriteString(segs[len(segs)-1])
	}

	text := strings.Join(strings.Fields(b.String()), " ")
	return ErrorTemplate{Code: code, Text: text, Placeholders: placeholders}
}
