// Package fns implements the FNS checker façade (C6): resolve the
// document's schema descriptor, validate it against XSD, harvest and
// evaluate its Schematron assertions. Grounded one-for-one on
// original_source/src/schemachecker/fns/fns_checker.go's check_file.
package fns

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/blackcoderx/schemacheck/pkg/schematron/compendium/fns"
	"github.com/blackcoderx/schemacheck/pkg/schematron/fnsexpr"
	"github.com/blackcoderx/schemacheck/pkg/schematron/fnslang"
	"github.com/blackcoderx/schemacheck/pkg/schematron/harvest"
	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
)

// Checker validates FNS reports against the compendium c.
type Checker struct {
	Compendium *fns.Compendium
}

func New(c *fns.Compendium) *Checker { return &Checker{Compendium: c} }

// CheckFile runs the six-step FNS check, per spec.md §4.6.
func (ck *Checker) CheckFile(doc *xmldoc.Document) (result.VerifyResult, error) {
	r := result.New()

	knd, version, err := resolveKNDVersion(doc)
	if err != nil {
		return result.VerifyResult{}, err
	}
	entry, err := ck.Compendium.Lookup(knd, version)
	if err != nil {
		if notFound, ok := err.(*result.SchemeNotFound); ok {
			if latest, found := ck.Compendium.LatestVersion(knd); found {
				notFound.Suggestion = latest
			}
		}
		return result.VerifyResult{}, err
	}

	base := strings.TrimSuffix(filepath.Base(doc.Filename), filepath.Ext(doc.Filename))
	idFile, _ := doc.Root.Attr("ИдФайл")
	if idFile != base {
		r.Status = result.StatusFailedVer
		r.Description = fmt.Sprintf("file id %s does not match filename %s", idFile, base)
		return r, nil
	}

	issues := entry.XSD.Validate(doc)
	if len(issues) > 0 {
		r.Status = result.StatusFailedXSD
		for _, iss := range issues {
			r.AddAssert("", fmt.Sprintf("%s (line %d)", iss.Message, iss.Line))
		}
		r.Status = result.StatusFailedXSD
		return r, nil
	}

	assertions, err := harvest.Harvest(entry.XSD, doc)
	if err != nil {
		return result.VerifyResult{}, err
	}

	cache := fnsexpr.NewCache()
	for _, a := range assertions {
		stream, err := fnslang.Parse(a.Test)
		if err != nil {
			return result.VerifyResult{}, &result.TokenizerError{Expression: a.Test, Filename: doc.Filename, Cause: err}
		}
		assertion := &fnsexpr.Assertion{Doc: doc, Context: a.Context, Cache: cache}
		value, err := fnsexpr.Eval(stream, assertion)
		if err != nil {
			if _, isParserErr := err.(*result.ParserError); isParserErr {
				continue
			}
			r.Status = result.StatusFailedSch
			r.Description = err.Error()
			return r, nil
		}
		if !truthy(value) {
			text := renderErrorText(a.Error, doc, a.Context, cache)
			r.AddAssert(a.Error.Code, text)
		}
	}

	if len(r.Asserts) > 0 {
		r.Status = result.StatusFailedSch
		r.Description = "ошибки при проверке fns"
	}
	return r, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return v != nil
	}
}

// renderErrorText substitutes each placeholder node-chain with its
// evaluated value, per spec.md §4.5's "when a rule fails, each
// placeholder is re-evaluated... and substituted into the text".
func renderErrorText(tmpl harvest.ErrorTemplate, doc *xmldoc.Document, context string, cache *fnsexpr.Cache) string {
	text := tmpl.Text
	for _, placeholder := range tmpl.Placeholders {
		stream, err := fnslang.Parse(placeholder)
		if err != nil {
			continue
		}
		assertion := &fnsexpr.Assertion{Doc: doc, Context: context, Cache: cache}
		value, err := fnsexpr.Eval(stream, assertion)
		if err != nil {
			continue
		}
		text = strings.Replace(text, placeholder, fmt.Sprintf("%v", value), 1)
	}
	return text
}

// resolveKNDVersion reads the (KND, version) key from the document's
// root and its <Документ> child, per
// original_source/src/schematron/fns/xsd_resolver.go's _get_xml_info:
// prefer КНД, fall back to Индекс, fall back to
// //Документ/ОписПерСвед/@КНД; version is the root's ВерсФорм attribute.
func resolveKNDVersion(doc *xmldoc.Document) (string, string, error) {
	version, _ := doc.Root.Attr("ВерсФорм")

	docNodes := doc.Root.FindDescendants("Документ")
	if len(docNodes) == 0 {
		return "", "", &result.FileAttributeError{}
	}
	docNode := docNodes[0]

	if knd, ok := docNode.Attr("КНД"); ok && knd != "" {
		return knd, version, nil
	}
	if knd, ok := docNode.Attr("Индекс"); ok && knd != "" {
		return knd, version, nil
	}
	if matches := doc.Query("//Документ/ОписПерСвед/@КНД"); len(matches) > 0 {
		return matches[0].Value, version, nil
	}
	return "", "", &result.FileAttributeError{}
}
