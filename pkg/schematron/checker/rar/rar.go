// Package rar implements the RAR checker façade: pure XSD validation
// (spec.md §4.6, "Surrounding families"). Grounded on
// original_source/src/schemachecker/rar/rar_checker.go's
// _set_scheme/_validate_xsd.
package rar

import (
	"fmt"

	rarcompendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/rar"
	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
)

type Checker struct {
	Compendium *rarcompendium.Compendium
}

func New(c *rarcompendium.Compendium) *Checker { return &Checker{Compendium: c} }

func (ck *Checker) CheckFile(doc *xmldoc.Document) (result.VerifyResult, error) {
	r := result.New()

	formVerMatches := doc.Query("//Файл/@ВерсФорм")
	formNumMatches := doc.Query("//Файл/ФормаОтч/@НомФорм")
	if len(formVerMatches) == 0 || len(formNumMatches) == 0 {
		return result.VerifyResult{}, &result.SchemeNotFound{}
	}

	schema, ok := ck.Compendium.Lookup(formNumMatches[0].Value, formVerMatches[0].Value)
	if !ok {
		return result.VerifyResult{}, &result.SchemeNotFound{}
	}

	for _, iss := range schema.Validate(doc) {
		r.Status = result.StatusFailedXSD
		r.AddAssert("", fmt.Sprintf("%s (line %d)", iss.Message, iss.Line))
	}
	return r, nil
}
