// Package edo implements the EDO checker façade: filename/attribute
// equality plus XSD validation only (spec.md §4.6, "Surrounding
// families"). Grounded on
// original_source/src/schemachecker/edo/edo_checker.go's check_file.
package edo

import (
	"fmt"
	"path/filepath"
	"strings"

	edocompendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/edo"
	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
)

type Checker struct {
	Compendium *edocompendium.Compendium
}

func New(c *edocompendium.Compendium) *Checker { return &Checker{Compendium: c} }

func (ck *Checker) CheckFile(doc *xmldoc.Document) (result.VerifyResult, error) {
	r := result.New()

	schema, ok := ck.Compendium.Lookup(doc.Filename)
	if !ok {
		return result.VerifyResult{}, &result.SchemeNotFound{KND: edocompendium.Prefix(doc.Filename)}
	}

	base := strings.TrimSuffix(filepath.Base(doc.Filename), filepath.Ext(doc.Filename))
	idFile, _ := doc.Root.Attr("ИдФайл")
	if base != idFile {
		r.Status = result.StatusFailedSch
		r.AddAssert("0400400007", fmt.Sprintf("filename %s does not match @ИдФайл value %s", base, idFile))
	}

	for _, iss := range schema.Validate(doc) {
		r.Status = result.StatusFailedXSD
		r.AddAssert("", fmt.Sprintf("%s (line %d)", iss.Message, iss.Line))
	}

	return r, nil
}
