// Package checker wires the per-family checkers behind one façade
// (C6), matching spec.md §3's "Checker façade" — identical
// verify_result contract regardless of which family ran. Grounded on
// the teacher's pkg/core/tools/registry.go, which wires many
// independent tool implementations behind one Registry the same way.
package checker

import (
	"fmt"

	edocompendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/edo"
	fnscompendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/fns"
	rarcompendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/rar"
	statcompendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/stat"
	"github.com/blackcoderx/schemacheck/pkg/schematron/checker/edo"
	"github.com/blackcoderx/schemacheck/pkg/schematron/checker/fns"
	"github.com/blackcoderx/schemacheck/pkg/schematron/checker/rar"
	"github.com/blackcoderx/schemacheck/pkg/schematron/checker/stat"
	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
)

// Checker is the contract every family implements: validate one
// document, producing the shared verify_result shape.
type Checker interface {
	CheckFile(doc *xmldoc.Document) (result.VerifyResult, error)
}

// Family names the checker façade dispatches on.
type Family string

const (
	FNS  Family = "fns"
	STAT Family = "stat"
	EDO  Family = "edo"
	RAR  Family = "rar"
	PFR  Family = "pfr"
	FSS  Family = "fss"
)

// Facade dispatches CheckFile calls to the right per-family checker,
// all sharing the same verify_result contract (spec.md §6).
type Facade struct {
	checkers map[Family]Checker
}

// NewFacade builds a Facade from already-loaded compendia. A nil
// compendium for a family is fine — that family's checker is simply
// absent, and Check returns an error if asked for it.
func NewFacade(fnsC *fnscompendium.Compendium, statC *statcompendium.Compendium, edoC *edocompendium.Compendium, rarC *rarcompendium.Compendium) *Facade {
	f := &Facade{checkers: make(map[Family]Checker)}
	if fnsC != nil {
		f.checkers[FNS] = fns.New(fnsC)
	}
	if statC != nil {
		f.checkers[STAT] = stat.New(statC)
	}
	if edoC != nil {
		f.checkers[EDO] = edo.New(edoC)
	}
	if rarC != nil {
		f.checkers[RAR] = rar.New(rarC)
	}
	f.checkers[PFR] = externalProxy{status: result.StatusFailedXQR, description: "PFR direction delegates to an external XQuery engine, not implemented here"}
	f.checkers[FSS] = externalProxy{status: result.StatusFailed, description: "ФСС direction is a thin proxy to a remote HTTP endpoint, not implemented here"}
	return f
}

// Check dispatches to the checker registered for family.
func (f *Facade) Check(family Family, doc *xmldoc.Document) (result.VerifyResult, error) {
	c, ok := f.checkers[family]
	if !ok {
		return result.VerifyResult{}, fmt.Errorf("checker: no checker registered for family %q", family)
	}
	return c.CheckFile(doc)
}

// externalProxy is the stub façade for families whose value sits in
// an external engine (spec.md §4.6 "Surrounding families" / §2
// Non-goals): same contract, fixed result.
type externalProxy struct {
	status      result.Status
	description string
}

func (p externalProxy) CheckFile(doc *xmldoc.Document) (result.VerifyResult, error) {
	r := result.New()
	r.Status = p.status
	r.Description = p.description
	return r, nil
}
