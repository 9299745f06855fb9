// Package stat implements the STAT checker façade (C6): parse the
// report filename into its metadata, build one DataFrame per
// declared section, and run every compendium control. Grounded
// one-for-one on
// original_source/src/schemachecker/stat/stat_checker.go's
// process_input/check_file.
package stat

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	statcompendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/stat"
	"github.com/blackcoderx/schemacheck/pkg/schematron/dataframe"
	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/statexpr"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
)

// Checker validates STAT reports against the compendium c.
type Checker struct {
	Compendium *statcompendium.Compendium
}

func New(c *statcompendium.Compendium) *Checker { return &Checker{Compendium: c} }

// Title is the metadata a STAT report's filename carries: spec.md §4.6
// step 1's "(OKUD, IDF, IDP, OKPO, YEAR, PERIOD, ...)".
type Title struct {
	OKUD    string
	IDF     string
	IDP     string
	OKPO    string
	Year    string
	Period  string
	ExtInfo []string
}

// Key returns the compendium lookup key "{okud}_{idf}".
func (t Title) Key() string {
	idf, _ := strconv.Atoi(t.IDF)
	return fmt.Sprintf("%s_%d", t.OKUD, idf)
}

// ParseTitle decomposes a report filename, mirroring process_input's
// "pure_filename.split('__')[0].split('_')" field extraction.
func ParseTitle(filename string) (Title, error) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	mainPart := strings.SplitN(base, "__", 2)[0]
	fields := strings.Split(mainPart, "_")
	if len(fields) < 6 {
		return Title{}, &result.InputError{Filename: filename, Reason: "filename format not recognized"}
	}
	t := Title{OKUD: fields[0], IDF: fields[1], IDP: fields[2], OKPO: fields[3], Year: fields[4], Period: fields[5]}
	if len(fields) > 6 {
		t.ExtInfo = fields[6:]
	}
	if _, err := strconv.Atoi(t.IDF); err != nil {
		return Title{}, &result.InputError{Filename: filename, Reason: "invalid header information"}
	}
	return t, nil
}

// CheckFile runs the three-step STAT check, per spec.md §4.6.
func (ck *Checker) CheckFile(doc *xmldoc.Document) (result.VerifyResult, error) {
	r := result.New()

	title, err := ParseTitle(doc.Filename)
	if err != nil {
		r.Status = result.StatusFailed
		r.Description = err.Error()
		return r, nil
	}

	form, err := ck.Compendium.Lookup(title.Key())
	if err != nil {
		return result.VerifyResult{}, err
	}

	frames, err := buildFrames(doc, form)
	if err != nil {
		r.Status = result.StatusFailed
		r.Description = err.Error()
		return r, nil
	}

	cache := statexpr.NewCache()
	for _, control := range form.Controls {
		frame, ok := frames[control.Section]
		if !ok || frame == nil {
			continue
		}
		if len(frame.Data) == 0 {
			continue
		}

		if control.Period != nil {
			ok, err := statexpr.EvaluatePeriod(control.Period.Clone(), title.Period)
			if err != nil {
				r.Status = result.StatusFailed
				r.Description = err.Error()
				return r, nil
			}
			if !ok {
				continue
			}
		}

		if control.Condition != nil {
			ok, err := statexpr.ConditionGuard(control.Condition.Clone(), frames, nil, cache)
			if err != nil {
				r.Status = result.StatusFailed
				r.Description = err.Error()
				return r, nil
			}
			if !ok {
				continue
			}
		}

		ok, err := statexpr.Condition(control.Rule.Clone(), frames, nil, cache)
		if err != nil {
			r.Status = result.StatusFailed
			r.Description = err.Error()
			return r, nil
		}
		if !ok {
			r.AddAssert(control.ID, control.Name)
		}
	}

	if len(r.Asserts) > 0 {
		r.Status = result.StatusFailedSch
	}
	return r, nil
}

// recognizedRowSpec lists the <row> attributes dataframe.Build's
// specMap actually indexes (s1/s2/s3); anything else besides "code" is
// a schema error, not a silently-dropped attribute.
var recognizedRowSpec = map[string]bool{"s1": true, "s2": true, "s3": true}

// buildFrames builds one DataFrame per declared section from the
// document's <sections><section code=".."><row code=".." s1=".."
// ...><col code="..">value</col></row></section></sections> content,
// mirroring _dataframe.py's from_file_content row/col extraction.
func buildFrames(doc *xmldoc.Document, form statcompendium.Form) (statexpr.Frames, error) {
	frames := make(statexpr.Frames)
	for code, section := range form.Sections {
		frames[code] = dataframe.Build(nil, section.Columns)
	}

	for _, secNode := range doc.Root.FindDescendants("section") {
		code, _ := secNode.Attr("code")
		section, ok := form.Sections[code]
		if !ok {
			continue
		}

		var rows []dataframe.RowSource
		for _, rowNode := range secNode.FindDescendants("row") {
			rowCodeStr, _ := rowNode.Attr("code")
			rowCode, err := strconv.Atoi(rowCodeStr)
			if err != nil {
				return nil, fmt.Errorf("section %s: invalid row code %q", code, rowCodeStr)
			}
			rs := dataframe.RowSource{Code: rowCode, Specs: map[string]string{}, Cells: map[string]float64{}}
			for _, a := range rowNode.Attrs {
				if a.Local == "code" {
					continue
				}
				if !recognizedRowSpec[a.Local] {
					return nil, &result.UnexpectedRowAttribute{Section: code, RowCode: rowCode, Attribute: a.Local}
				}
				rs.Specs[a.Local] = strings.ToLower(a.Value)
			}
			for _, colNode := range rowNode.FindDescendants("col") {
				colCode, _ := colNode.Attr("code")
				var v float64
				if strings.TrimSpace(colNode.Text) != "" {
					v, err = strconv.ParseFloat(strings.TrimSpace(colNode.Text), 64)
					if err != nil {
						return nil, fmt.Errorf("section %s: invalid cell value %q", code, colNode.Text)
					}
				}
				rs.Cells[colCode] = v
			}
			rows = append(rows, rs)
		}

		frames[code] = dataframe.Build(rows, section.Columns)
	}

	return frames, nil
}
