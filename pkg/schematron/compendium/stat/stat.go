// Package stat loads the STAT compendium: one entry per {OKUD}_{IDF}
// form, each carrying its section/column/row metadata, its
// pre-tokenized controls, and its lookup dictionaries. Grounded
// one-for-one on
// original_source/src/schemachecker/stat/stat_checker.go's
// setup_compendium/_get_sections_data/_get_columns_data/_get_rows_data/
// _get_controls_data/_get_dics_data.
package stat

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blackcoderx/schemacheck/pkg/schematron/dataframe"
	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/statlang"
	"github.com/blackcoderx/schemacheck/pkg/schematron/token"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
)

// Column is one declared graph (non-"B"-type column) of a section.
type Column struct {
	Code  string
	Index int
	Type  string
	Name  string
}

// Section is one declared section (report table) of a form.
type Section struct {
	Code    string
	Name    string
	Columns dataframe.ColumnLayout
	Rows    map[string]struct{}
}

// Control is one pre-tokenized control expression.
type Control struct {
	ID        string
	Name      string
	Section   string
	Rule      token.Stream
	Condition token.Stream
	Period    token.Stream
}

// Dic is one lookup dictionary: its id, its name and its {id: text}
// terms.
type Dic struct {
	ID    string
	Name  string
	Terms map[string]string
}

// Form is one compendium entry, keyed by {OKUD}_{IDF}.
type Form struct {
	OKUD     string
	IDF      string
	Sections map[string]Section
	Controls []Control
	Dics     map[string]Dic
}

// Compendium is the full STAT catalogue, indexed by "{okud}_{idf}".
type Compendium struct {
	byKey map[string]Form
}

// Lookup resolves an "{okud}_{idf}" key, as built from a report
// filename's title fields (checker/stat's ParseTitle and Title.Key).
func (c *Compendium) Lookup(key string) (Form, error) {
	f, ok := c.byKey[key]
	if !ok {
		return Form{}, fmt.Errorf("stat compendium: no form declared for %s", key)
	}
	return f, nil
}

// Keys returns every declared "{okud}_{idf}" key, for manifest reporting.
func (c *Compendium) Keys() []string {
	keys := make([]string, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	return keys
}

// Load walks root/compendium, parsing every metaForm XML file it
// contains. A control whose rule or condition references a previous
// period ("{{...}}") is dropped at load time, per the original's own
// skip — there is no prior-period data to evaluate it against.
func Load(root string) (*Compendium, error) {
	c := &Compendium{byKey: make(map[string]Form)}
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
			return &result.CompendiumParseError{File: path, Cause: err}
		}
		doc, err := xmldoc.Parse(path, raw)
		if err != nil {
			return &result.CompendiumParseError{File: path, Cause: err}
		}

		okud, _ := doc.Root.Attr("OKUD")
		idfRaw, _ := doc.Root.Attr("idf")
		if okud == "" {
			return &result.CompendiumParseError{File: path, Cause: fmt.Errorf("metaForm missing OKUD attribute")}
		}
		idf, err := strconv.Atoi(strings.TrimSpace(idfRaw))
		if err != nil {
			return &result.CompendiumParseError{File: path, Cause: fmt.Errorf("metaForm has non-numeric idf %q", idfRaw)}
		}

		form := Form{OKUD: okud, IDF: strconv.Itoa(idf), Sections: map[string]Section{}, Dics: map[string]Dic{}}

		for _, secNode := range doc.Root.FindDescendants("section") {
			sec, err := parseSection(secNode)
			if err != nil {
				return &result.CompendiumParseError{File: path, Cause: err}
			}
			form.Sections[sec.Code] = sec
		}

		for _, ctlNode := range doc.Root.FindDescendants("control") {
			ctl, skip, err := parseControl(ctlNode)
			if err != nil {
				return &result.CompendiumParseError{File: path, Cause: err}
			}
			if skip {
				continue
			}
			form.Controls = append(form.Controls, ctl)
		}

		for _, dicNode := range doc.Root.FindDescendants("dic") {
			d := Dic{Terms: map[string]string{}}
			d.ID, _ = dicNode.Attr("id")
			d.Name, _ = dicNode.Attr("name")
			for _, termNode := range dicNode.FindDescendants("term") {
				id, _ := termNode.Attr("id")
				d.Terms[id] = termNode.Text
			}
			form.Dics[d.ID] = d
		}

		key := fmt.Sprintf("%s_%d", okud, idf)
		c.byKey[key] = form
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func parseSection(secNode *xmldoc.Node) (Section, error) {
	code, _ := secNode.Attr("code")
	name, _ := secNode.Attr("name")
	sec := Section{Code: code, Name: name, Columns: dataframe.ColumnLayout{}, Rows: map[string]struct{}{}}

	idx := 0
	for _, colNode := range secNode.FindDescendants("column") {
		colType, _ := colNode.Attr("type")
		if colType == "B" {
			continue
		}
		colCode, _ := colNode.Attr("code")
		if !isDigits(colCode) {
			continue
		}
		sec.Columns[colCode] = idx
		idx++
	}

	for _, rowNode := range secNode.FindDescendants("row") {
		rowType, _ := rowNode.Attr("type")
		if rowType == "C" {
			continue
		}
		rowCode, _ := rowNode.Attr("code")
		sec.Rows[rowCode] = struct{}{}
	}

	return sec, nil
}

func parseControl(ctlNode *xmldoc.Node) (Control, bool, error) {
	id, _ := ctlNode.Attr("id")
	name, _ := ctlNode.Attr("name")
	ruleText, _ := ctlNode.Attr("rule")
	condText, _ := ctlNode.Attr("condition")
	periodText, _ := ctlNode.Attr("periodClause")

	ruleLower := strings.ToLower(ruleText)
	if strings.Contains(ruleLower, "{{") {
		return Control{}, true, nil
	}
	rule, err := statlang.Parse(ruleLower)
	if err != nil {
		return Control{}, false, &result.TokenizerError{Expression: ruleText, Cause: err}
	}

	var condition token.Stream
	condTrim := strings.TrimSpace(condText)
	if condTrim != "" {
		condLower := strings.ToLower(condTrim)
		if strings.Contains(condLower, "{{") {
			return Control{}, true, nil
		}
		condition, err = statlang.Parse(condLower)
		if err != nil {
			return Control{}, false, &result.TokenizerError{Expression: condText, Cause: err}
		}
	}

	var period token.Stream
	periodTrim := strings.TrimSpace(periodText)
	if periodTrim != "" {
		period, err = statlang.ParsePeriodCondition(strings.ToLower(periodTrim))
		if err != nil {
			return Control{}, false, &result.TokenizerError{Expression: periodText, Cause: err}
		}
	}

	section := firstElementSection(rule)
	if section == "" {
		section = firstElementSection(condition)
	}

	return Control{ID: id, Name: name, Section: section, Rule: rule, Condition: condition, Period: period}, false, nil
}

// firstElementSection returns the section axis of the first element
// token in stream, mirroring stat_checker.go's _parse_elements, which
// walks the RPN entries looking for the first "list" entry (here: the
// first KindElement token) and reads its section coordinate.
func firstElementSection(stream token.Stream) string {
	for _, tok := range stream {
		if tok.Kind == token.KindElement && len(tok.Coords) > 0 && len(tok.Coords[0]) > 0 {
			return tok.Coords[0][0]
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
