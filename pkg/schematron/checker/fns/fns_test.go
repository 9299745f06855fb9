package fns

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	compendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/fns"
	"github.com/blackcoderx/schemacheck/pkg/schematron/result"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
)

const sampleXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Файл">
    <xs:annotation>
      <xs:appinfo>
        <pattern name="Проверка сумм">
          <rule context="Файл/Документ">
            <assert test="@Сумма1 &gt; @Сумма2">
              <error code="0001">Сумма1 должна быть больше Суммы2, получено <select select="@Сумма1"/></error>
            </assert>
          </rule>
        </pattern>
      </xs:appinfo>
    </xs:annotation>
  </xs:element>
</xs:schema>`

const sampleCatalogue = `<?xml version="1.0"?>
<catalogue>
  <format knd="1151006" alias_short="Форма" alias_full="Полное название" direction="ФНС" obsolete="false">
    <version number="5.01" xsd="form.xsd" date_from="" date_till="" info_format=""/>
  </format>
</catalogue>`

func buildCompendium(t *testing.T) *compendium.Compendium {
	t.Helper()
	dir := t.TempDir()
	catalogueFile := filepath.Join(dir, "catalogue.xml")
	require.NoError(t, os.WriteFile(catalogueFile, []byte(sampleCatalogue), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "form.xsd"), []byte(sampleXSD), 0o644))

	c, err := compendium.Load(catalogueFile, dir)
	require.NoError(t, err)
	return c
}

func mustParseDoc(t *testing.T, xmlContent, filename string) *xmldoc.Document {
	t.Helper()
	doc, err := xmldoc.Parse(filename, []byte(xmlContent))
	require.NoError(t, err)
	return doc
}

func TestCheckFilePassesWhenAssertionHolds(t *testing.T) {
	doc := mustParseDoc(t, `<Файл ВерсФорм="5.01" ИдФайл="report"><Документ КНД="1151006" Сумма1="120" Сумма2="20"/></Файл>`, "report.xml")
	ck := New(buildCompendium(t))

	res, err := ck.CheckFile(doc)
	require.NoError(t, err)
	assert.Equal(t, result.StatusPassed, res.Status)
}

func TestCheckFileFailsSchWhenAssertionFails(t *testing.T) {
	doc := mustParseDoc(t, `<Файл ВерсФорм="5.01" ИдФайл="report"><Документ КНД="1151006" Сумма1="10" Сумма2="20"/></Файл>`, "report.xml")
	ck := New(buildCompendium(t))

	res, err := ck.CheckFile(doc)
	require.NoError(t, err)
	assert.Equal(t, result.StatusFailedSch, res.Status)
	require.Len(t, res.Asserts, 1)
	assert.Equal(t, "0001", res.Asserts[0].ErrorCode)
}

func TestCheckFileFailsVerOnFilenameMismatch(t *testing.T) {
	doc := mustParseDoc(t, `<Файл ВерсФорм="5.01" ИдФайл="other"><Документ КНД="1151006" Сумма1="120" Сумма2="20"/></Файл>`, "report.xml")
	ck := New(buildCompendium(t))

	res, err := ck.CheckFile(doc)
	require.NoError(t, err)
	assert.Equal(t, result.StatusFailedVer, res.Status)
}

func TestResolveKNDVersionPrefersKNDAttribute(t *testing.T) {
	doc := mustParseDoc(t, `<Файл ВерсФорм="5.01"><Документ КНД="1151006"/></Файл>`, "report.xml")
	knd, version, err := resolveKNDVersion(doc)
	require.NoError(t, err)
	assert.Equal(t, "1151006", knd)
	assert.Equal(t, "5.01", version)
}

func TestResolveKNDVersionFallsBackToIndeks(t *testing.T) {
	doc := mustParseDoc(t, `<Файл ВерсФорм="5.01"><Документ Индекс="1151006"/></Файл>`, "report.xml")
	knd, _, err := resolveKNDVersion(doc)
	require.NoError(t, err)
	assert.Equal(t, "1151006", knd)
}
