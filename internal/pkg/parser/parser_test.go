package parser

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avidoc/internal/model"
)

const plainSpec = `Engine Mount Specification
DOC-4421
Issue date: 2024-03-15

1. General
bolt torque: 50 Nm

2. Materials
sheet thickness: 1.5 mm
`

func TestParsePlainText(t *testing.T) {
	parsed, err := Parse("engine_mount.txt", []byte(plainSpec))
	require.NoError(t, err)

	assert.Equal(t, "Engine Mount Specification", parsed.Title)
	assert.Equal(t, "DOC-4421", parsed.DocNumber)
	assert.Equal(t, "2024-03-15", parsed.IssueDate)
	assert.Equal(t, model.DocTypeSpecification, parsed.Type)
	assert.Equal(t, model.DocStatusActive, parsed.Status)
	assert.Equal(t, 1, parsed.Version)

	require.Len(t, parsed.Chapters, 2)
	assert.Equal(t, "1. General", parsed.Chapters[0].Title)
	assert.Equal(t, "2. Materials", parsed.Chapters[1].Title)

	require.Len(t, parsed.Parameters, 2)
	assert.Equal(t, "bolt torque", parsed.Parameters[0].Name)
	assert.Equal(t, 50.0, parsed.Parameters[0].Value)
	assert.Equal(t, "nm", parsed.Parameters[0].Unit)
	assert.Equal(t, "sheet thickness", parsed.Parameters[1].Name)
	assert.Equal(t, 1.5, parsed.Parameters[1].Value)
}

func TestParseEmptyFile(t *testing.T) {
	_, err := Parse("empty.txt", nil)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "empty.txt", parseErr.File)
}

func TestParseInvalidUTF8(t *testing.T) {
	_, err := Parse("binary.bin", []byte{0xff, 0xfe, 0x00, 0x42})
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseJSONFlatDocument(t *testing.T) {
	data := []byte(`{
		"doc_id": "SPEC-100",
		"title": "Wing Spar Spec",
		"type": "specification",
		"version": 2,
		"status": "active",
		"issue_date": "2023-05-01",
		"content": "Spar material notes.\n\nrivet spacing: 25 mm",
		"metadata": {"author": "design office"}
	}`)

	parsed, err := Parse("spar.json", data)
	require.NoError(t, err)

	assert.Equal(t, "Wing Spar Spec", parsed.Title)
	assert.Equal(t, "SPEC-100", parsed.DocNumber)
	assert.Equal(t, 2, parsed.Version)
	assert.Equal(t, "2023-05-01", parsed.IssueDate)
	assert.Equal(t, "design office", parsed.Metadata["author"])
	require.Len(t, parsed.Parameters, 1)
	assert.Equal(t, "rivet spacing", parsed.Parameters[0].Name)
}

func TestParseJSONExportShape(t *testing.T) {
	data := []byte(`{
		"documents": [
			{
				"doc_name": "Maintenance Manual",
				"doc_chapter": "Intro",
				"text_entities": [{"type": "plain", "text": "General info"}]
			},
			{
				"doc_chapter": "Torque",
				"text_entities": [
					{"type": "plain", "text": "bolt torque: 45 Nm"},
					{"type": "link", "text": "http://ignored"}
				]
			}
		]
	}`)

	parsed, err := Parse("export.json", data)
	require.NoError(t, err)

	assert.Equal(t, "Maintenance Manual", parsed.Title)
	require.Len(t, parsed.Chapters, 2)
	assert.Equal(t, "Intro", parsed.Chapters[0].Title)
	assert.Equal(t, 0, parsed.Chapters[0].Start)
	assert.Equal(t, "Torque", parsed.Chapters[1].Title)
	assert.Contains(t, parsed.Text, "bolt torque: 45 Nm")
	assert.NotContains(t, parsed.Text, "http://ignored")
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := Parse("broken.json", []byte(`{"title": `))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "invalid JSON", parseErr.Reason)
}

func TestParseXML(t *testing.T) {
	data := []byte(`<document doc_number="OST-77" title="Bracket Drawing" issue_date="2022-10-02" type="drawing" status="active">
	<section>Bracket assembly notes.</section>
	<section>hole diameter: 6 mm</section>
</document>`)

	parsed, err := Parse("bracket.xml", data)
	require.NoError(t, err)

	assert.Equal(t, "OST-77", parsed.DocNumber)
	assert.Equal(t, "Bracket Drawing", parsed.Title)
	assert.Equal(t, "2022-10-02", parsed.IssueDate)
	assert.Equal(t, model.DocTypeDrawing, parsed.Type)
	assert.Contains(t, parsed.Text, "Bracket assembly notes.")
	require.Len(t, parsed.Parameters, 1)
	assert.Equal(t, "hole diameter", parsed.Parameters[0].Name)
}

func TestParseDOCX(t *testing.T) {
	data := buildDOCX(t, "Fuel System Manual", []string{
		"Fuel line routing overview.",
		"line pressure: 4 bar",
	})

	parsed, err := Parse("fuel.docx", data)
	require.NoError(t, err)

	assert.Equal(t, "Fuel System Manual", parsed.Title)
	assert.Equal(t, model.DocTypeManual, parsed.Type)
	assert.Contains(t, parsed.Text, "Fuel line routing overview.")
	require.Len(t, parsed.Parameters, 1)
	assert.Equal(t, "line pressure", parsed.Parameters[0].Name)
	assert.Equal(t, "bar", parsed.Parameters[0].Unit)
}

func TestParseDOCXNotAnArchive(t *testing.T) {
	_, err := Parse("fake.docx", []byte("plain text pretending to be docx"))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "not a DOCX archive", parseErr.Reason)
}

func TestChapterAt(t *testing.T) {
	chapters := []Chapter{
		{Title: "1. General", Start: 10},
		{Title: "2. Materials", Start: 50},
	}

	assert.Equal(t, "", ChapterAt(chapters, 5))
	assert.Equal(t, "1. General", ChapterAt(chapters, 10))
	assert.Equal(t, "1. General", ChapterAt(chapters, 49))
	assert.Equal(t, "2. Materials", ChapterAt(chapters, 120))
	assert.Equal(t, "", ChapterAt(nil, 0))
}

func TestExtractParametersNoValues(t *testing.T) {
	assert.Nil(t, ExtractParameters("prose without any structured values at all"))
}

func TestExtractParametersDeduplicates(t *testing.T) {
	text := "bolt torque: 50 Nm\nBolt  Torque: 60 Nm\n"
	values := ExtractParameters(text)
	require.Len(t, values, 1)
	assert.Equal(t, 50.0, values[0].Value)
}

func TestNormalizeParamName(t *testing.T) {
	assert.Equal(t, "bolt torque", NormalizeParamName("  Bolt   Torque "))
	assert.Equal(t, "момент затяжки", NormalizeParamName("Момент  Затяжки"))
}

// buildDOCX assembles a minimal OOXML package in memory.
func buildDOCX(t *testing.T, title string, paragraphs []string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	var doc bytes.Buffer
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		doc.WriteString(`<w:p><w:r><w:t>`)
		doc.WriteString(p)
		doc.WriteString(`</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write(doc.Bytes())
	require.NoError(t, err)

	core := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>` + title + `</dc:title></cp:coreProperties>`
	w, err = zw.Create("docProps/core.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(core))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}
