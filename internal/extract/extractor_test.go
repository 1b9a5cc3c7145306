package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	tests := []struct {
		name    string
		content []byte
		ext     string
		want    string
	}{
		{"txt", []byte("Hello world\nLine 2"), ".txt", "Hello world\nLine 2"},
		{"utf8", []byte("caf\xc3\xa9"), ".md", "café"},
		{"invalid utf8", []byte("hello\x80world"), ".rst", "hello�world"},
		{"bom", []byte("\xEF\xBB\xBFbom text"), ".txt", "bom text"},
		{"unknown ext", []byte("key = value"), ".toml", "key = value"},
		{"no ext", []byte("plain"), "", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(tt.content, tt.ext)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractBytes_unsupportedBinary(t *testing.T) {
	_, err := NewExtractor().ExtractBytes([]byte{0xD0, 0xCF, 0x11, 0xE0}, ".doc")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func excelBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetCellValue("Sheet1", "A1", "Title")
	_ = f.SetCellValue("Sheet1", "A2", "Value 1")
	_ = f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExtractBytes_excel(t *testing.T) {
	got, err := NewExtractor().ExtractBytes(excelBytes(t), ".xlsx")
	require.NoError(t, err)
	for _, want := range []string{"Title", "Value 1", "Value 2"} {
		assert.Contains(t, got, want)
	}
}

func TestExtractBytes_invalidPDF(t *testing.T) {
	_, err := NewExtractor().ExtractBytes([]byte("not a pdf"), ".pdf")
	assert.Error(t, err)
}

type part struct{ name, body string }

// zipBytes writes parts into a zip archive in the given order.
func zipBytes(t *testing.T, parts ...part) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, p := range parts {
		fw, err := w.Create(p.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func wordDocument(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`
}

func TestExtractBytes_docx(t *testing.T) {
	doc := zipBytes(t, part{"word/document.xml", wordDocument(
		`<w:p w:rsidR="00A1"><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>` +
			`<w:r><w:t>Space</w:t></w:r><w:r><w:t xml:space="preserve"> exploration &amp; </w:t></w:r><w:r><w:t>telescopes</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>paragraph</w:t></w:r></w:p>` +
			`<w:p><w:r><w:instrText>PAGE</w:instrText></w:r></w:p>`,
	)})

	got, err := NewExtractor().ExtractBytes(doc, ".docx")
	require.NoError(t, err)
	assert.Equal(t, "Space exploration & telescopes\nSecond paragraph", got)
}

func TestExtractBytes_docxMainPartFromContentTypes(t *testing.T) {
	doc := zipBytes(t,
		part{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
			`<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/word/document2.xml"/>` +
			`</Types>`},
		part{"word/document.xml", wordDocument(`<w:p><w:r><w:t>stale body</w:t></w:r></w:p>`)},
		part{"word/document2.xml", wordDocument(`<w:p><w:r><w:t>main body</w:t></w:r></w:p>`)},
	)

	got, err := NewExtractor().ExtractBytes(doc, ".docx")
	require.NoError(t, err)
	assert.Equal(t, "main body", got)
}

func TestExtractBytes_docxErrors(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractBytes([]byte("PK\x03\x04 truncated"), ".docx")
	assert.Error(t, err)

	_, err = e.ExtractBytes(zipBytes(t, part{"word/styles.xml", "<w:styles/>"}), ".docx")
	assert.ErrorContains(t, err, "word/document.xml not found")

	_, err = e.ExtractBytes(zipBytes(t, part{"word/document.xml", "<w:document><w:body>"}), ".docx")
	assert.Error(t, err)
}

func slide(text string) string {
	return `<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
		`<p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

func TestExtractBytes_pptxSlidesInNumberOrder(t *testing.T) {
	deck := zipBytes(t,
		part{"ppt/slides/slide10.xml", slide("Tenth slide")},
		part{"ppt/slides/slide2.xml", slide("Second slide")},
		part{"ppt/slides/_rels/slide1.xml.rels", "<Relationships/>"},
		part{"ppt/slides/slide1.xml", slide("First slide")},
		part{"ppt/slideLayouts/slideLayout1.xml", slide("Layout placeholder")},
	)

	got, err := NewExtractor().ExtractBytes(deck, ".pptx")
	require.NoError(t, err)
	assert.Equal(t, "First slide\n\nSecond slide\n\nTenth slide", got)
}

func TestExtractBytes_pptxWithoutSlides(t *testing.T) {
	got, err := NewExtractor().ExtractBytes(zipBytes(t, part{"ppt/presentation.xml", "<p:presentation/>"}), ".pptx")
	require.NoError(t, err)
	assert.Empty(t, got)
}

const odfHead = `<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" ` +
	`xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" ` +
	`xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0" ` +
	`xmlns:draw="urn:oasis:names:tc:opendocument:xmlns:drawing:1.0"><office:body>`

const odfTail = `</office:body></office:document-content>`

func TestExtractBytes_opendocument(t *testing.T) {
	tests := []struct {
		ext  string
		body string
		want string
	}{
		{
			".odt",
			`<office:text><text:h>Orbital mechanics</text:h><text:p>Kepler<text:s/>and <text:span>Newton</text:span></text:p></office:text>`,
			"Orbital mechanics\nKepler and Newton",
		},
		{
			".odp",
			`<office:presentation><draw:page><draw:frame><draw:text-box><text:p>Searchable odp content</text:p></draw:text-box></draw:frame></draw:page></office:presentation>`,
			"Searchable odp content",
		},
		{
			".ods",
			`<office:spreadsheet><table:table><table:table-row>` +
				`<table:table-cell><text:p>Budget</text:p></table:table-cell>` +
				`<table:table-cell office:value="42"><text:p>42</text:p></table:table-cell>` +
				`</table:table-row></table:table></office:spreadsheet>`,
			"Budget\n42",
		},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, err := e.ExtractBytes(zipBytes(t, part{"content.xml", odfHead + tt.body + odfTail}), tt.ext)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractBytes_opendocumentMissingContent(t *testing.T) {
	_, err := NewExtractor().ExtractBytes(zipBytes(t, part{"styles.xml", "<office:document-styles/>"}), ".ods")
	assert.ErrorContains(t, err, "content.xml not found")
}

func TestSupportedExtensionsHaveReaders(t *testing.T) {
	for _, ext := range SupportedExtensions() {
		assert.False(t, binaryFormats[ext], ext)
	}
	assert.Contains(t, SupportedExtensions(), ".docx")
}

func TestExtract_files(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "Notes.TXT")
	require.NoError(t, os.WriteFile(txt, []byte("from disk"), 0644))
	xlsx := filepath.Join(dir, "sheet.xlsx")
	require.NoError(t, os.WriteFile(xlsx, excelBytes(t), 0644))
	docx := filepath.Join(dir, "Report.DOCX")
	require.NoError(t, os.WriteFile(docx, zipBytes(t, part{"word/document.xml", wordDocument(`<w:p><w:r><w:t>quarterly report</w:t></w:r></w:p>`)}), 0644))

	e := NewExtractor()
	got, err := e.Extract(txt)
	require.NoError(t, err)
	assert.Equal(t, "from disk", got)

	got, err = e.Extract(xlsx)
	require.NoError(t, err)
	assert.Contains(t, got, "Title")

	got, err = e.Extract(docx)
	require.NoError(t, err)
	assert.Equal(t, "quarterly report", got)
}

func TestExtract_nonexistent(t *testing.T) {
	_, err := NewExtractor().Extract(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
