package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

const (
	contentTypesPart = "[Content_Types].xml"
	docxDefaultPart  = "word/document.xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	pptxSlidePrefix  = "ppt/slides/slide"
	odfContentPart   = "content.xml"
)

// markup says which elements carry text in a package's XML parts.
type markup struct {
	text   map[string]bool // character data is kept only inside these elements
	breaks map[string]bool // closing one of these ends a line
	spaces map[string]bool // empty elements standing for whitespace
}

// OOXML keeps run text in <w:t> (Word) or <a:t> (DrawingML), grouped in <w:p>/<a:p> paragraphs.
var ooxmlMarkup = markup{
	text:   map[string]bool{"t": true},
	breaks: map[string]bool{"p": true},
	spaces: map[string]bool{"tab": true, "br": true},
}

// OpenDocument keeps text directly inside <text:p> and <text:h>, with spans nested in them.
var odfMarkup = markup{
	text:   map[string]bool{"p": true, "h": true},
	breaks: map[string]bool{"p": true, "h": true},
	spaces: map[string]bool{"s": true, "tab": true, "line-break": true},
}

type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// extractDOCX reads the main document part named in [Content_Types].xml,
// falling back to word/document.xml.
func extractDOCX(content []byte) (string, error) {
	zr, err := openPackage(content)
	if err != nil {
		return "", err
	}
	part := docxDefaultPart
	if f := findPart(zr, contentTypesPart); f != nil {
		var ct contentTypes
		if err := decodePart(f, &ct); err == nil {
			for _, o := range ct.Overrides {
				if o.ContentType == docxMainType {
					part = strings.TrimPrefix(o.PartName, "/")
					break
				}
			}
		}
	}
	f := findPart(zr, part)
	if f == nil {
		return "", fmt.Errorf("docx: %s not found", part)
	}
	return partText(f, ooxmlMarkup)
}

// extractPPTX reads every slide in slide-number order, one slide per paragraph block.
func extractPPTX(content []byte) (string, error) {
	zr, err := openPackage(content)
	if err != nil {
		return "", err
	}
	var slides []*zip.File
	for _, f := range zr.File {
		if slideNumber(f.Name) > 0 {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	texts := make([]string, 0, len(slides))
	for _, f := range slides {
		text, err := partText(f, ooxmlMarkup)
		if err != nil {
			return "", err
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}

// extractODF reads content.xml of an OpenDocument text, presentation or spreadsheet.
func extractODF(content []byte) (string, error) {
	zr, err := openPackage(content)
	if err != nil {
		return "", err
	}
	f := findPart(zr, odfContentPart)
	if f == nil {
		return "", fmt.Errorf("opendocument: %s not found", odfContentPart)
	}
	return partText(f, odfMarkup)
}

func openPackage(content []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	return zr, nil
}

func findPart(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// slideNumber returns N for ppt/slides/slideN.xml and 0 for any other member.
func slideNumber(name string) int {
	if !strings.HasPrefix(name, pptxSlidePrefix) || path.Ext(name) != ".xml" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, pptxSlidePrefix), ".xml"))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func decodePart(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

// partText streams one XML part and returns its text, one line per paragraph.
// Elements are matched by local name; the namespace prefix is ignored.
func partText(f *zip.File, m markup) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	var (
		sb    strings.Builder
		line  strings.Builder
		depth int
	)
	flush := func() {
		if s := strings.Join(strings.Fields(line.String()), " "); s != "" {
			sb.WriteString(s)
			sb.WriteByte('\n')
		}
		line.Reset()
	}

	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", f.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if m.text[t.Name.Local] {
				depth++
			} else if m.spaces[t.Name.Local] {
				line.WriteByte(' ')
			}
		case xml.EndElement:
			if m.text[t.Name.Local] && depth > 0 {
				depth--
			}
			if m.breaks[t.Name.Local] {
				flush()
			}
		case xml.CharData:
			if depth > 0 {
				line.Write(t)
			}
		}
	}
	flush()
	return strings.TrimRight(sb.String(), "\n"), nil
}
