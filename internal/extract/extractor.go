// Package extract turns source files into raw text for indexing.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for binary formats the extractor cannot read.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// binaryFormats are rejected rather than being indexed as garbage text.
var binaryFormats = map[string]bool{
	".doc": true, ".xls": true, ".ppt": true, ".zip": true, ".png": true, ".jpg": true,
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SupportedExtensions lists the extensions with a dedicated reader.
func SupportedExtensions() []string {
	return []string{".txt", ".md", ".rst", ".pdf", ".xlsx", ".docx", ".pptx", ".odt", ".odp", ".ods"}
}

// Extract reads the file at path and returns its text content.
// Plain text (.txt, .md, .rst and unknown text extensions) is returned as valid UTF-8;
// PDF, XLSX and the zipped office formats are decoded from their binary format.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on ext, which includes the leading dot.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".xlsx":
		return extractExcel(content)
	case ".docx":
		return extractDOCX(content)
	case ".pptx":
		return extractPPTX(content)
	case ".odt", ".odp", ".ods":
		return extractODF(content)
	}
	if binaryFormats[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return extractPlain(content)
}
