// Package extract converts uploaded documents to plain text for ingestion.
// Paragraph breaks are kept as blank lines so chunking can split on them.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor turns document bytes into text based on the file name's extension.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Base(path))
}

// ExtractBytes extracts text from content. name is the original file name (or
// just an extension such as ".pdf"); unknown extensions are read as plain text.
func (e *Extractor) ExtractBytes(content []byte, name string) (string, error) {
	switch Format(name) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".pptx":
		return extractPPTX(content)
	case ".odt", ".odp", ".ods":
		return extractOpenDocument(content)
	default:
		return extractPlain(content)
	}
}

// Format returns the lowercased extension of name, including the dot.
// A bare extension like ".PDF" is accepted as a name.
func Format(name string) string {
	if strings.HasPrefix(name, ".") && !strings.Contains(name[1:], ".") {
		return strings.ToLower(name)
	}
	return strings.ToLower(filepath.Ext(name))
}
