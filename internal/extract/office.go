package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	docxDocumentPath    = "word/document.xml"
	docxContentTypes    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	openDocContent      = "content.xml"
)

var (
	// <w:p ...>...</w:p>, one Word paragraph
	docxParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	// <w:t xml:space="preserve">text</w:t>
	docxText = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
	// <a:p>...</a:p> and <a:t>text</a:t> in slides
	drawingParagraph = regexp.MustCompile(`(?s)<a:p[ >].*?</a:p>`)
	drawingText      = regexp.MustCompile(`<a:t(?:\s[^>]*)?>([^<]*)</a:t>`)
	// OpenDocument paragraphs and headings; inner markup is stripped
	openDocBlock = regexp.MustCompile(`(?s)<text:(?:p|h)(?:\s[^>]*)?>(.*?)</text:(?:p|h)>`)
	anyTag       = regexp.MustCompile(`<[^>]+>`)
	slideNumber  = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
)

func openZip(content []byte, format string) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", format, err)
	}
	return zr, nil
}

func readZipFile(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name, err)
	}
	return string(b), nil
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// paragraphs collects the text runs of each block matched by block, one paragraph per block.
func paragraphs(body string, block, run *regexp.Regexp) []string {
	var out []string
	for _, p := range block.FindAllString(body, -1) {
		var b strings.Builder
		for _, m := range run.FindAllStringSubmatch(p, -1) {
			b.WriteString(html.UnescapeString(m[1]))
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// docxMainPath returns the main document part named in [Content_Types].xml,
// falling back to word/document.xml.
func docxMainPath(zr *zip.Reader) string {
	f := findZipFile(zr, docxContentTypes)
	if f == nil {
		return docxDocumentPath
	}
	raw, err := readZipFile(f)
	if err != nil {
		return docxDocumentPath
	}
	var ct contentTypes
	if err := xml.Unmarshal([]byte(raw), &ct); err != nil {
		return docxDocumentPath
	}
	for _, o := range ct.Overrides {
		if o.ContentType == docxMainContentType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return docxDocumentPath
}

func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return "", err
	}
	path := docxMainPath(zr)
	f := findZipFile(zr, path)
	if f == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", path)
	}
	body, err := readZipFile(f)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	return strings.Join(paragraphs(body, docxParagraph, docxText), "\n\n"), nil
}

// extractPPTX returns slide text in slide order, one paragraph per text box line.
func extractPPTX(content []byte) (string, error) {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return "", err
	}
	type slide struct {
		n int
		f *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		if m := slideNumber.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{n, f})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var out []string
	for _, s := range slides {
		body, err := readZipFile(s.f)
		if err != nil {
			return "", fmt.Errorf("extract PPTX: %w", err)
		}
		out = append(out, paragraphs(body, drawingParagraph, drawingText)...)
	}
	return strings.Join(out, "\n\n"), nil
}

// extractOpenDocument handles .odt, .odp and .ods, which all keep their body in content.xml.
func extractOpenDocument(content []byte) (string, error) {
	zr, err := openZip(content, "OpenDocument")
	if err != nil {
		return "", err
	}
	f := findZipFile(zr, openDocContent)
	if f == nil {
		return "", fmt.Errorf("extract OpenDocument: %s not found", openDocContent)
	}
	body, err := readZipFile(f)
	if err != nil {
		return "", fmt.Errorf("extract OpenDocument: %w", err)
	}
	var out []string
	for _, m := range openDocBlock.FindAllStringSubmatch(body, -1) {
		text := strings.TrimSpace(html.UnescapeString(anyTag.ReplaceAllString(m[1], "")))
		if text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, "\n\n"), nil
}
