package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	ledongpdf "github.com/ledongthuc/pdf"

	"study-assist/internal/models"
)

// Extractor turns an uploaded file into plain text. Supported extensions are
// txt, pdf and docx; anything else, or an unreadable file, yields a
// *models.ExtractionError. An empty result is not an error — the caller
// decides what to do with a file that contained no text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(data []byte, ext string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "txt":
		return strings.ToValidUTF8(string(data), "�"), nil
	case "pdf":
		return extractPDF(data)
	case "docx":
		return extractDOCX(data)
	default:
		return "", &models.ExtractionError{Ext: ext, Message: "unsupported file type"}
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := ledongpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &models.ExtractionError{Ext: "pdf", Message: err.Error()}
	}
	body, err := reader.GetPlainText()
	if err != nil {
		return "", &models.ExtractionError{Ext: "pdf", Message: err.Error()}
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", &models.ExtractionError{Ext: "pdf", Message: err.Error()}
	}
	return buf.String(), nil
}

// extractDOCX reads the text runs out of word/document.xml. A .docx is a zip
// archive; <w:t> elements hold the visible text and </w:p> closes a
// paragraph.
func extractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &models.ExtractionError{Ext: "docx", Message: err.Error()}
	}

	var doc io.ReadCloser
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return "", &models.ExtractionError{Ext: "docx", Message: err.Error()}
			}
			break
		}
	}
	if doc == nil {
		return "", &models.ExtractionError{Ext: "docx", Message: "word/document.xml not found"}
	}
	defer doc.Close()

	var b strings.Builder
	decoder := xml.NewDecoder(doc)
	inRun := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &models.ExtractionError{Ext: "docx", Message: err.Error()}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRun = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRun = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inRun {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
