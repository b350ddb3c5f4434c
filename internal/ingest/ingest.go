// Package ingest turns uploaded resume documents into plain text.
package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DetectType resolves the document type from the declared MIME type,
// falling back to magic bytes and the file extension. It returns "" when
// the type is not one we can read.
func DetectType(filename, declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	switch declared {
	case MimePDF, MimeDOCX:
		return declared
	case "", "application/octet-stream", "application/zip", "application/x-zip-compressed":
	default:
		return ""
	}

	if bytes.HasPrefix(data, []byte("%PDF")) {
		return MimePDF
	}
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) && looksLikeDocx(data) {
		return MimeDOCX
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	}
	return ""
}

func looksLikeDocx(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return true
		}
	}
	return false
}

// ExtractText returns the text content of a PDF or DOCX document. Parser
// failures, unsupported types and documents without text all yield
// common.ErrUnsupportedOrCorruptDocument.
func ExtractText(data []byte, declaredType string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Str("type", declaredType).Msg("Document parser panicked")
			text, err = "", fmt.Errorf("%w: parser failure", common.ErrUnsupportedOrCorruptDocument)
		}
	}()

	switch declaredType {
	case MimePDF:
		text, err = extractPDFText(data)
	case MimeDOCX:
		text, err = extractDocxText(data)
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", common.ErrUnsupportedOrCorruptDocument, declaredType)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUnsupportedOrCorruptDocument, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: no extractable text", common.ErrUnsupportedOrCorruptDocument)
	}
	return text, nil
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		sb.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return documentXMLText(doc.Editable().GetContent())
}

// documentXMLText keeps the text runs of a WordprocessingML body, one line
// per paragraph.
func documentXMLText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to decode document xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
