package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/isdelr/resume-bot-be/internal/common"
)

// BlockKind classifies one line of a rewritten resume.
type BlockKind int

const (
	Spacer BlockKind = iota
	Heading
	Bullet
	Paragraph
)

func (k BlockKind) String() string {
	switch k {
	case Spacer:
		return "spacer"
	case Heading:
		return "heading"
	case Bullet:
		return "bullet"
	default:
		return "paragraph"
	}
}

// Block is a layout unit.
type Block struct {
	Kind BlockKind
	Text string
}

const bulletMarker = "•"

// ParseLayout splits text into blocks: blank lines are spacers, **x** lines
// are headings, lines starting with • are bullets, anything else is a
// paragraph.
func ParseLayout(text string) []Block {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	blocks := make([]Block, 0, len(lines))
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			blocks = append(blocks, Block{Kind: Spacer})
		case len(line) > 4 && strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**"):
			blocks = append(blocks, Block{Kind: Heading, Text: strings.TrimSpace(strings.ReplaceAll(line, "**", ""))})
		case strings.HasPrefix(line, bulletMarker):
			blocks = append(blocks, Block{Kind: Bullet, Text: strings.TrimSpace(strings.TrimPrefix(line, bulletMarker))})
		default:
			blocks = append(blocks, Block{Kind: Paragraph, Text: line})
		}
	}
	return blocks
}

const (
	pageMargin    = 36.0 // 0.5in in points
	bodyFontSize  = 10.0
	headFontSize  = 12.0
	titleFontSize = 16.0
	bulletIndent  = 14.0
)

// RenderResumePDF lays text out on US Letter pages.
func RenderResumePDF(text string) ([]byte, error) {
	blocks := ParseLayout(text)

	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, pageMargin)
	doc.SetTitle("Rewritten Resume", true)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := doc.GetPageSize()
	contentWidth := pageWidth - 2*pageMargin
	titleDone := false

	for _, b := range blocks {
		switch b.Kind {
		case Spacer:
			doc.Ln(6)
		case Heading:
			size := headFontSize
			if !titleDone {
				size = titleFontSize
				titleDone = true
			} else {
				doc.Ln(6)
			}
			doc.SetFont("Helvetica", "B", size)
			doc.MultiCell(contentWidth, size*1.3, tr(b.Text), "", "L", false)
			doc.Ln(3)
		case Bullet:
			doc.SetFont("Helvetica", "", bodyFontSize)
			doc.SetX(pageMargin)
			doc.CellFormat(bulletIndent, bodyFontSize*1.4, tr(bulletMarker), "", 0, "L", false, 0, "")
			doc.MultiCell(contentWidth-bulletIndent, bodyFontSize*1.4, tr(b.Text), "", "L", false)
		case Paragraph:
			doc.SetFont("Helvetica", "", bodyFontSize)
			doc.MultiCell(contentWidth, bodyFontSize*1.4, tr(b.Text), "", "L", false)
			doc.Ln(3)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExportGeneration, err)
	}
	return buf.Bytes(), nil
}
