package doctext

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

// wordDocument mirrors the parts of word/document.xml we care about.
// Field tags match by local name, so the w: namespace is irrelevant.
type wordDocument struct {
	Body struct {
		Paragraphs []wordParagraph `xml:"p"`
		Tables     []wordTable     `xml:"tbl"`
	} `xml:"body"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Text []wordText `xml:"t"`
}

type wordText struct {
	Content string `xml:",chardata"`
}

type wordTable struct {
	Rows []wordRow `xml:"tr"`
}

type wordRow struct {
	Cells []wordCell `xml:"tc"`
}

type wordCell struct {
	Paragraphs []wordParagraph `xml:"p"`
}

func (e *Extractor) extractDOCX(path string) (*domain.ExtractionResult, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}
	defer archive.Close()

	doc, err := parseDocumentXML(&archive.Reader)
	if err != nil {
		return nil, err
	}

	var paragraphs []string
	for _, para := range doc.Body.Paragraphs {
		text := strings.TrimSpace(paragraphText(para))
		if text == "" {
			continue
		}
		paragraphs = append(paragraphs, text)
	}
	text := strings.Join(paragraphs, "\n\n")

	var rows []string
	for _, table := range doc.Body.Tables {
		for _, row := range table.Rows {
			var cells []string
			for _, cell := range row.Cells {
				txt := strings.TrimSpace(cellText(cell))
				if txt == "" {
					continue
				}
				cells = append(cells, txt)
			}
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, " | "))
			}
		}
	}
	if len(rows) > 0 {
		text += "\n\nTables:\n" + strings.Join(rows, "\n")
	}

	return &domain.ExtractionResult{
		Text:   text,
		Method: domain.MethodDOCX,
		Details: map[string]any{
			"paragraphs": len(paragraphs),
			"tables":     len(doc.Body.Tables),
		},
	}, nil
}

func parseDocumentXML(archive *zip.Reader) (*wordDocument, error) {
	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml: %w", err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read document.xml: %w", err)
		}

		var doc wordDocument
		if err := xml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}
		return &doc, nil
	}
	return nil, fmt.Errorf("word/document.xml missing from archive")
}

func paragraphText(p wordParagraph) string {
	var b strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

// cellText joins a cell's paragraphs the way Word renders them.
func cellText(c wordCell) string {
	parts := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		parts = append(parts, paragraphText(p))
	}
	return strings.Join(parts, "\n")
}
