package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/partidas/internal/budget"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Every non-empty paragraph becomes a line;
// every table row becomes one line with its cells joined by spaces.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*budget.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := &budget.Document{Filename: filename, Pages: 1}
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			if l, ok := docxParagraphLine(v); ok {
				out.Lines = append(out.Lines, l)
			}
		case *docx.Table:
			out.Lines = append(out.Lines, docxTableLines(v)...)
		}
	}
	return out, nil
}

func docxParagraphLine(para *docx.Paragraph) (budget.Line, bool) {
	text, bold := docxParagraphText(para)
	if text == "" {
		return budget.Line{}, false
	}
	return budget.Line{Text: text, Bold: bold || docxHeadingLevel(para) > 0}, true
}

func docxTableLines(tbl *docx.Table) []budget.Line {
	var out []budget.Line
	for _, row := range tbl.TableRows {
		var cells []string
		bold := false
		for _, cell := range row.TableCells {
			for _, para := range cell.Paragraphs {
				text, b := docxParagraphText(para)
				if text == "" {
					continue
				}
				cells = append(cells, text)
				bold = bold || b
			}
		}
		if len(cells) == 0 {
			continue
		}
		out = append(out, budget.Line{Text: strings.Join(cells, " "), Bold: bold})
	}
	return out
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if strings.HasPrefix(style, "heading") || strings.HasPrefix(style, "titulo") || style == "title" {
		return 1
	}
	return 0
}

// docxParagraphText returns the paragraph text with tabs as spaces, and
// whether any run is bold.
func docxParagraphText(para *docx.Paragraph) (string, bool) {
	var buf strings.Builder
	bold := false
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		if run.RunProperties != nil && run.RunProperties.Bold != nil {
			bold = true
		}
		for _, rc := range run.Children {
			switch t := rc.(type) {
			case *docx.Text:
				buf.WriteString(t.Text)
			case *docx.Tab:
				buf.WriteByte(' ')
			}
		}
	}
	return strings.Join(strings.Fields(buf.String()), " "), bold
}
