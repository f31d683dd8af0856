// Package pdftest builds small text-only PDFs for tests.
package pdftest

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Word is one text run placed with its own Td. Each word gets its own
// position because the fonts carry no /Widths, so glyph advances are 0.
type Word struct {
	X, Y float64
	Text string
	Bold bool
}

// Row lays out words left to right on one baseline.
func Row(y float64, bold bool, words ...string) []Word {
	out := make([]Word, 0, len(words))
	for i, w := range words {
		out = append(out, Word{X: 50 + float64(40*i), Y: y, Text: w, Bold: bold})
	}
	return out
}

// BudgetPage is a one-page budget with a title, a section, a subsection,
// a column header and one item. The item is written first in the stream.
func BudgetPage() []Word {
	var words []Word
	words = append(words, Row(680, false, "C-101", "Excavación", "manual", "M3", "10", "150,00", "1500,00")...)
	words = append(words, Row(760, true, "PRESUPUESTO", "DE", "OBRA")...)
	words = append(words, Row(740, true, "1", "OBRA", "CIVIL")...)
	words = append(words, Row(720, true, "1.1", "CIMENTACIÓN")...)
	words = append(words, Row(700, false, "CLAVE", "DESCRIPCIÓN", "UNIDAD", "CANTIDAD", "P.U.", "IMPORTE")...)
	return words
}

func escape(s string) (string, error) {
	enc, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("encode %q: %w", s, err)
	}
	enc = strings.ReplaceAll(enc, `\`, `\\`)
	enc = strings.ReplaceAll(enc, "(", `\(`)
	return strings.ReplaceAll(enc, ")", `\)`), nil
}

// Info is the document information dictionary. Empty fields are omitted.
type Info struct {
	Title        string
	CreationDate string // PDF date, e.g. "D:20240315093000"
}

// Build writes a minimal multi-page PDF: catalog, page tree, two WinAnsi
// Helvetica fonts (regular and bold), then a page and content stream per
// page. An empty page has no text at all.
func Build(pages ...[]Word) ([]byte, error) {
	return BuildWithInfo(Info{}, pages...)
}

// BuildWithInfo is Build plus an info dictionary referenced from the
// trailer.
func BuildWithInfo(info Info, pages ...[]Word) ([]byte, error) {
	streams := make([]string, len(pages))
	for i, words := range pages {
		var s strings.Builder
		if len(words) == 0 {
			s.WriteString("q\nQ\n")
		}
		for _, w := range words {
			font := "F1"
			if w.Bold {
				font = "F2"
			}
			text, err := escape(w.Text)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&s, "BT\n/%s 10 Tf\n%g %g Td\n(%s) Tj\nET\n", font, w.X, w.Y, text)
		}
		streams[i] = s.String()
	}

	hasInfo := info.Title != "" || info.CreationDate != ""
	objCount := 4 + 2*len(pages)
	if hasInfo {
		objCount++
	}
	offsets := make([]int, objCount+1)
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 5+2*i)
	}

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), len(pages))
	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>\nendobj\n")
	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>\nendobj\n")

	for i, stream := range streams {
		pageObj, contentObj := 5+2*i, 6+2*i
		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> >>\nendobj\n", pageObj, contentObj)
		offsets[contentObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	trailerInfo := ""
	if hasInfo {
		var dict strings.Builder
		if info.Title != "" {
			title, err := escape(info.Title)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&dict, " /Title (%s)", title)
		}
		if info.CreationDate != "" {
			fmt.Fprintf(&dict, " /CreationDate (%s)", info.CreationDate)
		}
		offsets[objCount] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<<%s >>\nendobj\n", objCount, dict.String())
		trailerInfo = fmt.Sprintf(" /Info %d 0 R", objCount)
	}

	xrefOffset := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", objCount+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= objCount; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", objCount+1, trailerInfo, xrefOffset)
	return []byte(b.String()), nil
}
