package parser

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dgallion1/partidas/internal/budget"
	pdflib "github.com/ledongthuc/pdf"
)

// DefaultRowTolerance is the vertical distance, in points, under which two
// glyphs are considered to sit on the same row.
const DefaultRowTolerance = 2.0

// wordGap is the fraction of the font size above which a horizontal gap
// between glyphs is read as a word break.
const wordGap = 0.25

// PDFParser handles PDF files. It reads positioned glyphs with the Go
// library first, then falls back to pdftotext if enabled.
type PDFParser struct {
	FallbackPdftotext bool
	RowTolerance      float64
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*budget.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	doc := &budget.Document{Filename: filename}
	if info, err := readPDFInfo(data); err == nil {
		doc.Title = info.Title
		doc.Date = info.Date
		doc.Pages = info.PageCount
	}

	tol := p.RowTolerance
	if tol <= 0 {
		tol = DefaultRowTolerance
	}
	lines, pages, err := extractPDFLines(data, tol)
	if (err != nil || len(lines) == 0) && p.FallbackPdftotext {
		if fb, fbPages, fbErr := extractPdftotext(data); fbErr == nil && len(fb) > 0 {
			lines, pages, err = fb, fbPages, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadablePDF, filename, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %s: no extractable text", ErrUnreadablePDF, filename)
	}

	if doc.Pages == 0 {
		doc.Pages = pages
	}
	doc.Lines = lines
	return doc, nil
}

// extractPDFLines returns the document's rows in reading order. The PDF
// library panics on some malformed inputs; those become errors.
func extractPDFLines(data []byte, tol float64) (lines []budget.Line, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			lines, pages = nil, 0
			err = fmt.Errorf("pdf library panic: %v", rec)
		}
	}()

	rd, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, err
	}
	pages = rd.NumPage()
	for i := 1; i <= pages; i++ {
		page := rd.Page(i)
		if page.V.IsNull() {
			continue
		}
		lines = append(lines, rowsToLines(groupRows(page.Content().Text, tol), i-1)...)
	}
	return lines, pages, nil
}

type glyphRow struct {
	y      float64
	glyphs []pdflib.Text
}

// groupRows clusters glyphs whose baselines are within tol of a row's first
// glyph, then orders rows top to bottom and glyphs left to right.
func groupRows(texts []pdflib.Text, tol float64) []glyphRow {
	var rows []glyphRow
	for _, t := range texts {
		placed := false
		for i := range rows {
			if math.Abs(rows[i].y-t.Y) < tol {
				rows[i].glyphs = append(rows[i].glyphs, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, glyphRow{y: t.Y, glyphs: []pdflib.Text{t}})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	for _, row := range rows {
		g := row.glyphs
		sort.SliceStable(g, func(i, j int) bool { return g[i].X < g[j].X })
	}
	return rows
}

func rowsToLines(rows []glyphRow, page int) []budget.Line {
	var out []budget.Line
	for _, row := range rows {
		if l, ok := rowLine(row, page); ok {
			out = append(out, l)
		}
	}
	return out
}

// rowLine joins a row's glyphs, inserting a space on whitespace glyphs and
// on horizontal gaps wider than a fraction of the font size.
func rowLine(row glyphRow, page int) (budget.Line, bool) {
	var b strings.Builder
	l := budget.Line{Page: page, Y: row.y, X: math.Inf(1)}
	prevEnd := math.Inf(-1)
	pendingSpace := false

	for _, g := range row.glyphs {
		if strings.TrimSpace(g.S) == "" {
			pendingSpace = true
			continue
		}
		size := math.Max(g.FontSize, 1)
		if b.Len() > 0 && (pendingSpace || g.X-prevEnd > wordGap*size) {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteString(g.S)
		prevEnd = math.Max(prevEnd, g.X+g.W)

		l.X = math.Min(l.X, g.X)
		l.FontSize = math.Max(l.FontSize, g.FontSize)
		if isBoldFont(g.Font) {
			l.Bold = true
		}
	}

	l.Text = strings.Join(strings.Fields(b.String()), " ")
	if l.Text == "" {
		return budget.Line{}, false
	}
	return l, true
}

func isBoldFont(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "bold") || strings.Contains(n, "black") || strings.Contains(n, "heavy")
}

// extractPdftotext shells out to poppler's pdftotext, which needs a file path.
func extractPdftotext(data []byte) ([]budget.Line, int, error) {
	tmp, err := os.CreateTemp("", "partidas-pdf-*.pdf")
	if err != nil {
		return nil, 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, 0, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	cmd := exec.Command("pdftotext", "-layout", tmpPath, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, 0, fmt.Errorf("pdftotext: %w", err)
	}
	lines, pages := layoutLines(string(out))
	return lines, pages, nil
}
