package parser

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/dgallion1/partidas/internal/extract"
	"github.com/dgallion1/partidas/internal/pdftest"
	pdflib "github.com/ledongthuc/pdf"
)

type pdfWord = pdftest.Word

var (
	row        = pdftest.Row
	budgetPage = pdftest.BudgetPage
)

func buildBudgetPDF(t *testing.T, pages ...[]pdfWord) []byte {
	t.Helper()
	data, err := pdftest.Build(pages...)
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return data
}

func TestPDFParser_RowsInReadingOrder(t *testing.T) {
	data := buildBudgetPDF(t, budgetPage())
	p := &PDFParser{}
	doc, err := p.Parse(bytes.NewReader(data), "obra.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"PRESUPUESTO DE OBRA",
		"1 OBRA CIVIL",
		"1.1 CIMENTACIÓN",
		"CLAVE DESCRIPCIÓN UNIDAD CANTIDAD P.U. IMPORTE",
		"C-101 Excavación manual M3 10 150,00 1500,00",
	}
	if len(doc.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %+v", len(want), len(doc.Lines), doc.Lines)
	}
	for i, w := range want {
		if doc.Lines[i].Text != w {
			t.Errorf("line %d: expected %q, got %q", i, w, doc.Lines[i].Text)
		}
		if doc.Lines[i].Page != 0 {
			t.Errorf("line %d: expected page 0, got %d", i, doc.Lines[i].Page)
		}
		if doc.Lines[i].X != 50 {
			t.Errorf("line %d: expected X 50, got %v", i, doc.Lines[i].X)
		}
	}
	if !doc.Lines[0].Bold || doc.Lines[4].Bold {
		t.Errorf("expected bold title and regular data row, got %v %v", doc.Lines[0].Bold, doc.Lines[4].Bold)
	}
	if doc.Lines[0].FontSize != 10 {
		t.Errorf("expected font size 10, got %v", doc.Lines[0].FontSize)
	}
	if doc.Filename != "obra.pdf" {
		t.Errorf("expected filename obra.pdf, got %q", doc.Filename)
	}
}

func TestPDFParser_ExtractsRecords(t *testing.T) {
	second := row(760, false, "C-102", "Suministro", "de", "cemento", "50", "8000,00")
	data := buildBudgetPDF(t, budgetPage(), second)

	doc, err := (&PDFParser{}).Parse(bytes.NewReader(data), "obra.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", doc.Pages)
	}
	last := doc.Lines[len(doc.Lines)-1]
	if last.Page != 1 {
		t.Errorf("expected last line on page 1, got %d", last.Page)
	}

	recs := extract.New(extract.DefaultVocabulary()).Parse(doc)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	first := recs[0]
	if first.Seccion != "1" || first.Subseccion != "1.1" || first.Clave != "C-101" || first.Unidad != "M3" {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.Titulo != "PRESUPUESTO DE OBRA" || first.Archivo != "obra.pdf" {
		t.Errorf("unexpected metadata: %q %q", first.Titulo, first.Archivo)
	}
	// Sections carry across the page break.
	if recs[1].Seccion != "1" || recs[1].SubseccionNombre != "CIMENTACIÓN" {
		t.Errorf("expected section to carry to page 2, got %q %q", recs[1].Seccion, recs[1].SubseccionNombre)
	}
	if recs[1].PrecioUnitario != nil || recs[1].Total == nil || *recs[1].Total != 8000 {
		t.Errorf("unexpected amounts on second record: %+v", recs[1])
	}
}

func TestPDFParser_UnreadableInputs(t *testing.T) {
	valid := buildBudgetPDF(t, budgetPage())
	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte("this is definitely not a pdf file")},
		{"empty", nil},
		{"truncated", valid[:len(valid)/2]},
		{"no text", buildBudgetPDF(t, []pdfWord{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&PDFParser{}).Parse(bytes.NewReader(tt.data), tt.name+".pdf")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrUnreadablePDF) {
				t.Errorf("expected ErrUnreadablePDF, got %v", err)
			}
		})
	}
}

func TestPDFParser_NoDataRowsYieldsNoRecords(t *testing.T) {
	page := append(row(760, true, "MEMORIA", "DESCRIPTIVA"), row(740, false, "Texto", "sin", "partidas")...)
	doc, err := (&PDFParser{}).Parse(bytes.NewReader(buildBudgetPDF(t, page)), "memoria.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recs := extract.New(extract.DefaultVocabulary()).Parse(doc)
	if recs == nil || len(recs) != 0 {
		t.Errorf("expected empty record slice, got %v", recs)
	}
}

func TestGroupRows(t *testing.T) {
	glyphs := []pdflib.Text{
		{Font: "Helvetica", FontSize: 10, X: 120, Y: 500.5, W: 5, S: "b"},
		{Font: "Helvetica", FontSize: 10, X: 50, Y: 600, W: 5, S: "T"},
		{Font: "Helvetica", FontSize: 10, X: 55, Y: 600, W: 5, S: "o"},
		{Font: "Helvetica", FontSize: 10, X: 60, Y: 600, W: 3, S: " "},
		{Font: "Helvetica", FontSize: 10, X: 63, Y: 600, W: 5, S: "p"},
		{Font: "Helvetica-Bold", FontSize: 12, X: 50, Y: 500, W: 5, S: "a"},
		{Font: "Helvetica", FontSize: 10, X: 55, Y: 499, W: 5, S: "c"},
	}
	lines := rowsToLines(groupRows(glyphs, DefaultRowTolerance), 3)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(lines), lines)
	}

	top := lines[0]
	if top.Text != "To p" || top.Y != 600 || top.Bold {
		t.Errorf("unexpected top line: %+v", top)
	}

	// "a" and "c" touch; "b" is far to the right.
	bottom := lines[1]
	if bottom.Text != "ac b" {
		t.Errorf("expected %q, got %q", "ac b", bottom.Text)
	}
	if !bottom.Bold || bottom.FontSize != 12 || bottom.X != 50 || bottom.Page != 3 {
		t.Errorf("unexpected bottom line attributes: %+v", bottom)
	}
}

func TestGroupRows_SkipsBlankRows(t *testing.T) {
	glyphs := []pdflib.Text{
		{FontSize: 10, X: 10, Y: 100, S: " "},
		{FontSize: 10, X: 10, Y: 50, S: "x"},
	}
	lines := rowsToLines(groupRows(glyphs, DefaultRowTolerance), 0)
	if len(lines) != 1 || lines[0].Text != "x" {
		t.Errorf("expected only the non-blank row, got %+v", lines)
	}
}

func TestPDFParser_InfoDictionary(t *testing.T) {
	data, err := pdftest.BuildWithInfo(pdftest.Info{
		Title:        "Casa Habitación Lote 4",
		CreationDate: "D:20240315093000",
	}, budgetPage())
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}

	info, err := readPDFInfo(data)
	if err != nil {
		t.Fatalf("read info: %v", err)
	}
	if info.Title != "Casa Habitación Lote 4" || info.Date != "2024-03-15" || info.PageCount != 1 {
		t.Errorf("unexpected info: %+v", info)
	}

	doc, err := (&PDFParser{}).Parse(bytes.NewReader(data), "obra.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != info.Title || doc.Date != info.Date {
		t.Errorf("expected document metadata %q %q, got %q %q", info.Title, info.Date, doc.Title, doc.Date)
	}
}

func TestPDFDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"D:20240315093000-06'00'", "2024-03-15"},
		{"20231102", "2023-11-02"},
		{"D:2024", ""},
		{"D:20241345", ""},
		{"", ""},
		{"March 2024", ""},
	}
	for _, tt := range tests {
		if got := pdfDate(tt.in); got != tt.want {
			t.Errorf("pdfDate(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.pdf", "*parser.PDFParser"},
		{"B.PDF", "*parser.PDFParser"},
		{"c.docx", "*parser.DOCXParser"},
		{"d.txt", "*parser.TextParser"},
		{"e.htm", "*parser.HTMLParser"},
		{"f.md", "*parser.MarkdownParser"},
		{"g.xlsx", "*parser.XLSXParser"},
		{"h.XLS", "*parser.XLSParser"},
		{"i.csv", "*parser.CSVParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.name, Options{})
		if err != nil {
			t.Fatalf("ForFile(%q): %v", tt.name, err)
		}
		if got := fmt.Sprintf("%T", p); got != tt.want {
			t.Errorf("ForFile(%q): expected %s, got %s", tt.name, tt.want, got)
		}
	}
	if _, err := ForFile("e.odt", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if !IsSupportedExtension("x.Pdf") || IsSupportedExtension("x.odt") {
		t.Error("unexpected IsSupportedExtension result")
	}
}
