package parser

import (
	"strings"
	"testing"
)

func TestTextParser_LayoutLines(t *testing.T) {
	input := "PRESUPUESTO DE OBRA\n\n1   OBRA CIVIL\n    1.1 CIMENTACIÓN\nC-101  Excavación manual   M3   10   150,00   1500,00\n"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "obra.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Filename != "obra.txt" {
		t.Errorf("expected filename %q, got %q", "obra.txt", doc.Filename)
	}
	if doc.Pages != 1 {
		t.Errorf("expected 1 page, got %d", doc.Pages)
	}
	want := []struct {
		text string
		x    float64
	}{
		{"PRESUPUESTO DE OBRA", 0},
		{"1 OBRA CIVIL", 0},
		{"1.1 CIMENTACIÓN", 4},
		{"C-101 Excavación manual M3 10 150,00 1500,00", 0},
	}
	if len(doc.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(doc.Lines))
	}
	for i, w := range want {
		if doc.Lines[i].Text != w.text {
			t.Errorf("line %d: expected %q, got %q", i, w.text, doc.Lines[i].Text)
		}
		if doc.Lines[i].X != w.x {
			t.Errorf("line %d: expected X %v, got %v", i, w.x, doc.Lines[i].X)
		}
	}
}

func TestTextParser_FormFeedStartsPage(t *testing.T) {
	// pdftotext terminates every page with a form feed.
	input := "page one\n\fpage two\r\nmore\n\f"
	doc, err := (&TextParser{}).Parse(strings.NewReader(input), "dump.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", doc.Pages)
	}
	if len(doc.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(doc.Lines))
	}
	if doc.Lines[0].Page != 0 || doc.Lines[1].Page != 1 || doc.Lines[2].Page != 1 {
		t.Errorf("unexpected pages: %d %d %d", doc.Lines[0].Page, doc.Lines[1].Page, doc.Lines[2].Page)
	}
	if doc.Lines[2].Text != "more" {
		t.Errorf("expected %q, got %q", "more", doc.Lines[2].Text)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Lines) != 0 || doc.Pages != 0 {
		t.Errorf("expected no lines and no pages, got %d lines, %d pages", len(doc.Lines), doc.Pages)
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	input := "one\n   \t \ntwo"
	doc, err := (&TextParser{}).Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(doc.Lines))
	}
}
