package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/partidas/internal/budget"
)

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.pdf", "notas.odt", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(t.TempDir(), "z.pdf")
	if err := os.WriteFile(single, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := collectInputs([]string{single, dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{single, filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.pdf"), filepath.Join(dir, "c.txt")}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("input %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestCollectInputs_Errors(t *testing.T) {
	dir := t.TempDir()
	odt := filepath.Join(dir, "notas.odt")
	if err := os.WriteFile(odt, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"missing", []string{filepath.Join(dir, "nope.pdf")}},
		{"unsupported", []string{odt}},
		{"empty dir", []string{t.TempDir()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := collectInputs(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	recs := []budget.Record{
		{Seccion: "1", Clave: "C-101", Unidad: "M3", Cantidad: budget.Float(10), Total: budget.Float(1500), Archivo: "a.pdf"},
		{Clave: "C-102", Total: budget.Float(8000), Archivo: "a.pdf"},
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, recs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0]["clave"] != "C-101" || got[1]["precio_unitario"] != "" {
		t.Errorf("unexpected output: %v", got)
	}
	if len(got[1]) != len(budget.Columns) {
		t.Errorf("expected %d keys, got %d", len(budget.Columns), len(got[1]))
	}
}
