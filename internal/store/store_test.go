package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dgallion1/partidas/internal/budget"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s
}

func record(clave string, total float64) budget.Record {
	return budget.Record{
		Seccion:       "1",
		SeccionNombre: "OBRA CIVIL",
		Clave:         clave,
		Descripcion:   "Partida " + clave,
		Unidad:        "M3",
		Cantidad:      budget.Float(2),
		Total:         budget.Float(total),
		Titulo:        "PRESUPUESTO",
		Fecha:         "15/01/2024",
		Archivo:       "obra.pdf",
	}
}

func TestSaveDocument_JobRecordsInOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Stored out of order; read back by position.
	if _, err := s.SaveDocument(ctx, Document{JobID: "job-1", Position: 1, Filename: "b.pdf", ContentHash: "hb",
		Records: []budget.Record{record("B-1", 10)}}); err != nil {
		t.Fatalf("save b: %v", err)
	}
	id, err := s.SaveDocument(ctx, Document{JobID: "job-1", Position: 0, Filename: "a.pdf", ContentHash: "ha",
		Records: []budget.Record{record("A-1", 1), record("A-2", 2)}})
	if err != nil {
		t.Fatalf("save a: %v", err)
	}
	if id == "" {
		t.Error("expected generated document id")
	}
	if _, err := s.SaveDocument(ctx, Document{JobID: "job-2", Filename: "c.pdf", ContentHash: "hc",
		Records: []budget.Record{record("C-1", 5)}}); err != nil {
		t.Fatalf("save c: %v", err)
	}

	recs, err := s.JobRecords(ctx, "job-1")
	if err != nil {
		t.Fatalf("job records: %v", err)
	}
	want := []string{"A-1", "A-2", "B-1"}
	if len(recs) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(recs))
	}
	for i, w := range want {
		if recs[i].Clave != w {
			t.Errorf("record %d: expected clave %q, got %q", i, w, recs[i].Clave)
		}
	}
}

func TestSaveDocument_PreservesUnsetNumbers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := record("X-1", 8000)
	r.PrecioUnitario = nil
	r.Cantidad = budget.Float(0)
	if _, err := s.SaveDocument(ctx, Document{JobID: "j", Filename: "x.pdf", ContentHash: "hx", Records: []budget.Record{r}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	recs, err := s.JobRecords(ctx, "j")
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d (%v)", len(recs), err)
	}
	got := recs[0]
	if got.PrecioUnitario != nil {
		t.Errorf("expected precio_unitario unset, got %v", *got.PrecioUnitario)
	}
	if got.Cantidad == nil || *got.Cantidad != 0 {
		t.Errorf("expected cantidad 0 to stay set, got %v", got.Cantidad)
	}
	if got.Total == nil || *got.Total != 8000 {
		t.Errorf("expected total 8000, got %v", got.Total)
	}
	if got.Fecha != "15/01/2024" || got.Archivo != "obra.pdf" {
		t.Errorf("unexpected metadata: %+v", got)
	}
}

func TestCachedRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, found, err := s.CachedRecords(ctx, "missing"); err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}

	if _, err := s.SaveDocument(ctx, Document{JobID: "j1", Filename: "bad.pdf", ContentHash: "h1", Err: "unreadable pdf"}); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := s.CachedRecords(ctx, "h1"); found {
		t.Error("expected unreadable documents not to be cached")
	}

	if _, err := s.SaveDocument(ctx, Document{JobID: "j2", Filename: "ok.pdf", ContentHash: "h1", Pages: 4,
		Records: []budget.Record{record("A-1", 1)}}); err != nil {
		t.Fatal(err)
	}
	c, found, err := s.CachedRecords(ctx, "h1")
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if len(c.Records) != 1 || c.Records[0].Clave != "A-1" {
		t.Errorf("unexpected cached records: %+v", c.Records)
	}
	if c.Pages != 4 {
		t.Errorf("expected cached page count 4, got %d", c.Pages)
	}

	// A readable document without rows is still a hit.
	if _, err := s.SaveDocument(ctx, Document{JobID: "j3", Filename: "empty.pdf", ContentHash: "h2"}); err != nil {
		t.Fatal(err)
	}
	c, found, err = s.CachedRecords(ctx, "h2")
	if err != nil || !found || c.Records == nil || len(c.Records) != 0 {
		t.Errorf("expected empty hit, got %v found=%v err=%v", c.Records, found, err)
	}
}

func TestHasJob(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if ok, err := s.HasJob(ctx, "j"); err != nil || ok {
		t.Fatalf("expected no job, got %v %v", ok, err)
	}
	if _, err := s.SaveDocument(ctx, Document{JobID: "j", Filename: "a.pdf", ContentHash: "h"}); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.HasJob(ctx, "j"); err != nil || !ok {
		t.Errorf("expected job, got %v %v", ok, err)
	}
}

func TestOpen_FileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partidas.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveDocument(ctx, Document{JobID: "j", Filename: "a.pdf", ContentHash: "h",
		Records: []budget.Record{record("A-1", 1)}}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	recs, err := s.JobRecords(ctx, "j")
	if err != nil || len(recs) != 1 {
		t.Errorf("expected persisted record, got %d (%v)", len(recs), err)
	}
}

func TestJobDocumentsAndDeleteJob(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveDocument(ctx, Document{JobID: "j", Position: 1, Filename: "bad.pdf", ContentHash: "h2", Err: "unreadable pdf"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveDocument(ctx, Document{JobID: "j", Position: 0, Filename: "a.pdf", ContentHash: "h1", Pages: 3,
		Records: []budget.Record{record("A-1", 1), record("A-2", 2)}}); err != nil {
		t.Fatal(err)
	}

	docs, err := s.JobDocuments(ctx, "j")
	if err != nil {
		t.Fatalf("job documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Filename != "a.pdf" || docs[0].Records != 2 || docs[0].Pages != 3 {
		t.Errorf("unexpected first document: %+v", docs[0])
	}
	if docs[1].Err != "unreadable pdf" || docs[1].Records != 0 {
		t.Errorf("unexpected second document: %+v", docs[1])
	}

	n, err := s.DeleteJob(ctx, "j")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deleted, got %d (%v)", n, err)
	}
	recs, err := s.JobRecords(ctx, "j")
	if err != nil || len(recs) != 0 {
		t.Errorf("expected no records after delete, got %d (%v)", len(recs), err)
	}
	if _, found, _ := s.CachedRecords(ctx, "h1"); found {
		t.Error("expected cache entry gone after delete")
	}
}
