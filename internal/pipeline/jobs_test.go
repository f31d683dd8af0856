package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob([]Input{{Filename: "a.pdf", Data: []byte("x")}, {Filename: "b.pdf"}})
	if job.ID == "" {
		t.Fatal("expected generated job id")
	}
	snap := job.Snapshot()
	if snap.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, snap.Status)
	}
	if snap.Progress.TotalDocuments != 2 {
		t.Errorf("expected 2 documents, got %d", snap.Progress.TotalDocuments)
	}
	if len(snap.Files) != 2 || snap.Files[0] != "a.pdf" || snap.Files[1] != "b.pdf" {
		t.Errorf("unexpected files: %v", snap.Files)
	}
	if len(job.Inputs()) != 2 {
		t.Errorf("expected inputs kept until released")
	}
	job.ReleaseInputs()
	if job.Inputs() != nil {
		t.Error("expected inputs released")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
		done   bool
	}{
		{StatusParsing, "parsing", false},
		{StatusStoring, "storing", false},
		{StatusCompleted, "done", true},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if job.Status.Done() != tr.done {
			t.Errorf("status %q: expected Done()=%v", tr.status, tr.done)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_DocumentDone(t *testing.T) {
	job := &Job{ID: "docs-test", UpdatedAt: time.Now()}
	job.DocumentDone("a.pdf", 3, "")
	job.DocumentDone("b.pdf", 0, "b.pdf: unreadable pdf")
	job.DocumentDone("c.pdf", 2, "")

	snap := job.Snapshot()
	if snap.Progress.DocumentsParsed != 3 {
		t.Errorf("expected 3 documents parsed, got %d", snap.Progress.DocumentsParsed)
	}
	if snap.Progress.RecordsExtracted != 5 {
		t.Errorf("expected 5 records, got %d", snap.Progress.RecordsExtracted)
	}
	if len(snap.Progress.Failed) != 1 || snap.Progress.Failed[0] != "b.pdf" {
		t.Errorf("unexpected failed list: %v", snap.Progress.Failed)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", snap.Progress.Errors)
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("store a.pdf failed")
	job.AddError("store b.pdf failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "store a.pdf failed" {
		t.Errorf("expected first error %q, got %q", "store a.pdf failed", snap.Progress.Errors[0])
	}
}

func TestJob_IncrCacheHits(t *testing.T) {
	job := &Job{ID: "cache-test", UpdatedAt: time.Now()}
	job.IncrCacheHits()
	job.IncrCacheHits()

	if got := job.Snapshot().Progress.CacheHits; got != 2 {
		t.Errorf("expected 2 cache hits, got %d", got)
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	// Snapshot should always return non-nil slices.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.Failed == nil || snap.Files == nil {
		t.Error("expected non-nil slices in snapshot")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
