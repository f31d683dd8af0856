package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/partidas/internal/budget"
	"github.com/dgallion1/partidas/internal/extract"
	"github.com/dgallion1/partidas/internal/store"
)

// Worker processes a single conversion job.
type Worker struct {
	extractor *extract.Extractor
	store     *store.Store
	log       *slog.Logger
	batch     BatchOptions
	settings  string // parse settings mixed into cache keys
}

func NewWorker(ex *extract.Extractor, st *store.Store, log *slog.Logger, batch BatchOptions) *Worker {
	return &Worker{
		extractor: ex,
		store:     st,
		log:       log,
		batch:     batch,
		settings:  fmt.Sprintf("%s pdftotext=%t", ex.Fingerprint(), batch.Parser.FallbackPdftotext),
	}
}

// Process runs the full pipeline for a job: cache lookup, parse, persist.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	inputs := job.Inputs()
	defer job.ReleaseInputs()

	// Phase 1: Parse, reusing stored results for byte-identical documents
	// parsed with the same settings.
	job.SetStatus(StatusParsing, "parsing")
	results := make([]DocumentResult, len(inputs))
	hashes := make([]string, len(inputs))
	var pending []int
	for i, in := range inputs {
		hashes[i] = CacheKey(ContentHashHex(in.Data), w.settings)
		cached, found, err := w.store.CachedRecords(ctx, hashes[i])
		if err != nil {
			log.Warn("cache lookup failed, parsing", "filename", in.Filename, "error", err)
		}
		if !found {
			pending = append(pending, i)
			continue
		}
		results[i] = DocumentResult{
			Filename: in.Filename,
			Records:  restamp(cached.Records, in.Filename),
			Pages:    cached.Pages,
		}
		job.IncrCacheHits()
		job.DocumentDone(in.Filename, len(cached.Records), "")
		log.Info("document cache hit", "filename", in.Filename, "records", len(cached.Records))
	}

	toParse := make([]Input, len(pending))
	for k, i := range pending {
		toParse[k] = inputs[i]
	}
	opts := w.batch
	opts.Log = log
	opts.OnResult = func(_ int, r DocumentResult) {
		errMsg := ""
		if r.Err != nil {
			errMsg = r.Err.Error()
		}
		job.DocumentDone(r.Filename, len(r.Records), errMsg)
	}
	for k, r := range ParseBatch(ctx, w.extractor, toParse, opts) {
		results[pending[k]] = r
	}

	// Phase 2: Store every document, failed ones included, so the job's
	// outcome survives eviction from the in-memory registry.
	job.SetStatus(StatusStoring, "storing")
	stored, failed := 0, 0
	for i, r := range results {
		doc := store.Document{
			JobID:       job.ID,
			Position:    i,
			Filename:    r.Filename,
			ContentHash: hashes[i],
			Pages:       r.Pages,
			Records:     r.Records,
		}
		if r.Err != nil {
			doc.Err = r.Err.Error()
			failed++
		}
		if _, err := w.store.SaveDocument(ctx, doc); err != nil {
			log.Error("store failed", "filename", r.Filename, "error", err)
			job.AddError(fmt.Sprintf("store %s: %s", r.Filename, err))
			if r.Err == nil {
				failed++
			}
			continue
		}
		if r.Err == nil {
			stored++
		}
	}

	total := len(Records(results))
	log.Info("job complete", "documents", len(results), "stored", stored, "failed", failed, "records", total)

	switch {
	case failed == 0:
		job.SetStatus(StatusCompleted, "done")
	case stored > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "done")
	}
}

// restamp returns a copy of cached records attributed to filename.
func restamp(recs []budget.Record, filename string) []budget.Record {
	out := make([]budget.Record, len(recs))
	for i, r := range recs {
		r.Archivo = filename
		out[i] = r
	}
	return out
}
