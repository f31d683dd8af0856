package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/partidas/internal/config"
	"github.com/dgallion1/partidas/internal/extract"
	"github.com/dgallion1/partidas/internal/parser"
	"github.com/dgallion1/partidas/internal/store"
)

// Orchestrator manages the conversion pipeline.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	extractor *extract.Extractor
	store     *store.Store
	stats     *ParseStats
	log       *slog.Logger
	cfg       config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, ex *extract.Extractor, st *store.Store, stats *ParseStats, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		extractor: ex,
		store:     st,
		stats:     stats,
		log:       log,
		cfg:       cfg,
	}
}

// BatchOptions returns the parse options derived from the configuration.
func (o *Orchestrator) BatchOptions() BatchOptions {
	return BatchOptions{
		Parallelism:     o.cfg.MaxConcurrentDocs,
		DocumentTimeout: o.cfg.DocumentTimeout,
		Parser:          parser.Options{FallbackPdftotext: o.cfg.PDFFallbackPdftotext},
		Stats:           o.stats,
		Log:             o.log,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.extractor, o.store, o.log, o.BatchOptions())
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		job.ReleaseInputs()
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// ParseNow parses inputs synchronously on the caller's goroutine, bypassing
// the queue and the store.
func (o *Orchestrator) ParseNow(ctx context.Context, inputs []Input) []DocumentResult {
	return ParseBatch(ctx, o.extractor, inputs, o.BatchOptions())
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the record store for direct use by API handlers.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Stats returns the parse latency tracker.
func (o *Orchestrator) Stats() *ParseStats {
	return o.stats
}
