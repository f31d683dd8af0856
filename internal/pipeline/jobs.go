package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a conversion job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusStoring   JobStatus = "storing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPartial
}

// Job tracks the state of one multi-document upload.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	Files  []string  `json:"files"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	inputs []Input
	failed []string
	errors []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalDocuments   int      `json:"total_documents"`
	DocumentsParsed  int      `json:"documents_parsed"`
	RecordsExtracted int      `json:"records_extracted"`
	CacheHits        int      `json:"cache_hits"`
	Failed           []string `json:"failed"`
	Errors           []string `json:"errors"`
}

// NewJob creates a queued job for the given inputs.
func NewJob(inputs []Input) *Job {
	now := time.Now()
	files := make([]string, len(inputs))
	for i, in := range inputs {
		files[i] = in.Filename
	}
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Files:     files,
		Progress:  Progress{TotalDocuments: len(inputs)},
		CreatedAt: now,
		UpdatedAt: now,
		inputs:    inputs,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// DocumentDone records a finished document: its record count, or its
// failure when err is non-empty.
func (j *Job) DocumentDone(filename string, records int, err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.DocumentsParsed++
	j.Progress.RecordsExtracted += records
	if err != "" {
		j.failed = append(j.failed, filename)
		j.Progress.Failed = j.failed
		j.errors = append(j.errors, err)
		j.Progress.Errors = j.errors
	}
	j.UpdatedAt = time.Now()
}

// IncrCacheHits atomically increments the cache hit counter.
func (j *Job) IncrCacheHits() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.CacheHits++
	j.UpdatedAt = time.Now()
}

// Inputs returns the uploaded documents.
func (j *Job) Inputs() []Input {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inputs
}

// ReleaseInputs drops the raw document bytes once they are processed.
func (j *Job) ReleaseInputs() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inputs = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Files     []string  `json:"files"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:     j.ID,
		Status: j.Status,
		Phase:  j.Phase,
		Files:  nonNil(j.Files),
		Progress: Progress{
			TotalDocuments:   j.Progress.TotalDocuments,
			DocumentsParsed:  j.Progress.DocumentsParsed,
			RecordsExtracted: j.Progress.RecordsExtracted,
			CacheHits:        j.Progress.CacheHits,
			Failed:           nonNil(j.Progress.Failed),
			Errors:           nonNil(j.Progress.Errors),
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// nonNil copies s, returning an empty slice for nil.
func nonNil(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// CacheKey identifies one parse of a document: its content hash combined
// with a fingerprint of every setting that changes the records.
func CacheKey(contentHash, settings string) string {
	h := sha256.Sum256([]byte(contentHash + "\x00" + settings))
	return fmt.Sprintf("%x", h[:])
}
