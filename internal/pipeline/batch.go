package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/partidas/internal/budget"
	"github.com/dgallion1/partidas/internal/extract"
	"github.com/dgallion1/partidas/internal/parser"
)

// ErrDocumentTimeout is set on a result whose parse exceeded
// BatchOptions.DocumentTimeout.
var ErrDocumentTimeout = errors.New("document parse timed out")

// Input is one uploaded document.
type Input struct {
	Filename string
	Data     []byte
}

// DocumentResult is the outcome of parsing one Input. Records is empty, never
// nil, when Err is set.
type DocumentResult struct {
	Filename string
	Records  []budget.Record
	Pages    int
	Duration time.Duration
	Err      error
}

// BatchOptions configures ParseDocument and ParseBatch.
type BatchOptions struct {
	Parallelism     int           // <= 0 means one document at a time
	DocumentTimeout time.Duration // 0 disables the per-document deadline
	Parser          parser.Options
	Stats           *ParseStats
	Log             *slog.Logger

	// OnResult, when set, is called once per input as soon as its result is
	// known. Calls may come from several goroutines.
	OnResult func(i int, r DocumentResult)

	newParser func(filename string, opts parser.Options) (parser.Parser, error)
}

func (o BatchOptions) logger() *slog.Logger {
	if o.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Log
}

// ParseDocument parses a single document start to finish. Failures are
// reported in the result, never returned.
func ParseDocument(ctx context.Context, ex *extract.Extractor, in Input, opts BatchOptions) DocumentResult {
	start := time.Now()
	res := parseDocument(ctx, ex, in, opts)
	res.Duration = time.Since(start)
	if res.Records == nil {
		res.Records = make([]budget.Record, 0)
	}

	log := opts.logger().With("filename", in.Filename)
	if res.Err != nil {
		log.Warn("document failed", "error", res.Err, "duration_ms", res.Duration.Milliseconds())
	} else {
		log.Info("document parsed", "pages", res.Pages, "records", len(res.Records), "duration_ms", res.Duration.Milliseconds())
	}
	if opts.Stats != nil {
		opts.Stats.Record(res.Duration.Milliseconds(), res.Pages, res.Err != nil)
	}
	return res
}

func parseDocument(ctx context.Context, ex *extract.Extractor, in Input, opts BatchOptions) DocumentResult {
	res := DocumentResult{Filename: in.Filename}

	newParser := opts.newParser
	if newParser == nil {
		newParser = parser.ForFile
	}
	p, err := newParser(in.Filename, opts.Parser)
	if err != nil {
		res.Err = err
		return res
	}

	docCtx := ctx
	if opts.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		docCtx, cancel = context.WithTimeout(ctx, opts.DocumentTimeout)
		defer cancel()
	}

	// The parse itself cannot be interrupted. On timeout the goroutine is
	// abandoned and its result dropped into the buffered channel.
	done := make(chan DocumentResult, 1)
	go func() {
		out := DocumentResult{Filename: in.Filename}
		defer func() {
			if r := recover(); r != nil {
				out.Err = fmt.Errorf("%s: parse panic: %v", in.Filename, r)
				out.Records = nil
			}
			done <- out
		}()
		doc, err := p.Parse(bytes.NewReader(in.Data), in.Filename)
		if err != nil {
			out.Err = err
			return
		}
		out.Pages = doc.Pages
		out.Records = ex.Parse(doc)
	}()

	select {
	case out := <-done:
		return out
	case <-docCtx.Done():
		if ctx.Err() != nil {
			res.Err = fmt.Errorf("%s: %w", in.Filename, ctx.Err())
		} else {
			res.Err = fmt.Errorf("%w: %s after %s", ErrDocumentTimeout, in.Filename, opts.DocumentTimeout)
		}
		return res
	}
}

// ParseBatch parses inputs concurrently, each document with its own state,
// and returns one result per input in input order. One document failing
// never affects another.
func ParseBatch(ctx context.Context, ex *extract.Extractor, inputs []Input, opts BatchOptions) []DocumentResult {
	results := make([]DocumentResult, len(inputs))

	limit := opts.Parallelism
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, in := range inputs {
		g.Go(func() error {
			results[i] = ParseDocument(ctx, ex, in, opts)
			if opts.OnResult != nil {
				opts.OnResult(i, results[i])
			}
			return nil
		})
	}
	g.Wait()
	return results
}

// Records concatenates the records of every result in order.
func Records(results []DocumentResult) []budget.Record {
	n := 0
	for _, r := range results {
		n += len(r.Records)
	}
	out := make([]budget.Record, 0, n)
	for _, r := range results {
		out = append(out, r.Records...)
	}
	return out
}

// Failed returns the filenames of results that carry an error.
func Failed(results []DocumentResult) []string {
	var out []string
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r.Filename)
		}
	}
	return out
}
