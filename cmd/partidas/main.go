package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/partidas/internal/budget"
	"github.com/dgallion1/partidas/internal/config"
	"github.com/dgallion1/partidas/internal/export"
	"github.com/dgallion1/partidas/internal/extract"
	"github.com/dgallion1/partidas/internal/parser"
	"github.com/dgallion1/partidas/internal/pipeline"
)

func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out       = flag.String("out", export.DefaultFilename, "output XLSX file path")
		asJSON    = flag.Bool("json", false, "write records as JSON to stdout instead of an XLSX file")
		workers   = flag.Int("workers", 4, "documents parsed in parallel")
		vocabFile = flag.String("vocab", "", "TOML or YAML file extending the unit and column vocabulary")
		checks    = flag.Bool("checks", false, "add a Revision sheet with arithmetic warnings")
		timeout   = flag.Duration("timeout", 2*time.Minute, "per-document parse deadline (0 disables)")
		pdftotext = flag.Bool("pdftotext", true, "fall back to pdftotext -layout when the PDF library finds no text")
	)
	flag.Usage = func() {
		printError("usage: partidas [flags] file.pdf|dir ...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Logs go to stderr so -json output stays clean.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	vocab, err := config.LoadVocabulary(*vocabFile)
	if err != nil {
		logger.Error("invalid vocabulary", "error", err)
		os.Exit(1)
	}

	paths, err := collectInputs(flag.Args())
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	inputs := make([]pipeline.Input, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			logger.Error("failed to read input", "path", p, "error", err)
			os.Exit(1)
		}
		inputs = append(inputs, pipeline.Input{Filename: filepath.Base(p), Data: data})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats := pipeline.NewParseStats(24 * time.Hour)
	results := pipeline.ParseBatch(ctx, extract.New(vocab), inputs, pipeline.BatchOptions{
		Parallelism:     *workers,
		DocumentTimeout: *timeout,
		Parser:          parser.Options{FallbackPdftotext: *pdftotext},
		Stats:           stats,
		Log:             logger,
	})
	recs := pipeline.Records(results)
	failed := pipeline.Failed(results)

	snap := stats.Snapshot()
	logger.Info("batch complete",
		"documents", len(results),
		"failed", len(failed),
		"records", len(recs),
		"pages", snap.Pages,
		"p95_ms", snap.P95Ms,
	)

	if len(recs) == 0 {
		printError("Error: no se extrajo ninguna partida\n")
		os.Exit(1)
	}

	if *asJSON {
		if err := writeJSON(os.Stdout, recs); err != nil {
			logger.Error("failed to write json", "error", err)
			os.Exit(1)
		}
	} else {
		data, err := export.XLSX(recs, export.Options{IncludeChecks: *checks})
		if err != nil {
			logger.Error("failed to build workbook", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, data, 0644); err != nil {
			logger.Error("failed to write output file", "error", err)
			os.Exit(1)
		}
		logger.Info("workbook written", "output", *out)
	}

	if len(failed) > 0 {
		printError("skipped unreadable documents: %s\n", strings.Join(failed, ", "))
	}
}

// writeJSON writes recs as an indented JSON array after checking it against
// the published record schema.
func writeJSON(w io.Writer, recs []budget.Record) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := budget.ValidateRecordsJSON(data); err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// collectInputs expands directories into their supported files, sorted by
// name. Explicit files are kept in argument order.
func collectInputs(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !parser.IsSupportedExtension(arg) {
				return nil, fmt.Errorf("unsupported file type: %s", arg)
			}
			out = append(out, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && parser.IsSupportedExtension(e.Name()) {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no supported documents found")
	}
	return out, nil
}
