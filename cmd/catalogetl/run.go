// This file wires the catalog pipeline end-to-end: source open, CSV parse,
// cleaning, report aggregation, and optional persistence. The CLI layer stays
// thin: it depends only on storage-agnostic interfaces and never imports
// database drivers or backend-specific packages directly.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"catalogetl/internal/aggregate"
	"catalogetl/internal/cleaner"
	"catalogetl/internal/config"
	"catalogetl/internal/datasource"
	"catalogetl/internal/datasource/file"
	"catalogetl/internal/datasource/httpds"
	"catalogetl/internal/metrics"
	"catalogetl/internal/parser"
	csvparser "catalogetl/internal/parser/csv"
	"catalogetl/internal/storage"
	"catalogetl/pkg/records"
)

// defaultBatchSize is the number of rows per bulk insert when loading the
// cleaned catalog into storage.
const defaultBatchSize = 1000

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	newRepositoryFn = func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return storage.New(ctx, cfg)
	}

	openSourceFn = openSource
)

// run executes a full source → parse → clean → report → store pipeline run.
// Each stage is timed and counted through the metrics package; a summary is
// logged at the end.
func run(ctx context.Context, spec config.Pipeline, verbose bool) error {
	job := spec.Job

	// 1) Source + parse.
	stepStart := time.Now()
	recs, skipped, err := parseSource(ctx, spec)
	metrics.RecordStep(job, "parse", err, time.Since(stepStart))
	if err != nil {
		return err
	}
	metrics.RecordRows(job, "parsed", int64(len(recs)))
	metrics.RecordRows(job, "parse_skipped", int64(skipped))
	if verbose {
		log.Printf("parse: rows=%d skipped=%d", len(recs), skipped)
	}

	// 2) Clean.
	stepStart = time.Now()
	cleaned, rep, err := cleaner.Clean(recs, spec.Cleaning)
	metrics.RecordStep(job, "clean", err, time.Since(stepStart))
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	byRule, byDefault := rep.Imputed()
	metrics.RecordRows(job, "duplicates", int64(rep.DuplicatesRemoved))
	metrics.RecordRows(job, "imputed", int64(byRule+byDefault))
	metrics.RecordRows(job, "dropped", int64(rep.RowsDropped))
	metrics.RecordRows(job, "cleaned", int64(rep.RowsOut))
	log.Printf(
		"clean: run_id=%s in=%d out=%d duplicates=%d imputed_by_rule=%d imputed_by_default=%d dropped=%d",
		rep.RunID, rep.RowsIn, rep.RowsOut, rep.DuplicatesRemoved, byRule, byDefault, rep.RowsDropped,
	)
	for field, n := range rep.ParseErrors {
		log.Printf("clean: field %s: %d unparseable values", field, n)
	}

	// 3) Reports.
	stepStart = time.Now()
	tables, err := aggregate.RunAll(ctx, cleaned, spec.Reports, spec.Runtime.ReportWorkers)
	metrics.RecordStep(job, "report", err, time.Since(stepStart))
	if err != nil {
		return fmt.Errorf("reports: %w", err)
	}
	for _, tbl := range tables {
		metrics.RecordReport(job, tbl.Name, int64(len(tbl.Rows)))
		if verbose {
			log.Printf("report %s: columns=%v rows=%d", tbl.Name, tbl.Columns, len(tbl.Rows))
		}
	}

	// 4) Optional storage sink.
	if spec.Storage.Kind != "" {
		stepStart = time.Now()
		err = store(ctx, spec, cleaned, rep.RunID, tables)
		metrics.RecordStep(job, "store", err, time.Since(stepStart))
		if err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}

	return nil
}

// parseSource opens the configured source and parses it into records.
func parseSource(ctx context.Context, spec config.Pipeline) ([]records.Record, int, error) {
	if spec.Parser.Kind != "csv" {
		return nil, 0, fmt.Errorf("unsupported parser.kind=%s", spec.Parser.Kind)
	}

	src, err := openSourceFn(ctx, spec)
	if err != nil {
		return nil, 0, fmt.Errorf("source open: %w", err)
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("source open: %w", err)
	}
	defer rc.Close()

	var p parser.Parser = csvparser.NewParser(parserOptions(spec.Parser.Options))
	recs, skipped, err := p.Parse(rc)
	if err != nil {
		return nil, skipped, fmt.Errorf("parse: %w", err)
	}
	return recs, skipped, nil
}

// openSource resolves the configured source kind to a datasource.Source.
func openSource(_ context.Context, spec config.Pipeline) (datasource.Source, error) {
	switch spec.Source.Kind {
	case "file", "":
		return file.NewLocal(spec.Source.File.Path), nil
	case "http":
		h := spec.Source.HTTP
		client := httpds.NewClient(httpds.Config{
			Timeout:            time.Duration(h.TimeoutSeconds) * time.Second,
			MaxRetries:         h.MaxRetries,
			InsecureSkipVerify: h.InsecureSkipVerify,
		})
		return httpds.NewRemote(client, h.URL), nil
	default:
		return nil, fmt.Errorf("unsupported source.kind=%s", spec.Source.Kind)
	}
}

// parserOptions maps the loosely typed parser.options block onto the CSV
// parser's Options.
func parserOptions(o config.Options) csvparser.Options {
	opt := csvparser.Options{
		HasHeader:      o.Bool("has_header", true),
		Comma:          o.Rune("comma", ','),
		TrimSpace:      o.Bool("trim_space", true),
		ExpectedFields: o.Int("expected_fields", 0),
		HeaderMap:      o.StringMap("header_map"),
		FoldHeaders:    o.Bool("fold_headers", false),
	}
	for pat, repl := range o.StringMap("scrub") {
		opt.Scrub = append(opt.Scrub, csvparser.ScrubRule{Pattern: pat, Replacement: repl})
	}
	return opt
}

// store persists the cleaned rows and, when configured, the report output.
func store(
	ctx context.Context,
	spec config.Pipeline,
	cleaned []records.Record,
	runID string,
	tables []*aggregate.ResultTable,
) error {
	cfg := storage.Config{
		Kind:         spec.Storage.Kind,
		DSN:          spec.Storage.DB.DSN,
		Table:        spec.Storage.DB.Table,
		Columns:      spec.Storage.DB.Columns,
		ReportsTable: spec.Storage.DB.ReportsTable,
	}

	repo, err := newRepositoryFn(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if spec.Storage.DB.AutoCreateTable {
		if err := storage.EnsureTables(ctx, repo, cfg); err != nil {
			return fmt.Errorf("apply DDL: %w", err)
		}
	}

	// Cleaned rows through the batched loader.
	in := make(chan []any, defaultBatchSize)
	go func() {
		defer close(in)
		for _, row := range storage.Rows(cleaned, cfg.Columns) {
			select {
			case in <- row:
			case <-ctx.Done():
				return
			}
		}
	}()
	inserted, err := storage.LoadBatches(ctx, cfg.Columns, in, defaultBatchSize, repo.CopyFrom)
	if err != nil {
		return err
	}
	metrics.RecordRows(spec.Job, "stored", inserted)

	// Report output rows, when the backend and config support them.
	if cfg.ReportsTable == "" {
		return nil
	}
	sink, ok := repo.(storage.ReportSink)
	if !ok {
		return fmt.Errorf("storage.kind=%s cannot persist reports", cfg.Kind)
	}
	rows, err := reportRows(runID, tables)
	if err != nil {
		return err
	}
	if _, err := sink.CopyReports(ctx, []string{"run_id", "report", "payload"}, rows); err != nil {
		return err
	}
	return nil
}

// reportRows flattens report tables into (run_id, report, payload) rows, one
// JSON object per result row.
func reportRows(runID string, tables []*aggregate.ResultTable) ([][]any, error) {
	var out [][]any
	for _, tbl := range tables {
		for _, row := range tbl.Rows {
			payload := make(map[string]any, len(tbl.Columns))
			for i, col := range tbl.Columns {
				if i < len(row) {
					payload[col] = row[i]
				}
			}
			b, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("report %s: encode row: %w", tbl.Name, err)
			}
			out = append(out, []any{runID, tbl.Name, string(b)})
		}
	}
	return out, nil
}
