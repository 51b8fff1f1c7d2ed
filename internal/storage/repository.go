// Package storage contains storage-agnostic contracts and utilities for
// persisting cleaned catalog rows and report output.
//
// Concrete backends (sqlite, postgres, mysql) live in subpackages and
// register themselves with the factory at init time; callers obtain a
// Repository via New and stay backend-agnostic.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Repository is the minimal contract a backend must satisfy. CopyFrom bulk
// inserts rows aligned to the given column order, Exec runs arbitrary SQL
// (typically DDL), and Close releases the underlying connections.
type Repository interface {
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
	Close()
}

// ReportSink is an optional capability: backends that can persist report
// output rows into Config.ReportsTable implement it in addition to
// Repository. Callers discover it via type assertion.
type ReportSink interface {
	CopyReports(ctx context.Context, columns []string, rows [][]any) (int64, error)
}

// Config selects and configures a backend.
type Config struct {
	// Kind names a registered backend: "sqlite", "postgres", "mysql".
	Kind string

	// DSN is the backend-specific connection string.
	DSN string

	// Table receives the cleaned catalog rows.
	Table string

	// Columns is the ordered list of destination columns for Table.
	Columns []string

	// ReportsTable, when non-empty, receives one row per report result row
	// as (run_id, report, payload).
	ReportsTable string
}

// Factory constructs a Repository for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	facMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for the given storage kind.
// It is typically called from backend packages' init() functions.
func Register(kind string, fn Factory) {
	facMu.Lock()
	defer facMu.Unlock()
	factories[kind] = fn
}

// New opens a Repository for cfg.Kind. The caller owns the returned
// repository and must Close it.
func New(ctx context.Context, cfg Config) (Repository, error) {
	facMu.RLock()
	fn, ok := factories[cfg.Kind]
	facMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns a snapshot of the registered backend kinds, for
// diagnostics and error messages.
func ListKinds() []string {
	facMu.RLock()
	defer facMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	return out
}
