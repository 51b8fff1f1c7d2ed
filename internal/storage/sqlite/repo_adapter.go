// This file wires the SQLite backend into the storage factory. It exposes
// a storage.Repository implementation without forcing callers to import this
// package directly; registration happens in init.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"catalogetl/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// wrappedRepo adapts *sqlite.Repository to the storage.Repository interface,
// adding a Close method that calls the cleanup function returned by
// NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// Ensure wrappedRepo satisfies the interfaces at compile time.
var (
	_ storage.Repository = (*wrappedRepo)(nil)
	_ storage.ReportSink = (*wrappedRepo)(nil)
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:          cfg.DSN,
			Table:        cfg.Table,
			Columns:      cfg.Columns,
			ReportsTable: cfg.ReportsTable,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	// DDL bootstrap registration.
	storage.RegisterDDL("sqlite",
		func(ctx context.Context, repo storage.Repository, cfg storage.Config) error {
			create, err := createTableSQL(cfg.Table, cfg.Columns)
			if err != nil {
				return fmt.Errorf("catalog table DDL: %w", err)
			}
			if err := repo.Exec(ctx, create); err != nil {
				return err
			}
			if cfg.ReportsTable == "" {
				return nil
			}
			create, err = createTableSQL(cfg.ReportsTable, []string{"run_id", "report", "payload"})
			if err != nil {
				return fmt.Errorf("reports table DDL: %w", err)
			}
			return repo.Exec(ctx, create)
		})
}

// createTableSQL builds a CREATE TABLE IF NOT EXISTS statement with TEXT
// columns. Catalog values are stored in their canonical string form, so TEXT
// with SQLite's flexible typing is sufficient.
func createTableSQL(table string, columns []string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("sqlite ddl: table name must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("sqlite ddl: at least one column is required")
	}
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		name := strings.TrimSpace(c)
		if name == "" {
			return "", fmt.Errorf("sqlite ddl: column with empty name in table %s", table)
		}
		cols = append(cols, fmt.Sprintf("%q TEXT", name))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(cols, ", ")), nil
}
