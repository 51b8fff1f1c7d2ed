// This adapter wires the MySQL backend into the storage-agnostic factory.
package mysql

import (
	"context"
	"fmt"
	"strings"

	"catalogetl/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// wrappedRepo adapts *mysql.Repository to storage.Repository and provides Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var (
	_ storage.Repository = (*wrappedRepo)(nil)
	_ storage.ReportSink = (*wrappedRepo)(nil)
)

// Close closes the underlying connection pool.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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

	storage.RegisterDDL("mysql",
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
// columns and backtick quoting.
func createTableSQL(table string, columns []string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("mysql ddl: table name must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("mysql ddl: at least one column is required")
	}
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		name := strings.TrimSpace(c)
		if name == "" {
			return "", fmt.Errorf("mysql ddl: column with empty name in table %s", table)
		}
		cols = append(cols, myIdent(name)+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", myIdent(table), strings.Join(cols, ", ")), nil
}
