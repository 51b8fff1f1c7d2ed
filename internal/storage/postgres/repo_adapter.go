// This adapter wires the Postgres backend into the storage-agnostic factory by
// registering a constructor at init time. The CLI and other callers can then
// obtain a Repository via storage.New(...) without importing this package
// directly.
//
// The adapter also registers a DDL bootstrapper so that callers can apply
// backend-specific DDL based only on storage.Kind, without branching on the
// backend themselves.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"catalogetl/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// wrappedRepo implements storage.Repository by delegating to the concrete
// *postgres.Repository while providing a Close method that calls the close
// function returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Ensure wrappedRepo satisfies the interfaces at compile time.
var (
	_ storage.Repository = (*wrappedRepo)(nil)
	_ storage.ReportSink = (*wrappedRepo)(nil)
)

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	// Repository factory registration.
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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
	storage.RegisterDDL("postgres",
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

// createTableSQL builds a deterministic CREATE TABLE IF NOT EXISTS statement
// with TEXT columns and Postgres-style quoting.
func createTableSQL(table string, columns []string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("postgres ddl: table name must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("postgres ddl: at least one column is required")
	}
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		name := strings.TrimSpace(c)
		if name == "" {
			return "", fmt.Errorf("postgres ddl: column with empty name in table %s", table)
		}
		cols = append(cols, pgIdent(name)+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pgFQN(table), strings.Join(cols, ", ")), nil
}
