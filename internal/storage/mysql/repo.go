// Package mysql implements a MySQL-backed storage.Repository using
// database/sql with the go-sql-driver. Bulk loads use multi-row INSERT
// statements, which is the fastest portable path without LOAD DATA INFILE.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN          string   // e.g. "user:pass@tcp(localhost:3306)/catalog?parseTime=true"
	Table        string   // target table for cleaned catalog rows
	Columns      []string // ordered destination columns
	ReportsTable string   // optional report output table
}

// maxRowsPerInsert caps the number of rows per multi-row INSERT so the
// statement stays well under MySQL's default max_allowed_packet.
const maxRowsPerInsert = 500

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a MySQL connection pool using the provided DSN and
// returns a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mysql: DSN must not be empty")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// CopyFrom inserts the given rows into the configured catalog table using
// multi-row INSERT statements inside a transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	return r.insertInto(ctx, r.cfg.Table, columns, rows)
}

// CopyReports inserts report output rows into the configured reports table.
func (r *Repository) CopyReports(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if r.cfg.ReportsTable == "" {
		return 0, fmt.Errorf("mysql: reports table not configured")
	}
	return r.insertInto(ctx, r.cfg.ReportsTable, columns, rows)
}

func (r *Repository) insertInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if table == "" {
		return 0, fmt.Errorf("mysql: table must not be empty")
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}

	var inserted int64
	for start := 0; start < len(rows); start += maxRowsPerInsert {
		end := start + maxRowsPerInsert
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		stmtSQL, args, err := buildInsert(table, columns, chunk)
		if err != nil {
			_ = tx.Rollback()
			return inserted, err
		}
		res, err := tx.ExecContext(ctx, stmtSQL, args...)
		if err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("mysql: insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = int64(len(chunk))
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("mysql: commit: %w", err)
	}
	return inserted, nil
}

// buildInsert renders INSERT INTO <table> (<cols>) VALUES (?,...),(?,...) and
// flattens the chunk into the args slice.
func buildInsert(table string, columns []string, chunk [][]any) (string, []any, error) {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = myIdent(c)
	}

	one := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"
	values := make([]string, len(chunk))
	args := make([]any, 0, len(chunk)*len(columns))
	for i, row := range chunk {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("mysql: row length %d != columns length %d", len(row), len(columns))
		}
		values[i] = one
		args = append(args, row...)
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		myIdent(table),
		strings.Join(cols, ", "),
		strings.Join(values, ","),
	)
	return stmt, args, nil
}

// myIdent quotes an identifier with backticks, escaping embedded backticks.
func myIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("mysql: exec: %w", err)
	}
	return nil
}
