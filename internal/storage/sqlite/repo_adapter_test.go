package sqlite

import (
	"context"
	"strings"
	"testing"

	"catalogetl/internal/storage"
)

// TestSQLiteStorageRegistrationUsesNewRepositoryHook verifies that the
// "sqlite" storage backend registered in init() uses the newRepository hook
// and that wrappedRepo correctly delegates Close.
func TestSQLiteStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	ctx := context.Background()

	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		called bool
		gotCfg Config
		closed bool

		fakeRepo = &Repository{}
	)

	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		called = true
		gotCfg = cfg
		return fakeRepo, func() { closed = true }, nil
	}

	cfg := storage.Config{
		Kind:         "sqlite",
		DSN:          "file:test.db?mode=memory&cache=shared",
		Table:        "catalog",
		Columns:      []string{"show_id", "title"},
		ReportsTable: "catalog_reports",
	}

	repo, err := storage.New(ctx, cfg)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	if !called {
		t.Fatalf("newRepository hook was not called")
	}

	if gotCfg.DSN != cfg.DSN {
		t.Errorf("hook cfg.DSN = %q, want %q", gotCfg.DSN, cfg.DSN)
	}
	if gotCfg.Table != cfg.Table {
		t.Errorf("hook cfg.Table = %q, want %q", gotCfg.Table, cfg.Table)
	}
	if len(gotCfg.Columns) != len(cfg.Columns) {
		t.Errorf("hook cfg.Columns length = %d, want %d", len(gotCfg.Columns), len(cfg.Columns))
	}
	if gotCfg.ReportsTable != cfg.ReportsTable {
		t.Errorf("hook cfg.ReportsTable = %q, want %q", gotCfg.ReportsTable, cfg.ReportsTable)
	}

	w, ok := repo.(*wrappedRepo)
	if !ok {
		t.Fatalf("storage.New() type = %T, want *wrappedRepo", repo)
	}
	if w.Repository != fakeRepo {
		t.Fatalf("wrappedRepo.Repository = %p, want %p", w.Repository, fakeRepo)
	}
	if w.closeFn == nil {
		t.Fatalf("wrappedRepo.closeFn = nil, want non-nil")
	}

	repo.Close()
	if !closed {
		t.Fatalf("wrappedRepo.Close() did not invoke closeFn")
	}
}

// TestCreateTableSQL checks quoting and validation of the DDL builder.
func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := createTableSQL("catalog", []string{"show_id", "title"})
	if err != nil {
		t.Fatalf("createTableSQL: %v", err)
	}
	want := `CREATE TABLE IF NOT EXISTS catalog ("show_id" TEXT, "title" TEXT)`
	if got != want {
		t.Fatalf("sql = %q, want %q", got, want)
	}

	if _, err := createTableSQL("", []string{"a"}); err == nil {
		t.Fatal("expected error for empty table name")
	}
	if _, err := createTableSQL("t", nil); err == nil {
		t.Fatal("expected error for empty columns")
	}
	if _, err := createTableSQL("t", []string{" "}); err == nil {
		t.Fatal("expected error for blank column name")
	}
}

// TestDDLBootstrapCreatesTables runs the registered bootstrapper against a
// real in-memory database and verifies both tables exist afterwards.
func TestDDLBootstrapCreatesTables(t *testing.T) {
	ctx := context.Background()

	cfg := storage.Config{
		Kind:         "sqlite",
		DSN:          ":memory:",
		Table:        "catalog",
		Columns:      []string{"show_id", "title", "rating"},
		ReportsTable: "catalog_reports",
	}

	repo, err := storage.New(ctx, cfg)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	defer repo.Close()

	if err := storage.EnsureTables(ctx, repo, cfg); err != nil {
		t.Fatalf("EnsureTables: %v", err)
	}

	r := repo.(*wrappedRepo).Repository
	for _, table := range []string{"catalog", "catalog_reports"} {
		var name string
		err := r.db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s not created: %v", table, err)
		}
	}

	// Bootstrapping twice must be idempotent.
	if err := storage.EnsureTables(ctx, repo, cfg); err != nil {
		t.Fatalf("EnsureTables (second run): %v", err)
	}
}

// TestDDLBootstrapRejectsBadConfig surfaces builder errors with context.
func TestDDLBootstrapRejectsBadConfig(t *testing.T) {
	ctx := context.Background()

	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	defer repo.Close()

	err = storage.EnsureTables(ctx, repo, storage.Config{Kind: "sqlite", Table: "", Columns: []string{"a"}})
	if err == nil || !strings.Contains(err.Error(), "catalog table DDL") {
		t.Fatalf("err = %v, want catalog table DDL error", err)
	}
}
