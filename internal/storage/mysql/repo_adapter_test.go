package mysql

import (
	"context"
	"sync/atomic"
	"testing"

	"catalogetl/internal/storage"
)

// Verify the factory hook wiring without a real MySQL server: storage.New
// must route to this adapter and forward the config.
func TestAdapterRegistrationAndClose(t *testing.T) {
	// Not parallel: swaps the package-level hook.

	orig := newRepository
	defer func() { newRepository = orig }()

	var gotCfg Config
	var closed int32

	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{}, func() { atomic.AddInt32(&closed, 1) }, nil
	}

	want := storage.Config{
		Kind:         "mysql",
		DSN:          "user:pass@tcp(localhost:3306)/catalog?parseTime=true",
		Table:        "catalog",
		Columns:      []string{"show_id", "title"},
		ReportsTable: "catalog_reports",
	}

	repo, err := storage.New(context.Background(), want)
	if err != nil {
		t.Fatalf("storage.New error: %v", err)
	}

	if gotCfg.DSN != want.DSN || gotCfg.Table != want.Table || gotCfg.ReportsTable != want.ReportsTable {
		t.Fatalf("newRepository got %+v, want fields from %+v", gotCfg, want)
	}

	repo.Close()
	if atomic.LoadInt32(&closed) != 1 {
		t.Fatalf("expected closeFn to run once, ran %d times", closed)
	}
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := createTableSQL("catalog", []string{"show_id", "title"})
	if err != nil {
		t.Fatalf("createTableSQL error: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS `catalog` (`show_id` TEXT, `title` TEXT)"
	if got != want {
		t.Fatalf("sql = %s, want %s", got, want)
	}

	if _, err := createTableSQL("", []string{"a"}); err == nil {
		t.Fatalf("expected error for empty table name")
	}
	if _, err := createTableSQL("catalog", nil); err == nil {
		t.Fatalf("expected error for empty column list")
	}
}

func TestBuildInsert(t *testing.T) {
	t.Parallel()

	chunk := [][]any{
		{"s1", "Movie"},
		{"s2", "TV Show"},
	}
	stmt, args, err := buildInsert("catalog", []string{"show_id", "type"}, chunk)
	if err != nil {
		t.Fatalf("buildInsert error: %v", err)
	}
	want := "INSERT INTO `catalog` (`show_id`, `type`) VALUES (?,?),(?,?)"
	if stmt != want {
		t.Fatalf("stmt = %s, want %s", stmt, want)
	}
	if len(args) != 4 || args[0] != "s1" || args[3] != "TV Show" {
		t.Fatalf("args = %v", args)
	}

	if _, _, err := buildInsert("catalog", []string{"a"}, [][]any{{"x", "y"}}); err == nil {
		t.Fatalf("expected error for row width mismatch")
	}
}
