// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:catalog.db?cache=shared&_fk=1"
	//   "catalog.db" (interpreted by the driver)
	DSN string

	// Table is the target table name for cleaned catalog rows.
	Table string

	// Columns is the ordered list of destination columns.
	Columns []string

	// ReportsTable, when non-empty, receives report output rows.
	ReportsTable string
}
