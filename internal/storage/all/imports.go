// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories and DDL bootstrappers with the
// storage package.
//
// In other words, importing this package makes the following storage kinds
// available at runtime:
//
//   - "sqlite"   (catalogetl/internal/storage/sqlite)
//   - "postgres" (catalogetl/internal/storage/postgres)
//   - "mysql"    (catalogetl/internal/storage/mysql)
//
// Typical usage (in cmd/catalogetl/main.go or a similar wiring layer):
//
//	import _ "catalogetl/internal/storage/all" // enable all built-in backends
//
// This pattern keeps backend-specific wiring in a single, small package and
// lets the rest of the application depend only on the storage abstraction.
// A binary that supports only a subset of backends can define an alternative
// wiring package that imports just what it needs.
package all

import (
	_ "catalogetl/internal/storage/mysql"
	_ "catalogetl/internal/storage/postgres"
	_ "catalogetl/internal/storage/sqlite"
)
