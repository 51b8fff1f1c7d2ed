// Package config defines the canonical, serializable configuration model
// for the catalog cleaning pipeline. It is intentionally small and explicit
// so that pipeline files can be loaded from disk and passed through the
// program without additional glue code.
//
// Pipeline files are JSON by default; YAML is accepted for the same shape
// (decoded through goccy/go-yaml and the JSON field names).
//
// Example (trimmed):
//
//	{
//	  "job":     "catalog",
//	  "source":  { "kind": "file", "file": { "path": "exports/catalog.csv" } },
//	  "parser":  { "kind": "csv", "options": { "has_header": true } },
//	  "cleaning": {
//	    "identity_field": "show_id",
//	    "required": ["type", "title", "rating", "duration", "date_added"],
//	    "impute": [
//	      { "kind": "associate", "target": "director", "companion": "cast", "match": "token" },
//	      { "kind": "group", "target": "country", "group_by": "director" }
//	    ]
//	  },
//	  "reports": [
//	    { "name": "by_type", "op": "group_count", "group_by": ["type"] }
//	  ],
//	  "storage": { "kind": "sqlite", "db": { "dsn": "catalog.db", "table": "catalog" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"catalogetl/internal/aggregate"
	"catalogetl/internal/cleaner"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run for metrics labeling and log lines.
	Job string `json:"job"`

	// Source describes where the raw export comes from.
	Source Source `json:"source"`

	// Parser configures how raw bytes become records.
	Parser Parser `json:"parser"`

	// Cleaning declares the cleaning pass; see cleaner.Config.
	Cleaning cleaner.Config `json:"cleaning"`

	// Reports lists the aggregations computed over the cleaned batch.
	Reports []aggregate.Spec `json:"reports,omitempty"`

	// Storage optionally persists cleaned rows (and report rows) to a
	// database sink. An empty kind disables persistence.
	Storage Storage `json:"storage,omitempty"`

	// Runtime controls report concurrency.
	Runtime RuntimeConfig `json:"runtime,omitempty"`
}

// RuntimeConfig controls concurrency for the report stage.
type RuntimeConfig struct {
	// ReportWorkers bounds how many reports run at once; <= 0 means one
	// goroutine per report.
	ReportWorkers int `json:"report_workers,omitempty"`
}

// Source identifies the data source. Additional kinds can be added over time.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file,omitempty"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http,omitempty"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	// URL is the export download URL.
	URL string `json:"url"`

	// TimeoutSeconds bounds each request; 0 means the client default.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int `json:"max_retries,omitempty"`

	// InsecureSkipVerify disables TLS certificate verification. Some catalog
	// exports live behind endpoints with self-signed certificates.
	InsecureSkipVerify bool `json:"insecure_skip_verify,omitempty"`
}

// Parser selects how to parse the raw source into rows.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys: has_header (bool), comma (string),
	// trim_space (bool), expected_fields (int), header_map (object),
	// fold_headers (bool).
	Options Options `json:"options"`
}

// Storage selects the sink used to persist cleaned records.
type Storage struct {
	// Kind selects the storage backend: "sqlite", "postgres", or "mysql".
	// Empty disables the sink.
	Kind string `json:"kind,omitempty"`

	// DB configures the selected backend.
	DB DBConfig `json:"db,omitempty"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the backend connection string (file path for sqlite).
	DSN string `json:"dsn"`

	// Table is the destination table for cleaned records.
	Table string `json:"table"`

	// Columns enumerates destination columns in insert order. Empty means
	// the canonical shape's fields, sorted, decided at run time.
	Columns []string `json:"columns,omitempty"`

	// ReportsTable optionally names a table receiving one row per report
	// result row (run id, report name, JSON payload).
	ReportsTable string `json:"reports_table,omitempty"`

	// AutoCreateTable creates the destination tables when missing.
	AutoCreateTable bool `json:"auto_create_table,omitempty"`
}

// Load reads and decodes a pipeline file. Files ending in .yaml or .yml are
// converted from YAML; everything else is treated as JSON.
func Load(path string) (Pipeline, error) {
	var p Pipeline
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		j, err := yaml.YAMLToJSON(b)
		if err != nil {
			return p, fmt.Errorf("decode yaml config: %w", err)
		}
		b = j
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("decode config: %w", err)
	}
	return p, nil
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It performs only
// minimal type coercion and returns the provided default when a key is
// absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Useful for single-character settings such as a CSV
// delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object decodes to a non-nil, empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
