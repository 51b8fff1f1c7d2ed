// Package parser defines the contract shared by record parsers. A parser
// turns a raw byte stream into records plus a count of rows it skipped as
// unparseable.
package parser

import (
	"io"

	"catalogetl/pkg/records"
)

type Parser interface {
	Parse(r io.Reader) ([]records.Record, int, error)
}
