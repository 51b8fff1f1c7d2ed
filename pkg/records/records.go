// Package records defines the row vocabulary shared by the parser, cleaner,
// aggregator, and storage layers. A Record is a loosely typed map of column
// name to value; raw rows hold strings (or nil), cleaned rows may also hold
// time.Time and Span values.
package records

import (
	"fmt"
	"strconv"
	"time"
)

// Record is a single tabular row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of the record. Values are not deep-copied;
// the cleaner only replaces values, it never mutates them in place.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Span is a numeric magnitude extracted from free text along with its unit,
// e.g. "90 min" -> {Raw:"90 min", Value:90, Unit:"min"} or
// "3 Seasons" -> {Raw:"3 Seasons", Value:3, Unit:"seasons"}.
// The original text is retained so output collaborators can echo it.
type Span struct {
	Raw   string
	Value float64
	Unit  string
}

// String implements fmt.Stringer and returns the original text.
func (s Span) String() string { return s.Raw }

// IsBlank reports whether v is absent for cleaning purposes: nil, an empty
// string, or a zero time. Non-string scalars are never blank.
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case time.Time:
		return t.IsZero()
	case Span:
		return t.Raw == ""
	}
	return false
}

// String converts common value types to their string form without the
// overhead of fmt.Sprint; uncommon types fall back to fmt.Sprint.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.Format("2006-01-02")
	case Span:
		return t.Raw
	default:
		return fmt.Sprint(t)
	}
}
