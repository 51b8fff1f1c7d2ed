// Package aggregate computes named result tables over cleaned records:
// grouped counts, filtered counts, numeric aggregates over parsed spans,
// multi-valued explosion, bucketed counts, and cross-tabulation. Every
// operation is a pure function over the input slice; records are never
// mutated, so independent reports can run concurrently over the same batch.
package aggregate

import (
	"fmt"
	"strconv"
	"strings"

	"catalogetl/pkg/records"
)

// Spec declares one aggregation operation. The JSON tags mirror entries of
// the "reports" block of a pipeline file.
type Spec struct {
	// Name labels the resulting table.
	Name string `json:"name"`

	// Op selects the operation: "group_count", "numeric", "explode",
	// "bucket", or "crosstab".
	Op string `json:"op"`

	// GroupBy lists one or two grouping fields (group_count) or the row
	// dimension (crosstab).
	GroupBy []string `json:"group_by,omitempty"`

	// Field is the source column for numeric, explode, and bucket ops.
	Field string `json:"field,omitempty"`

	// Unit restricts numeric and bucket ops to span values of this unit;
	// rows with another unit are excluded, not errored.
	Unit string `json:"unit,omitempty"`

	// Delimiter splits the exploded field. Defaults to ",".
	Delimiter string `json:"delimiter,omitempty"`

	// Column is the second dimension of a crosstab.
	Column string `json:"column,omitempty"`

	// Label optionally names a column echoed alongside numeric min/max
	// rows (e.g. "title").
	Label string `json:"label,omitempty"`

	// Filter optionally restricts the input rows before the operation.
	Filter *Filter `json:"filter,omitempty"`

	// SortBy orders group_count/explode results: "count" (descending,
	// default) or "key" (ascending). Ties keep first-seen input order.
	SortBy string `json:"sort_by,omitempty"`

	// Limit truncates the result to the top N rows when > 0.
	Limit int `json:"limit,omitempty"`

	// Buckets define the ordered ranges of a bucket op.
	Buckets []Bucket `json:"buckets,omitempty"`
}

// Filter is a row predicate applied before grouping.
type Filter struct {
	Field string `json:"field"`
	Op    string `json:"op"` // "eq" | "contains" | "not_eq"
	Value string `json:"value"`
}

// Bucket is one labeled range. A nil bound is unbounded on that side;
// bounds are inclusive unless the corresponding exclusive flag is set.
type Bucket struct {
	Label        string   `json:"label"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	MinExclusive bool     `json:"min_exclusive,omitempty"`
	MaxExclusive bool     `json:"max_exclusive,omitempty"`
}

// ResultTable is an ordered, named result set: column names plus rows of
// display-ready values. The core returns structured data; rendering is the
// caller's job.
type ResultTable struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Run executes one aggregation. It fails fast on an invalid spec (unknown
// op, missing or unknown fields, bad buckets) before touching any row; row
// content never causes an error, unmatched rows are silently excluded.
func Run(recs []records.Record, spec Spec) (*ResultTable, error) {
	if err := CheckSpec(spec, fieldSet(recs)); err != nil {
		return nil, err
	}
	rows := filtered(recs, spec.Filter)
	switch spec.Op {
	case "group_count":
		return groupCount(rows, spec), nil
	case "numeric":
		return numeric(rows, spec), nil
	case "explode":
		return explode(rows, spec), nil
	case "bucket":
		return bucket(rows, spec), nil
	case "crosstab":
		return crosstab(rows, spec), nil
	}
	// Unreachable; CheckSpec rejects unknown ops.
	return nil, fmt.Errorf("aggregate: unknown op %q", spec.Op)
}

// CheckSpec validates a spec against the set of known fields. A nil or
// empty field set (no input rows) skips field-existence checks only.
func CheckSpec(spec Spec, fields map[string]struct{}) error {
	name := spec.Name
	if name == "" {
		name = spec.Op
	}
	fieldKnown := func(f string) error {
		if len(fields) == 0 {
			return nil
		}
		if _, ok := fields[f]; !ok {
			return fmt.Errorf("aggregate: %s: unknown field %q", name, f)
		}
		return nil
	}

	switch spec.Op {
	case "group_count":
		if len(spec.GroupBy) < 1 || len(spec.GroupBy) > 2 {
			return fmt.Errorf("aggregate: %s: group_count requires one or two group_by fields", name)
		}
	case "numeric":
		if spec.Field == "" {
			return fmt.Errorf("aggregate: %s: numeric requires field", name)
		}
	case "explode":
		if spec.Field == "" {
			return fmt.Errorf("aggregate: %s: explode requires field", name)
		}
	case "bucket":
		if spec.Field == "" {
			return fmt.Errorf("aggregate: %s: bucket requires field", name)
		}
		if len(spec.Buckets) == 0 {
			return fmt.Errorf("aggregate: %s: bucket requires at least one bucket", name)
		}
		for i, b := range spec.Buckets {
			if b.Label == "" {
				return fmt.Errorf("aggregate: %s: buckets[%d] has no label", name, i)
			}
			if b.Min == nil && b.Max == nil {
				return fmt.Errorf("aggregate: %s: buckets[%d] is unbounded on both sides", name, i)
			}
			if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
				return fmt.Errorf("aggregate: %s: buckets[%d] has min > max", name, i)
			}
		}
	case "crosstab":
		if len(spec.GroupBy) != 1 {
			return fmt.Errorf("aggregate: %s: crosstab requires exactly one group_by field", name)
		}
		if spec.Column == "" {
			return fmt.Errorf("aggregate: %s: crosstab requires column", name)
		}
		if err := fieldKnown(spec.Column); err != nil {
			return err
		}
	default:
		return fmt.Errorf("aggregate: %s: unknown op %q", name, spec.Op)
	}

	for _, g := range spec.GroupBy {
		if err := fieldKnown(g); err != nil {
			return err
		}
	}
	if spec.Field != "" {
		if err := fieldKnown(spec.Field); err != nil {
			return err
		}
	}
	if spec.Filter != nil {
		switch spec.Filter.Op {
		case "eq", "contains", "not_eq":
		default:
			return fmt.Errorf("aggregate: %s: unknown filter op %q", name, spec.Filter.Op)
		}
		if err := fieldKnown(spec.Filter.Field); err != nil {
			return err
		}
	}
	return nil
}

// fieldSet collects the union of column names across the batch.
func fieldSet(recs []records.Record) map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range recs {
		for k := range r {
			set[k] = struct{}{}
		}
	}
	return set
}

// filtered returns the rows satisfying f, or the input when f is nil.
func filtered(recs []records.Record, f *Filter) []records.Record {
	if f == nil {
		return recs
	}
	out := make([]records.Record, 0, len(recs))
	for _, r := range recs {
		v := records.String(r[f.Field])
		keep := false
		switch f.Op {
		case "eq":
			keep = v == f.Value
		case "contains":
			keep = strings.Contains(v, f.Value)
		case "not_eq":
			keep = v != f.Value
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

// spanValue extracts a numeric magnitude from v subject to the unit
// predicate. Span values match on their parsed unit; raw strings match by
// substring and a leading numeric token; plain numbers match only when no
// unit is demanded.
func spanValue(v any, unit string) (float64, bool) {
	switch t := v.(type) {
	case records.Span:
		if unit == "" || strings.EqualFold(t.Unit, unit) {
			return t.Value, true
		}
	case string:
		s := strings.TrimSpace(t)
		if unit != "" && !strings.Contains(strings.ToLower(s), strings.ToLower(unit)) {
			return 0, false
		}
		i := 0
		for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
			i++
		}
		if i == 0 {
			return 0, false
		}
		if n, err := strconv.ParseFloat(s[:i], 64); err == nil {
			return n, true
		}
	case int:
		if unit == "" {
			return float64(t), true
		}
	case int64:
		if unit == "" {
			return float64(t), true
		}
	case float64:
		if unit == "" {
			return t, true
		}
	}
	return 0, false
}
