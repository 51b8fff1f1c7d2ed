// Package cleaner normalizes raw catalog rows into canonical records:
// identity dedup, blank imputation via an ordered rule chain, row discard on
// unrecoverable blanks, column projection, primary-value extraction, and
// date/duration coercion. Steps run in a fixed order over one in-memory
// batch; each tallies its effects into a shared Report instead of failing
// on bad rows.
package cleaner

import (
	"fmt"
	"strings"

	"catalogetl/pkg/records"
)

// DefaultSentinel is used when the config does not name one.
const DefaultSentinel = "Not Given"

// Step is one cleaning stage. Apply consumes a batch and returns the
// (possibly shorter) surviving batch, recording its effects in rep.
type Step interface {
	Apply(in []records.Record, rep *Report) []records.Record
}

// Chain is an ordered list of steps.
type Chain []Step

// Apply runs each step in order.
func (c Chain) Apply(in []records.Record, rep *Report) []records.Record {
	out := in
	for _, s := range c {
		out = s.Apply(out, rep)
	}
	return out
}

// Config declares the cleaning pass. It is plain data: the JSON tags mirror
// the "cleaning" block of a pipeline file.
type Config struct {
	// IdentityField is the unique row key (e.g. "show_id").
	IdentityField string `json:"identity_field"`

	// Sentinel replaces blanks that no impute rule could resolve.
	// Defaults to DefaultSentinel.
	Sentinel string `json:"sentinel,omitempty"`

	// Required lists non-recoverable fields; rows still blank in any of
	// them after imputation and coercion are dropped.
	Required []string `json:"required"`

	// AuditFields are counted for blanks before and after the pass.
	AuditFields []string `json:"audit_fields,omitempty"`

	// Impute is the ordered rule chain. Rules run in the order given.
	Impute []ImputeRule `json:"impute,omitempty"`

	// DropFields are projected out of the canonical shape.
	DropFields []string `json:"drop_fields,omitempty"`

	// MultiValue reduces delimited fields to their first token.
	MultiValue []MultiValueField `json:"multi_value,omitempty"`

	// Dates are parsed from DateLayout text into time.Time values.
	Dates []DateField `json:"dates,omitempty"`

	// Durations are parsed into records.Span values (magnitude + unit).
	Durations []DurationField `json:"durations,omitempty"`
}

// ImputeRule resolves blanks in Target. Kind "associate" looks the value up
// via a companion field; kind "group" backfills the per-group most frequent
// value. Unresolved blanks fall to Overrides (keyed by the companion/group
// value) and finally to the sentinel.
type ImputeRule struct {
	Kind      string            `json:"kind"` // "associate" | "group"
	Target    string            `json:"target"`
	Companion string            `json:"companion,omitempty"` // associate: lookup field
	Match     string            `json:"match,omitempty"`     // associate: "exact" | "token"
	Delimiter string            `json:"delimiter,omitempty"` // associate token mode; default ","
	GroupBy   string            `json:"group_by,omitempty"`  // group: grouping field
	Overrides map[string]string `json:"overrides,omitempty"`
}

// MultiValueField names a delimited field reduced to its first token.
type MultiValueField struct {
	Field     string `json:"field"`
	Delimiter string `json:"delimiter,omitempty"` // default ","
}

// DateField names a free-text date column and its parse layout.
type DateField struct {
	Field  string `json:"field"`
	Layout string `json:"layout,omitempty"` // default "January 2, 2006"
}

// DurationField names a numeric-bearing text column ("90 min", "2 Seasons").
// Units map a substring of the raw text to the canonical unit name; the
// first matching rule wins.
type DurationField struct {
	Field string     `json:"field"`
	Units []UnitRule `json:"units"`
}

// UnitRule assigns a unit when the raw text contains Contains
// (case-insensitive).
type UnitRule struct {
	Contains string `json:"contains"`
	Unit     string `json:"unit"`
}

func (c Config) sentinel() string {
	if c.Sentinel == "" {
		return DefaultSentinel
	}
	return c.Sentinel
}

// validate rejects structurally unusable configs before any row is touched.
func (c Config) validate() error {
	if strings.TrimSpace(c.IdentityField) == "" {
		return fmt.Errorf("cleaner: identity_field must not be empty")
	}
	for i, r := range c.Impute {
		if strings.TrimSpace(r.Target) == "" {
			return fmt.Errorf("cleaner: impute[%d]: target must not be empty", i)
		}
		switch r.Kind {
		case "associate":
			if strings.TrimSpace(r.Companion) == "" {
				return fmt.Errorf("cleaner: impute[%d]: associate rule requires companion", i)
			}
		case "group":
			if strings.TrimSpace(r.GroupBy) == "" {
				return fmt.Errorf("cleaner: impute[%d]: group rule requires group_by", i)
			}
		default:
			return fmt.Errorf("cleaner: impute[%d]: unknown kind %q", i, r.Kind)
		}
	}
	for i, d := range c.Durations {
		if len(d.Units) == 0 {
			return fmt.Errorf("cleaner: durations[%d]: at least one unit rule required", i)
		}
	}
	return nil
}

// Clean runs the full pass: dedup, imputation, coercion, discard,
// projection, primary-value extraction. The input slice and its records are
// never mutated; returned records are fresh and must be treated as
// immutable by callers.
//
// Only a structurally invalid config yields an error. Row-level problems
// are tallied in the returned Report.
func Clean(in []records.Record, cfg Config) ([]records.Record, *Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}

	rep := NewReport()
	rep.RowsIn = len(in)

	// Work on copies so the raw batch stays untouched.
	work := make([]records.Record, len(in))
	for i, r := range in {
		if r == nil {
			return nil, nil, fmt.Errorf("cleaner: record %d is nil", i)
		}
		work[i] = r.Clone()
	}

	countBlanks(work, cfg.AuditFields, rep.BlanksBefore)

	chain := Chain{
		DeDup{Field: cfg.IdentityField},
	}
	lastForTarget := map[string]int{}
	for i, rule := range cfg.Impute {
		lastForTarget[rule.Target] = i
	}
	for i, rule := range cfg.Impute {
		chain = append(chain, Impute{
			Rule:     rule,
			Sentinel: cfg.sentinel(),
			Final:    lastForTarget[rule.Target] == i,
		})
	}
	chain = append(chain,
		Coerce{Dates: cfg.Dates, Durations: cfg.Durations},
		Require{Fields: cfg.Required, Identity: cfg.IdentityField},
		Project{Drop: cfg.DropFields},
		Primary{Fields: cfg.MultiValue},
	)

	out := chain.Apply(work, rep)
	rep.RowsOut = len(out)

	countBlanks(out, cfg.AuditFields, rep.BlanksAfter)
	return out, rep, nil
}

// countBlanks tallies blank values per audit field. Fields projected out of
// the canonical shape count as blank afterwards; that is intentional, the
// audit describes the shape the consumer sees.
func countBlanks(recs []records.Record, fields []string, into map[string]int) {
	for _, f := range fields {
		n := 0
		for _, r := range recs {
			if records.IsBlank(r[f]) {
				n++
			}
		}
		into[f] = n
	}
}
