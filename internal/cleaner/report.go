package cleaner

import (
	"time"

	"github.com/google/uuid"
)

// Report accumulates what the cleaning pass changed or discarded. Row-level
// problems are tallied here and never abort the batch; callers inspect the
// report (or feed it to metrics) after Clean returns.
type Report struct {
	// RunID identifies this cleaning run in logs, metrics, and sinks.
	RunID string

	// StartedAt is when the cleaning pass began.
	StartedAt time.Time

	// RowsIn and RowsOut are the batch sizes before and after cleaning.
	RowsIn  int
	RowsOut int

	// DuplicatesRemoved counts rows collapsed by identity-field dedup.
	DuplicatesRemoved int

	// ImputedByRule counts blanks resolved per target field by an impute
	// rule (association or group lookup, including explicit overrides).
	ImputedByRule map[string]int

	// ImputedByDefault counts blanks that fell through every rule and were
	// set to the sentinel, per target field.
	ImputedByDefault map[string]int

	// RowsDropped counts rows discarded for a blank non-recoverable field.
	RowsDropped int

	// ParseErrors counts values that could not be converted, per field.
	// Rows with a parse failure in a required field are also dropped.
	ParseErrors map[string]int

	// BlanksBefore and BlanksAfter hold per-field blank counts for the
	// configured audit fields, taken before the first step and after the
	// last one.
	BlanksBefore map[string]int
	BlanksAfter  map[string]int
}

// NewReport returns an empty report with a fresh run ID.
func NewReport() *Report {
	return &Report{
		RunID:            uuid.NewString(),
		StartedAt:        time.Now(),
		ImputedByRule:    map[string]int{},
		ImputedByDefault: map[string]int{},
		ParseErrors:      map[string]int{},
		BlanksBefore:     map[string]int{},
		BlanksAfter:      map[string]int{},
	}
}

// Zero reports whether the cleaning pass changed nothing: no duplicates, no
// imputations, no drops, no parse failures. Audit counts are informational
// and do not affect Zero.
func (r *Report) Zero() bool {
	if r.DuplicatesRemoved != 0 || r.RowsDropped != 0 {
		return false
	}
	for _, n := range r.ImputedByRule {
		if n != 0 {
			return false
		}
	}
	for _, n := range r.ImputedByDefault {
		if n != 0 {
			return false
		}
	}
	for _, n := range r.ParseErrors {
		if n != 0 {
			return false
		}
	}
	return true
}

// Imputed returns the total number of imputed values across all fields,
// split into rule-resolved and sentinel-defaulted.
func (r *Report) Imputed() (byRule, byDefault int) {
	for _, n := range r.ImputedByRule {
		byRule += n
	}
	for _, n := range r.ImputedByDefault {
		byDefault += n
	}
	return byRule, byDefault
}
