package cleaner

import (
	"strconv"
	"strings"
	"time"

	"catalogetl/pkg/records"
)

// DefaultDateLayout parses long-form catalog dates like "September 25, 2021".
const DefaultDateLayout = "January 2, 2006"

// Coerce converts free-text date and duration fields into structured values:
// dates become time.Time, durations become records.Span. Values that are
// already structured pass through untouched, which keeps a second cleaning
// pass a no-op. A value that fails to parse is blanked and tallied as a
// parse error; the required-field discard then removes the row when the
// field is non-recoverable.
type Coerce struct {
	Dates     []DateField
	Durations []DurationField
}

// Apply coerces in place on the working batch.
func (c Coerce) Apply(in []records.Record, rep *Report) []records.Record {
	for _, rec := range in {
		for _, d := range c.Dates {
			coerceDate(rec, d, rep)
		}
		for _, d := range c.Durations {
			coerceDuration(rec, d, rep)
		}
	}
	return in
}

func coerceDate(rec records.Record, d DateField, rep *Report) {
	v, ok := rec[d.Field]
	if !ok || records.IsBlank(v) {
		return
	}
	s, isStr := v.(string)
	if !isStr {
		// Already a time.Time from a prior pass.
		return
	}
	layout := d.Layout
	if layout == "" {
		layout = DefaultDateLayout
	}
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		// Canonical form round-trip: a cleaned batch re-serialized by a
		// collaborator may carry ISO dates.
		if t2, err2 := time.Parse("2006-01-02", strings.TrimSpace(s)); err2 == nil {
			rec[d.Field] = t2
			return
		}
		rec[d.Field] = nil
		rep.ParseErrors[d.Field]++
		return
	}
	rec[d.Field] = t
}

func coerceDuration(rec records.Record, d DurationField, rep *Report) {
	v, ok := rec[d.Field]
	if !ok || records.IsBlank(v) {
		return
	}
	s, isStr := v.(string)
	if !isStr {
		// Already a Span.
		return
	}
	span, ok := ParseSpan(s, d.Units)
	if !ok {
		rec[d.Field] = nil
		rep.ParseErrors[d.Field]++
		return
	}
	rec[d.Field] = span
}

// ParseSpan extracts the leading numeric token from s and assigns a unit via
// the first rule whose Contains substring matches case-insensitively.
// Returns ok=false when no number leads the text or no unit rule matches.
func ParseSpan(s string, units []UnitRule) (records.Span, bool) {
	raw := strings.TrimSpace(s)
	i := 0
	for i < len(raw) && (raw[i] >= '0' && raw[i] <= '9' || raw[i] == '.') {
		i++
	}
	if i == 0 {
		return records.Span{}, false
	}
	n, err := strconv.ParseFloat(raw[:i], 64)
	if err != nil {
		return records.Span{}, false
	}
	lower := strings.ToLower(raw)
	for _, u := range units {
		if u.Contains != "" && strings.Contains(lower, strings.ToLower(u.Contains)) {
			return records.Span{Raw: raw, Value: n, Unit: u.Unit}, true
		}
	}
	return records.Span{}, false
}
