package aggregate

import "catalogetl/pkg/records"

// bucket maps each row's numeric value into the first matching labeled
// range and counts per bucket. Buckets keep their configured order in the
// result, including zero-count buckets; values with no range membership are
// excluded.
func bucket(recs []records.Record, spec Spec) *ResultTable {
	counts := make([]int, len(spec.Buckets))
	for _, r := range recs {
		v, ok := spanValue(r[spec.Field], spec.Unit)
		if !ok {
			continue
		}
		for i, b := range spec.Buckets {
			if b.contains(v) {
				counts[i]++
				break
			}
		}
	}

	t := &ResultTable{Name: spec.Name, Columns: []string{"bucket", "count"}}
	for i, b := range spec.Buckets {
		t.Rows = append(t.Rows, []any{b.Label, counts[i]})
	}
	return t
}

// contains reports range membership honoring the per-boundary
// inclusive/exclusive flags. A nil bound is unbounded.
func (b Bucket) contains(v float64) bool {
	if b.Min != nil {
		if b.MinExclusive {
			if v <= *b.Min {
				return false
			}
		} else if v < *b.Min {
			return false
		}
	}
	if b.Max != nil {
		if b.MaxExclusive {
			if v >= *b.Max {
				return false
			}
		} else if v > *b.Max {
			return false
		}
	}
	return true
}
