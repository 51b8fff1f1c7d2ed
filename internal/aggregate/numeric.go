package aggregate

import "catalogetl/pkg/records"

// numeric computes count, average, min, and max over rows whose Field
// matches the unit predicate. Rows failing the predicate are excluded, not
// errored. When Label is set, the labeled value of the min/max rows is
// echoed in extra columns.
func numeric(recs []records.Record, spec Spec) *ResultTable {
	var (
		count          int
		sum            float64
		minV, maxV     float64
		minRow, maxRow records.Record
	)
	for _, r := range recs {
		v, ok := spanValue(r[spec.Field], spec.Unit)
		if !ok {
			continue
		}
		if count == 0 || v < minV {
			minV, minRow = v, r
		}
		if count == 0 || v > maxV {
			maxV, maxRow = v, r
		}
		sum += v
		count++
	}

	cols := []string{"count", "avg", "min", "max"}
	if spec.Label != "" {
		cols = append(cols, "min_"+spec.Label, "max_"+spec.Label)
	}
	t := &ResultTable{Name: spec.Name, Columns: cols}
	if count == 0 {
		return t
	}
	row := []any{count, sum / float64(count), minV, maxV}
	if spec.Label != "" {
		row = append(row, records.String(minRow[spec.Label]), records.String(maxRow[spec.Label]))
	}
	t.Rows = append(t.Rows, row)
	return t
}
