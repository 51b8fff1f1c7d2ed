package aggregate

import "catalogetl/pkg/records"

// crosstab builds a two-way contingency table: one row per distinct
// GroupBy[0] value, one column per distinct Column value, cells holding
// counts. Rows and columns appear in first-seen input order.
func crosstab(recs []records.Record, spec Spec) *ResultTable {
	rowField, colField := spec.GroupBy[0], spec.Column

	colIdx := map[string]int{}
	colOrder := []string{}
	type ctRow struct {
		key    string
		counts map[string]int
	}
	rowIdx := map[string]*ctRow{}
	rowOrder := []*ctRow{}

	for _, r := range recs {
		rk := records.String(r[rowField])
		ck := records.String(r[colField])
		if _, ok := colIdx[ck]; !ok {
			colIdx[ck] = len(colOrder)
			colOrder = append(colOrder, ck)
		}
		row := rowIdx[rk]
		if row == nil {
			row = &ctRow{key: rk, counts: map[string]int{}}
			rowIdx[rk] = row
			rowOrder = append(rowOrder, row)
		}
		row.counts[ck]++
	}

	cols := append([]string{rowField}, colOrder...)
	t := &ResultTable{Name: spec.Name, Columns: cols}
	for _, row := range rowOrder {
		out := make([]any, 0, len(cols))
		out = append(out, row.key)
		for _, ck := range colOrder {
			out = append(out, row.counts[ck])
		}
		t.Rows = append(t.Rows, out)
	}
	return t
}
