package storage

import "catalogetl/pkg/records"

// Rows projects cleaned records onto the configured column order, producing
// driver-ready rows. Structured values (dates, spans) are rendered to their
// canonical string form; blank values become NULL.
func Rows(recs []records.Record, columns []string) [][]any {
	rows := make([][]any, 0, len(recs))
	for _, rec := range recs {
		row := make([]any, len(columns))
		for i, col := range columns {
			v := rec[col]
			if records.IsBlank(v) {
				row[i] = nil
				continue
			}
			row[i] = records.String(v)
		}
		rows = append(rows, row)
	}
	return rows
}
