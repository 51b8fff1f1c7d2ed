package cleaner

import "catalogetl/pkg/records"

// Require drops any record still blank in a non-recoverable field after
// imputation and coercion, and any record with a blank identity. Dropped
// rows are counted; the batch itself never fails.
type Require struct {
	Fields   []string
	Identity string
}

// Apply filters in place, reusing the input backing array.
func (rq Require) Apply(in []records.Record, rep *Report) []records.Record {
	out := in[:0]
	for _, rec := range in {
		if rq.incomplete(rec) {
			rep.RowsDropped++
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (rq Require) incomplete(rec records.Record) bool {
	if rq.Identity != "" && records.IsBlank(rec[rq.Identity]) {
		return true
	}
	for _, f := range rq.Fields {
		if records.IsBlank(rec[f]) {
			return true
		}
	}
	return false
}
