package cleaner

import (
	"github.com/zeebo/xxh3"

	"catalogetl/pkg/records"
)

// DeDup collapses rows sharing the same identity field value, keeping the
// first occurrence in batch order. Rows with a blank identity are not
// keyable and pass through; the required-field discard downstream removes
// them when identity is marked required.
type DeDup struct {
	// Field is the identity column, e.g. "show_id".
	Field string
}

// Apply returns the surviving rows in their original order and adds the
// number of collapsed rows to rep.DuplicatesRemoved.
func (d DeDup) Apply(in []records.Record, rep *Report) []records.Record {
	if len(in) == 0 || d.Field == "" {
		return in
	}

	// Identity values hash to a fixed-width key; xxh3 keeps the seen-set
	// cheap for large batches without holding every identity string.
	seen := make(map[uint64]struct{}, len(in))
	out := make([]records.Record, 0, len(in))
	for _, r := range in {
		v := r[d.Field]
		if records.IsBlank(v) {
			out = append(out, r)
			continue
		}
		key := xxh3.HashString(records.String(v))
		if _, dup := seen[key]; dup {
			rep.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
