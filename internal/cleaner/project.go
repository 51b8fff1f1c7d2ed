package cleaner

import (
	"strings"

	"catalogetl/pkg/records"
)

// Project removes columns marked unused from the canonical shape.
type Project struct {
	Drop []string
}

// Apply deletes the dropped keys from each record.
func (p Project) Apply(in []records.Record, rep *Report) []records.Record {
	if len(p.Drop) == 0 {
		return in
	}
	for _, rec := range in {
		for _, f := range p.Drop {
			delete(rec, f)
		}
	}
	return in
}

// Primary reduces delimited multi-valued fields to their first token, the
// canonical scalar form. Downstream explosion into per-token rows is the
// aggregator's job and operates on fields left un-reduced.
type Primary struct {
	Fields []MultiValueField
}

// Apply rewrites each configured field in place.
func (p Primary) Apply(in []records.Record, rep *Report) []records.Record {
	for _, mv := range p.Fields {
		delim := mv.Delimiter
		if delim == "" {
			delim = ","
		}
		for _, rec := range in {
			v, ok := rec[mv.Field]
			if !ok || records.IsBlank(v) {
				continue
			}
			s, isStr := v.(string)
			if !isStr {
				continue
			}
			if head, _, found := strings.Cut(s, delim); found {
				rec[mv.Field] = strings.TrimSpace(head)
			} else {
				rec[mv.Field] = strings.TrimSpace(s)
			}
		}
	}
	return in
}
