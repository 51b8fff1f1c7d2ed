package aggregate

import (
	"strings"

	"catalogetl/pkg/records"
)

// explode splits the delimited Field of every row into trimmed tokens and
// counts each token as an independent group key, so one row contributes to
// as many groups as it has tokens. Ordering and Limit behave like
// group_count.
func explode(recs []records.Record, spec Spec) *ResultTable {
	delim := spec.Delimiter
	if delim == "" {
		delim = ","
	}

	groups := map[string]*group{}
	order := make([]*group, 0)
	for _, r := range recs {
		v := records.String(r[spec.Field])
		if v == "" {
			continue
		}
		for _, tok := range strings.Split(v, delim) {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			g := groups[tok]
			if g == nil {
				g = &group{key: []string{tok}, rank: len(order)}
				groups[tok] = g
				order = append(order, g)
			}
			g.count++
		}
	}

	sortGroups(order, spec.SortBy)

	t := &ResultTable{Name: spec.Name, Columns: []string{spec.Field, "count"}}
	for _, g := range order {
		if spec.Limit > 0 && len(t.Rows) >= spec.Limit {
			break
		}
		t.Rows = append(t.Rows, []any{g.key[0], g.count})
	}
	return t
}
