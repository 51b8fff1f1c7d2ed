package aggregate

import (
	"sort"
	"strings"

	"catalogetl/pkg/records"
)

// group is one accumulated result row with its first-seen rank for
// deterministic tie breaks.
type group struct {
	key   []string
	count int
	rank  int
}

// groupCount counts rows per one- or two-field group key, then sorts by
// count descending (default) or key ascending. Ties preserve first-seen
// input order.
func groupCount(recs []records.Record, spec Spec) *ResultTable {
	groups := map[string]*group{}
	order := make([]*group, 0)
	for _, r := range recs {
		key := make([]string, len(spec.GroupBy))
		for i, f := range spec.GroupBy {
			key[i] = records.String(r[f])
		}
		id := strings.Join(key, "\x1f")
		g := groups[id]
		if g == nil {
			g = &group{key: key, rank: len(order)}
			groups[id] = g
			order = append(order, g)
		}
		g.count++
	}

	sortGroups(order, spec.SortBy)

	cols := append(append([]string{}, spec.GroupBy...), "count")
	t := &ResultTable{Name: spec.Name, Columns: cols}
	for _, g := range order {
		if spec.Limit > 0 && len(t.Rows) >= spec.Limit {
			break
		}
		row := make([]any, 0, len(g.key)+1)
		for _, k := range g.key {
			row = append(row, k)
		}
		row = append(row, g.count)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// sortGroups orders result groups by the requested key. "key" sorts the
// joined group key ascending; anything else sorts count descending. Both
// fall back to first-seen rank on ties.
func sortGroups(gs []*group, by string) {
	if by == "key" {
		sort.SliceStable(gs, func(i, j int) bool {
			a, b := strings.Join(gs[i].key, "\x1f"), strings.Join(gs[j].key, "\x1f")
			if a != b {
				return a < b
			}
			return gs[i].rank < gs[j].rank
		})
		return
	}
	sort.SliceStable(gs, func(i, j int) bool {
		if gs[i].count != gs[j].count {
			return gs[i].count > gs[j].count
		}
		return gs[i].rank < gs[j].rank
	})
}
