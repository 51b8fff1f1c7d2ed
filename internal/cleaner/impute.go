package cleaner

import (
	"strings"

	"catalogetl/pkg/records"
)

// Impute fills blanks in Rule.Target according to the rule kind, falling
// back to Rule.Overrides and finally to Sentinel so the target is never
// blank after the step.
//
// "associate": build a lookup from companion-field values to the most
// frequent non-blank target value seen alongside them, then resolve blank
// targets through it. In "token" match mode the companion value is split on
// the delimiter and each trimmed token indexes the lookup separately, so a
// single cast member shared between rows is enough to resolve a director.
//
// "group": compute the most frequent non-blank target value per group_by
// value and backfill blanks within the group.
//
// Ties in "most frequent" break toward the value seen first in batch order.
type Impute struct {
	Rule     ImputeRule
	Sentinel string

	// Final marks the last rule in the chain for this target. Only the
	// final rule applies overrides and the sentinel; earlier rules leave
	// unresolved blanks for the next rule.
	Final bool
}

// freq tracks value frequencies with deterministic first-seen tie breaks.
type freq struct {
	counts map[string]int
	order  map[string]int // value -> first-seen rank
	next   int
}

func newFreq() *freq {
	return &freq{counts: map[string]int{}, order: map[string]int{}}
}

func (f *freq) add(v string) {
	if _, ok := f.order[v]; !ok {
		f.order[v] = f.next
		f.next++
	}
	f.counts[v]++
}

// best returns the most frequent value; ties go to the earlier first-seen
// value. ok is false when nothing was added.
func (f *freq) best() (string, bool) {
	var (
		win   string
		winN  = -1
		winRk int
	)
	for v, n := range f.counts {
		rk := f.order[v]
		if n > winN || (n == winN && rk < winRk) {
			win, winN, winRk = v, n, rk
		}
	}
	return win, winN >= 0
}

// Apply fills blanks in place on the working batch (records are already
// private copies of the raw input) and tallies resolutions in rep.
func (im Impute) Apply(in []records.Record, rep *Report) []records.Record {
	r := im.Rule
	switch r.Kind {
	case "associate":
		im.applyLookup(in, rep, r.Companion, im.associateIndex(in))
	case "group":
		im.applyLookup(in, rep, r.GroupBy, im.groupIndex(in))
	}
	return in
}

// associateIndex maps companion values (or tokens) to target frequencies.
func (im Impute) associateIndex(in []records.Record) map[string]*freq {
	r := im.Rule
	idx := map[string]*freq{}
	for _, rec := range in {
		target := records.String(rec[r.Target])
		if target == "" {
			continue
		}
		for _, key := range im.keysOf(rec, r.Companion) {
			f := idx[key]
			if f == nil {
				f = newFreq()
				idx[key] = f
			}
			f.add(target)
		}
	}
	return idx
}

// groupIndex maps group values to target frequencies.
func (im Impute) groupIndex(in []records.Record) map[string]*freq {
	r := im.Rule
	idx := map[string]*freq{}
	for _, rec := range in {
		target := records.String(rec[r.Target])
		if target == "" {
			continue
		}
		key := records.String(rec[r.GroupBy])
		if key == "" {
			continue
		}
		f := idx[key]
		if f == nil {
			f = newFreq()
			idx[key] = f
		}
		f.add(target)
	}
	return idx
}

// applyLookup resolves each blank target through the index keyed by the
// given source field, then overrides, then the sentinel.
func (im Impute) applyLookup(in []records.Record, rep *Report, source string, idx map[string]*freq) {
	r := im.Rule
	for _, rec := range in {
		if !records.IsBlank(rec[r.Target]) {
			continue
		}
		resolved := false
		for _, key := range im.keysOf(rec, source) {
			if f, ok := idx[key]; ok {
				if v, ok := f.best(); ok {
					rec[r.Target] = v
					rep.ImputedByRule[r.Target]++
					resolved = true
					break
				}
			}
		}
		if resolved || !im.Final {
			continue
		}
		// Explicit overrides are keyed by the source value, exact form.
		if v, ok := r.Overrides[records.String(rec[source])]; ok && v != "" {
			rec[r.Target] = v
			rep.ImputedByRule[r.Target]++
			continue
		}
		rec[r.Target] = im.Sentinel
		rep.ImputedByDefault[r.Target]++
	}
}

// keysOf returns the lookup keys a record contributes or consults for the
// given source field: the whole value in exact mode, or its trimmed tokens
// in token mode. Blank values yield nothing.
func (im Impute) keysOf(rec records.Record, source string) []string {
	v := records.String(rec[source])
	if v == "" {
		return nil
	}
	if im.Rule.Kind == "associate" && im.Rule.Match == "token" {
		delim := im.Rule.Delimiter
		if delim == "" {
			delim = ","
		}
		parts := strings.Split(v, delim)
		keys := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				keys = append(keys, p)
			}
		}
		return keys
	}
	return []string{v}
}
