package cleaner

import (
	"reflect"
	"testing"
	"time"

	"catalogetl/pkg/records"
)

// catalogConfig mirrors the reference catalog export shape used throughout
// these tests.
func catalogConfig() Config {
	return Config{
		IdentityField: "show_id",
		Required:      []string{"type", "title", "rating", "duration", "date_added"},
		AuditFields:   []string{"director", "country", "date_added", "rating", "duration"},
		Impute: []ImputeRule{
			{Kind: "associate", Target: "director", Companion: "cast", Match: "token"},
			{Kind: "group", Target: "country", GroupBy: "director"},
		},
		DropFields: []string{"description", "cast"},
		MultiValue: []MultiValueField{{Field: "country"}},
		Dates:      []DateField{{Field: "date_added"}},
		Durations: []DurationField{{Field: "duration", Units: []UnitRule{
			{Contains: "min", Unit: "min"},
			{Contains: "season", Unit: "seasons"},
		}}},
	}
}

func row(id string, fields map[string]any) records.Record {
	r := records.Record{
		"show_id":    id,
		"type":       "Movie",
		"title":      "Title " + id,
		"director":   "Dir " + id,
		"cast":       "Actor A, Actor B",
		"country":    "United States",
		"date_added": "September 25, 2021",
		"rating":     "PG-13",
		"duration":   "90 min",
	}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

func TestCleanDeDupKeepFirst(t *testing.T) {
	in := []records.Record{
		row("s1", map[string]any{"title": "First"}),
		row("s1", map[string]any{"title": "Second"}),
		row("s2", nil),
	}
	out, rep, err := Clean(in, catalogConfig())
	if err != nil {
		t.Fatal(err)
	}
	if rep.DuplicatesRemoved != 1 {
		t.Fatalf("DuplicatesRemoved = %d, want 1", rep.DuplicatesRemoved)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0]["title"] != "First" {
		t.Fatalf("kept %q, want first-seen row", out[0]["title"])
	}
	// Uniqueness: every identity appears exactly once.
	seen := map[any]int{}
	for _, r := range out {
		seen[r["show_id"]]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("identity %v appears %d times", id, n)
		}
	}
}

func TestCleanImputeByAssociation(t *testing.T) {
	// Five rows pair David Attenborough with Alastair Fothergill; a sixth
	// row has a blank director but shares the cast member.
	in := []records.Record{}
	for i := 0; i < 5; i++ {
		in = append(in, row("s"+string(rune('1'+i)), map[string]any{
			"director": "Alastair Fothergill",
			"cast":     "David Attenborough",
		}))
	}
	in = append(in, row("s9", map[string]any{
		"director": "",
		"cast":     "David Attenborough, Someone Else",
	}))

	out, rep, err := Clean(in, catalogConfig())
	if err != nil {
		t.Fatal(err)
	}
	var got records.Record
	for _, r := range out {
		if r["show_id"] == "s9" {
			got = r
		}
	}
	if got == nil {
		t.Fatal("imputed row missing from output")
	}
	if got["director"] != "Alastair Fothergill" {
		t.Fatalf("director = %q, want Alastair Fothergill", got["director"])
	}
	if rep.ImputedByRule["director"] != 1 {
		t.Fatalf("ImputedByRule[director] = %d, want 1", rep.ImputedByRule["director"])
	}
}

func TestCleanImputeTieBreakFirstSeen(t *testing.T) {
	in := []records.Record{
		row("s1", map[string]any{"director": "Early Winner", "cast": "Shared Actor"}),
		row("s2", map[string]any{"director": "Late Runner", "cast": "Shared Actor"}),
		row("s3", map[string]any{"director": "", "cast": "Shared Actor"}),
	}
	out, _, err := Clean(in, catalogConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range out {
		if r["show_id"] == "s3" && r["director"] != "Early Winner" {
			t.Fatalf("director = %q, want first-encountered value on tie", r["director"])
		}
	}
}

func TestCleanImputeByGroupWithOverridesAndSentinel(t *testing.T) {
	cfg := catalogConfig()
	cfg.Impute = []ImputeRule{
		{
			Kind:      "group",
			Target:    "country",
			GroupBy:   "director",
			Overrides: map[string]string{"Lone Director": "Iceland"},
		},
	}
	in := []records.Record{
		row("s1", map[string]any{"director": "Group Director", "country": "India"}),
		row("s2", map[string]any{"director": "Group Director", "country": "India"}),
		row("s3", map[string]any{"director": "Group Director", "country": ""}),
		row("s4", map[string]any{"director": "Lone Director", "country": ""}),
		row("s5", map[string]any{"director": "Unknown Director", "country": ""}),
	}
	out, rep, err := Clean(in, cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"s1": "India",         // untouched
		"s3": "India",         // backfilled from group
		"s4": "Iceland",       // explicit override before sentinel
		"s5": DefaultSentinel, // sentinel fallback
	}
	for _, r := range out {
		id := r["show_id"].(string)
		if w, ok := want[id]; ok && r["country"] != w {
			t.Errorf("%s: country = %q, want %q", id, r["country"], w)
		}
	}
	if rep.ImputedByRule["country"] != 2 {
		t.Errorf("ImputedByRule[country] = %d, want 2", rep.ImputedByRule["country"])
	}
	if rep.ImputedByDefault["country"] != 1 {
		t.Errorf("ImputedByDefault[country] = %d, want 1", rep.ImputedByDefault["country"])
	}
	// Sentinel coverage: no cleaned record has a blank country.
	for _, r := range out {
		if records.IsBlank(r["country"]) {
			t.Fatalf("blank country survived cleaning: %v", r)
		}
	}
}

func TestCleanDropsIncompleteRows(t *testing.T) {
	in := []records.Record{
		row("s1", nil),
		row("s2", map[string]any{"rating": ""}),
		row("s3", map[string]any{"duration": nil}),
		row("s4", map[string]any{"date_added": "not a date"}),
	}
	out, rep, err := Clean(in, catalogConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0]["show_id"] != "s1" {
		t.Fatalf("out = %v, want only s1", out)
	}
	if rep.RowsDropped != 3 {
		t.Fatalf("RowsDropped = %d, want 3", rep.RowsDropped)
	}
	if rep.ParseErrors["date_added"] != 1 {
		t.Fatalf("ParseErrors[date_added] = %d, want 1", rep.ParseErrors["date_added"])
	}
	// No blank required fields in the output.
	for _, r := range out {
		for _, f := range catalogConfig().Required {
			if records.IsBlank(r[f]) {
				t.Fatalf("blank required field %q in %v", f, r)
			}
		}
	}
}

func TestCleanProjectionAndPrimaryValue(t *testing.T) {
	in := []records.Record{
		row("s1", map[string]any{"country": "United Kingdom, United States, India"}),
	}
	out, _, err := Clean(in, catalogConfig())
	if err != nil {
		t.Fatal(err)
	}
	r := out[0]
	if _, ok := r["description"]; ok {
		t.Fatal("description survived projection")
	}
	if _, ok := r["cast"]; ok {
		t.Fatal("cast survived projection")
	}
	if r["country"] != "United Kingdom" {
		t.Fatalf("country = %q, want first token", r["country"])
	}
}

func TestCleanCoercesDatesAndDurations(t *testing.T) {
	in := []records.Record{
		row("s1", map[string]any{"date_added": "September 25, 2021", "duration": "90 min"}),
		row("s2", map[string]any{"duration": "2 Seasons", "type": "TV Show"}),
	}
	out, _, err := Clean(in, catalogConfig())
	if err != nil {
		t.Fatal(err)
	}
	d, ok := out[0]["date_added"].(time.Time)
	if !ok {
		t.Fatalf("date_added = %T, want time.Time", out[0]["date_added"])
	}
	if want := time.Date(2021, time.September, 25, 0, 0, 0, 0, time.UTC); !d.Equal(want) {
		t.Fatalf("date_added = %v, want %v", d, want)
	}
	sp, ok := out[0]["duration"].(records.Span)
	if !ok {
		t.Fatalf("duration = %T, want records.Span", out[0]["duration"])
	}
	if sp.Value != 90 || sp.Unit != "min" || sp.Raw != "90 min" {
		t.Fatalf("span = %+v", sp)
	}
	sp2 := out[1]["duration"].(records.Span)
	if sp2.Value != 2 || sp2.Unit != "seasons" {
		t.Fatalf("span = %+v", sp2)
	}
}

func TestCleanIdempotent(t *testing.T) {
	in := []records.Record{
		row("s1", map[string]any{"director": "", "cast": "David Attenborough"}),
		row("s1", nil),
		row("s2", map[string]any{"country": "Japan, Korea"}),
		row("s3", map[string]any{"rating": ""}),
	}
	first, rep1, err := Clean(in, catalogConfig())
	if err != nil {
		t.Fatal(err)
	}
	if rep1.Zero() {
		t.Fatal("first pass should report changes")
	}

	second, rep2, err := Clean(first, catalogConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !rep2.Zero() {
		t.Fatalf("second pass not a no-op: %+v", rep2)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second pass changed records:\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	raw := row("s1", map[string]any{"director": ""})
	snapshot := raw.Clone()
	if _, _, err := Clean([]records.Record{raw}, catalogConfig()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(raw, snapshot) {
		t.Fatalf("raw input mutated: %v", raw)
	}
}

func TestCleanStructuralErrors(t *testing.T) {
	if _, _, err := Clean(nil, Config{}); err == nil {
		t.Fatal("want error for missing identity field")
	}
	cfg := catalogConfig()
	cfg.Impute = []ImputeRule{{Kind: "bogus", Target: "director"}}
	if _, _, err := Clean(nil, cfg); err == nil {
		t.Fatal("want error for unknown impute kind")
	}
	if _, _, err := Clean([]records.Record{nil}, catalogConfig()); err == nil {
		t.Fatal("want error for nil record")
	}
}

func TestCleanBlankAudit(t *testing.T) {
	in := []records.Record{
		row("s1", map[string]any{"director": ""}),
		row("s2", map[string]any{"director": "", "cast": ""}),
		row("s3", nil),
	}
	_, rep, err := Clean(in, catalogConfig())
	if err != nil {
		t.Fatal(err)
	}
	if rep.BlanksBefore["director"] != 2 {
		t.Fatalf("BlanksBefore[director] = %d, want 2", rep.BlanksBefore["director"])
	}
	if rep.BlanksAfter["director"] != 0 {
		t.Fatalf("BlanksAfter[director] = %d, want 0", rep.BlanksAfter["director"])
	}
}
