package csv_test

import (
	"strings"
	"testing"

	pcsv "catalogetl/internal/parser/csv"
)

const sampleCatalog = "\xef\xbb\xbf" + `show_id,Type,Title,Date Added,Duration
s1,Movie,Dick Johnson Is Dead,"September 25, 2021",90 min
s2,TV Show,Blood & Water,"September 24, 2021",2 Seasons
s3,Movie,Broken Row
s4,Movie,,"September 24, 2021",
`

func TestParseCatalogSample(t *testing.T) {
	p := pcsv.NewParser(pcsv.Options{
		HasHeader: true,
		Comma:     ',',
		TrimSpace: true,
	})

	recs, skipped, err := p.Parse(strings.NewReader(sampleCatalog))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, want := len(recs), 3; got != want {
		t.Fatalf("len=%d want=%d", got, want)
	}
	if got, want := skipped, 1; got != want {
		t.Fatalf("skipped=%d want=%d", got, want)
	}
	if v := recs[0]["show_id"]; v != "s1" {
		t.Fatalf("show_id=%v want s1 (BOM not stripped?)", v)
	}
	if v := recs[0]["date_added"]; v != "September 25, 2021" {
		t.Fatalf("date_added=%v", v)
	}
	if v := recs[2]["title"]; v != nil {
		t.Fatalf("empty cell should be nil, got %v", v)
	}
}

func TestParseHeaderMapAndFolding(t *testing.T) {
	in := `Título,Pays d'origine,Duración
Roma,Mexico,135 min
`
	p := pcsv.NewParser(pcsv.Options{
		HasHeader:   true,
		TrimSpace:   true,
		FoldHeaders: true,
		HeaderMap: map[string]string{
			"Titulo":         "title",
			"Pays d'origine": "country",
			"Duracion":       "duration",
		},
	})

	recs, _, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v := recs[0]["title"]; v != "Roma" {
		t.Fatalf("title=%v want Roma", v)
	}
	if v := recs[0]["country"]; v != "Mexico" {
		t.Fatalf("country=%v want Mexico", v)
	}
	if v := recs[0]["duration"]; v != "135 min" {
		t.Fatalf("duration=%v want 135 min", v)
	}
}

func TestParseNoHeader(t *testing.T) {
	p := pcsv.NewParser(pcsv.Options{ExpectedFields: 2})
	recs, skipped, err := p.Parse(strings.NewReader("a,b\nc,d,e\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 1 || skipped != 1 {
		t.Fatalf("recs=%d skipped=%d", len(recs), skipped)
	}
	if v := recs[0]["col_1"]; v != "b" {
		t.Fatalf("col_1=%v want b", v)
	}
}

func TestParseScrub(t *testing.T) {
	in := "title,description\nBad Quotes,\"he said \"hi\" loudly\"\n"
	p := pcsv.NewParser(pcsv.Options{
		HasHeader:      true,
		ExpectedFields: 2,
		Scrub: []pcsv.ScrubRule{
			{Pattern: ` "hi" `, Replacement: ` 'hi' `},
		},
	})
	recs, skipped, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped=%d want 0", skipped)
	}
	if v := recs[0]["description"]; v != "he said 'hi' loudly" {
		t.Fatalf("description=%v", v)
	}
}

func TestFoldFieldName(t *testing.T) {
	cases := map[string]string{
		"Título":   "Titulo",
		"Durée":    "Duree",
		"Réalisé":  "Realise",
		"plain":    "plain",
		"Señorita": "Senorita",
	}
	for in, want := range cases {
		if got := pcsv.FoldFieldName(in); got != want {
			t.Errorf("FoldFieldName(%q)=%q want %q", in, got, want)
		}
	}
}
