package storage

import (
	"reflect"
	"testing"
	"time"

	"catalogetl/pkg/records"
)

func TestRows(t *testing.T) {
	t.Parallel()

	added := time.Date(2021, time.September, 25, 0, 0, 0, 0, time.UTC)
	recs := []records.Record{
		{
			"show_id":    "s1",
			"title":      "Dick Johnson Is Dead",
			"date_added": added,
			"duration":   records.Span{Raw: "90 min", Value: 90, Unit: "min"},
		},
		{
			"show_id": "s2",
			"title":   "Blood & Water",
		},
	}

	got := Rows(recs, []string{"show_id", "title", "date_added", "duration"})
	want := [][]any{
		{"s1", "Dick Johnson Is Dead", "2021-09-25", "90 min"},
		{"s2", "Blood & Water", nil, nil},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Rows = %v, want %v", got, want)
	}
}
