package httpds

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRemoteOpen(t *testing.T) {
	t.Parallel()

	const body = "show_id,title\ns1,Dick Johnson Is Dead\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/catalog.csv":
			io.WriteString(w, body)
		case "/catalog.csv.gz":
			zw := gzip.NewWriter(w)
			io.WriteString(zw, body)
			zw.Close()
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "plain", path: "/catalog.csv"},
		{name: "gzip_is_decompressed", path: "/catalog.csv.gz"},
		{name: "terminal_status", path: "/missing.csv", wantErr: "status 404"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := NewRemote(nil, srv.URL+tt.path)
			rc, err := src.Open(context.Background())
			if tt.wantErr != "" {
				if err == nil {
					rc.Close()
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open error: %v", err)
			}
			defer rc.Close()

			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read body: %v", err)
			}
			if string(got) != body {
				t.Fatalf("body = %q, want %q", got, body)
			}
		})
	}
}

func TestGzippedURL(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"https://example.com/a/catalog.csv.gz":             true,
		"https://example.com/a/catalog.csv.gz?sig=abc.def": true,
		"https://example.com/a/catalog.csv":                false,
		"https://example.com/a/catalog.csv?name=x.gz":      false,
	}
	for rawURL, want := range tests {
		if got := gzippedURL(rawURL); got != want {
			t.Errorf("gzippedURL(%q) = %v, want %v", rawURL, got, want)
		}
	}
}
