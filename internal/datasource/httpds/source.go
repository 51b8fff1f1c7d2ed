package httpds

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Remote is an HTTP data source: it downloads a catalog export from a URL and
// exposes the response body as an io.ReadCloser. URLs ending in ".gz" are
// decompressed on the fly.
type Remote struct {
	client *Client
	url    string
}

// NewRemote returns a Remote bound to rawURL, downloading through client.
// A nil client gets the default retry/backoff configuration.
func NewRemote(client *Client, rawURL string) *Remote {
	if client == nil {
		client = NewClient(Config{})
	}
	return &Remote{client: client, url: rawURL}
}

// Open performs the download and hands back the (possibly decompressed)
// response body. Non-2xx terminal statuses are reported as errors; transient
// statuses were already retried by the client.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.client.Get(ctx, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r.url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", r.url, resp.StatusCode)
	}
	if !gzippedURL(r.url) {
		return resp.Body, nil
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("gzip %s: %w", r.url, err)
	}
	return &gzipBodyCloser{zr: zr, body: resp.Body}, nil
}

// gzippedURL reports whether the URL path names a .gz payload. The query
// string is ignored so signed URLs still match.
func gzippedURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.HasSuffix(rawURL, ".gz")
	}
	return strings.HasSuffix(u.Path, ".gz")
}

type gzipBodyCloser struct {
	zr   *gzip.Reader
	body io.ReadCloser
}

func (g *gzipBodyCloser) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipBodyCloser) Close() error {
	zerr := g.zr.Close()
	berr := g.body.Close()
	if zerr != nil {
		return zerr
	}
	return berr
}
