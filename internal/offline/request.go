package offline

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nhle/cub-fuel-log/internal/model"
)

// CacheHeader is set on responses served from the cache.
const CacheHeader = "X-Cub-Cache"

// IsNavigation reports whether req is a top-level page load.
func IsNavigation(req *http.Request) bool {
	if mode := req.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	if dest := req.Header.Get("Sec-Fetch-Dest"); dest != "" {
		return dest == "document"
	}
	// Clients without fetch metadata: an HTML page load.
	return req.Method == http.MethodGet &&
		strings.Contains(req.Header.Get("Accept"), "text/html")
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

// cacheKey identifies a request URL in the cache. Fragments never reach
// the network and are dropped.
func cacheKey(u *url.URL) string {
	k := *u
	k.Fragment = ""
	k.RawFragment = ""
	return k.String()
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// capture buffers resp's body into a cache entry and rewinds the body so
// the response can still be returned to the caller.
func capture(key string, resp *http.Response) (model.CacheEntry, error) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return model.CacheEntry{}, fmt.Errorf("reading response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))

	return model.CacheEntry{
		URL:    key,
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

// response rebuilds an HTTP response from a cache entry.
func response(req *http.Request, e *model.CacheEntry) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Del("Content-Length")
	header.Set(CacheHeader, "hit")

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}
