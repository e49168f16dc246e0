// Package cachestore provides named request/response stores for the offline
// cache gateway.
//
// A Storage holds any number of named stores. A Store maps a request key
// (method + URL) to a stored response. Only whole stores are ever removed;
// entries are never evicted individually.
package cachestore

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Entry is one stored response.
type Entry struct {
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// Key returns the lookup key for method and url.
func Key(method, url string) string {
	return strings.ToUpper(method) + " " + url
}

// RequestKey returns the lookup key for req.
func RequestKey(req *http.Request) string {
	return Key(req.Method, req.URL.String())
}

// Key returns the entry's lookup key.
func (e Entry) Key() string {
	return Key(e.Method, e.URL)
}

// NewEntry reads resp.Body fully and returns a storable copy of resp for
// req. resp.Body is replaced with an in-memory reader so the caller can still
// hand resp on.
func NewEntry(req *http.Request, resp *http.Response) (Entry, error) {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return Entry{}, fmt.Errorf("cachestore: read body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return Entry{
		Method:   strings.ToUpper(req.Method),
		URL:      req.URL.String(),
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now().UTC(),
	}, nil
}

// Response rebuilds an *http.Response for req from the entry.
func (e Entry) Response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Content-Length", strconv.Itoa(len(e.Body)))
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
