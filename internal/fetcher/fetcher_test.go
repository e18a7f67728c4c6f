package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("<html><title>x</title></html>"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	rc, final, ct, dur, err := client.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("fetch err: %v", err)
	}
	defer rc.Close()
	if final == "" || ct == "" || dur == 0 {
		t.Fatal("unexpected empty values")
	}
}

func TestRejectNonHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		w.Write([]byte("{}"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	_, _, _, _, err := client.Fetch(context.Background(), ts.URL)
	if !errors.Is(err, ErrNotHTML) {
		t.Fatalf("expected ErrNotHTML, got %v", err)
	}
}

func TestRejectNonSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	_, _, _, _, err := client.Fetch(context.Background(), ts.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
}

func TestRejectInvalidURL(t *testing.T) {
	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	_, _, _, _, err := client.Fetch(context.Background(), "/relative/only")
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func gzipServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(body))
		_ = gz.Close()
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestFetchGzipWithinCap(t *testing.T) {
	const page = "<html><body>0123456789</body></html>"
	ts := gzipServer(t, page)

	client := NewHTTPClient(5*time.Second, 2*time.Second, int64(len(page))).WithUserAgent("test-agent")
	rc, _, _, _, err := client.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("fetch err: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read err: %v", err)
	}
	if string(data) != page {
		t.Fatalf("unexpected body %q", data)
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	ts := gzipServer(t, "<html><body>0123456789</body></html>")

	client := NewHTTPClient(5*time.Second, 2*time.Second, 16).WithUserAgent("test-agent")
	rc, _, _, _, err := client.Fetch(context.Background(), ts.URL)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if rc != nil {
		t.Fatal("oversized body must not be returned")
	}
}
