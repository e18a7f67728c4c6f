package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrNotHTML    = errors.New("non-html content")
	ErrTooLarge   = errors.New("body exceeds size cap")
)

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string { return fmt.Sprintf("http status %d", e.StatusCode) }

const DefaultUserAgent = "sitenav/1.0 (+https://example.com)"

type HTTPClient struct {
	client    *http.Client
	sizeCap   int64
	userAgent string
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		// gzip is negotiated and decoded below so the size cap applies to
		// the decoded body.
		DisableCompression: true,
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap:   sizeCap,
		userAgent: DefaultUserAgent,
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func (h *HTTPClient) WithUserAgent(ua string) *HTTPClient {
	if ua != "" {
		h.userAgent = ua
	}
	return h
}

// Fetch GETs rawURL and returns the decoded body, the final URL after
// redirects, the content type and the elapsed time. A body over the size cap
// is an ErrTooLarge error, never a truncated page. The caller must close the
// body.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, string, time.Duration, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, "", "", 0, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", "", 0, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", "", 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, "", "", 0, &StatusError{StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") && mediaType != "" {
		// still allow if empty (some servers omit), otherwise reject non-html
		resp.Body.Close()
		return nil, "", "", 0, ErrNotHTML
	}

	defer resp.Body.Close()
	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, "", "", 0, err
		}
		defer gz.Close()
		body = gz
	}

	// one byte past the cap tells a full body from an oversized one
	data, err := io.ReadAll(io.LimitReader(body, h.sizeCap+1))
	if err != nil {
		return nil, "", "", 0, err
	}
	if int64(len(data)) > h.sizeCap {
		return nil, "", "", 0, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, h.sizeCap)
	}

	finalURL := resp.Request.URL.String()
	elapsed := time.Since(start)
	return io.NopCloser(bytes.NewReader(data)), finalURL, contentType, elapsed, nil
}
