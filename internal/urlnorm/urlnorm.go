// Package urlnorm reduces page addresses to the form used to decide whether
// two links point at the same page.
package urlnorm

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

const indexFile = "/index.html"

// ErrNotAbsolute is returned when an address has no scheme or host after
// resolution, so there is no page to compare it against.
var ErrNotAbsolute = errors.New("address is not absolute")

// Resolve parses raw and resolves it against base. A nil base leaves raw as is.
func Resolve(base *url.URL, raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u, nil
}

// Normalize returns scheme://host/path for raw resolved against base, with
// query and fragment dropped and a trailing /index.html reduced to /.
func Normalize(base *url.URL, raw string) (string, error) {
	u, err := Resolve(base, raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("normalize %q: %w", raw, ErrNotAbsolute)
	}
	return normalizeURL(u), nil
}

func normalizeURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := hostWithoutDefaultPort(scheme, strings.ToLower(u.Host))

	path := u.EscapedPath()
	if path == "" && host != "" {
		path = "/"
	}
	if strings.HasSuffix(path, indexFile) {
		path = strings.TrimSuffix(path, indexFile) + "/"
	}
	return scheme + "://" + host + path
}

func hostWithoutDefaultPort(scheme, host string) string {
	h, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		if strings.Contains(h, ":") {
			return "[" + h + "]"
		}
		return h
	}
	return host
}

// Fragment returns the non-empty fragment of raw resolved against base.
func Fragment(base *url.URL, raw string) (string, bool) {
	u, err := Resolve(base, raw)
	if err != nil || u.Fragment == "" {
		return "", false
	}
	return u.Fragment, true
}

// SamePage reports whether a and b normalize to the same address.
func SamePage(base *url.URL, a, b string) bool {
	na, err := Normalize(base, a)
	if err != nil {
		return false
	}
	nb, err := Normalize(base, b)
	if err != nil {
		return false
	}
	return na == nb
}
