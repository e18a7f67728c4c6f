package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitenav/internal/fetcher"
	"sitenav/internal/models"
	"sitenav/internal/prefs"
	"sitenav/internal/session"
	"sitenav/internal/testsite"
	"sitenav/pkg/metrics"
)

type harness struct {
	site    *testsite.Server
	api     *httptest.Server
	srv     *Server
	metrics *metrics.Metrics
}

func newHarness(t *testing.T, maxSessions int) *harness {
	t.Helper()
	site := testsite.New()
	t.Cleanup(site.Close)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := fetcher.NewHTTPClient(5*time.Second, 2*time.Second, 1<<20)
	visitors := map[string]prefs.Store{}
	factory := func(id, visitor string) (*session.Session, error) {
		store, ok := visitors[visitor]
		if !ok {
			store = prefs.NewMemoryStore()
			if visitor != "" {
				visitors[visitor] = store
			}
		}
		return session.New(id, session.Deps{Fetcher: client, Prefs: store, Metrics: m}, session.DefaultOptions())
	}

	srv := NewServer(factory, reg, m, nil, Options{MaxSessions: maxSessions})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &harness{site: site, api: ts, srv: srv, metrics: m}
}

func (h *harness) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, h.api.URL+path, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (h *harness) open(t *testing.T, path string) models.Snapshot {
	t.Helper()
	code, body := h.do(t, http.MethodPost, "/sessions", map[string]string{"url": h.site.URL(path)})
	require.Equal(t, http.StatusCreated, code, string(body))
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	require.NotEmpty(t, snap.ID)
	return snap
}

func decodeStep(t *testing.T, body []byte) models.StepResult {
	t.Helper()
	var res models.StepResult
	require.NoError(t, json.Unmarshal(body, &res), string(body))
	return res
}

func TestHealth(t *testing.T) {
	h := newHarness(t, 0)
	code, body := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, string(body))
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t, 0)
	snap := h.open(t, "/")
	assert.Equal(t, "Home", snap.Meta.Title)
	assert.Equal(t, 1, h.srv.Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.SessionsActive))

	base := "/sessions/" + snap.ID

	code, body := h.do(t, http.MethodPost, base+"/click", map[string]string{"selector": "#to-work"})
	require.Equal(t, http.StatusOK, code, string(body))
	res := decodeStep(t, body)
	assert.Equal(t, "navigated", res.Outcome)
	assert.Equal(t, "Work", res.Snapshot.Meta.Title)
	assert.Equal(t, "work", res.Snapshot.Meta.BodyID)

	code, body = h.do(t, http.MethodPost, base+"/navigate", map[string]string{"href": "/contact/"})
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Equal(t, "Contact", decodeStep(t, body).Snapshot.Meta.Title)

	code, body = h.do(t, http.MethodPost, base+"/back", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Equal(t, "Work", decodeStep(t, body).Snapshot.Meta.Title)

	code, body = h.do(t, http.MethodPost, base+"/forward", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Equal(t, "Contact", decodeStep(t, body).Snapshot.Meta.Title)

	code, body = h.do(t, http.MethodPost, base+"/theme", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dark", decodeStep(t, body).Outcome)

	code, body = h.do(t, http.MethodPost, base+"/menu", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "menu-open", decodeStep(t, body).Outcome)

	code, body = h.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, code)
	var got models.Snapshot
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, h.site.URL("/contact/"), got.Location)
	assert.Len(t, got.History, 3)
	assert.Equal(t, "dark", got.Theme)

	code, _ = h.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = h.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, float64(0), testutil.ToFloat64(h.metrics.SessionsActive))
}

func TestErrorStatuses(t *testing.T) {
	h := newHarness(t, 0)
	snap := h.open(t, "/work/")
	base := "/sessions/" + snap.ID

	code, body := h.do(t, http.MethodPost, base+"/click", map[string]string{"selector": "#to-broken"})
	assert.Equal(t, http.StatusBadGateway, code)
	res := decodeStep(t, body)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, "Work", res.Snapshot.Meta.Title, "page left intact")

	code, _ = h.do(t, http.MethodPost, base+"/click", map[string]string{"selector": "#nope"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = h.do(t, http.MethodPost, base+"/forward", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = h.do(t, http.MethodPost, base+"/click", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodGet, "/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = h.do(t, http.MethodPost, "/sessions", map[string]string{"url": "://bad"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodPost, "/sessions", map[string]string{"url": "about/index.html"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodPost, "/sessions", map[string]string{"url": h.site.URL("/broken/")})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, 1, h.srv.Len())
}

func TestSessionLimit(t *testing.T) {
	h := newHarness(t, 1)
	h.open(t, "/")
	code, body := h.do(t, http.MethodPost, "/sessions", map[string]string{"url": h.site.URL("/")})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, string(body), "session limit")

	h.srv.Close()
	assert.Equal(t, 0, h.srv.Len())
	assert.Equal(t, float64(0), testutil.ToFloat64(h.metrics.SessionsActive))
}

func TestVisitorPrefsShared(t *testing.T) {
	h := newHarness(t, 0)
	code, body := h.do(t, http.MethodPost, "/sessions", map[string]string{"url": h.site.URL("/"), "visitor": "v1"})
	require.Equal(t, http.StatusCreated, code)
	var first models.Snapshot
	require.NoError(t, json.Unmarshal(body, &first))

	code, _ = h.do(t, http.MethodPost, "/sessions/"+first.ID+"/theme", nil)
	require.Equal(t, http.StatusOK, code)

	code, body = h.do(t, http.MethodPost, "/sessions", map[string]string{"url": h.site.URL("/"), "visitor": "v1"})
	require.Equal(t, http.StatusCreated, code)
	var second models.Snapshot
	require.NoError(t, json.Unmarshal(body, &second))
	assert.Equal(t, "dark", second.Theme)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, 0)
	snap := h.open(t, "/")
	h.do(t, http.MethodPost, "/sessions/"+snap.ID+"/click", map[string]string{"selector": "#to-work"})

	code, body := h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, code)
	text := string(body)
	assert.Contains(t, text, `sitenav_navigations_total{outcome="swapped"} 1`)
	assert.Contains(t, text, `path="/sessions/{id}/click"`)
	assert.True(t, strings.Contains(text, "sitenav_sessions_active 1"))
}
