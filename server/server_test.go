package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/webmodes/metrics"
	"github.com/s0up4200/webmodes/qbittorrent"
	"github.com/s0up4200/webmodes/webmode"
)

type fakeSource struct {
	torrents   []*qbittorrent.TorrentInfo
	err        error
	categories []string
}

func (f *fakeSource) ListTorrents(_ context.Context, categories []string) ([]*qbittorrent.TorrentInfo, error) {
	f.categories = categories
	return f.torrents, f.err
}

func (f *fakeSource) GetTorrent(_ context.Context, hash string) (*qbittorrent.TorrentInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, t := range f.torrents {
		if t.Hash == hash {
			return t, nil
		}
	}
	return nil, nil
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *webmode.Resolver) {
	t.Helper()
	resolver := webmode.NewResolver(webmode.NewWebModes([]webmode.Config{
		{Name: "KamePT", Pattern: `kamept\.com/details\.php\?id=(?P<id>\d+)`, Template: "https://kamept.com/details.php?id={id}", Cookie: "c_secure_uid=1; c_secure_pass=x"},
		{Name: "Broken", Pattern: `(?P<id`},
		{Name: "Bad", Pattern: `bad:(\d+)`, Template: "https://example.org/{missing}"},
	}), zerolog.Nop())
	return New(resolver, zerolog.Nop(), opts...), resolver
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResolveEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	tests := []struct {
		name    string
		comment string
		status  int
		check   func(t *testing.T, body map[string]any)
	}{
		{
			name:    "match",
			comment: "https://kamept.com/details.php?id=42",
			status:  http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "https://kamept.com/details.php?id=42", body["url"])
				assert.Equal(t, "KamePT", body["rule"])
				assert.Len(t, body["cookies"], 2)
			},
		},
		{
			name:    "no match",
			comment: "nothing here",
			status:  http.StatusNotFound,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "no_match", body["error"])
			},
		},
		{
			name:    "template error",
			comment: "bad:7",
			status:  http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "template_error", body["error"])
				assert.Equal(t, "Bad", body["rule"])
				assert.Equal(t, "missing", body["identifier"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/resolve?comment="+url.QueryEscape(tt.comment), "")
			require.Equal(t, tt.status, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			tt.check(t, body)
		})
	}
}

func TestModesEndpoint(t *testing.T) {
	s, resolver := newTestServer(t)
	h := s.Router()

	rec := do(t, h, http.MethodGet, "/api/modes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp modesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Modes, 3)
	assert.True(t, resp.Modes[0].Valid)
	assert.False(t, resp.Modes[1].Valid)
	assert.NotEmpty(t, resp.Modes[1].Error)

	rec = do(t, h, http.MethodPut, "/api/modes/preferred", `{"name":"Bad"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bad", resp.Preferred)
	assert.True(t, resp.Modes[2].Preferred)
	assert.Equal(t, "Bad", resolver.Order()[0].Name())

	rec = do(t, h, http.MethodPut, "/api/modes/preferred", `{"name":"Nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Bad", resolver.Preferred())

	rec = do(t, h, http.MethodPut, "/api/modes/preferred", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTorrentsEndpoint(t *testing.T) {
	source := &fakeSource{torrents: []*qbittorrent.TorrentInfo{
		{Hash: "a", Name: "One", Category: "movies", Comment: "https://kamept.com/details.php?id=1", Ratio: 2},
		{Hash: "b", Name: "Two", Category: "movies", Comment: "bad:2", Ratio: 0.5},
		{Hash: "c", Name: "Three", Category: qbittorrent.Uncategorized, Ratio: 3},
	}}
	s, resolver := newTestServer(t)
	s = New(resolver, zerolog.Nop(), WithTorrents(source, nil))
	h := s.Router()

	rec := do(t, h, http.MethodGet, "/api/torrents?category=movies,tv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"movies", "tv"}, source.categories)

	var all []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 3)
	assert.Equal(t, "https://kamept.com/details.php?id=1", all[0]["url"])
	assert.Equal(t, "KamePT", all[0]["rule"])
	assert.NotEmpty(t, all[1]["resolve_error"])
	assert.Nil(t, all[2]["url"])

	rec = do(t, h, http.MethodGet, "/api/torrents?filter="+url.QueryEscape("Ratio >= 2"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var filtered []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filtered))
	require.Len(t, filtered, 2)
	assert.Equal(t, "One", filtered[0]["name"])
	assert.Equal(t, "Three", filtered[1]["name"])

	rec = do(t, h, http.MethodGet, "/api/torrents?filter="+url.QueryEscape("Ratio >"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	source.err = errors.New("connection refused")
	rec = do(t, h, http.MethodGet, "/api/torrents", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTorrentByHashEndpoint(t *testing.T) {
	source := &fakeSource{torrents: []*qbittorrent.TorrentInfo{
		{Hash: "abc123", Name: "One", SavePath: "/data/movies", Comment: "https://kamept.com/details.php?id=5"},
		{Hash: "def456", Name: "Two", ContentPath: "/data/tv/Two", Comment: "plain text"},
	}}
	_, resolver := newTestServer(t)
	h := New(resolver, zerolog.Nop(), WithTorrents(source, nil)).Router()

	rec := do(t, h, http.MethodGet, "/api/torrents/ABC123", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://kamept.com/details.php?id=5", body["url"])
	assert.Equal(t, "KamePT", body["rule"])
	assert.Equal(t, "/data/movies/One", body["path"])

	rec = do(t, h, http.MethodGet, "/api/torrents/def456", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/data/tv/Two", body["path"])
	assert.Nil(t, body["url"])

	rec = do(t, h, http.MethodGet, "/api/torrents/ffff", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	source.err = errors.New("connection refused")
	rec = do(t, h, http.MethodGet, "/api/torrents/abc123", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTorrentsUnavailable(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodGet, "/api/torrents", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	s, _ := newTestServer(t, WithMetrics(m, reg))
	h := s.Router()

	do(t, h, http.MethodGet, "/api/resolve?comment="+url.QueryEscape("https://kamept.com/details.php?id=9"), "")
	do(t, h, http.MethodGet, "/api/resolve?comment=nope", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `webmodes_resolutions_total{mode="KamePT",outcome="resolved"} 1`)
	assert.Contains(t, rec.Body.String(), `outcome="no_match"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunShutsDown(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	require.NoError(t, <-done)
}
