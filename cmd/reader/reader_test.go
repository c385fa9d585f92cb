package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/romangod6/spaceflight-reader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamPage = `{"count": 2, "next": null, "previous": null, "results": [
  {"id": 11, "title": "Rocket launch", "summary": "Falcon 9 lifts off", "news_site": "SpaceNews", "published_at": "2025-03-14T09:30:00Z"},
  {"id": 12, "title": "Lunar lander", "summary": "Touchdown confirmed", "news_site": "NASA", "published_at": "2025-03-13T09:30:00Z"}
]}`

func newUpstream(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/articles/":
			_, _ = w.Write([]byte(upstreamPage))
		case "/articles/11/":
			_, _ = w.Write([]byte(`{"id": 11, "title": "Rocket launch", "summary": "Falcon 9 lifts off", "url": "https://example.com/11"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	t.Setenv("READER_UPSTREAM_BASEURL", srv.URL)
	t.Setenv("READER_SEARCH_DEBOUNCE", "50ms")
	return srv
}

func runCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCommand(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "reader version dev\n", out)
}

func TestSearchCommand(t *testing.T) {
	newUpstream(t, nil)

	out, _, err := runCommand(t, "", "search", "rocket")
	require.NoError(t, err)

	assert.Contains(t, out, "Rocket launch")
	assert.Contains(t, out, "Mar 14, 2025")
	assert.NotContains(t, out, "Lunar lander")
}

func TestSearchCommandNoMatches(t *testing.T) {
	newUpstream(t, nil)

	out, _, err := runCommand(t, "", "search", "venus")
	require.NoError(t, err)
	assert.Equal(t, "No articles found for \"venus\".\n", out)
}

func TestSearchCommandUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("READER_UPSTREAM_BASEURL", srv.URL)

	_, _, err := runCommand(t, "", "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load articles")
}

func TestShowCommand(t *testing.T) {
	newUpstream(t, nil)

	out, _, err := runCommand(t, "", "show", "11")
	require.NoError(t, err)
	assert.Contains(t, out, "Rocket launch")
	assert.Contains(t, out, "Read more: https://example.com/11")

	_, _, err = runCommand(t, "", "show", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, _, err = runCommand(t, "", "show", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid article ID")
}

func TestWatchCommandDebouncesInput(t *testing.T) {
	var hits atomic.Int32
	newUpstream(t, &hits)

	out, _, err := runCommand(t, "r\nro\nrocket\n", "watch")
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load(), "only the settled keyword is searched")
	assert.Contains(t, out, "Rocket launch")
	assert.NotContains(t, out, "Lunar lander")
}

func TestWatchCommandQuit(t *testing.T) {
	var hits atomic.Int32
	newUpstream(t, &hits)

	out, _, err := runCommand(t, "rocket\n:quit\nmoon\n", "watch")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int32(0), hits.Load())
}

func TestRenderArticles(t *testing.T) {
	var buf bytes.Buffer
	renderArticles(&buf, []models.DisplayArticle{
		{Article: models.Article{ID: 1, Title: "Starship"}, DisplayDate: "Recent", CardSummary: "Flight 7"},
	}, "starship")

	out := buf.String()
	assert.Contains(t, out, "Starship")
	assert.Contains(t, out, "Flight 7")
	assert.Contains(t, out, "N/A", "missing site is labelled")

	buf.Reset()
	renderArticles(&buf, nil, "")
	assert.Equal(t, "No articles found.\n", buf.String())
}
