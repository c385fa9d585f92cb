package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/romangod6/spaceflight-reader/config"
	"github.com/romangod6/spaceflight-reader/internal/fetcher"
	"github.com/romangod6/spaceflight-reader/internal/metrics"
	"github.com/romangod6/spaceflight-reader/internal/ranking"
	"github.com/romangod6/spaceflight-reader/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const upstreamPage = `{
  "count": 3, "next": null, "previous": null,
  "results": [
    {"id": 1, "title": "Weather update", "summary": "Rocket launch delayed", "image_url": "", "news_site": "NASA", "published_at": "2025-03-14T09:30:00Z"},
    {"id": 2, "title": "Rocket launch <today>", "summary": "SpaceX flies", "image_url": "https://img.example.com/2.jpg", "news_site": "SpaceNews", "published_at": "2025-03-13T09:30:00Z"},
    {"id": 3, "title": "Moon lander", "summary": "Quiet week", "image_url": "https://img.example.com/3.jpg", "news_site": "ESA"}
  ]
}`

type testEnv struct {
	server   *Server
	upstream *httptest.Server
	lastURL  string
}

func newTestEnv(t *testing.T, upstream http.HandlerFunc, mutate func(*config.Config)) *testEnv {
	t.Helper()

	env := &testEnv{}
	env.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.lastURL = r.URL.String()
		upstream(w, r)
	}))
	t.Cleanup(env.upstream.Close)

	cfg := &config.Config{}
	cfg.Server.Port = 8080
	cfg.Server.Prefetch = true
	cfg.Upstream.PageSize = 6
	cfg.Display.SummaryLength = 100
	if mutate != nil {
		mutate(cfg)
	}

	logger := zaptest.NewLogger(t)
	m := metrics.New(prometheus.NewRegistry())
	client := fetcher.NewClient(env.upstream.URL, fetcher.WithLogger(logger), fetcher.WithMetrics(m))
	svc := search.NewService(client, search.ServiceConfig{
		Mode:     cfg.Search.Mode,
		PageSize: cfg.Upstream.PageSize,
		Logger:   logger,
		Metrics:  m,
	})

	srv, err := NewServer(cfg, svc, m, logger)
	require.NoError(t, err)
	env.server = srv
	return env
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func servePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(upstreamPage))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, servePage, nil)

	w := env.get("/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestListArticlesRanksByKeyword(t *testing.T) {
	env := newTestEnv(t, servePage, nil)

	w := env.get("/api/articles?q=rocket")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"score":2`)

	var resp ArticlesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "rocket", resp.Keyword)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, int64(2), resp.Articles[0].ID, "title match ranks first")
	assert.Equal(t, ranking.ScoreTitle, resp.Articles[0].Score)
	assert.Equal(t, int64(1), resp.Articles[1].ID)
	assert.Equal(t, ranking.ScoreSummary, resp.Articles[1].Score)
	assert.NotEmpty(t, resp.Articles[1].ImageURL, "missing image gets a placeholder")
	assert.Equal(t, "Mar 14, 2025", resp.Articles[1].DisplayDate)
	assert.Contains(t, env.lastURL, "limit=6")
	assert.NotContains(t, env.lastURL, "search=")
}

func TestListArticlesWithoutKeywordKeepsOrder(t *testing.T) {
	env := newTestEnv(t, servePage, nil)

	w := env.get("/api/articles")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ArticlesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Articles, 3)
	assert.Equal(t, int64(1), resp.Articles[0].ID)
	assert.Equal(t, int64(3), resp.Articles[2].ID)
	assert.Equal(t, "Recent", resp.Articles[2].DisplayDate)
	for _, a := range resp.Articles {
		assert.Equal(t, ranking.ScoreNone, a.Score)
	}
}

func TestListArticlesClampsLimit(t *testing.T) {
	env := newTestEnv(t, servePage, nil)

	tests := []struct {
		query string
		want  string
	}{
		{"limit=500", "limit=100"},
		{"limit=0", "limit=1"},
		{"limit=-4", "limit=1"},
		{"limit=abc", "limit=6"},
		{"limit=12", "limit=12"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := env.get("/api/articles?" + tt.query)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, env.lastURL, tt.want)
		})
	}
}

func TestRemoteModeForwardsKeyword(t *testing.T) {
	env := newTestEnv(t, servePage, func(cfg *config.Config) {
		cfg.Search.Mode = config.SearchModeRemote
	})

	w := env.get("/api/articles?q=moon")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, env.lastURL, "search=moon")
}

func TestListArticlesUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}, nil)

	w := env.get("/api/articles?q=rocket")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"failed to load articles"}`, w.Body.String())
}

func TestListArticlesMalformedEnvelope(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": {"id": 1}}`))
	}, nil)

	w := env.get("/api/articles")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"articles":[],"keyword":"","count":0}`, w.Body.String())
}

func TestGetArticle(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/articles/7/":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": 7, "title": "Starship", "summary": "Flight test", "url": "https://example.com/7"}`))
		default:
			http.NotFound(w, r)
		}
	}, nil)

	w := env.get("/api/articles/7")
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Starship", got["title"])
	assert.Equal(t, "Recent", got["display_date"])

	w = env.get("/api/articles/8")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.get("/api/articles/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPageHighlightsMatches(t *testing.T) {
	env := newTestEnv(t, servePage, nil)

	w := env.get("/?q=rocket")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `<span class="highlight">Rocket</span> launch &lt;today&gt;`)
	assert.Contains(t, body, `href="/article/2"`)
	assert.NotContains(t, body, "Moon lander")
}

func TestListPageEmptyState(t *testing.T) {
	env := newTestEnv(t, servePage, nil)

	w := env.get("/?q=venus")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No articles found.")
}

func TestListPageUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}, nil)

	w := env.get("/")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "failed to load articles")
}

func TestListPageShellWithoutPrefetch(t *testing.T) {
	called := false
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		servePage(w, r)
	}, func(cfg *config.Config) {
		cfg.Server.Prefetch = false
	})

	w := env.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, called, "upstream must not be called for the shell")
	assert.Contains(t, w.Body.String(), "Enter a keyword")
}

func TestArticlePage(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/articles/5/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 5, "title": "Artemis", "summary": "` + strings.Repeat("long ", 40) + `", "published_at": "2024-12-01T00:00:00Z"}`))
	}, nil)

	w := env.get("/article/5")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<h1>Artemis</h1>")
	assert.Contains(t, body, "Dec 1, 2024")
	assert.NotContains(t, body, "...", "detail page shows the full summary")

	assert.Equal(t, http.StatusNotFound, env.get("/article/6").Code)
	assert.Equal(t, http.StatusBadRequest, env.get("/article/zero").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, servePage, nil)

	env.get("/api/articles?q=rocket")
	w := env.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "spaceflight_reader_upstream_requests_total")
}
