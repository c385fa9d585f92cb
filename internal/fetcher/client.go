// Package fetcher talks to the Spaceflight News API and turns its responses
// into article records.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/romangod6/spaceflight-reader/internal/metrics"
	"github.com/romangod6/spaceflight-reader/internal/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://api.spaceflightnewsapi.net/v4"
	DefaultPageSize = 6

	maxBodyBytes = 10 << 20
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the request timeout on a copy of the current client, so a
// shared client passed to WithHTTPClient is left alone.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithRateLimit caps outbound requests at rps per second. rps <= 0 disables
// limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  "spaceflight-reader/1.0",
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchArticles requests the newest limit articles. A non-blank keyword is
// forwarded as the upstream search parameter; no local filtering happens here.
func (c *Client) FetchArticles(ctx context.Context, limit int, keyword string) ([]models.Article, error) {
	const op = "fetch articles"

	if limit < 1 {
		limit = DefaultPageSize
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("ordering", "-published_at")
	if kw := strings.TrimSpace(keyword); kw != "" {
		q.Set("search", kw)
	}

	start := time.Now()
	body, err := c.get(ctx, op, c.baseURL+"/articles/?"+q.Encode())
	if err != nil {
		c.metrics.ObserveUpstream("articles", outcomeOf(err), time.Since(start).Seconds())
		return nil, err
	}

	items, err := decodeEnvelope(op, body)
	if err != nil {
		c.metrics.ObserveUpstream("articles", outcomeOf(err), time.Since(start).Seconds())
		return nil, err
	}
	c.metrics.ObserveUpstream("articles", metrics.OutcomeOK, time.Since(start).Seconds())

	articles, skipped := normalizeAll(items)
	if skipped > 0 {
		c.logger.Debug("skipped unusable upstream items",
			zap.Int("skipped", skipped),
			zap.Int("received", len(items)),
		)
	}
	c.metrics.AddFetched(len(articles))

	return articles, nil
}

// FetchArticle loads a single article for the detail page.
func (c *Client) FetchArticle(ctx context.Context, id int64) (*models.Article, error) {
	const op = "fetch article"

	start := time.Now()
	body, err := c.get(ctx, op, fmt.Sprintf("%s/articles/%d/", c.baseURL, id))
	if err != nil {
		var ne *NetworkError
		if errors.As(err, &ne) && ne.StatusCode == http.StatusNotFound {
			err = fmt.Errorf("article %d: %w", id, ErrNotFound)
		}
		c.metrics.ObserveUpstream("article", outcomeOf(err), time.Since(start).Seconds())
		return nil, err
	}

	article, ok := normalizeItem(body)
	if !ok {
		err := &ParseError{Op: op, Reason: "response is not an article object"}
		c.metrics.ObserveUpstream("article", outcomeOf(err), time.Since(start).Seconds())
		return nil, err
	}
	c.metrics.ObserveUpstream("article", metrics.OutcomeOK, time.Since(start).Seconds())

	return &article, nil
}

func (c *Client) get(ctx context.Context, op, endpoint string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Op: op, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("upstream request", zap.String("url", endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &NetworkError{Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	return body, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case IsParseError(err):
		return metrics.OutcomeParseError
	case IsNetworkError(err):
		return metrics.OutcomeNetworkError
	default:
		return metrics.OutcomeError
	}
}
