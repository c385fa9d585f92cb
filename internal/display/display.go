// Package display prepares articles for cards and detail pages: a date label,
// a guaranteed image and a card-length summary.
package display

import (
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/romangod6/spaceflight-reader/config"
	"github.com/romangod6/spaceflight-reader/internal/models"
)

const (
	// RecentLabel replaces a missing or unreadable publication date.
	RecentLabel = "Recent"

	DateLayout           = "Jan 2, 2006"
	DefaultSummaryLength = 100
	Ellipsis             = "..."
)

var inputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type Transformer struct {
	placeholders  []string
	markers       []string
	summaryLength int
}

type Option func(*Transformer)

// WithPlaceholders replaces the fallback image pool. An empty pool is ignored.
func WithPlaceholders(pool []string) Option {
	return func(t *Transformer) {
		cleaned := make([]string, 0, len(pool))
		for _, p := range pool {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			t.placeholders = cleaned
		}
	}
}

// WithMarkers replaces the placeholder markers. An empty list keeps the
// defaults.
func WithMarkers(markers []string) Option {
	return func(t *Transformer) {
		cleaned := make([]string, 0, len(markers))
		for _, m := range markers {
			if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
				cleaned = append(cleaned, m)
			}
		}
		if len(cleaned) > 0 {
			t.markers = cleaned
		}
	}
}

func WithSummaryLength(n int) Option {
	return func(t *Transformer) {
		if n > 0 {
			t.summaryLength = n
		}
	}
}

func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{
		placeholders:  append([]string(nil), config.DefaultPlaceholders...),
		markers:       append([]string(nil), config.DefaultMarkers...),
		summaryLength: DefaultSummaryLength,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FromConfig builds a Transformer from the display section of cfg.
func FromConfig(cfg *config.Config) *Transformer {
	return NewTransformer(
		WithPlaceholders(cfg.Display.Placeholders),
		WithMarkers(cfg.Display.Markers),
		WithSummaryLength(cfg.Display.SummaryLength),
	)
}

// DisplayDate formats publishedAt as "Jan 2, 2006" in UTC, or returns
// RecentLabel when it is empty or unparsable.
func DisplayDate(publishedAt string) string {
	publishedAt = strings.TrimSpace(publishedAt)
	if publishedAt == "" {
		return RecentLabel
	}

	for _, layout := range inputLayouts {
		if ts, err := time.Parse(layout, publishedAt); err == nil {
			return ts.UTC().Format(DateLayout)
		}
	}
	return RecentLabel
}

// Image returns the article's image, or a pool image when it is missing or a
// known placeholder. The pool entry depends only on the article id.
func (t *Transformer) Image(a models.Article) string {
	if a.HasImage() && !t.isPlaceholder(a.ImageURL) {
		return strings.TrimSpace(a.ImageURL)
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(a.ID, 10)))
	return t.placeholders[h.Sum32()%uint32(len(t.placeholders))]
}

func (t *Transformer) isPlaceholder(imageURL string) bool {
	lower := strings.ToLower(imageURL)
	for _, m := range t.markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Truncate cuts s to the summary budget in display columns and appends an
// ellipsis when anything was removed.
func (t *Transformer) Truncate(s string) string {
	if runewidth.StringWidth(s) <= t.summaryLength {
		return s
	}
	return runewidth.Truncate(s, t.summaryLength, "") + Ellipsis
}

func (t *Transformer) Transform(a models.Article) models.DisplayArticle {
	a.ImageURL = t.Image(a)
	return models.DisplayArticle{
		Article:     a,
		DisplayDate: DisplayDate(a.PublishedAt),
		CardSummary: t.Truncate(a.Summary),
	}
}

func (t *Transformer) TransformAll(articles []models.Article) []models.DisplayArticle {
	out := make([]models.DisplayArticle, len(articles))
	for i, a := range articles {
		out[i] = t.Transform(a)
	}
	return out
}
