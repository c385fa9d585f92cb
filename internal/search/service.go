// Package search runs fetch-and-rank cycles and coordinates keyword input so
// that only the newest cycle's result is applied.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/romangod6/spaceflight-reader/config"
	"github.com/romangod6/spaceflight-reader/internal/fetcher"
	"github.com/romangod6/spaceflight-reader/internal/metrics"
	"github.com/romangod6/spaceflight-reader/internal/models"
	"github.com/romangod6/spaceflight-reader/internal/ranking"
	"go.uber.org/zap"
)

// LoadFailedMessage is what users see when the upstream cannot be reached.
const LoadFailedMessage = "failed to load articles"

// Fetcher is the upstream the service reads from. *fetcher.Client satisfies it.
type Fetcher interface {
	FetchArticles(ctx context.Context, limit int, keyword string) ([]models.Article, error)
	FetchArticle(ctx context.Context, id int64) (*models.Article, error)
}

// Result is one cycle's outcome. Ranked carries the scores behind Articles
// and has the same order.
type Result struct {
	Keyword  string
	Articles []models.Article
	Ranked   []ranking.Ranked
}

type Service struct {
	fetcher  Fetcher
	mode     string
	pageSize int
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

type ServiceConfig struct {
	Mode     string
	PageSize int
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

func NewService(f Fetcher, cfg ServiceConfig) *Service {
	if cfg.Mode == "" {
		cfg.Mode = config.SearchModeLocal
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = fetcher.DefaultPageSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Service{
		fetcher:  f,
		mode:     cfg.Mode,
		pageSize: cfg.PageSize,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Search fetches a page and ranks it against keyword. In remote mode the
// keyword is also sent upstream. A malformed upstream envelope yields an empty
// result and no error; network failures are returned to the caller.
func (s *Service) Search(ctx context.Context, keyword string) (Result, error) {
	return s.SearchLimit(ctx, keyword, s.pageSize)
}

func (s *Service) SearchLimit(ctx context.Context, keyword string, limit int) (Result, error) {
	keyword = strings.TrimSpace(keyword)
	result := Result{Keyword: keyword}

	upstreamKeyword := ""
	if s.mode == config.SearchModeRemote {
		upstreamKeyword = keyword
	}

	records, err := s.fetcher.FetchArticles(ctx, limit, upstreamKeyword)
	if err != nil {
		if fetcher.IsParseError(err) {
			s.logger.Warn("malformed upstream response, showing no articles",
				zap.String("keyword", keyword),
				zap.Error(err),
			)
			s.metrics.ObserveSearch(s.mode, keyword != "", 0)
			result.Articles = []models.Article{}
			result.Ranked = []ranking.Ranked{}
			return result, nil
		}
		if !errors.Is(err, context.Canceled) {
			s.logger.Error(LoadFailedMessage, zap.String("keyword", keyword), zap.Error(err))
		}
		return result, err
	}

	result.Ranked = ranking.Rank(records, keyword)
	result.Articles = ranking.Articles(result.Ranked)
	s.metrics.ObserveSearch(s.mode, keyword != "", len(result.Articles))

	s.logger.Debug("search completed",
		zap.String("keyword", keyword),
		zap.Int("fetched", len(records)),
		zap.Int("shown", len(result.Articles)),
	)

	return result, nil
}

// Article loads one article for the detail page.
func (s *Service) Article(ctx context.Context, id int64) (*models.Article, error) {
	a, err := s.fetcher.FetchArticle(ctx, id)
	if err != nil {
		if !errors.Is(err, fetcher.ErrNotFound) {
			s.logger.Error("failed to load article", zap.Int64("id", id), zap.Error(err))
		}
		return nil, err
	}
	return a, nil
}
