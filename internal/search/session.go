package search

import (
	"context"
	"sync"
	"time"

	"github.com/romangod6/spaceflight-reader/internal/metrics"
	"github.com/romangod6/spaceflight-reader/internal/models"
	"go.uber.org/zap"
)

const DefaultDebounce = 300 * time.Millisecond

// Searcher runs one fetch-and-rank cycle. Service.Search satisfies it.
type Searcher func(ctx context.Context, keyword string) (Result, error)

// Update is the outcome of the newest cycle. Articles is nil when Err is set,
// which tells the caller to clear its list.
type Update struct {
	Generation uint64
	Keyword    string
	Articles   []models.Article
	Err        error
}

type ApplyFunc func(Update)

// Session debounces keyword changes and applies only the newest cycle's
// result. Every Submit or Retry starts a new generation, stops the pending
// timer and cancels the in-flight search; a result whose generation is no
// longer current when it arrives is dropped.
//
// apply is called with the session lock held, so updates arrive strictly in
// generation order. It must not call back into the Session.
type Session struct {
	search   Searcher
	apply    ApplyFunc
	debounce time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics

	ctx        context.Context
	stop       context.CancelFunc
	mu         sync.Mutex
	generation uint64
	keyword    string
	timer      *time.Timer
	cancel     context.CancelFunc
	closed     bool
}

type SessionOption func(*Session)

func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithSessionMetrics(m *metrics.Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

func NewSession(search Searcher, apply ApplyFunc, opts ...SessionOption) *Session {
	ctx, stop := context.WithCancel(context.Background())
	s := &Session{
		search:   search,
		apply:    apply,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		ctx:      ctx,
		stop:     stop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit schedules a search for keyword after the debounce window and
// returns its generation.
func (s *Session) Submit(keyword string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(keyword, s.debounce)
}

// Retry re-runs the last submitted keyword immediately.
func (s *Session) Retry() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(s.keyword, 0)
}

// Generation returns the newest generation issued.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Close stops the pending timer and cancels any in-flight search. Nothing is
// applied after Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.haltLocked()
	s.stop()
}

func (s *Session) scheduleLocked(keyword string, delay time.Duration) uint64 {
	if s.closed {
		return s.generation
	}

	s.generation++
	gen := s.generation
	s.keyword = keyword
	s.haltLocked()

	s.timer = time.AfterFunc(delay, func() {
		s.run(gen, keyword)
	})
	return gen
}

func (s *Session) haltLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) run(gen uint64, keyword string) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	result, err := s.search(ctx, keyword)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		s.metrics.Superseded()
		s.logger.Debug("discarding superseded search",
			zap.Uint64("generation", gen),
			zap.Uint64("current", s.generation),
			zap.String("keyword", keyword),
		)
		return
	}

	update := Update{Generation: gen, Keyword: keyword}
	if err != nil {
		update.Err = err
	} else {
		update.Articles = result.Articles
	}
	s.apply(update)
}
