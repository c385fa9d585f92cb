package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/romangod6/spaceflight-reader/internal/display"
	"github.com/romangod6/spaceflight-reader/internal/fetcher"
	"github.com/romangod6/spaceflight-reader/internal/models"
	"github.com/romangod6/spaceflight-reader/internal/search"
)

const maxLimit = 100

type Handler struct {
	search   *search.Service
	display  *display.Transformer
	pageSize int
	prefetch bool
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ScoredArticle is a list entry with its composite rank score. Score is 0
// for every entry when no keyword was given.
type ScoredArticle struct {
	models.DisplayArticle
	Score int `json:"score"`
}

type ArticlesResponse struct {
	Articles []ScoredArticle `json:"articles"`
	Keyword  string          `json:"keyword"`
	Count    int             `json:"count"`
}

type listPage struct {
	Keyword  string
	Articles []models.DisplayArticle
	Error    string
	Shell    bool
}

type articlePage struct {
	Article *models.DisplayArticle
	Error   string
}

func NewHandler(svc *search.Service, tr *display.Transformer, pageSize int, prefetch bool) *Handler {
	if pageSize < 1 {
		pageSize = fetcher.DefaultPageSize
	}
	return &Handler{
		search:   svc,
		display:  tr,
		pageSize: pageSize,
		prefetch: prefetch,
	}
}

// ListPage renders the article cards. With prefetch disabled the first visit
// without a keyword gets the page shell only.
func (h *Handler) ListPage(c *gin.Context) {
	keyword := c.Query("q")

	if !h.prefetch && keyword == "" {
		c.HTML(http.StatusOK, "list.tmpl", listPage{Shell: true})
		return
	}

	result, err := h.search.Search(c.Request.Context(), keyword)
	if err != nil {
		_ = c.Error(err)
		c.HTML(http.StatusBadGateway, "list.tmpl", listPage{
			Keyword: result.Keyword,
			Error:   search.LoadFailedMessage,
		})
		return
	}

	c.HTML(http.StatusOK, "list.tmpl", listPage{
		Keyword:  result.Keyword,
		Articles: h.display.TransformAll(result.Articles),
	})
}

func (h *Handler) ArticlePage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.HTML(http.StatusBadRequest, "article.tmpl", articlePage{Error: "Invalid article ID"})
		return
	}

	article, err := h.search.Article(c.Request.Context(), id)
	if err != nil {
		status, msg := articleError(err)
		_ = c.Error(err)
		c.HTML(status, "article.tmpl", articlePage{Error: msg})
		return
	}

	d := h.display.Transform(*article)
	c.HTML(http.StatusOK, "article.tmpl", articlePage{Article: &d})
}

func (h *Handler) ListArticles(c *gin.Context) {
	limit := h.getLimit(c)

	result, err := h.search.SearchLimit(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: search.LoadFailedMessage})
		return
	}

	articles := make([]ScoredArticle, len(result.Ranked))
	for i, r := range result.Ranked {
		articles[i] = ScoredArticle{
			DisplayArticle: h.display.Transform(r.Article),
			Score:          r.Score,
		}
	}

	c.JSON(http.StatusOK, ArticlesResponse{
		Articles: articles,
		Keyword:  result.Keyword,
		Count:    len(articles),
	})
}

func (h *Handler) GetArticle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid article ID"})
		return
	}

	article, err := h.search.Article(c.Request.Context(), id)
	if err != nil {
		status, msg := articleError(err)
		_ = c.Error(err)
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	c.JSON(http.StatusOK, h.display.Transform(*article))
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func articleError(err error) (int, string) {
	switch {
	case errors.Is(err, fetcher.ErrNotFound):
		return http.StatusNotFound, "Article not found"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Request cancelled"
	default:
		return http.StatusBadGateway, "failed to load article"
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// getLimit reads ?limit, falling back to the page size and clamping to
// [1, maxLimit].
func (h *Handler) getLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return h.pageSize
	}
	if limit < 1 {
		return 1
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
