package api

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/romangod6/spaceflight-reader/config"
	"github.com/romangod6/spaceflight-reader/internal/display"
	"github.com/romangod6/spaceflight-reader/internal/metrics"
	"github.com/romangod6/spaceflight-reader/internal/ranking"
	"github.com/romangod6/spaceflight-reader/internal/search"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type Server struct {
	router *gin.Engine
	port   int
	server *http.Server
	logger *zap.Logger
}

func NewServer(cfg *config.Config, svc *search.Service, m *metrics.Metrics, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	router.Use(
		RequestID(),
		Logger(logger),
		Recovery(logger, cfg.Server.Debug),
	)

	origins := cfg.Server.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	handler := NewHandler(svc, display.FromConfig(cfg), cfg.Upstream.PageSize, cfg.Server.Prefetch)

	router.GET("/", handler.ListPage)
	router.GET("/article/:id", handler.ArticlePage)

	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)

		articles := api.Group("/articles")
		{
			articles.GET("", handler.ListArticles)
			articles.GET("/:id", handler.GetArticle)
		}
	}

	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	return &Server{
		router: router,
		port:   cfg.Server.Port,
		logger: logger,
	}, nil
}

func loadTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		// Highlight escapes its input before adding spans.
		"highlight": func(text, keyword string) template.HTML {
			return template.HTML(ranking.Highlight(text, keyword)) //nolint:gosec
		},
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", zap.Int("port", s.port))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
