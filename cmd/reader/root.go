package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/romangod6/spaceflight-reader/config"
	"github.com/romangod6/spaceflight-reader/internal/display"
	"github.com/romangod6/spaceflight-reader/internal/fetcher"
	"github.com/romangod6/spaceflight-reader/internal/metrics"
	"github.com/romangod6/spaceflight-reader/internal/search"
	"github.com/romangod6/spaceflight-reader/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configFile string
	debug      bool
}

// Execute runs the root command
func Execute() error {
	_ = godotenv.Load()
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "reader",
		Short:         "Browse and search spaceflight news",
		Long:          `Fetches the latest spaceflight news articles, ranks them by keyword and serves them as a web page, a JSON API or terminal tables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is ./config.yaml or ./config/config.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug mode")

	cmd.AddCommand(
		newServeCmd(opts),
		newSearchCmd(opts),
		newShowCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reader version %s\n", version)
		},
	}
}

// deps holds everything a command needs to run fetch-and-rank cycles.
type deps struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	service   *search.Service
	transform *display.Transformer
}

// newDeps loads configuration and wires the fetcher, search service and
// display transform. quiet raises the log level for terminal commands so log
// lines do not interleave with tables.
func newDeps(opts *rootOptions, name string, quiet bool) (*deps, error) {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.debug:
		cfg.Server.Debug = true
		cfg.Logging.Level = "debug"
	case quiet:
		cfg.Logging.Level = "error"
	}

	logger, err := utils.NewLogger(cfg.Logging, name)
	if err != nil {
		return nil, err
	}

	m := metrics.New(prometheus.NewRegistry())

	client := fetcher.NewClient(cfg.Upstream.BaseURL,
		fetcher.WithTimeout(cfg.GetUpstreamTimeout()),
		fetcher.WithRateLimit(cfg.Upstream.RateLimit, cfg.Upstream.Burst),
		fetcher.WithUserAgent(cfg.Upstream.UserAgent),
		fetcher.WithLogger(logger),
		fetcher.WithMetrics(m),
	)

	svc := search.NewService(client, search.ServiceConfig{
		Mode:     cfg.Search.Mode,
		PageSize: cfg.Upstream.PageSize,
		Logger:   logger,
		Metrics:  m,
	})

	return &deps{
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		service:   svc,
		transform: display.FromConfig(cfg),
	}, nil
}
