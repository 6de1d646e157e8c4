package common

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/blog-pulse/models"
	"github.com/dtnitsch/blog-pulse/pkg/caching"
	"github.com/dtnitsch/blog-pulse/pkg/clock"
	"github.com/dtnitsch/blog-pulse/pkg/counter"
	"github.com/dtnitsch/blog-pulse/pkg/fetcher"
	"github.com/dtnitsch/blog-pulse/pkg/scraper"
	"github.com/dtnitsch/blog-pulse/pkg/views"
)

// Exit codes shared by every command.
const (
	ExitUsage   = 1
	ExitRuntime = 2
)

// Runtime holds what every command needs: config, logger and the cache.
type Runtime struct {
	Config *models.Config
	Logger zerolog.Logger
	Store  caching.Store
	Cache  *caching.TTLCache
	Clock  clock.Clock

	closers []io.Closer
}

// Setup loads the config named by --config, applies --log-level, builds the
// logger (quiet when --quiet) and opens the cache store.
func Setup(c *cli.Context) (*Runtime, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, cli.Exit(err.Error(), ExitUsage)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return NewRuntime(cfg, c.App.ErrWriter, c.Bool("quiet"))
}

// NewRuntime builds a Runtime from an already loaded config.
func NewRuntime(cfg *models.Config, stderr io.Writer, quiet bool) (*Runtime, error) {
	logger, logCloser := NewLogger(cfg.Log, stderr, quiet)

	store, storeCloser, err := OpenStore(cfg.Cache)
	if err != nil {
		_ = logCloser.Close()
		return nil, cli.Exit(fmt.Sprintf("failed to open cache: %v", err), ExitRuntime)
	}

	clk := clock.Real{}
	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Cache:   caching.NewTTLCache(store, clk, logger),
		Clock:   clk,
		closers: []io.Closer{storeCloser, logCloser},
	}, nil
}

// Close releases the store and flushes the log file.
func (r *Runtime) Close() {
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			r.Logger.Warn().Err(err).Msg("Failed to close resource")
		}
	}
}

// NewCounter returns a counting-service client configured from Views.
func (r *Runtime) NewCounter() *counter.Client {
	vc := r.Config.Views
	f := fetcher.NewFetcher(fetcher.Options{
		Timeout: vc.RequestTimeout,
		Accept:  "application/json",
	})
	return counter.NewClient(counter.Config{
		BaseURL:     vc.BaseURL,
		CountType:   vc.CountType,
		Lang:        vc.Lang,
		BaseBackoff: vc.BaseBackoff,
		MaxBackoff:  vc.MaxBackoff,
	}, f, r.Clock, r.Logger)
}

// NewAggregator wires an Aggregator to obs. A non-nil contentPaths replaces
// the cached and fallback content path lists.
func (r *Runtime) NewAggregator(obs views.Observer, contentPaths []string) *views.Aggregator {
	vc := r.Config.Views
	return views.New(r.NewCounter(), r.Cache, obs, views.Options{
		MainPaths:            vc.MainPaths,
		FallbackContentPaths: vc.FallbackContentPaths,
		InjectedContentPaths: contentPaths,
		Workers:              vc.Workers,
		Retries:              vc.Retries,
		MinBatchSize:         vc.MinBatchSize,
		MaxBatchSize:         vc.MaxBatchSize,
		BatchInterval:        vc.BatchInterval,
	}, r.Logger)
}

// NewScraper returns a link-preview scraper configured from Scraper.
func (r *Runtime) NewScraper() (*scraper.Scraper, error) {
	sc := r.Config.Scraper
	f := fetcher.NewFetcher(fetcher.Options{
		Timeout:   sc.RequestTimeout,
		UserAgent: sc.UserAgent,
		MaxBytes:  sc.MaxScanBytes,
		Accept:    "text/html,application/xhtml+xml",
	})
	return scraper.New(f, scraper.Options{
		CacheSize:      sc.CacheSize,
		MaxHeadChars:   sc.MaxHeadChars,
		MaxScanBytes:   sc.MaxScanBytes,
		DetectLanguage: sc.DetectLanguage,
		Languages:      sc.Languages,
	}, r.Logger)
}
