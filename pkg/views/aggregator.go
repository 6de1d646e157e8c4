// Package views aggregates pageview counts for the site's main pages and all
// of its content pages into a single total, caching the result and reporting
// progress to an Observer.
package views

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/dtnitsch/blog-pulse/models"
	"github.com/dtnitsch/blog-pulse/pkg/caching"
	"github.com/dtnitsch/blog-pulse/pkg/mapreduce"
)

// Progress checkpoints. Purely cosmetic.
const (
	progressStarted       = 5
	progressPathsResolved = 30
	progressMainDone      = 50
	progressContentDone   = 95
	progressDone          = 100
)

// Counter fetches counts for one batch of paths. *counter.Client satisfies it.
type Counter interface {
	FetchCounts(ctx context.Context, paths []string, retries int) models.AggregationResult
}

// Options tunes an Aggregator. Zero values fall back to defaults.
type Options struct {
	MainPaths            []string
	FallbackContentPaths []string
	// InjectedContentPaths, when non-nil, is used verbatim as the content path list.
	InjectedContentPaths []string
	Workers              int
	Retries              int
	MinBatchSize         int
	MaxBatchSize         int
	// BatchInterval spaces out batch requests; 0 disables pacing.
	BatchInterval time.Duration
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = 3
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.MinBatchSize <= 0 {
		o.MinBatchSize = 10
	}
	if o.MaxBatchSize < o.MinBatchSize {
		o.MaxBatchSize = o.MinBatchSize
	}
}

// Aggregator computes the site-wide view total. It is safe for concurrent
// use; overlapping LoadTotal calls are rejected rather than queued.
type Aggregator struct {
	opts     Options
	counter  Counter
	cache    *caching.TTLCache
	observer Observer
	logger   zerolog.Logger
	running  atomic.Bool
}

func New(c Counter, cache *caching.TTLCache, observer Observer, opts Options, logger zerolog.Logger) *Aggregator {
	opts.applyDefaults()
	return &Aggregator{
		opts:     opts,
		counter:  c,
		cache:    cache,
		observer: observer,
		logger:   logger.With().Str("component", "views").Logger(),
	}
}

// ResolveContentPaths returns the content path list: the injected list if
// one was given, else a cached list younger than 24h (unless forceRefresh),
// else the static fallback, which is then cached.
func (a *Aggregator) ResolveContentPaths(forceRefresh bool) []string {
	if a.opts.InjectedContentPaths != nil {
		return append([]string(nil), a.opts.InjectedContentPaths...)
	}

	if !forceRefresh {
		var cached []string
		if a.cache.Get(caching.ContentPathsKey, caching.ContentPathsTTL, &cached) {
			a.logger.Debug().Int("paths", len(cached)).Msg("Content paths served from cache")
			return cached
		}
	}

	fallback := append([]string{}, a.opts.FallbackContentPaths...)
	a.cache.Set(caching.ContentPathsKey, fallback)
	a.logger.Debug().Int("paths", len(fallback)).Msg("Content paths taken from fallback list")
	return fallback
}

// LoadTotal fetches, aggregates and reports the site-wide total. It never
// returns an error; the returned Outcome and the Observer callbacks describe
// what happened.
func (a *Aggregator) LoadTotal(ctx context.Context, forceRefresh bool) models.Outcome {
	obs := a.observer
	if obs == nil || !obs.IsReady() {
		return models.Outcome{Status: models.StatusSkipped}
	}
	if !a.running.CompareAndSwap(false, true) {
		a.logger.Debug().Msg("Aggregation already in flight, ignoring call")
		return models.Outcome{Status: models.StatusBusy}
	}
	defer a.running.Store(false)

	if !forceRefresh {
		var summary models.Summary
		if a.cache.Get(caching.SummaryKey, caching.SummaryTTL, &summary) {
			a.logger.Info().Int("total", summary.Total).Msg("Serving cached view total")
			obs.OnComplete(summary.Total)
			return models.Outcome{Status: models.StatusCached, Total: summary.Total}
		}
	}

	startTime := time.Now()
	obs.OnStart()
	obs.OnProgress(progressStarted, 0)

	contentPaths := a.ResolveContentPaths(forceRefresh)
	obs.OnProgress(progressPathsResolved, 0)

	mainPaths := models.UnionPaths(a.opts.MainPaths)
	all := models.UnionPaths(mainPaths, contentPaths)
	rest := all[len(mainPaths):]

	a.logger.Info().
		Int("main_paths", len(mainPaths)).
		Int("content_paths", len(rest)).
		Bool("force_refresh", forceRefresh).
		Msg("Starting view aggregation")

	mainCounts, ok := a.fetchMain(ctx, mainPaths)
	if !ok {
		return a.fallBackToStale(obs)
	}
	running := mapreduce.Sum(mainCounts)
	obs.OnProgress(progressMainDone, running)

	batches := PartitionBatches(rest, a.opts.MinBatchSize, a.opts.MaxBatchSize, a.opts.Workers)
	perPath := []map[string]int{mainCounts}
	failures := 0
	done := 0

	for res := range a.runBatches(ctx, batches) {
		done++
		if res.Success {
			perPath = append(perPath, res.PerPath)
			running += res.Total
		} else {
			failures++
		}
		percent := progressMainDone + (progressContentDone-progressMainDone)*done/len(batches)
		obs.OnProgress(percent, running)
	}

	merged := mapreduce.Reduce(perPath)
	total := mapreduce.Sum(merged)
	obs.OnProgress(progressDone, total)

	logEvent := a.logger.Info()
	if failures > 0 {
		logEvent = a.logger.Warn()
	}
	logEvent.
		Int("total", total).
		Int("batches", len(batches)).
		Int("failed_batches", failures).
		Dur("elapsed", time.Since(startTime)).
		Msg("View aggregation finished")

	if failures > 0 {
		// A partial total would undercount; keep it out of the cache.
		obs.OnPartial(total, failures)
		return models.Outcome{Status: models.StatusPartial, Total: total, Failures: failures, PerPath: merged}
	}

	a.cache.Set(caching.SummaryKey, models.Summary{Total: total, Home: merged["/"]})
	obs.OnComplete(total)
	return models.Outcome{Status: models.StatusComplete, Total: total, PerPath: merged}
}

// fetchMain counts the main paths; they are required for any fresh total.
func (a *Aggregator) fetchMain(ctx context.Context, mainPaths []string) (map[string]int, bool) {
	counts := make(map[string]int, len(mainPaths))
	for _, batch := range PartitionBatches(mainPaths, a.opts.MaxBatchSize, a.opts.MaxBatchSize, 1) {
		res := a.counter.FetchCounts(ctx, batch.Paths, a.opts.Retries)
		if !res.Success {
			a.logger.Error().Int("paths", len(batch.Paths)).Msg("Main path counts unavailable")
			return nil, false
		}
		for p, n := range res.PerPath {
			counts[p] += n
		}
	}
	return counts, true
}

func (a *Aggregator) fallBackToStale(obs Observer) models.Outcome {
	var summary models.Summary
	if a.cache.Get(caching.SummaryKey, caching.StaleWindow, &summary) {
		a.logger.Warn().Int("total", summary.Total).Msg("Showing stale view total")
		obs.OnComplete(summary.Total)
		return models.Outcome{Status: models.StatusStale, Total: summary.Total}
	}
	obs.OnError()
	return models.Outcome{Status: models.StatusFailed}
}

// runBatches drains batches with a fixed pool of workers. The returned
// channel is closed once every batch has been reported.
func (a *Aggregator) runBatches(ctx context.Context, batches []models.BatchJob) <-chan models.AggregationResult {
	jobs := make(chan models.BatchJob, len(batches))
	results := make(chan models.AggregationResult, len(batches))

	limiter := rate.NewLimiter(rate.Inf, 0)
	if a.opts.BatchInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(a.opts.BatchInterval), 1)
	}

	var wg sync.WaitGroup
	for w := 1; w <= a.opts.Workers; w++ {
		wg.Add(1)
		go a.worker(ctx, w, limiter, &wg, jobs, results)
	}

	for _, b := range batches {
		jobs <- b
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

func (a *Aggregator) worker(ctx context.Context, id int, limiter *rate.Limiter, wg *sync.WaitGroup, jobs <-chan models.BatchJob, results chan<- models.AggregationResult) {
	defer wg.Done()
	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			a.logger.Warn().Int("worker_id", id).Int("batch", job.Index).Err(err).Msg("Batch abandoned")
			results <- models.AggregationResult{Error: &models.ErrorInfo{Type: "canceled", Message: err.Error()}}
			continue
		}
		a.logger.Debug().Int("worker_id", id).Int("batch", job.Index).Int("paths", len(job.Paths)).Msg("Worker started batch")
		results <- a.counter.FetchCounts(ctx, job.Paths, a.opts.Retries)
	}
}
