package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/skinsync/internal/assets"
	"github.com/raphaelgruber/skinsync/internal/catalog"
	"github.com/raphaelgruber/skinsync/internal/metrics"
	"github.com/raphaelgruber/skinsync/internal/wiki"
)

// DefaultThrottle is the minimum quiet period between one entity's last
// remote call and the next entity's first.
const DefaultThrottle = 800 * time.Millisecond

// Resolver maps an entity name to the URL of its canonical asset.
// It returns wiki.ErrNotFound when the entity has none.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// Fetcher downloads the bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// FetchOptions configures a FetchService.
type FetchOptions struct {
	// Throttle is the minimum delay between the end of one entity and the
	// start of the next. Zero disables it.
	Throttle time.Duration
	// Backup moves an existing file to <name>.bak before it is replaced.
	Backup   bool
	Reporter Reporter
	Logger   *slog.Logger
	Metrics  *metrics.Collector
}

// FetchService resolves, downloads, normalizes and stores one asset per
// catalog entity, sequentially.
type FetchService struct {
	resolver Resolver
	fetcher  Fetcher
	store    *assets.Store
	pace     *pacer
	backup   bool
	reporter Reporter
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewFetchService creates a FetchService.
func NewFetchService(resolver Resolver, fetcher Fetcher, store *assets.Store, opts FetchOptions) *FetchService {
	s := &FetchService{
		resolver: resolver,
		fetcher:  fetcher,
		store:    store,
		pace:     newPacer(opts.Throttle),
		backup:   opts.Backup,
		reporter: opts.Reporter,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if s.reporter == nil {
		s.reporter = nopReporter{}
	}
	if s.logger == nil {
		s.logger = discardLogger()
	}
	if s.metrics == nil {
		s.metrics = metrics.NewCollector()
	}
	return s
}

// Run processes every entity of cat in order. Per-entity failures are
// recorded in the result and never stop the batch; files already written
// stay written. The returned error is non-nil only if ctx ends the run early.
func (s *FetchService) Run(ctx context.Context, cat catalog.Catalog) (*Result, error) {
	res := &Result{RunID: newRunID(), Total: len(cat)}
	logger := s.logger.With("run_id", res.RunID)
	logger.Info("fetch started", "entities", len(cat), "dest", s.store.Dir(), "backup", s.backup)

	for i, e := range cat {
		if err := s.pace.wait(ctx); err != nil {
			return res, fmt.Errorf("throttle: %w", err)
		}

		s.reporter.ItemStarted(i+1, res.Total, e.Name)
		item := s.fetchOne(ctx, e)
		s.pace.mark()
		res.add(item)
		s.reporter.ItemFinished(i+1, res.Total, item)

		if item.Err != nil {
			level := slog.LevelWarn
			if item.Outcome == OutcomeNotFound {
				level = slog.LevelInfo
			}
			logger.Log(ctx, level, "entity skipped",
				"entity", e.Name, "outcome", item.Outcome, "error", item.Err)
		} else {
			logger.Debug("entity saved", "entity", e.Name, "path", item.Path, "url", item.URL)
		}
	}

	logger.Info("fetch finished",
		"succeeded", res.Succeeded, "total", res.Total, "metrics", s.metrics.Snapshot())
	return res, nil
}

func (s *FetchService) fetchOne(ctx context.Context, e catalog.Entity) ItemResult {
	item := ItemResult{Name: e.Name}

	var url string
	err := s.metrics.Time(metrics.OpResolve, func() error {
		var err error
		url, err = s.resolver.Resolve(ctx, e.Name)
		return err
	})
	if err != nil {
		item.Err = err
		if errors.Is(err, wiki.ErrNotFound) {
			item.Outcome = OutcomeNotFound
		} else {
			item.Outcome = OutcomeTransport
		}
		return item
	}
	item.URL = url

	var data []byte
	err = s.metrics.Time(metrics.OpDownload, func() error {
		var err error
		data, err = s.fetcher.Fetch(ctx, url)
		return err
	})
	if err != nil {
		item.Outcome, item.Err = OutcomeTransport, err
		return item
	}

	decoded, err := assets.Decode(data)
	if err != nil {
		item.Outcome, item.Err = OutcomeCodec, err
		return item
	}

	var put assets.PutResult
	err = s.metrics.Time(metrics.OpStore, func() error {
		var err error
		put, err = s.store.Put(e.Filename(), assets.ToNRGBA(decoded.Image), s.backup)
		return err
	})
	item.Path, item.BackupPath = put.Path, put.BackupPath
	if err != nil {
		item.Outcome, item.Err = storeOutcome(err), err
		return item
	}

	item.Outcome = OutcomeSaved
	return item
}
