package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/raphaelgruber/skinsync/internal/assets"
	"github.com/raphaelgruber/skinsync/internal/metrics"
)

// DefaultWidth is the display width every character image is scaled to.
const DefaultWidth = 376

// RescaleOptions configures a RescaleService.
type RescaleOptions struct {
	Reporter Reporter
	Logger   *slog.Logger
	Metrics  *metrics.Collector
}

// RescaleService rewrites every PNG of a directory at a fixed width.
type RescaleService struct {
	store    *assets.Store
	width    int
	reporter Reporter
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewRescaleService opens dir, which must exist, for rescaling to width.
// A missing directory yields ErrSourceDir.
func NewRescaleService(dir string, width int, opts RescaleOptions) (*RescaleService, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid width %d", width)
	}

	store, err := assets.OpenExisting(dir)
	if err != nil {
		if errors.Is(err, assets.ErrNoDirectory) {
			return nil, fmt.Errorf("%w: %s", ErrSourceDir, dir)
		}
		return nil, err
	}

	s := &RescaleService{
		store:    store,
		width:    width,
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
	return s, nil
}

// Dir returns the directory being rescaled.
func (s *RescaleService) Dir() string { return s.store.Dir() }

// Width returns the target width.
func (s *RescaleService) Width() int { return s.width }

// Files returns the PNG files that Run will process, in order.
func (s *RescaleService) Files() ([]string, error) {
	return s.store.ListPNG()
}

// Run rescales each PNG file in sorted filename order, overwriting it in
// place without a backup. A failure on one file does not stop the others.
func (s *RescaleService) Run(ctx context.Context) (*Result, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: newRunID(), Total: len(files)}
	logger := s.logger.With("run_id", res.RunID)
	logger.Info("rescale started", "files", len(files), "dir", s.store.Dir(), "width", s.width)

	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		s.reporter.ItemStarted(i+1, res.Total, name)
		var item ItemResult
		_ = s.metrics.Time(metrics.OpRescale, func() error {
			item = s.rescaleOne(name)
			return item.Err
		})
		res.add(item)
		s.reporter.ItemFinished(i+1, res.Total, item)

		if item.Err != nil {
			logger.Warn("rescale failed", "file", name, "outcome", item.Outcome, "error", item.Err)
		} else {
			logger.Debug("rescaled", "file", name, "from", item.From, "to", item.To, "mode", item.Mode)
		}
	}

	logger.Info("rescale finished",
		"succeeded", res.Succeeded, "total", res.Total, "metrics", s.metrics.Snapshot())
	return res, nil
}

func (s *RescaleService) rescaleOne(name string) ItemResult {
	item := ItemResult{Name: name, Path: s.store.Path(name)}

	data, err := s.store.Read(name)
	if err != nil {
		item.Outcome, item.Err = OutcomeStorage, err
		return item
	}

	decoded, err := assets.Decode(data)
	if err != nil {
		item.Outcome, item.Err = OutcomeCodec, err
		return item
	}
	b := decoded.Image.Bounds()
	item.From = image.Pt(b.Dx(), b.Dy())
	item.Mode = decoded.Mode

	out, err := assets.Rescale(decoded.Image, item.Mode, s.width)
	if err != nil {
		item.Outcome, item.Err = OutcomeCodec, &assets.CodecError{Op: "resize", Err: err}
		return item
	}
	item.To = image.Pt(out.Bounds().Dx(), out.Bounds().Dy())

	if err := s.store.Replace(name, out, item.Mode); err != nil {
		item.Outcome, item.Err = storeOutcome(err), err
		return item
	}

	item.Outcome = OutcomeSaved
	return item
}
