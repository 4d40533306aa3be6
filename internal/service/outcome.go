// Package service runs the fetch and rescale batches over the asset directory.
package service

import (
	"errors"
	"image"
	"log/slog"

	"github.com/google/uuid"
	"github.com/raphaelgruber/skinsync/internal/assets"
)

// ErrSourceDir is the only fatal error: the rescale source directory is missing.
var ErrSourceDir = errors.New("source directory not found")

// Outcome classifies how one item of a batch ended.
type Outcome string

const (
	OutcomeSaved     Outcome = "saved"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeTransport Outcome = "transport"
	OutcomeCodec     Outcome = "codec"
	OutcomeStorage   Outcome = "storage"
)

// ItemResult is the record of one entity (fetch) or one file (rescale).
type ItemResult struct {
	Name       string
	Outcome    Outcome
	URL        string
	Path       string
	BackupPath string

	// Rescale only.
	From, To image.Point
	Mode     assets.Mode

	Err error
}

// OK reports whether the item succeeded.
func (r ItemResult) OK() bool { return r.Outcome == OutcomeSaved }

// Result summarizes a batch.
type Result struct {
	RunID     string
	Total     int
	Succeeded int
	Items     []ItemResult
}

// Count returns how many items ended with outcome o.
func (r *Result) Count(o Outcome) int {
	n := 0
	for _, it := range r.Items {
		if it.Outcome == o {
			n++
		}
	}
	return n
}

func (r *Result) add(it ItemResult) {
	r.Items = append(r.Items, it)
	if it.OK() {
		r.Succeeded++
	}
}

// Reporter receives per-item progress. index is 1-based.
type Reporter interface {
	ItemStarted(index, total int, name string)
	ItemFinished(index, total int, item ItemResult)
}

type nopReporter struct{}

func (nopReporter) ItemStarted(int, int, string) {}

func (nopReporter) ItemFinished(int, int, ItemResult) {}

func newRunID() string {
	return uuid.New().String()[:8]
}

// storeOutcome separates encode failures from filesystem failures.
func storeOutcome(err error) Outcome {
	var ce *assets.CodecError
	if errors.As(err, &ce) {
		return OutcomeCodec
	}
	return OutcomeStorage
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
