// Package transport defines the boundary between the reporter and the
// backends that receive series.
package transport

import (
	"context"
	"errors"

	"github.com/ethpandaops/seriesreporter/internal/series"
)

// ErrBatchSent is returned when a batch is used after Send.
var ErrBatchSent = errors.New("batch already sent")

// Transport opens one Batch per report cycle.
type Transport interface {
	// Name identifies the transport in logs and metrics.
	Name() string
	// Prepare opens a new, empty batch.
	Prepare(ctx context.Context) (Batch, error)
	// Close releases the transport's resources.
	Close() error
}

// Batch collects the series of one report cycle. It is used by a single
// goroutine and discarded after Send, whatever its outcome.
type Batch interface {
	AddGauge(g series.Gauge) error
	AddCounter(c series.Counter) error
	// Send delivers everything added so far. It is called at most once.
	Send(ctx context.Context) error
}
