// Package reporter translates registry snapshots into series and sends
// them through a transport, one batch per cycle.
package reporter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/seriesreporter/internal/metric"
	"github.com/ethpandaops/seriesreporter/internal/tags"
)

var (
	// ErrNoTransport is returned by New when no transport is configured.
	ErrNoTransport = errors.New("reporter requires a transport")

	// ErrNoSource is returned by Report when no source is configured.
	ErrNoSource = errors.New("reporter has no metric source")
)

// Stage names the step of a cycle that failed.
type Stage string

const (
	StageNone      Stage = ""
	StageSource    Stage = "source"
	StagePrepare   Stage = "prepare"
	StageTranslate Stage = "translate"
	StageSend      Stage = "send"
)

// Result describes one report cycle.
type Result struct {
	ID        uuid.UUID
	Timestamp int64
	// Metrics is the number of registry metrics in the snapshot.
	Metrics int
	// Gauges and Counters count the points staged on the batch.
	Gauges   int
	Counters int
	Duration time.Duration
	// Stage is where the cycle failed, or StageNone.
	Stage Stage
	Err   error
}

// OK reports whether the batch was sent.
func (r Result) OK() bool {
	return r.Err == nil
}

// Reporter runs report cycles. Cycles share no mutable state; each one
// owns its batch from Prepare to Send.
type Reporter struct {
	log  logrus.FieldLogger
	opts options
}

// New creates a Reporter. It fails with ErrNoTransport when WithTransport
// is not given.
func New(log logrus.FieldLogger, opts ...Option) (*Reporter, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.transport == nil {
		return nil, ErrNoTransport
	}

	return &Reporter{
		log: log.WithFields(logrus.Fields{
			"component": "reporter",
			"transport": o.transport.Name(),
		}),
		opts: o,
	}, nil
}

// Report reads a snapshot from the configured source and runs a cycle.
func (r *Reporter) Report(ctx context.Context) Result {
	if r.opts.source == nil {
		res := Result{ID: uuid.New(), Timestamp: r.opts.clock.Now().Unix(), Stage: StageSource, Err: ErrNoSource}
		r.logResult(res)

		return res
	}

	return r.RunCycle(ctx, r.opts.source.Snapshot(r.opts.filter))
}

// RunCycle translates snap into one batch and sends it. Failures,
// including panics raised by metric implementations, are logged and
// returned in the Result. Nothing is sent when any step before Send
// fails.
func (r *Reporter) RunCycle(ctx context.Context, snap metric.Snapshot) (res Result) {
	start := time.Now()

	res = Result{
		ID:        uuid.New(),
		Timestamp: r.opts.clock.Now().Unix(),
		Metrics:   snap.Len(),
	}

	defer func() {
		if p := recover(); p != nil {
			if res.Stage == StageNone {
				res.Stage = StageTranslate
			}

			res.Err = fmt.Errorf("panic during report: %v", p)
		}

		res.Duration = time.Since(start)
		r.logResult(res)
	}()

	global := r.opts.tags
	if r.opts.dynamicTags != nil {
		global = tags.Merge(global, r.opts.dynamicTags.Tags())
	}

	res.Stage = StagePrepare

	batch, err := r.opts.transport.Prepare(ctx)
	if err != nil {
		res.Err = fmt.Errorf("preparing batch: %w", err)

		return res
	}

	e := &emitter{batch: batch, timestamp: res.Timestamp, host: r.opts.host}

	res.Stage = StageTranslate

	err = r.translate(e, snap, global)

	res.Gauges = e.gauges
	res.Counters = e.counters

	if err != nil {
		res.Err = err

		return res
	}

	res.Stage = StageSend

	if err := batch.Send(ctx); err != nil {
		res.Err = fmt.Errorf("sending batch: %w", err)

		return res
	}

	res.Stage = StageNone

	return res
}

func (r *Reporter) translate(e *emitter, snap metric.Snapshot, global []string) error {
	for _, g := range snap.Gauges {
		if err := r.translateGauge(e, g.Name, g.Metric, global); err != nil {
			return fmt.Errorf("gauge %s: %w", g.Name, err)
		}
	}

	for _, c := range snap.Counters {
		if err := r.translateCounter(e, c.Name, c.Metric, global); err != nil {
			return fmt.Errorf("counter %s: %w", c.Name, err)
		}
	}

	for _, h := range snap.Histograms {
		if err := r.translateHistogram(e, h.Name, h.Metric, global); err != nil {
			return fmt.Errorf("histogram %s: %w", h.Name, err)
		}
	}

	for _, m := range snap.Meters {
		if err := r.translateMeter(e, m.Name, m.Metric, global); err != nil {
			return fmt.Errorf("meter %s: %w", m.Name, err)
		}
	}

	for _, t := range snap.Timers {
		if err := r.translateTimer(e, t.Name, t.Metric, global); err != nil {
			return fmt.Errorf("timer %s: %w", t.Name, err)
		}
	}

	return nil
}

func (r *Reporter) logResult(res Result) {
	fields := logrus.Fields{
		"cycle_id":  res.ID.String(),
		"timestamp": res.Timestamp,
		"metrics":   res.Metrics,
		"gauges":    res.Gauges,
		"counters":  res.Counters,
		"duration":  res.Duration,
	}

	if res.Err != nil {
		r.log.WithFields(fields).
			WithField("stage", string(res.Stage)).
			WithError(res.Err).
			Error("Error reporting metrics")

		return
	}

	r.log.WithFields(fields).Debug("Reported metrics")
}
