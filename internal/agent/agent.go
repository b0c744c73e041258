package agent

import (
	"context"
	"fmt"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/seriesreporter/internal/expansion"
	"github.com/ethpandaops/seriesreporter/internal/health"
	"github.com/ethpandaops/seriesreporter/internal/host"
	"github.com/ethpandaops/seriesreporter/internal/registry"
	"github.com/ethpandaops/seriesreporter/internal/reporter"
	"github.com/ethpandaops/seriesreporter/internal/scheduler"
	"github.com/ethpandaops/seriesreporter/internal/tags"
	"github.com/ethpandaops/seriesreporter/internal/transport"
)

// stopTimeout bounds how long Stop waits for a running cycle and for the
// final flush.
const stopTimeout = 30 * time.Second

// Agent periodically reports a metrics registry through a transport.
type Agent interface {
	// Start builds all components and begins reporting.
	Start(ctx context.Context) error
	// Stop shuts down all components gracefully.
	Stop() error
	// Registry returns the registry being reported.
	Registry() metrics.Registry
}

type agent struct {
	log      logrus.FieldLogger
	cfg      *Config
	health   *health.Metrics
	registry *registry.Registry

	transport transport.Transport
	reporter  *reporter.Reporter
	scheduler *scheduler.Scheduler
	fileTags  *tags.FileProvider
}

// New creates a new Agent reporting reg. A nil reg reports
// metrics.DefaultRegistry.
func New(log logrus.FieldLogger, cfg *Config, reg metrics.Registry) (Agent, error) {
	sched, err := scheduler.New(log, cfg.Interval, cfg.Schedule)
	if err != nil {
		return nil, err
	}

	a := &agent{
		log:       log.WithField("component", "agent"),
		cfg:       cfg,
		health:    health.New(log, cfg.Health),
		registry:  registry.New(reg),
		scheduler: sched,
	}

	if cfg.RuntimeMetrics {
		a.registry.EnableRuntimeStats()
	}

	return a, nil
}

func (a *agent) Registry() metrics.Registry {
	return a.registry.Registry()
}

func (a *agent) Start(ctx context.Context) error {
	// 1. Start health metrics server.
	if !a.cfg.Health.Disabled {
		if err := a.health.Start(ctx); err != nil {
			return fmt.Errorf("starting health metrics: %w", err)
		}
	}

	// 2. Resolve the host label.
	hostname, err := host.Resolve(ctx, a.log, a.cfg.Host)
	if err != nil {
		return err
	}

	// 3. Build the reporter options from config.
	opts, err := a.reporterOptions(ctx, hostname)
	if err != nil {
		return err
	}

	// 4. Connect the transport.
	a.transport, err = newTransport(ctx, a.log, a.cfg.Transport)
	if err != nil {
		return fmt.Errorf("creating %s transport: %w", a.cfg.Transport.Type, err)
	}

	a.health.TransportInfo.WithLabelValues(a.transport.Name()).Set(1)

	a.reporter, err = reporter.New(a.log, append(opts, reporter.WithTransport(a.transport))...)
	if err != nil {
		return fmt.Errorf("creating reporter: %w", err)
	}

	// 5. Start reporting.
	if err := a.scheduler.Start(ctx, a.report); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"transport": a.transport.Name(),
		"schedule":  a.scheduler.Spec(),
		"host":      hostname,
	}).Info("Reporter started")

	return nil
}

func (a *agent) reporterOptions(ctx context.Context, hostname string) ([]reporter.Option, error) {
	set, err := expansion.Parse(a.cfg.Expansions)
	if err != nil {
		return nil, err
	}

	rateUnit, err := reporter.ParseUnit(a.cfg.RateUnit)
	if err != nil {
		return nil, err
	}

	durationUnit, err := reporter.ParseUnit(a.cfg.DurationUnit)
	if err != nil {
		return nil, err
	}

	filter, err := registry.GlobFilter(a.cfg.Filter.Include, a.cfg.Filter.Exclude)
	if err != nil {
		return nil, err
	}

	opts := []reporter.Option{
		reporter.WithSource(a.registry),
		reporter.WithHost(hostname),
		reporter.WithExpansions(set),
		reporter.WithRateUnit(rateUnit),
		reporter.WithDurationUnit(durationUnit),
		reporter.WithTags(a.cfg.Tags...),
		reporter.WithPrefix(a.cfg.Prefix),
		reporter.WithFilter(filter),
	}

	var providers []tags.Provider

	if a.cfg.DynamicTags.System {
		sys, err := tags.NewSystemProvider(ctx)
		if err != nil {
			return nil, err
		}

		providers = append(providers, sys)
	}

	if a.cfg.DynamicTags.File != "" {
		fp, err := tags.NewFileProvider(a.log, a.cfg.DynamicTags.File)
		if err != nil {
			return nil, err
		}

		if err := fp.Start(ctx); err != nil {
			return nil, err
		}

		a.fileTags = fp
		providers = append(providers, fp)
	}

	if len(providers) > 0 {
		opts = append(opts, reporter.WithDynamicTags(tags.Multi(providers...)))
	}

	return opts, nil
}

// report is the scheduled job.
func (a *agent) report(ctx context.Context) {
	a.health.Observe(a.reporter.Report(ctx))
}

func (a *agent) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	// Stop in reverse order.
	a.scheduler.Stop(ctx)

	if a.reporter != nil && a.cfg.ShouldFlushOnStop() {
		a.log.Info("Reporting final cycle")
		a.report(ctx)
	}

	if a.transport != nil {
		if err := a.transport.Close(); err != nil {
			a.log.WithError(err).Warn("Error closing transport")
		}
	}

	if a.fileTags != nil {
		if err := a.fileTags.Stop(); err != nil {
			a.log.WithError(err).Warn("Error stopping tag file watcher")
		}
	}

	if err := a.health.Stop(); err != nil {
		a.log.WithError(err).Warn("Error stopping health server")
	}

	a.log.Info("Reporter stopped")

	return nil
}
