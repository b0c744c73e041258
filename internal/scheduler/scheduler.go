// Package scheduler runs the report job on a fixed interval or a cron
// schedule, never overlapping two runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is run on every tick. The context is cancelled when the scheduler
// stops.
type Job func(ctx context.Context)

// Scheduler triggers a Job. A tick that fires while the previous run is
// still in progress is skipped.
type Scheduler struct {
	log      logrus.FieldLogger
	schedule cron.Schedule
	spec     string
	cron     *cron.Cron

	mu      sync.Mutex
	entry   cron.EntryID
	cancel  context.CancelFunc
	running bool
}

// New creates a Scheduler. A non-empty schedule is parsed as a standard
// cron expression (including descriptors such as "@hourly") and takes
// precedence over interval. Intervals are rounded down to whole seconds
// and must be at least one second.
func New(log logrus.FieldLogger, interval time.Duration, schedule string) (*Scheduler, error) {
	l := log.WithField("component", "scheduler")

	var (
		sched cron.Schedule
		spec  string
	)

	switch {
	case schedule != "":
		parsed, err := cron.ParseStandard(schedule)
		if err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
		}

		sched, spec = parsed, schedule
	case interval >= time.Second:
		sched, spec = cron.Every(interval), "@every "+interval.Truncate(time.Second).String()
	default:
		return nil, errors.New("report interval must be at least 1s")
	}

	logger := cronLogger{log: l}

	return &Scheduler{
		log:      l,
		schedule: sched,
		spec:     spec,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}, nil
}

// Spec returns the effective schedule.
func (s *Scheduler) Spec() string {
	return s.spec
}

// Start schedules job and starts ticking.
func (s *Scheduler) Start(ctx context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler already running")
	}

	jobCtx, cancel := context.WithCancel(ctx)

	s.entry = s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		job(jobCtx)
	}))
	s.cancel = cancel
	s.cron.Start()
	s.running = true

	s.log.WithField("schedule", s.spec).Info("Scheduler started")

	return nil
}

// Stop stops ticking and waits for a run in progress to return. The
// run's context is cancelled only if it has not finished by the time
// ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	done := s.cron.Stop()

	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("Report still running at shutdown, cancelling it")
		s.cancel()
		<-done.Done()
	}

	s.cancel()
	s.cron.Remove(s.entry)
	s.running = false

	s.log.Info("Scheduler stopped")
}

// NextRun returns the time of the next tick, or the zero time when the
// scheduler is not running.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return time.Time{}
	}

	return s.cron.Entry(s.entry).Next
}

// cronLogger routes cron's logging to logrus.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		f[key] = keysAndValues[i+1]
	}

	return f
}
