package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		schedule string
		wantSpec string
		wantErr  bool
	}{
		{name: "interval", interval: 10 * time.Second, wantSpec: "@every 10s"},
		{name: "interval truncated", interval: 1500 * time.Millisecond, wantSpec: "@every 1s"},
		{name: "cron", schedule: "*/5 * * * *", wantSpec: "*/5 * * * *"},
		{name: "descriptor wins over interval", interval: time.Minute, schedule: "@hourly", wantSpec: "@hourly"},
		{name: "sub-second interval", interval: 500 * time.Millisecond, wantErr: true},
		{name: "bad cron", schedule: "every tuesday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(testLog(), tt.interval, tt.schedule)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSpec, s.Spec())
		})
	}
}

func TestScheduler_RunsJob(t *testing.T) {
	s, err := New(testLog(), time.Second, "")
	require.NoError(t, err)

	var runs atomic.Int32

	require.NoError(t, s.Start(context.Background(), func(context.Context) {
		runs.Add(1)
	}))

	assert.False(t, s.NextRun().IsZero())
	assert.Error(t, s.Start(context.Background(), func(context.Context) {}))

	assert.Eventually(t, func() bool {
		return runs.Load() >= 1
	}, 5*time.Second, 50*time.Millisecond)

	s.Stop(context.Background())
	assert.True(t, s.NextRun().IsZero())

	// Stop is idempotent.
	s.Stop(context.Background())
}

func TestScheduler_StopCancelsSlowJob(t *testing.T) {
	s, err := New(testLog(), time.Second, "")
	require.NoError(t, err)

	started := make(chan struct{})
	var cancelled atomic.Bool

	require.NoError(t, s.Start(context.Background(), func(ctx context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}

		<-ctx.Done()
		cancelled.Store(true)
	}))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	s.Stop(ctx)
	assert.True(t, cancelled.Load())
}

func TestFields(t *testing.T) {
	f := fields([]interface{}{"entry", 1, "next", "soon", "dangling"})

	assert.Equal(t, logrus.Fields{"entry": 1, "next": "soon"}, f)
}
