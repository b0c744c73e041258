// Package clickhouse stores series batches as rows in a ClickHouse table.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/seriesreporter/internal/series"
	"github.com/ethpandaops/seriesreporter/internal/transport"
)

// rowBatch is the subset of driver.Batch the transport uses.
type rowBatch interface {
	Append(v ...any) error
	Send() error
	Abort() error
}

// preparer opens a rowBatch for the given insert query.
type preparer func(ctx context.Context, query string) (rowBatch, error)

// Transport inserts each sent batch as one ClickHouse block.
type Transport struct {
	log     logrus.FieldLogger
	cfg     Config
	prepare preparer
	close   func() error
}

var _ transport.Transport = (*Transport)(nil)

// New opens a ClickHouse connection and verifies it with a ping.
func New(ctx context.Context, log logrus.FieldLogger, cfg Config) (*Transport, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := &clickhouse.Options{
		Addr: []string{cfg.Endpoint},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout:  cfg.DialTimeout,
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening ClickHouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("pinging ClickHouse: %w", err)
	}

	l := log.WithField("component", "clickhouse_transport")
	l.WithField("endpoint", cfg.Endpoint).Info("ClickHouse transport connected")

	prep := func(ctx context.Context, query string) (rowBatch, error) {
		return conn.PrepareBatch(ctx, query)
	}

	return newWithPreparer(l, cfg, prep, conn.Close), nil
}

func newWithPreparer(log logrus.FieldLogger, cfg Config, prep preparer, closeFn func() error) *Transport {
	return &Transport{log: log, cfg: cfg, prepare: prep, close: closeFn}
}

// Name returns the transport name.
func (t *Transport) Name() string { return "clickhouse" }

// Prepare opens a new batch. Rows are staged in memory and only handed
// to the driver on Send.
func (t *Transport) Prepare(_ context.Context) (transport.Batch, error) {
	return &batch{transport: t}, nil
}

// Close closes the ClickHouse connection.
func (t *Transport) Close() error {
	if t.close == nil {
		return nil
	}

	return t.close()
}

func (t *Transport) insertQuery() string {
	return fmt.Sprintf(
		"INSERT INTO %s.%s (timestamp, name, type, value, host, tags)",
		t.cfg.Database, t.cfg.Table,
	)
}

type row struct {
	timestamp time.Time
	name      string
	kind      string
	value     float64
	host      string
	tags      []string
}

type batch struct {
	transport *Transport
	rows      []row
	sent      bool
}

func (b *batch) AddGauge(g series.Gauge) error {
	if b.sent {
		return transport.ErrBatchSent
	}

	b.rows = append(b.rows, row{
		timestamp: time.Unix(g.Timestamp, 0).UTC(),
		name:      g.Name,
		kind:      series.TypeGauge,
		value:     g.Value,
		host:      g.Host,
		tags:      nonNil(g.Tags),
	})

	return nil
}

func (b *batch) AddCounter(c series.Counter) error {
	if b.sent {
		return transport.ErrBatchSent
	}

	b.rows = append(b.rows, row{
		timestamp: time.Unix(c.Timestamp, 0).UTC(),
		name:      c.Name,
		kind:      series.TypeCount,
		value:     float64(c.Value),
		host:      c.Host,
		tags:      nonNil(c.Tags),
	})

	return nil
}

func (b *batch) Send(ctx context.Context) error {
	if b.sent {
		return transport.ErrBatchSent
	}

	b.sent = true

	if len(b.rows) == 0 {
		return nil
	}

	rb, err := b.transport.prepare(ctx, b.transport.insertQuery())
	if err != nil {
		return fmt.Errorf("preparing batch: %w", err)
	}

	for _, r := range b.rows {
		if err := rb.Append(r.timestamp, r.name, r.kind, r.value, r.host, r.tags); err != nil {
			_ = rb.Abort()

			return fmt.Errorf("appending %s: %w", r.name, err)
		}
	}

	if err := rb.Send(); err != nil {
		return fmt.Errorf("sending batch: %w", err)
	}

	b.transport.log.WithField("rows", len(b.rows)).Debug("Inserted series rows")

	return nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}

	return tags
}
