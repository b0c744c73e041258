// Package http sends series batches to the Datadog series web API.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/seriesreporter/internal/series"
	"github.com/ethpandaops/seriesreporter/internal/transport"
	"github.com/ethpandaops/seriesreporter/internal/version"
)

// Transport posts one JSON series body per batch.
type Transport struct {
	cfg        Config
	client     *http.Client
	compressor *compressor
	log        logrus.FieldLogger
}

var _ transport.Transport = (*Transport)(nil)

// New creates a new HTTP transport.
func New(log logrus.FieldLogger, cfg Config) (*Transport, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c, err := newCompressor(cfg.Compression)
	if err != nil {
		return nil, fmt.Errorf("creating compressor: %w", err)
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        2,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			DisableKeepAlives:   !cfg.IsKeepAlive(),
		},
		Timeout: cfg.Timeout,
	}

	return &Transport{
		cfg:        cfg,
		client:     client,
		compressor: c,
		log:        log.WithField("component", "http_transport"),
	}, nil
}

// Name returns the transport name.
func (t *Transport) Name() string { return "http" }

// Prepare opens a new request body.
func (t *Transport) Prepare(_ context.Context) (transport.Batch, error) {
	s := series.NewJSONSerializer()

	if err := s.StartObject(); err != nil {
		return nil, err
	}

	return &request{transport: t, serializer: s}, nil
}

// Close releases idle connections and the compressor.
func (t *Transport) Close() error {
	t.client.CloseIdleConnections()

	return t.compressor.close()
}

func (t *Transport) post(ctx context.Context, body []byte, count int) error {
	compressed, err := t.compressor.compress(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Address, bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DD-API-KEY", t.cfg.APIKey)
	req.Header.Set("User-Agent", version.UserAgent())

	if encoding := t.compressor.contentEncoding(); encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}

	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}

	defer resp.Body.Close()

	// Drain response body to enable connection reuse.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	t.log.WithFields(logrus.Fields{
		"series":     count,
		"bytes":      len(body),
		"compressed": len(compressed),
	}).Debug("Sent series via HTTP")

	return nil
}

// request is the batch of one report cycle.
type request struct {
	transport  *Transport
	serializer *series.JSONSerializer
	sent       bool
}

func (r *request) AddGauge(g series.Gauge) error {
	if r.sent {
		return transport.ErrBatchSent
	}

	return r.serializer.AppendGauge(g)
}

func (r *request) AddCounter(c series.Counter) error {
	if r.sent {
		return transport.ErrBatchSent
	}

	return r.serializer.AppendCounter(c)
}

func (r *request) Send(ctx context.Context) error {
	if r.sent {
		return transport.ErrBatchSent
	}

	r.sent = true

	if err := r.serializer.EndObject(); err != nil {
		return err
	}

	body, err := r.serializer.Bytes()
	if err != nil {
		return err
	}

	return r.transport.post(ctx, body, r.serializer.Len())
}
