package agent

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/seriesreporter/internal/transport"
	"github.com/ethpandaops/seriesreporter/internal/transport/clickhouse"
	"github.com/ethpandaops/seriesreporter/internal/transport/http"
	"github.com/ethpandaops/seriesreporter/internal/transport/statsd"
)

// newTransport builds the transport selected by cfg.Type.
func newTransport(ctx context.Context, log logrus.FieldLogger, cfg TransportConfig) (transport.Transport, error) {
	switch cfg.Type {
	case TransportHTTP, "":
		return http.New(log, cfg.HTTP)
	case TransportStatsd:
		return statsd.New(log, cfg.Statsd)
	case TransportClickHouse:
		return clickhouse.New(ctx, log, cfg.ClickHouse)
	case TransportLog:
		return transport.NewLogTransport(log), nil
	default:
		return nil, fmt.Errorf("unknown transport type %q", cfg.Type)
	}
}
