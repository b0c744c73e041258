// Package series defines the time-series points shipped to the
// monitoring backend and the serializer contract transports use to
// encode them.
package series

import "errors"

// Series type names used on the wire.
const (
	TypeGauge = "gauge"
	TypeCount = "count"
)

// Gauge is a sampled value at a point in time.
type Gauge struct {
	Name      string
	Value     float64
	Timestamp int64
	Host      string
	Tags      []string
}

// Counter is a running count at a point in time. Serializers that encode
// points as doubles lose precision for counts above 2^53.
type Counter struct {
	Name      string
	Value     int64
	Timestamp int64
	Host      string
	Tags      []string
}

// ErrSerializerState is returned when a Serializer method is called out of
// order.
var ErrSerializerState = errors.New("serializer used out of order")

// Serializer builds a request body for one batch of series. Calls must be
// StartObject, any number of AppendGauge/AppendCounter, EndObject, then
// String. A Serializer is single use; nothing can be appended after
// EndObject.
type Serializer interface {
	StartObject() error
	AppendGauge(g Gauge) error
	AppendCounter(c Counter) error
	EndObject() error
	String() (string, error)
}
