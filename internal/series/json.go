package series

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type serializerState uint8

const (
	stateNew serializerState = iota
	stateOpen
	stateClosed
)

// jsonSeries is one element of the "series" array of the series API.
type jsonSeries struct {
	Metric string       `json:"metric"`
	Points [][2]float64 `json:"points"`
	Type   string       `json:"type"`
	Host   string       `json:"host,omitempty"`
	Tags   []string     `json:"tags,omitempty"`
}

// JSONSerializer writes {"series":[...]} request bodies.
type JSONSerializer struct {
	buf   bytes.Buffer
	state serializerState
	count int
}

var _ Serializer = (*JSONSerializer)(nil)

// NewJSONSerializer creates a new JSONSerializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

// StartObject writes the opening of the series object.
func (s *JSONSerializer) StartObject() error {
	if s.state != stateNew {
		return fmt.Errorf("start object: %w", ErrSerializerState)
	}

	s.buf.WriteString(`{"series":[`)
	s.state = stateOpen

	return nil
}

// AppendGauge appends a gauge series.
func (s *JSONSerializer) AppendGauge(g Gauge) error {
	return s.append(jsonSeries{
		Metric: g.Name,
		Points: [][2]float64{{float64(g.Timestamp), g.Value}},
		Type:   TypeGauge,
		Host:   g.Host,
		Tags:   g.Tags,
	})
}

// AppendCounter appends a count series. The point value is a float64, exact
// up to 2^53.
func (s *JSONSerializer) AppendCounter(c Counter) error {
	return s.append(jsonSeries{
		Metric: c.Name,
		Points: [][2]float64{{float64(c.Timestamp), float64(c.Value)}},
		Type:   TypeCount,
		Host:   c.Host,
		Tags:   c.Tags,
	})
}

func (s *JSONSerializer) append(entry jsonSeries) error {
	if s.state != stateOpen {
		return fmt.Errorf("append %s: %w", entry.Metric, ErrSerializerState)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding series %s: %w", entry.Metric, err)
	}

	if s.count > 0 {
		s.buf.WriteByte(',')
	}

	s.buf.Write(data)
	s.count++

	return nil
}

// EndObject closes the series object.
func (s *JSONSerializer) EndObject() error {
	if s.state != stateOpen {
		return fmt.Errorf("end object: %w", ErrSerializerState)
	}

	s.buf.WriteString(`]}`)
	s.state = stateClosed

	return nil
}

// String returns the serialized body. It fails until EndObject is called.
func (s *JSONSerializer) String() (string, error) {
	data, err := s.Bytes()
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Bytes returns the serialized body. It fails until EndObject is called.
func (s *JSONSerializer) Bytes() ([]byte, error) {
	if s.state != stateClosed {
		return nil, fmt.Errorf("read body: %w", ErrSerializerState)
	}

	return s.buf.Bytes(), nil
}

// Len returns the number of series appended so far.
func (s *JSONSerializer) Len() int {
	return s.count
}
