package series

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSerializer_Body(t *testing.T) {
	s := NewJSONSerializer()

	require.NoError(t, s.StartObject())
	require.NoError(t, s.AppendGauge(Gauge{
		Name:      "app.latency.p99",
		Value:     12.5,
		Timestamp: 1700000000,
		Host:      "web-1",
		Tags:      []string{"env:prod"},
	}))
	require.NoError(t, s.AppendCounter(Counter{
		Name:      "app.requests",
		Value:     42,
		Timestamp: 1700000000,
	}))
	require.NoError(t, s.EndObject())

	body, err := s.String()
	require.NoError(t, err)

	var decoded struct {
		Series []struct {
			Metric string       `json:"metric"`
			Points [][2]float64 `json:"points"`
			Type   string       `json:"type"`
			Host   string       `json:"host"`
			Tags   []string     `json:"tags"`
		} `json:"series"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	require.Len(t, decoded.Series, 2)

	assert.Equal(t, "app.latency.p99", decoded.Series[0].Metric)
	assert.Equal(t, TypeGauge, decoded.Series[0].Type)
	assert.Equal(t, [2]float64{1700000000, 12.5}, decoded.Series[0].Points[0])
	assert.Equal(t, "web-1", decoded.Series[0].Host)
	assert.Equal(t, []string{"env:prod"}, decoded.Series[0].Tags)

	assert.Equal(t, "app.requests", decoded.Series[1].Metric)
	assert.Equal(t, TypeCount, decoded.Series[1].Type)
	assert.Equal(t, [2]float64{1700000000, 42}, decoded.Series[1].Points[0])
	assert.Empty(t, decoded.Series[1].Host)

	assert.Equal(t, 2, s.Len())
}

func TestJSONSerializer_Empty(t *testing.T) {
	s := NewJSONSerializer()

	require.NoError(t, s.StartObject())
	require.NoError(t, s.EndObject())

	body, err := s.String()
	require.NoError(t, err)
	assert.Equal(t, `{"series":[]}`, body)
}

func TestJSONSerializer_OutOfOrder(t *testing.T) {
	t.Run("append before start", func(t *testing.T) {
		s := NewJSONSerializer()
		assert.ErrorIs(t, s.AppendGauge(Gauge{Name: "a"}), ErrSerializerState)
	})

	t.Run("append after end", func(t *testing.T) {
		s := NewJSONSerializer()
		require.NoError(t, s.StartObject())
		require.NoError(t, s.EndObject())
		assert.ErrorIs(t, s.AppendCounter(Counter{Name: "a"}), ErrSerializerState)
	})

	t.Run("start twice", func(t *testing.T) {
		s := NewJSONSerializer()
		require.NoError(t, s.StartObject())
		assert.ErrorIs(t, s.StartObject(), ErrSerializerState)
	})

	t.Run("read before end", func(t *testing.T) {
		s := NewJSONSerializer()
		require.NoError(t, s.StartObject())

		_, err := s.String()
		assert.ErrorIs(t, err, ErrSerializerState)
	})

	t.Run("end before start", func(t *testing.T) {
		s := NewJSONSerializer()
		assert.ErrorIs(t, s.EndObject(), ErrSerializerState)
	})
}
