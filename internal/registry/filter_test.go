package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobFilter(t *testing.T) {
	f, err := GlobFilter([]string{"http.*", "db.queries"}, []string{"http.debug.*"})
	require.NoError(t, err)

	tests := []struct {
		name string
		want bool
	}{
		{name: "http.requests", want: true},
		{name: "http.requests.errors", want: true},
		{name: "db.queries", want: true},
		{name: "db.connections", want: false},
		{name: "http.debug.allocs", want: false},
		{name: "runtime.MemStats.HeapAlloc", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, f(tt.name, nil), tt.name)
	}
}

func TestGlobFilter_ExcludeOnly(t *testing.T) {
	f, err := GlobFilter(nil, []string{"runtime.*"})
	require.NoError(t, err)

	assert.True(t, f("http.requests", nil))
	assert.False(t, f("runtime.NumGoroutine", nil))
}

func TestGlobFilter_Empty(t *testing.T) {
	f, err := GlobFilter(nil, nil)
	require.NoError(t, err)

	assert.True(t, f("anything", nil))
}

func TestGlobFilter_InvalidPattern(t *testing.T) {
	_, err := GlobFilter([]string{"http.[a"}, nil)
	assert.Error(t, err)
}
