package agent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/seriesreporter/internal/expansion"
	"github.com/ethpandaops/seriesreporter/internal/health"
	"github.com/ethpandaops/seriesreporter/internal/host"
	"github.com/ethpandaops/seriesreporter/internal/registry"
	"github.com/ethpandaops/seriesreporter/internal/reporter"
	"github.com/ethpandaops/seriesreporter/internal/transport/clickhouse"
	"github.com/ethpandaops/seriesreporter/internal/transport/http"
	"github.com/ethpandaops/seriesreporter/internal/transport/statsd"
)

// Transport types.
const (
	TransportHTTP       = "http"
	TransportStatsd     = "statsd"
	TransportClickHouse = "clickhouse"
	TransportLog        = "log"
)

// Config is the top-level configuration for the reporter agent.
type Config struct {
	// LogLevel sets the logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Interval between report cycles. Defaults to 10s.
	Interval time.Duration `yaml:"interval"`

	// Schedule is a cron expression used instead of Interval when set.
	Schedule string `yaml:"schedule"`

	// Host configures the host label attached to every series.
	Host host.Config `yaml:"host"`

	// Prefix is prepended to every metric name.
	Prefix string `yaml:"prefix"`

	// Tags are attached to every series.
	Tags []string `yaml:"tags"`

	// DynamicTags configures tags re-read on every cycle.
	DynamicTags DynamicTagsConfig `yaml:"dynamic_tags"`

	// Expansions lists the histogram, meter and timer facets to report.
	// Empty reports all of them.
	Expansions []string `yaml:"expansions"`

	// RateUnit is the unit meter rates are reported per. Defaults to seconds.
	RateUnit string `yaml:"rate_unit"`

	// DurationUnit is the unit timer values are reported in. Defaults to
	// milliseconds.
	DurationUnit string `yaml:"duration_unit"`

	// Filter restricts which registry metrics are reported.
	Filter FilterConfig `yaml:"filter"`

	// RuntimeMetrics reports Go runtime memory and GC statistics.
	RuntimeMetrics bool `yaml:"runtime_metrics"`

	// FlushOnStop runs one last report cycle on shutdown. Defaults to true.
	FlushOnStop *bool `yaml:"flush_on_stop"`

	// Transport selects and configures where series are sent.
	Transport TransportConfig `yaml:"transport"`

	// Health configures the Prometheus health metrics server.
	Health health.Config `yaml:"health"`
}

// DynamicTagsConfig configures tag providers consulted once per cycle.
type DynamicTagsConfig struct {
	// File is a path to a file with one tag per line. It is watched and
	// reloaded on change.
	File string `yaml:"file"`

	// System adds os, platform and kernel tags.
	System bool `yaml:"system"`
}

// FilterConfig holds metric name glob patterns.
type FilterConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// TransportConfig selects a transport by Type.
type TransportConfig struct {
	// Type is one of http, statsd, clickhouse or log. Defaults to http.
	Type string `yaml:"type"`

	HTTP       http.Config       `yaml:"http"`
	Statsd     statsd.Config     `yaml:"statsd"`
	ClickHouse clickhouse.Config `yaml:"clickhouse"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	flush := true

	return &Config{
		LogLevel:     "info",
		Interval:     10 * time.Second,
		RateUnit:     "seconds",
		DurationUnit: "milliseconds",
		FlushOnStop:  &flush,
		Transport: TransportConfig{
			Type: TransportHTTP,
		},
		Health: health.Config{
			Addr: ":9090",
		},
	}
}

// LoadConfig reads and parses a configuration file. Files ending in
// .toml are parsed as TOML, anything else as YAML.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = tomlToYAML(data)
		if err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// tomlToYAML re-encodes a TOML document as YAML so both formats share
// the yaml struct tags and duration parsing.
func tomlToYAML(data []byte) ([]byte, error) {
	var doc map[string]any

	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return yaml.Marshal(doc)
}

// Validate checks the configuration for required fields and consistency.
func (c *Config) Validate() error {
	if c.Schedule == "" && c.Interval < time.Second {
		return errors.New("interval must be at least 1s")
	}

	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
	}

	if err := c.Host.Validate(); err != nil {
		return fmt.Errorf("host: %w", err)
	}

	if _, err := expansion.Parse(c.Expansions); err != nil {
		return fmt.Errorf("expansions: %w", err)
	}

	if _, err := reporter.ParseUnit(c.RateUnit); err != nil {
		return fmt.Errorf("rate_unit: %w", err)
	}

	if _, err := reporter.ParseUnit(c.DurationUnit); err != nil {
		return fmt.Errorf("duration_unit: %w", err)
	}

	if _, err := registry.GlobFilter(c.Filter.Include, c.Filter.Exclude); err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	return c.Transport.Validate()
}

// Validate checks the selected transport's configuration.
func (t *TransportConfig) Validate() error {
	switch t.Type {
	case TransportHTTP:
		t.HTTP.ApplyDefaults()

		return wrap("transport.http", t.HTTP.Validate())
	case TransportStatsd:
		t.Statsd.ApplyDefaults()

		return wrap("transport.statsd", t.Statsd.Validate())
	case TransportClickHouse:
		t.ClickHouse.ApplyDefaults()

		return wrap("transport.clickhouse", t.ClickHouse.Validate())
	case TransportLog:
		return nil
	default:
		return fmt.Errorf("unknown transport type %q", t.Type)
	}
}

func wrap(section string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", section, err)
}

// ShouldFlushOnStop reports whether a final cycle runs on shutdown.
func (c *Config) ShouldFlushOnStop() bool {
	return c.FlushOnStop == nil || *c.FlushOnStop
}
