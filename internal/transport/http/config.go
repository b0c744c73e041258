package http

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// DefaultAddress is the Datadog v1 series intake.
const DefaultAddress = "https://api.datadoghq.com/api/v1/series"

// Config configures the HTTP series transport.
type Config struct {
	// Address is the series API endpoint. Defaults to DefaultAddress.
	Address string `yaml:"address"`

	// APIKey is sent in the DD-API-KEY header.
	APIKey string `yaml:"api_key"`

	// Headers are additional HTTP headers to include in requests.
	Headers map[string]string `yaml:"headers"`

	// Compression specifies the body compression algorithm.
	// Valid values: none, gzip, zstd, zlib, snappy.
	// Defaults to gzip.
	Compression string `yaml:"compression"`

	// Timeout bounds one send, including connect and response.
	// Defaults to 5s.
	Timeout time.Duration `yaml:"timeout"`

	// KeepAlive enables HTTP keep-alive connections.
	// Defaults to true.
	KeepAlive *bool `yaml:"keep_alive"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	keepAlive := true

	return Config{
		Address:     DefaultAddress,
		Compression: CompressionGzip,
		Timeout:     5 * time.Second,
		KeepAlive:   &keepAlive,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.New("http address is required")
	}

	u, err := url.Parse(c.Address)
	if err != nil {
		return fmt.Errorf("invalid http address: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("http address must use http or https, got %q", u.Scheme)
	}

	if c.APIKey == "" {
		return errors.New("http api_key is required")
	}

	if c.Timeout < 0 {
		return errors.New("http timeout must not be negative")
	}

	if c.Compression != "" {
		if _, ok := contentEncodings[c.Compression]; !ok && c.Compression != CompressionNone {
			return errors.New("invalid compression type: " + c.Compression)
		}
	}

	return nil
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	if c.Address == "" {
		c.Address = defaults.Address
	}

	if c.Compression == "" {
		c.Compression = defaults.Compression
	}

	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}

	if c.KeepAlive == nil {
		c.KeepAlive = defaults.KeepAlive
	}
}

// IsKeepAlive returns whether HTTP keep-alive is enabled.
func (c *Config) IsKeepAlive() bool {
	if c.KeepAlive == nil {
		return true
	}

	return *c.KeepAlive
}
