package statsd

import (
	"errors"
	"net"
	"strings"
	"time"
)

// Config configures the DogStatsD transport.
type Config struct {
	// Address is the DogStatsD endpoint: host:port for UDP, or
	// unix:///path/to/socket for UDS. Defaults to 127.0.0.1:8125.
	Address string `yaml:"address"`

	// Namespace is prepended to every series name by the client.
	Namespace string `yaml:"namespace"`

	// WriteTimeout bounds a single write on UDS sockets.
	// Defaults to 100ms.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Address:      "127.0.0.1:8125",
		WriteTimeout: 100 * time.Millisecond,
	}
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	if c.Address == "" {
		c.Address = defaults.Address
	}

	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaults.WriteTimeout
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.New("statsd address is required")
	}

	if strings.HasPrefix(c.Address, "unix://") {
		if strings.TrimPrefix(c.Address, "unix://") == "" {
			return errors.New("statsd unix socket path is required")
		}

		return nil
	}

	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return errors.New("statsd address must be host:port: " + err.Error())
	}

	return nil
}
