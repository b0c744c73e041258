package clickhouse

import (
	"errors"
	"net/url"
	"time"
)

// DefaultTable is the table created by the embedded schema migrations.
const DefaultTable = "series"

// Config configures the ClickHouse transport.
type Config struct {
	// Endpoint is the ClickHouse native protocol address.
	Endpoint string `yaml:"endpoint"`

	// Database is the target database name. Defaults to "default".
	Database string `yaml:"database"`

	// Table is the target table name. Defaults to "series". Migrations only
	// manage the default table; any other table must be created by hand with
	// the same columns.
	Table string `yaml:"table"`

	// Username for ClickHouse authentication.
	Username string `yaml:"username"`

	// Password for ClickHouse authentication.
	Password string `yaml:"password"`

	// DialTimeout bounds connection establishment. Defaults to 5s.
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if c.Database == "" {
		c.Database = "default"
	}

	if c.Table == "" {
		c.Table = DefaultTable
	}

	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("clickhouse endpoint is required")
	}

	if c.Table == "" {
		return errors.New("clickhouse table is required")
	}

	return nil
}

// DSN returns the connection string used by schema migrations. Credentials
// are query-escaped.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme: "clickhouse",
		Host:   c.Endpoint,
		Path:   "/" + c.Database,
	}

	if c.Username != "" {
		q := url.Values{}
		q.Set("username", c.Username)

		if c.Password != "" {
			q.Set("password", c.Password)
		}

		u.RawQuery = q.Encode()
	}

	return u.String()
}
