// Package host resolves the host label attached to every series.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	gopsutilhost "github.com/shirou/gopsutil/v4/host"
	"github.com/sirupsen/logrus"
)

// Host label sources.
const (
	SourceNone   = ""
	SourceStatic = "static"
	SourceSystem = "system"
	SourceEC2    = "ec2"
)

// DefaultMetadataURL is the EC2 instance metadata service base URL.
const DefaultMetadataURL = "http://169.254.169.254"

// Config selects how the host label is resolved.
type Config struct {
	// Source is one of "", "static", "system" or "ec2". An empty source
	// reports series without a host.
	Source string `yaml:"source"`

	// Name is the host label when Source is "static".
	Name string `yaml:"name"`

	// MetadataURL overrides the EC2 metadata endpoint.
	MetadataURL string `yaml:"metadata_url"`

	// Timeout bounds metadata requests. Defaults to 2s.
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceNone, SourceSystem, SourceEC2:
		return nil
	case SourceStatic:
		if c.Name == "" {
			return errors.New("host name is required for static source")
		}

		return nil
	default:
		return fmt.Errorf("unknown host source %q", c.Source)
	}
}

// Resolve returns the host label for cfg. An empty string means series
// carry no host.
func Resolve(ctx context.Context, log logrus.FieldLogger, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	var (
		name string
		err  error
	)

	switch cfg.Source {
	case SourceNone:
		return "", nil
	case SourceStatic:
		name = cfg.Name
	case SourceSystem:
		name, err = systemHostname(ctx)
	case SourceEC2:
		name, err = ec2InstanceID(ctx, cfg)
	}

	if err != nil {
		return "", fmt.Errorf("resolving %s host: %w", cfg.Source, err)
	}

	log.WithFields(logrus.Fields{
		"component": "host",
		"source":    cfg.Source,
		"host":      name,
	}).Info("Resolved host label")

	return name, nil
}

func systemHostname(ctx context.Context) (string, error) {
	info, err := gopsutilhost.InfoWithContext(ctx)
	if err == nil && info.Hostname != "" {
		return info.Hostname, nil
	}

	return os.Hostname()
}

// ec2InstanceID asks the instance metadata service for the instance id,
// using an IMDSv2 session token.
func ec2InstanceID(ctx context.Context, cfg Config) (string, error) {
	base := cfg.MetadataURL
	if base == "" {
		base = DefaultMetadataURL
	}

	base = strings.TrimRight(base, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	client := &http.Client{Timeout: timeout}

	tokenReq, err := http.NewRequestWithContext(ctx, http.MethodPut, base+"/latest/api/token", nil)
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}

	tokenReq.Header.Set("X-aws-ec2-metadata-token-ttl-seconds", "60")

	token, err := doText(client, tokenReq)
	if err != nil {
		return "", fmt.Errorf("fetching metadata token: %w", err)
	}

	idReq, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/latest/meta-data/instance-id", nil)
	if err != nil {
		return "", fmt.Errorf("building instance-id request: %w", err)
	}

	idReq.Header.Set("X-aws-ec2-metadata-token", token)

	id, err := doText(client, idReq)
	if err != nil {
		return "", fmt.Errorf("fetching instance id: %w", err)
	}

	if id == "" {
		return "", errors.New("empty instance id")
	}

	return id, nil
}

func doText(client *http.Client, req *http.Request) (string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return strings.TrimSpace(string(body)), nil
}
