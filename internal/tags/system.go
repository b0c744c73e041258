package tags

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/host"
)

// SystemProvider yields tags describing the machine the process runs on.
// Host facts do not change while the process runs, so they are read once.
type SystemProvider struct {
	tags []string
}

var _ Provider = (*SystemProvider)(nil)

// NewSystemProvider reads host information and builds os, platform,
// platform_version, kernel and arch tags. Empty facts are skipped.
func NewSystemProvider(ctx context.Context) (*SystemProvider, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading host info: %w", err)
	}

	return &SystemProvider{tags: systemTags(info)}, nil
}

// Tags returns the host tags.
func (p *SystemProvider) Tags() []string {
	return p.tags
}

func systemTags(info *host.InfoStat) []string {
	facts := []struct {
		key   string
		value string
	}{
		{"os", info.OS},
		{"platform", info.Platform},
		{"platform_version", info.PlatformVersion},
		{"kernel", info.KernelVersion},
		{"arch", info.KernelArch},
	}

	out := make([]string, 0, len(facts))

	for _, f := range facts {
		if f.value == "" {
			continue
		}

		out = append(out, f.key+":"+f.value)
	}

	return out
}
