package probes

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// DiskUsageProbe fails when the filesystem holding a path is fuller than a
// threshold.
type DiskUsageProbe struct {
	name        string
	path        string
	maxUsedPct  float64
	usageOfPath func(ctx context.Context, path string) (*disk.UsageStat, error)
}

// DiskUsage creates a probe on the filesystem holding path. maxUsedPercent
// is in (0, 100]; anything else means 90.
func DiskUsage(name, path string, maxUsedPercent float64) *DiskUsageProbe {
	if maxUsedPercent <= 0 || maxUsedPercent > 100 {
		maxUsedPercent = 90
	}
	return &DiskUsageProbe{
		name:        name,
		path:        path,
		maxUsedPct:  maxUsedPercent,
		usageOfPath: disk.UsageWithContext,
	}
}

// Name returns the name of this probe.
func (p *DiskUsageProbe) Name() string {
	return p.name
}

// Check reads filesystem usage.
func (p *DiskUsageProbe) Check(ctx context.Context) (bool, any) {
	stat, err := p.usageOfPath(ctx, p.path)
	if err != nil {
		return false, err.Error()
	}

	output := map[string]any{
		"path":         p.path,
		"fstype":       stat.Fstype,
		"used_percent": stat.UsedPercent,
		"free_bytes":   stat.Free,
	}
	if stat.UsedPercent > p.maxUsedPct {
		output["message"] = fmt.Sprintf("%s: %.1f%% > %.1f%%", ErrDiskUsage, stat.UsedPercent, p.maxUsedPct)
		return false, output
	}
	return true, output
}
