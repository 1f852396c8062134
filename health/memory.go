package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryProbeConfig configures the heap usage probe.
type MemoryProbeConfig struct {
	// Threshold is the fraction of MaxAlloc above which the probe fails.
	// Value should be between 0 and 1. Default: 0.95 (95%)
	Threshold float64

	// MaxAlloc is the maximum expected heap allocation in bytes.
	// If zero, the memory obtained from the OS is used.
	// Default: 0 (auto-detect)
	MaxAlloc uint64
}

// MemoryProbe fails when heap allocation crosses a threshold.
type MemoryProbe struct {
	config MemoryProbeConfig
}

// NewMemoryProbe creates a new heap usage probe.
func NewMemoryProbe(config MemoryProbeConfig) *MemoryProbe {
	if config.Threshold <= 0 || config.Threshold >= 1 {
		config.Threshold = 0.95
	}
	return &MemoryProbe{config: config}
}

// Name returns the name of this probe.
func (m *MemoryProbe) Name() string {
	return "memory"
}

// Check reads runtime memory statistics. The output is a map of the figures
// used, plus a one-line summary.
func (m *MemoryProbe) Check(ctx context.Context) (bool, any) {
	select {
	case <-ctx.Done():
		return false, ctx.Err().Error()
	default:
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	maxAlloc := m.config.MaxAlloc
	if maxAlloc == 0 {
		maxAlloc = stats.Sys
	}
	if maxAlloc == 0 {
		return true, "memory stats unavailable"
	}

	usage := float64(stats.HeapAlloc) / float64(maxAlloc)
	output := map[string]any{
		"heap_alloc":    stats.HeapAlloc,
		"heap_in_use":   stats.HeapInuse,
		"max_alloc":     maxAlloc,
		"usage_percent": round6(usage * 100),
		"num_gc":        stats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	if usage >= m.config.Threshold {
		output["message"] = fmt.Sprintf("%s: heap usage %.1f%%", ErrCheckFailed, usage*100)
		return false, output
	}
	output["message"] = fmt.Sprintf("heap usage %.1f%%", usage*100)
	return true, output
}
