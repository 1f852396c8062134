package health

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ProbeResult is the outcome of one probe invocation.
type ProbeResult struct {
	Checker      string  `json:"checker"`
	Output       any     `json:"output"`
	Passed       bool    `json:"passed"`
	Timestamp    float64 `json:"timestamp"`
	ResponseTime float64 `json:"response_time"`
}

// Snapshot is the record one Checker publishes for its process.
//
// Status is the AND of every result's Passed. Timeout is the check-in
// timeout in whole seconds; zero disables staleness checks for the record.
type Snapshot struct {
	Name      string        `json:"name"`
	Status    bool          `json:"status"`
	Liveness  bool          `json:"liveness"`
	Timestamp float64       `json:"timestamp"`
	Timeout   int           `json:"timeout"`
	Results   []ProbeResult `json:"results"`
}

// Time returns the snapshot timestamp.
func (s Snapshot) Time() time.Time {
	return fromUnixSeconds(s.Timestamp)
}

// Stale reports whether the snapshot is too old to trust at now. A snapshot
// without a timeout never goes stale.
func (s Snapshot) Stale(now time.Time) bool {
	if s.Timeout <= 0 {
		return false
	}
	return unixSeconds(now)-s.Timestamp >= float64(s.Timeout)
}

// DecodeSnapshot parses one snapshot file.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if s.Timestamp <= 0 {
		return Snapshot{}, fmt.Errorf("%w: missing timestamp", ErrInvalidSnapshot)
	}
	if s.Results == nil {
		s.Results = []ProbeResult{}
	}
	return s, nil
}

func allPassed(results []ProbeResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnixSeconds(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// round6 rounds seconds to microsecond precision.
func round6(secs float64) float64 {
	return math.Round(secs*1e6) / 1e6
}

// timeoutSeconds converts d to whole seconds, rounding up.
func timeoutSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
