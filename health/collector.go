package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/prochealth/config"
	"github.com/jonwraymond/prochealth/observe"
	"github.com/jonwraymond/prochealth/store"
)

// Report status values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// HealthReport is the body of a health query.
type HealthReport struct {
	Hostname  string     `json:"hostname"`
	Status    string     `json:"status"`
	Timestamp float64    `json:"timestamp"`
	Results   []Snapshot `json:"results"`
	Message   string     `json:"message,omitempty"`
}

// LivenessReport is the body of a liveness query.
type LivenessReport struct {
	Hostname  string  `json:"hostname"`
	Liveness  bool    `json:"liveness"`
	Timestamp float64 `json:"timestamp"`
	Message   string  `json:"message,omitempty"`
}

// Collector reduces every published snapshot into one verdict.
//
// Each query rereads the directory; nothing is cached between queries.
// Files that cannot be read or decoded are skipped for that query only.
type Collector struct {
	dir      *store.Dir
	dirPath  string
	hostname string
	logger   observe.Logger
	metrics  observe.Metrics
	now      func() time.Time
}

// NewCollector creates a Collector.
//
// With WithDir the path is validated on every query, so a directory created
// after the Collector is picked up.
func NewCollector(opts ...Option) *Collector {
	s := newSettings(opts)
	return &Collector{
		dir:      s.dir,
		dirPath:  s.dirPath,
		hostname: s.hostname,
		logger:   s.logger,
		metrics:  s.metrics(),
		now:      s.clock,
	}
}

// Health reduces the status of every snapshot. A snapshot with a timeout
// counts as failed once it is at least timeout seconds old; the adjusted
// status is written into the returned record.
func (c *Collector) Health(ctx context.Context) (bool, HealthReport) {
	snaps, skipped, err := c.read(ctx)
	now := c.now()

	report := HealthReport{
		Hostname:  c.hostname,
		Timestamp: unixSeconds(now),
		Results:   []Snapshot{},
	}
	if err != nil {
		report.Status = StatusFailure
		report.Message = err.Error()
		c.metrics.RecordCollection(ctx, "health", 0, skipped, false)
		return false, report
	}

	ok := true
	for _, s := range snaps {
		if s.Stale(now) {
			s.Status = false
		}
		ok = ok && s.Status
		report.Results = append(report.Results, s)
	}

	report.Status = StatusFailure
	if ok {
		report.Status = StatusSuccess
	}
	c.metrics.RecordCollection(ctx, "health", len(snaps), skipped, ok)
	return ok, report
}

// Liveness reduces the liveness flag of every snapshot. Staleness does not
// apply.
func (c *Collector) Liveness(ctx context.Context) (bool, LivenessReport) {
	snaps, skipped, err := c.read(ctx)
	report := LivenessReport{
		Hostname:  c.hostname,
		Timestamp: unixSeconds(c.now()),
	}
	if err != nil {
		report.Message = err.Error()
		c.metrics.RecordCollection(ctx, "liveness", 0, skipped, false)
		return false, report
	}

	ok := true
	for _, s := range snaps {
		ok = ok && s.Liveness
	}
	report.Liveness = ok
	c.metrics.RecordCollection(ctx, "liveness", len(snaps), skipped, ok)
	return ok, report
}

// read decodes every snapshot in name order. It fails once ctx is done.
func (c *Collector) read(ctx context.Context) ([]Snapshot, int, error) {
	dir := c.dir
	if dir == nil {
		d, err := store.Open(c.dirPath)
		if errors.Is(err, store.ErrNotConfigured) {
			return nil, 0, fmt.Errorf("%w: set %s_MULTIPROC_DIR", err, config.EnvPrefix)
		}
		if err != nil {
			return nil, 0, err
		}
		dir = d
	}

	entries, err := dir.ListContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	snaps := make([]Snapshot, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		if e.Err != nil {
			skipped++
			c.logger.Debug(ctx, "skipping unreadable snapshot",
				observe.Field{Key: "file", Value: e.Name},
				observe.ErrorField(e.Err),
			)
			continue
		}
		s, err := DecodeSnapshot(e.Data)
		if err != nil {
			skipped++
			c.logger.Debug(ctx, "skipping invalid snapshot",
				observe.Field{Key: "file", Value: e.Name},
				observe.ErrorField(err),
			)
			continue
		}
		snaps = append(snaps, s)
	}
	return snaps, skipped, nil
}
