package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/jonwraymond/prochealth/observe"
	"github.com/jonwraymond/prochealth/resilience"
	"github.com/jonwraymond/prochealth/store"
)

// CheckInSuffix is appended to the checker name to form the name of the
// synthetic check-in result.
const CheckInSuffix = "-periodic-checkin"

// Checker runs probes on a fixed period and publishes a Snapshot for the
// current process.
//
// CheckIn, MarkLive and Live are safe to call from any goroutine. Ticks never
// overlap.
type Checker struct {
	name         string
	pid          int
	interval     time.Duration
	checkIn      time.Duration
	probeTimeout time.Duration

	registry *Registry
	dir      *store.Dir
	logger   observe.Logger
	mw       *observe.Middleware
	retry    *resilience.Retry
	now      func() time.Time

	lastCheckIn atomic.Int64 // unix nanoseconds, 0 until the first CheckIn
	live        atomic.Bool

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewChecker creates a Checker publishing under name.
//
// When no directory is configured, or the configured path is missing or not
// a directory, persistence is disabled for the Checker's lifetime. Probes
// still run and RunOnce still returns snapshots.
func NewChecker(name string, opts ...Option) (*Checker, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	s := newSettings(opts)

	c := &Checker{
		name:         name,
		pid:          os.Getpid(),
		interval:     s.interval,
		checkIn:      s.checkIn,
		probeTimeout: s.probeTimeout,
		registry:     NewRegistry(),
		now:          s.clock,
	}
	c.logger = s.logger.With(
		observe.Field{Key: "checker", Value: name},
		observe.Field{Key: "pid", Value: c.pid},
	)
	s.logger = c.logger
	c.mw = s.middleware()
	c.retry = resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		Strategy:     resilience.BackoffExponential,
		Jitter:       true,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			c.logger.Debug(context.Background(), "retrying snapshot write",
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
				observe.ErrorField(err),
			)
		},
	})

	c.dir = s.dir
	if c.dir == nil {
		dir, err := store.Open(s.dirPath)
		if err != nil {
			c.logger.Warn(context.Background(), "snapshot persistence disabled",
				observe.Field{Key: "dir", Value: s.dirPath},
				observe.ErrorField(err),
			)
		}
		c.dir = dir
	}

	return c, nil
}

// Name returns the checker name.
func (c *Checker) Name() string {
	return c.name
}

// Interval returns the delay between ticks.
func (c *Checker) Interval() time.Duration {
	return c.interval
}

// Persistent reports whether snapshots are being written.
func (c *Checker) Persistent() bool {
	return c.dir != nil
}

// Register adds a probe. It is safe to call while the loop is running; the
// probe takes part from the next tick on.
func (c *Checker) Register(probe Probe) {
	c.registry.Register(probe)
}

// Registry returns the checker's probe registry.
func (c *Checker) Registry() *Registry {
	return c.registry
}

// CheckIn records that the host is making progress.
func (c *Checker) CheckIn() {
	c.lastCheckIn.Store(c.now().UnixNano())
}

// MarkLive sets the liveness flag. It cannot be cleared.
func (c *Checker) MarkLive() {
	c.live.Store(true)
}

// Live reports whether MarkLive has been called.
func (c *Checker) Live() bool {
	return c.live.Load()
}

// Start launches the background loop. The first tick runs immediately.
// Calling Start on a running Checker does nothing. After Stop, Start blocks
// until the previous loop has exited.
func (c *Checker) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	if c.done != nil {
		<-c.done
	}
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go c.loop(c.stop, c.done)
}

// Stop signals the loop to exit. A tick in progress completes first; a wait
// between ticks is cut short. Stop does not block; use Done for that. Stop is
// idempotent.
func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.running = false
	close(c.stop)
}

// Done returns a channel closed when the most recently started loop exits.
// It is already closed for a Checker that was never started.
func (c *Checker) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

func (c *Checker) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx := context.Background()
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		c.RunOnce(ctx)

		timer.Reset(c.interval)
		select {
		case <-stop:
			return
		case <-timer.C:
		}
	}
}

// RunOnce runs every probe, builds the snapshot and writes it.
func (c *Checker) RunOnce(ctx context.Context) Snapshot {
	entries := c.registry.snapshot()
	results := make([]ProbeResult, 0, len(entries)+1)
	for _, e := range entries {
		results = append(results, c.runProbe(ctx, e))
	}
	if c.checkIn > 0 {
		results = append(results, c.checkInResult())
	}

	snap := Snapshot{
		Name:      c.name,
		Status:    allPassed(results),
		Liveness:  c.live.Load(),
		Timestamp: unixSeconds(c.now()),
		Timeout:   timeoutSeconds(c.checkIn),
		Results:   results,
	}

	if c.dir != nil {
		if err := c.persist(ctx, snap); err != nil {
			c.logger.Error(ctx, "snapshot write failed",
				observe.Field{Key: "dir", Value: c.dir.Path()},
				observe.ErrorField(err),
			)
		}
	}
	return snap
}

func (c *Checker) runProbe(ctx context.Context, e *entry) ProbeResult {
	p := e.probe
	meta := observe.ProbeMeta{Checker: c.name, Name: p.Name(), PID: c.pid}

	start := time.Now()
	passed, output, _ := c.mw.Wrap(c.invoke(e))(ctx, meta)
	elapsed := time.Since(start)

	return ProbeResult{
		Checker:      p.Name(),
		Output:       output,
		Passed:       passed,
		Timestamp:    unixSeconds(c.now()),
		ResponseTime: round6(elapsed.Seconds()),
	}
}

// invoke adapts e to the instrumented call shape, applying the panic
// boundary and the probe timeout. A probe whose previous call is still
// running is not called again; it fails with ErrProbeBusy.
func (c *Checker) invoke(e *entry) observe.ProbeFunc {
	return func(ctx context.Context, _ observe.ProbeMeta) (bool, any, error) {
		if !e.busy.CompareAndSwap(false, true) {
			return false, ErrProbeBusy.Error(), ErrProbeBusy
		}
		out, err := resilience.Do(ctx, c.probeTimeout, func(ctx context.Context) (probeOutcome, error) {
			// Released when Check returns, even if Do has given up on it.
			defer e.busy.Store(false)
			return safeCheck(ctx, e.probe)
		})
		switch {
		case errors.Is(err, resilience.ErrTimeout):
			err = fmt.Errorf("%w after %s", ErrProbeTimeout, c.probeTimeout)
			return false, err.Error(), err
		case errors.Is(err, ErrProbePanic):
			return false, out.output, err
		case err != nil:
			return false, err.Error(), err
		}
		return out.passed, out.output, nil
	}
}

func (c *Checker) checkInResult() ProbeResult {
	now := c.now()
	res := ProbeResult{
		Checker:   c.name + CheckInSuffix,
		Output:    "",
		Timestamp: unixSeconds(now),
	}

	last := c.lastCheckIn.Load()
	if last == 0 {
		res.Output = "no check-in yet"
		return res
	}
	since := now.Sub(time.Unix(0, last))
	if since > c.checkIn {
		res.Output = fmt.Sprintf("last check-in %s ago exceeds %s", since.Round(time.Millisecond), c.checkIn)
		return res
	}
	res.Passed = true
	return res
}

func (c *Checker) persist(ctx context.Context, snap Snapshot) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := json.NewEncoder(buf).Encode(snap); err != nil {
		// An output that cannot be encoded must not cost the whole snapshot.
		buf.Reset()
		if err := json.NewEncoder(buf).Encode(stringifyOutputs(snap)); err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
	}

	return c.retry.Execute(ctx, func(context.Context) error {
		return c.dir.Write(c.pid, c.name, buf.B)
	})
}

func stringifyOutputs(snap Snapshot) Snapshot {
	results := make([]ProbeResult, len(snap.Results))
	for i, r := range snap.Results {
		if _, err := json.Marshal(r.Output); err != nil {
			r.Output = fmt.Sprint(r.Output)
		}
		results[i] = r
	}
	snap.Results = results
	return snap
}
