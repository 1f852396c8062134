package health

import (
	"context"
	"os"
	"time"

	"github.com/jonwraymond/prochealth/config"
	"github.com/jonwraymond/prochealth/observe"
	"github.com/jonwraymond/prochealth/store"
)

// Option configures a Checker or a Collector. Options that only make sense
// for one of them are ignored by the other.
type Option func(*settings)

type settings struct {
	interval       time.Duration
	intervalSet    bool
	checkIn        time.Duration
	probeTimeout   time.Duration
	probeTimeoutOK bool

	dir     *store.Dir
	dirPath string
	dirSet  bool

	logger   observe.Logger
	observer observe.Observer
	clock    func() time.Time
	hostname string
}

// WithInterval sets the delay between checker ticks.
func WithInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.interval = d
			s.intervalSet = true
		}
	}
}

// WithCheckInTimeout enables the periodic check-in result. The snapshot
// records the timeout in whole seconds, rounded up. Zero disables it.
func WithCheckInTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d < 0 {
			d = 0
		}
		s.checkIn = d
	}
}

// WithProbeTimeout bounds each probe invocation. Zero means unbounded.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d < 0 {
			d = 0
		}
		s.probeTimeout = d
		s.probeTimeoutOK = true
	}
}

// WithStore uses an already opened snapshot directory.
func WithStore(dir *store.Dir) Option {
	return func(s *settings) {
		s.dir = dir
		s.dirPath = ""
		s.dirSet = true
		if dir != nil {
			s.dirPath = dir.Path()
		}
	}
}

// WithDir sets the snapshot directory path. An empty path leaves the
// directory unconfigured.
func WithDir(path string) Option {
	return func(s *settings) {
		s.dir = nil
		s.dirPath = path
		s.dirSet = true
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver records traces and metrics through obs. The observer's
// logger is used unless WithLogger is also given.
func WithObserver(obs observe.Observer) Option {
	return func(s *settings) { s.observer = obs }
}

// WithClock replaces time.Now for timestamps and staleness checks.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithHostname overrides the hostname reported by the Collector.
func WithHostname(name string) Option {
	return func(s *settings) { s.hostname = name }
}

func newSettings(opts []Option) *settings {
	s := &settings{clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		if s.observer != nil {
			s.logger = s.observer.Logger()
		} else {
			s.logger = observe.NopLogger()
		}
	}

	if !s.intervalSet || !s.dirSet || !s.probeTimeoutOK {
		env, err := config.RuntimeFromEnv()
		if err != nil {
			s.logger.Warn(context.Background(), "ignoring invalid health environment values",
				observe.ErrorField(err),
			)
		}
		if !s.intervalSet {
			s.interval = env.RunPeriod
		}
		if !s.dirSet {
			s.dirPath = env.MultiprocDir
		}
		if !s.probeTimeoutOK {
			s.probeTimeout = env.ProbeTimeout
		}
	}

	if s.hostname == "" {
		s.hostname, _ = os.Hostname()
	}
	return s
}

// middleware builds the probe instrumentation for these settings.
func (s *settings) middleware() *observe.Middleware {
	var tracer observe.Tracer
	if s.observer != nil {
		tracer = observe.NewTracer(s.observer.Tracer())
	}
	return observe.NewMiddleware(tracer, s.metrics(), s.logger)
}

// metrics returns the collection metrics sink for these settings.
func (s *settings) metrics() observe.Metrics {
	if s.observer != nil {
		if m, err := observe.NewMetrics(s.observer.Meter()); err == nil {
			return m
		}
	}
	return observe.NopMetrics()
}
