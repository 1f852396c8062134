package config

import (
	"errors"
	"fmt"
	"net"
	"reflect"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/jonwraymond/prochealth/observe"
	"github.com/jonwraymond/prochealth/observe/exporters"
)

// EnvPrefix is prepended to every environment key.
const EnvPrefix = "HEALTH"

// Defaults.
const (
	DefaultRunPeriod   = 5 * time.Second
	DefaultAddress     = ":8080"
	DefaultServiceName = "prochealth"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type TracingConfig struct {
	Exporter  string  `mapstructure:"exporter"`
	SamplePct float64 `mapstructure:"sample_pct"`
}

type MetricsConfig struct {
	Exporter string `mapstructure:"exporter"`
}

// Config is the full set of health settings.
type Config struct {
	ServiceName string `mapstructure:"service_name"`

	// MultiprocDir is the shared snapshot directory. Empty disables
	// persistence and makes every collector query fail.
	MultiprocDir string `mapstructure:"multiproc_dir"`

	// RunPeriod is the delay between checker ticks.
	RunPeriod time.Duration `mapstructure:"run_period"`

	// ProbeTimeout bounds each probe invocation. Zero means unbounded.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`

	// SelfCheck makes the health server publish its own snapshot (disk,
	// memory and goroutine probes) next to the workers'.
	SelfCheck bool `mapstructure:"self_check"`

	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type loadOptions struct {
	file   string
	paths  []string
	noFile bool
}

// Option configures Load.
type Option func(*loadOptions)

// WithConfigFile reads settings from an explicit file. A missing explicit
// file is an error.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) { o.file = path }
}

// WithConfigPaths replaces the directories searched for health.yaml.
func WithConfigPaths(paths ...string) Option {
	return func(o *loadOptions) { o.paths = paths }
}

func withoutFile() Option {
	return func(o *loadOptions) { o.noFile = true }
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		ServiceName: DefaultServiceName,
		RunPeriod:   DefaultRunPeriod,
		HTTP:        HTTPConfig{Address: DefaultAddress},
		Logging:     LoggingConfig{Level: LogLevelInfo},
		Tracing:     TracingConfig{Exporter: "none", SamplePct: 1.0},
		Metrics:     MetricsConfig{Exporter: "none"},
	}
}

// Load reads defaults, then health.yaml from "." or "./config" when present,
// then the environment, and validates the result.
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{paths: []string{".", "./config"}}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if !o.noFile {
		if err := readFile(v, o); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.DecodeHookFuncType(durationHook))); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv loads settings from defaults and the environment only.
func FromEnv() (*Config, error) {
	return Load(withoutFile())
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("service_name", d.ServiceName)
	v.SetDefault("multiproc_dir", "")
	v.SetDefault("run_period", d.RunPeriod.String())
	v.SetDefault("probe_timeout", "0")
	v.SetDefault("self_check", false)
	v.SetDefault("http.address", d.HTTP.Address)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", "")
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.sample_pct", d.Tracing.SamplePct)
	v.SetDefault("metrics.exporter", d.Metrics.Exporter)
}

func readFile(v *viper.Viper, o loadOptions) error {
	if o.file != "" {
		v.SetConfigFile(o.file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: %w", ErrReadFile, err)
		}
		return nil
	}

	v.SetConfigName("health")
	v.SetConfigType("yaml")
	for _, p := range o.paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// durationHook decodes durations from Go syntax or bare seconds.
func durationHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String:
		return ParseDuration(data.(string))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
	default:
		return data, nil
	}
}

// ParseDuration parses a Go duration ("1m30s") or a number of seconds ("5", "0.5").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return d, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.ServiceName, validation.Required),
		validation.Field(&c.RunPeriod,
			validation.Required,
			validation.Min(time.Millisecond).Error("must be at least 1ms"),
		),
		validation.Field(&c.ProbeTimeout, validation.Min(time.Duration(0)).Error("must not be negative")),
		validation.Field(&c.HTTP, validation.By(func(value interface{}) error {
			hc, ok := value.(HTTPConfig)
			if !ok {
				return validation.NewError("validation_invalid_type", "must be an HTTPConfig")
			}
			return validation.ValidateStruct(&hc,
				validation.Field(&hc.Address, validation.Required, validation.By(validateHostPort)),
			)
		})),
		validation.Field(&c.Logging, validation.By(func(value interface{}) error {
			lc, ok := value.(LoggingConfig)
			if !ok {
				return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
			}
			return validation.ValidateStruct(&lc,
				validation.Field(&lc.Level,
					validation.Required,
					validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
				),
			)
		})),
		validation.Field(&c.Tracing, validation.By(func(value interface{}) error {
			tc, ok := value.(TracingConfig)
			if !ok {
				return validation.NewError("validation_invalid_type", "must be a TracingConfig")
			}
			return validation.ValidateStruct(&tc,
				validation.Field(&tc.Exporter, validation.By(exporterRule(exporters.ValidTracing))),
				validation.Field(&tc.SamplePct, validation.Min(0.0), validation.Max(1.0)),
			)
		})),
		validation.Field(&c.Metrics, validation.By(func(value interface{}) error {
			mc, ok := value.(MetricsConfig)
			if !ok {
				return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
			}
			return validation.ValidateStruct(&mc,
				validation.Field(&mc.Exporter, validation.By(exporterRule(exporters.ValidMetrics))),
			)
		})),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func exporterRule(valid func(string) bool) validation.RuleFunc {
	return func(value interface{}) error {
		name, _ := value.(string)
		if !valid(name) {
			return validation.NewError("validation_invalid_exporter", "unknown exporter")
		}
		return nil
	}
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}
	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}
	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}
	return nil
}

// Observe returns the telemetry settings for observe.NewObserver.
func (c *Config) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   c.Tracing.Exporter != "" && c.Tracing.Exporter != "none",
			Exporter:  c.Tracing.Exporter,
			SamplePct: c.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Metrics.Exporter != "" && c.Metrics.Exporter != "none",
			Exporter: c.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Logging.Level,
			File:    c.Logging.File,
		},
	}
}
