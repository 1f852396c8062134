package config

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Runtime is the part of Config that checkers and collectors read.
type Runtime struct {
	MultiprocDir string
	RunPeriod    time.Duration
	ProbeTimeout time.Duration
}

// RuntimeFromEnv reads HEALTH_MULTIPROC_DIR, HEALTH_RUN_PERIOD and
// HEALTH_PROBE_TIMEOUT only; no other key is read or validated. A rejected
// value falls back to its default and the other values are kept. The error
// wraps ErrInvalid and names every rejected key.
func RuntimeFromEnv() (Runtime, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	rt := Runtime{RunPeriod: DefaultRunPeriod}
	var errs []error

	raw := v.GetString("multiproc_dir")
	dir, err := ExpandPath(raw)
	if err != nil {
		// Keep the raw path so opening it reports what was configured.
		dir = raw
		errs = append(errs, fmt.Errorf("multiproc_dir: %w", err))
	}
	rt.MultiprocDir = dir

	if raw := v.GetString("run_period"); raw != "" {
		d, err := parseRuntimeDuration(raw,
			validation.Required,
			validation.Min(time.Millisecond).Error("must be at least 1ms"),
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("run_period: %w", err))
		} else {
			rt.RunPeriod = d
		}
	}

	if raw := v.GetString("probe_timeout"); raw != "" {
		d, err := parseRuntimeDuration(raw, validation.Min(time.Duration(0)).Error("must not be negative"))
		if err != nil {
			errs = append(errs, fmt.Errorf("probe_timeout: %w", err))
		} else {
			rt.ProbeTimeout = d
		}
	}

	if len(errs) > 0 {
		return rt, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return rt, nil
}

func parseRuntimeDuration(raw string, rules ...validation.Rule) (time.Duration, error) {
	d, err := ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if err := validation.Validate(d, rules...); err != nil {
		return 0, err
	}
	return d, nil
}
