// Package config loads health settings from an optional YAML file and
// HEALTH_-prefixed environment variables.
//
// Environment keys map onto nested settings with '_' in place of '.':
// HEALTH_MULTIPROC_DIR, HEALTH_RUN_PERIOD, HEALTH_PROBE_TIMEOUT, HEALTH_SELF_CHECK,
// HEALTH_HTTP_ADDRESS, HEALTH_LOGGING_LEVEL, HEALTH_LOGGING_FILE,
// HEALTH_TRACING_EXPORTER and HEALTH_METRICS_EXPORTER. Durations accept Go
// duration syntax ("1m30s") or bare seconds ("5", "0.5").
package config
