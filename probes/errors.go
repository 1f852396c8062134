package probes

import "errors"

var (
	// ErrDiskUsage indicates the disk holding a path is fuller than allowed.
	ErrDiskUsage = errors.New("probes: disk usage above threshold")

	// ErrInvalidDSN indicates a database DSN could not be parsed.
	ErrInvalidDSN = errors.New("probes: invalid dsn")
)
