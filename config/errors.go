package config

import "errors"

var (
	// ErrInvalid wraps every validation failure returned by Load and FromEnv.
	ErrInvalid = errors.New("config: invalid configuration")

	// ErrReadFile indicates the config file exists but could not be read or parsed.
	ErrReadFile = errors.New("config: read config file")

	// ErrInvalidDuration indicates a duration value in neither Go nor seconds syntax.
	ErrInvalidDuration = errors.New("config: invalid duration")

	// ErrUnsetVariable indicates a path references an unset environment variable.
	ErrUnsetVariable = errors.New("config: unset environment variable")
)
