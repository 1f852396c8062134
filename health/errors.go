package health

import "errors"

var (
	// ErrInvalidName indicates a Checker was created without a name.
	ErrInvalidName = errors.New("health: checker name is required")

	// ErrProbeTimeout indicates a probe exceeded the probe timeout.
	ErrProbeTimeout = errors.New("health: probe timed out")

	// ErrProbeBusy indicates a probe was skipped because its previous call,
	// abandoned after a timeout, has not returned yet.
	ErrProbeBusy = errors.New("health: probe still running")

	// ErrProbePanic indicates a probe panicked.
	ErrProbePanic = errors.New("health: probe panicked")

	// ErrInvalidSnapshot indicates a snapshot file decoded to an unusable record.
	ErrInvalidSnapshot = errors.New("health: invalid snapshot")

	// ErrCheckFailed is the generic failure returned by built-in probes.
	ErrCheckFailed = errors.New("health: check failed")
)
