package health

import (
	"context"
	"fmt"
)

// Probe is a single named health check.
//
// Check reports whether the check passed and an output describing the
// outcome. The output is stored in the snapshot as JSON, so it should be a
// string, number, map or other JSON-encodable value. A probe is never
// invoked concurrently with itself.
type Probe interface {
	// Name returns the name reported in results.
	Name() string

	// Check performs the check.
	Check(ctx context.Context) (passed bool, output any)
}

// ProbeFunc is an adapter to allow ordinary functions to be used as Probes.
type ProbeFunc struct {
	name string
	fn   func(context.Context) (bool, any)
}

// NewProbeFunc creates a new ProbeFunc.
func NewProbeFunc(name string, fn func(context.Context) (bool, any)) *ProbeFunc {
	return &ProbeFunc{name: name, fn: fn}
}

// Name returns the name of this probe.
func (f *ProbeFunc) Name() string {
	return f.name
}

// Check performs the check.
func (f *ProbeFunc) Check(ctx context.Context) (bool, any) {
	return f.fn(ctx)
}

// ErrorProbe adapts an error-returning function. A nil error passes with an
// empty output; otherwise the error text is the output.
type ErrorProbe struct {
	name string
	fn   func(context.Context) error
}

// NewErrorProbe creates a new ErrorProbe.
func NewErrorProbe(name string, fn func(context.Context) error) *ErrorProbe {
	return &ErrorProbe{name: name, fn: fn}
}

// Name returns the name of this probe.
func (p *ErrorProbe) Name() string {
	return p.name
}

// Check performs the check.
func (p *ErrorProbe) Check(ctx context.Context) (bool, any) {
	if err := p.fn(ctx); err != nil {
		return false, err.Error()
	}
	return true, ""
}

type probeOutcome struct {
	passed bool
	output any
}

// safeCheck runs p, turning a panic into a failed outcome.
func safeCheck(ctx context.Context, p Probe) (out probeOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = probeOutcome{passed: false, output: fmt.Sprintf("panic: %v", r)}
			err = fmt.Errorf("%w: %v", ErrProbePanic, r)
		}
	}()

	passed, output := p.Check(ctx)
	return probeOutcome{passed: passed, output: output}, nil
}
