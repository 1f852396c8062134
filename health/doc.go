// Package health reports the aggregate health and liveness of a service that
// runs as several independent processes.
//
// Each process owns a Checker. The Checker runs its registered probes on a
// fixed period and publishes the outcome as a JSON snapshot into a shared
// directory, one file per process and checker name. A Collector, usually in
// a single serving process, reads every snapshot on demand and reduces them
// into one verdict. The Responder exposes that verdict over HTTP.
//
// # Core Concepts
//
// A Probe is a named check returning (passed, output). Probes run in
// registration order, one at a time, and a probe that returns an error,
// panics or exceeds the probe timeout simply fails.
//
// The check-in timer is optional. With a non-zero check-in timeout the
// Checker adds a synthetic "<name>-periodic-checkin" result that passes only
// while the host calls CheckIn more often than the timeout. The same timeout
// is written into the snapshot so the Collector can declare a snapshot stale
// once its writer stops refreshing it, for example after the process died.
//
// Liveness is a one-shot latch: MarkLive sets it and nothing clears it.
//
// # Basic Usage
//
//	checker, err := health.NewChecker("worker",
//	    health.WithDir("/var/run/health"),
//	    health.WithCheckInTimeout(30*time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//	checker.Register(health.NewErrorProbe("database", db.PingContext))
//	checker.Start()
//	defer checker.Stop()
//
//	checker.MarkLive()
//	for job := range jobs {
//	    process(job)
//	    checker.CheckIn()
//	}
//
// # HTTP Endpoints
//
//	collector := health.NewCollector(health.WithDir("/var/run/health"))
//	responder := health.NewResponder(collector)
//
//	mux := http.NewServeMux()
//	responder.RegisterHandlers(mux) // GET /healthcheck, GET /liveness
//
// Both endpoints answer 200 when the reduction succeeds and 500 otherwise,
// always with a JSON body.
package health
