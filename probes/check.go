package probes

import (
	"context"
	"database/sql"
	"time"

	"github.com/heptiolabs/healthcheck"

	"github.com/jonwraymond/prochealth/health"
)

// FromCheck adapts a healthcheck.Check. The check's error text becomes the
// probe output.
func FromCheck(name string, check healthcheck.Check) health.Probe {
	return health.NewErrorProbe(name, func(context.Context) error {
		return check()
	})
}

// TCPDial passes when addr accepts a TCP connection within timeout.
func TCPDial(name, addr string, timeout time.Duration) health.Probe {
	return FromCheck(name, healthcheck.TCPDialCheck(addr, timeout))
}

// HTTPGet passes when url answers a GET with a 200 within timeout.
func HTTPGet(name, url string, timeout time.Duration) health.Probe {
	return FromCheck(name, healthcheck.HTTPGetCheck(url, timeout))
}

// DNSResolve passes when host resolves to at least one address within timeout.
func DNSResolve(name, host string, timeout time.Duration) health.Probe {
	return FromCheck(name, healthcheck.DNSResolveCheck(host, timeout))
}

// Goroutines passes while the process runs at most threshold goroutines.
func Goroutines(name string, threshold int) health.Probe {
	return FromCheck(name, healthcheck.GoroutineCountCheck(threshold))
}

// SQLPing passes when db answers a ping within timeout.
func SQLPing(name string, db *sql.DB, timeout time.Duration) health.Probe {
	return FromCheck(name, healthcheck.DatabasePingCheck(db, timeout))
}
