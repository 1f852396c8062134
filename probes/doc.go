// Package probes provides ready-made health.Probe implementations for common
// dependencies: TCP and HTTP endpoints, DNS, goroutine counts, SQL, MySQL and
// PostgreSQL databases, and disk usage of a path such as the snapshot
// directory.
//
// Network checks are built on github.com/heptiolabs/healthcheck; any Check
// from that package can be adapted with FromCheck.
package probes
