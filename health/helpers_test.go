package health

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/prochealth/store"
)

var baseTime = time.Unix(1_700_000_000, 0)

// fakeClock is a settable clock for WithClock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func openDir(t testing.TB) *store.Dir {
	t.Helper()
	d, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	return d
}

func writeSnapshot(t testing.TB, dir *store.Dir, pid int, snap Snapshot) {
	t.Helper()
	if snap.Results == nil {
		snap.Results = []ProbeResult{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if err := dir.Write(pid, snap.Name, data); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
}

func writeRaw(t *testing.T, dir *store.Dir, file string, data string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir.Path(), file), []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func passingProbe(name string) Probe {
	return NewProbeFunc(name, func(context.Context) (bool, any) { return true, "ok" })
}

func failingProbe(name string, output any) Probe {
	return NewProbeFunc(name, func(context.Context) (bool, any) { return false, output })
}
