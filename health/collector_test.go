package health

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/prochealth/observe"
)

func snapshotAt(name string, ts time.Time, timeout int, status, live bool) Snapshot {
	return Snapshot{
		Name:      name,
		Status:    status,
		Liveness:  live,
		Timestamp: unixSeconds(ts),
		Timeout:   timeout,
		Results:   []ProbeResult{{Checker: "p", Passed: status, Timestamp: unixSeconds(ts)}},
	}
}

func TestCollector_Staleness(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		timeout int
		want    bool
	}{
		{"3s old with 5s timeout is healthy", 3 * time.Second, 5, true},
		{"6s old with 5s timeout is unhealthy", 6 * time.Second, 5, false},
		{"hour old without timeout keeps stored status", time.Hour, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := openDir(t)
			now := baseTime.Add(time.Minute)
			writeSnapshot(t, dir, 100, snapshotAt("w", now.Add(-tt.age), tt.timeout, true, true))

			c := NewCollector(WithStore(dir), WithClock(func() time.Time { return now }))
			ok, report := c.Health(context.Background())
			if ok != tt.want {
				t.Fatalf("Health() = %v, want %v", ok, tt.want)
			}
			if len(report.Results) != 1 {
				t.Fatalf("len(Results) = %d, want 1", len(report.Results))
			}
			if report.Results[0].Status != tt.want {
				t.Errorf("adjusted record status = %v, want %v", report.Results[0].Status, tt.want)
			}
			wantStatus := StatusFailure
			if tt.want {
				wantStatus = StatusSuccess
			}
			if report.Status != wantStatus {
				t.Errorf("report.Status = %q, want %q", report.Status, wantStatus)
			}
		})
	}
}

func TestCollector_StoredFailureStaysFailed(t *testing.T) {
	dir := openDir(t)
	writeSnapshot(t, dir, 1, snapshotAt("w", baseTime, 5, false, true))

	c := NewCollector(WithStore(dir), WithClock(func() time.Time { return baseTime.Add(time.Second) }))
	if ok, _ := c.Health(context.Background()); ok {
		t.Fatal("fresh but failed snapshot must fail")
	}
}

func TestCollector_NotConfigured(t *testing.T) {
	c := NewCollector(WithDir(""), WithHostname("host-a"))

	ok, report := c.Health(context.Background())
	if ok || report.Status != StatusFailure {
		t.Fatalf("Health() = %v, %q", ok, report.Status)
	}
	if !strings.Contains(report.Message, "HEALTH_MULTIPROC_DIR") {
		t.Errorf("Message = %q", report.Message)
	}
	if report.Hostname != "host-a" {
		t.Errorf("Hostname = %q", report.Hostname)
	}

	live, lreport := c.Liveness(context.Background())
	if live || lreport.Liveness || lreport.Message == "" {
		t.Fatalf("Liveness() = %v, %+v", live, lreport)
	}
}

func TestCollector_MissingDirectory(t *testing.T) {
	c := NewCollector(WithDir(filepath.Join(t.TempDir(), "absent")))
	if ok, report := c.Health(context.Background()); ok || report.Message == "" {
		t.Fatalf("Health() = %v, %+v", ok, report)
	}
}

func TestCollector_DirectoryCreatedLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later")
	c := NewCollector(WithDir(path))

	if ok, _ := c.Health(context.Background()); ok {
		t.Fatal("missing directory must fail")
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if ok, _ := c.Health(context.Background()); !ok {
		t.Fatal("empty directory created later should succeed")
	}
}

func TestCollector_EmptyDirectoryIsVacuousSuccess(t *testing.T) {
	c := NewCollector(WithStore(openDir(t)))

	ok, report := c.Health(context.Background())
	if !ok || report.Status != StatusSuccess || len(report.Results) != 0 || report.Message != "" {
		t.Fatalf("Health() = %v, %+v", ok, report)
	}
	if live, _ := c.Liveness(context.Background()); !live {
		t.Fatal("Liveness() on empty directory should succeed")
	}
}

func TestCollector_DirectoryRemoved(t *testing.T) {
	dir := openDir(t)
	writeSnapshot(t, dir, 1, snapshotAt("w", baseTime, 0, true, true))
	c := NewCollector(WithStore(dir))

	if err := os.RemoveAll(dir.Path()); err != nil {
		t.Fatal(err)
	}

	ok, report := c.Health(context.Background())
	if ok || report.Message == "" {
		t.Fatalf("Health() = %v, %+v", ok, report)
	}
}

func TestCollector_SkipsCorruptAndHiddenFiles(t *testing.T) {
	dir := openDir(t)
	writeSnapshot(t, dir, 2, snapshotAt("good", baseTime, 0, true, true))
	writeRaw(t, dir, "1-torn.json", `{"name":"torn","status":fal`)
	writeRaw(t, dir, "3-nots.json", `{"name":"nots","status":true,"results":[]}`)
	writeRaw(t, dir, ".2-good.json.tmp", `{"name":"partial"`)

	var buf bytes.Buffer
	c := NewCollector(WithStore(dir), WithLogger(observe.NewLoggerWithWriter("debug", &buf)))

	ok, report := c.Health(context.Background())
	if !ok {
		t.Fatalf("Health() = false, report %+v", report)
	}
	if len(report.Results) != 1 || report.Results[0].Name != "good" {
		t.Fatalf("Results = %+v", report.Results)
	}
	if n := strings.Count(buf.String(), "skipping invalid snapshot"); n != 2 {
		t.Errorf("logged %d skips, want 2:\n%s", n, buf.String())
	}
}

func TestCollector_CancelledQueryFails(t *testing.T) {
	dir := openDir(t)
	writeSnapshot(t, dir, 1, snapshotAt("w", baseTime, 0, true, true))
	c := NewCollector(WithStore(dir))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, report := c.Health(ctx)
	if ok || report.Status != StatusFailure {
		t.Fatalf("Health() = %v, %+v; want failure", ok, report)
	}
	if !strings.Contains(report.Message, context.Canceled.Error()) {
		t.Errorf("Message = %q", report.Message)
	}

	live, lr := c.Liveness(ctx)
	if live || lr.Message == "" {
		t.Fatalf("Liveness() = %v, %+v; want failure", live, lr)
	}
}

func TestCollector_ResultsSortedByFileName(t *testing.T) {
	dir := openDir(t)
	for _, pid := range []int{30, 10, 20} {
		writeSnapshot(t, dir, pid, snapshotAt("w", baseTime, 0, true, true))
	}
	writeSnapshot(t, dir, 10, snapshotAt("a", baseTime, 0, true, true))

	c := NewCollector(WithStore(dir))
	_, report := c.Health(context.Background())
	if len(report.Results) != 4 {
		t.Fatalf("len(Results) = %d, want 4", len(report.Results))
	}
	// 10-a, 10-w, 20-w, 30-w
	if report.Results[0].Name != "a" || report.Results[1].Name != "w" {
		t.Errorf("unexpected order: %+v", report.Results)
	}
}

func TestCollector_Liveness(t *testing.T) {
	tests := []struct {
		name  string
		flags []bool
		want  bool
	}{
		{"all live", []bool{true, true}, true},
		{"one not live", []bool{true, false}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := openDir(t)
			for i, live := range tt.flags {
				// Staleness does not affect liveness.
				writeSnapshot(t, dir, i+1, snapshotAt("w", baseTime.Add(-time.Hour), 1, false, live))
			}
			c := NewCollector(WithStore(dir), WithHostname("h"))

			ok, report := c.Liveness(context.Background())
			if ok != tt.want || report.Liveness != tt.want {
				t.Fatalf("Liveness() = %v, %+v", ok, report)
			}
			if report.Hostname != "h" || report.Timestamp == 0 {
				t.Errorf("unexpected report: %+v", report)
			}
		})
	}
}

func TestCollector_EndToEndWithCheckers(t *testing.T) {
	dir := openDir(t)
	clock := newFakeClock(baseTime)

	a := newTestChecker(t, "api", WithStore(dir), WithClock(clock.Now), WithCheckInTimeout(5*time.Second))
	a.Register(passingProbe("db"))
	a.CheckIn()
	a.MarkLive()
	a.RunOnce(context.Background())

	c := NewCollector(WithStore(dir), WithClock(clock.Now))
	if ok, _ := c.Health(context.Background()); !ok {
		t.Fatal("fresh snapshot should be healthy")
	}

	// The writer stops refreshing; only the collector notices.
	clock.Advance(6 * time.Second)
	if ok, _ := c.Health(context.Background()); ok {
		t.Fatal("stale snapshot should be unhealthy")
	}
	if ok, _ := c.Liveness(context.Background()); !ok {
		t.Fatal("staleness must not affect liveness")
	}
}
