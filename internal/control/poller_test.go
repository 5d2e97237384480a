package control

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"
)

// fakeClock advances only when the poller sleeps
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

func newTestPoller(pidPath string) (*Poller, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	cfg := DefaultPollerConfig()
	cfg.IdentityPath = pidPath
	p := NewPoller(cfg)
	p.SetLogger(nil)
	p.now = clock.Now
	p.sleep = clock.Sleep
	return p, clock
}

func TestPollSuccess(t *testing.T) {
	d := newFakeDaemon(t)
	d.nodes = []string{nodeLine("X", "10"), nodeLine("Y", "0"), nodeLine("Z", "10")}
	d.edges = []string{edgeLine("X", "Z", "50")}
	d.subnets = []string{subnetLine("10.0.0.1/32", "X")}
	d.start()

	p, clock := newTestPoller(writePidFile(t, d.port()))

	dump, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error: %v", err)
	}
	if dump.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", dump.Attempts)
	}
	if len(dump.Nodes) != 3 || len(dump.Edges) != 1 || len(dump.Subnets) != 1 {
		t.Errorf("unexpected dump sizes: %d nodes, %d edges, %d subnets",
			len(dump.Nodes), len(dump.Edges), len(dump.Subnets))
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("expected no retry sleeps, got %v", clock.sleeps)
	}
}

func TestPollRetriesUntilSuccess(t *testing.T) {
	d := newFakeDaemon(t)
	d.nodes = []string{nodeLine("a", "10")}
	d.edges = []string{edgeLine("a", "a", "1")}
	d.hangupBefore = 2
	d.start()

	p, clock := newTestPoller(writePidFile(t, d.port()))

	dump, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error: %v", err)
	}
	if dump.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", dump.Attempts)
	}
	if len(clock.sleeps) != 2 {
		t.Errorf("expected 2 retry sleeps, got %v", clock.sleeps)
	}
	for _, s := range clock.sleeps {
		if s != time.Second {
			t.Errorf("retry delay = %s, want 1s", s)
		}
	}
}

func TestPollTimesOut(t *testing.T) {
	d := newFakeDaemon(t)
	d.rejectAll = true
	d.start()

	p, clock := newTestPoller(writePidFile(t, d.port()))

	_, err := p.Poll(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Poll() error = %v, want timeout", err)
	}
	if got := d.accepted.Load(); got != 5 {
		t.Errorf("daemon saw %d attempts, want 5 within a 5s budget", got)
	}
	if len(clock.sleeps) != 4 {
		t.Errorf("expected 4 retry sleeps, got %v", clock.sleeps)
	}
}

func TestPollIdentityNotFound(t *testing.T) {
	p, clock := newTestPoller(filepath.Join(t.TempDir(), "missing.pid"))

	_, err := p.Poll(context.Background())
	if kind, ok := KindOf(err); !ok || kind != KindIdentityNotFound {
		t.Fatalf("Poll() error = %v, want identity not found", err)
	}
	if len(clock.sleeps) != 0 {
		t.Error("identity failures must not be retried")
	}
}

func TestPollConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	p, clock := newTestPoller(writePidFile(t, port))

	_, err = p.Poll(context.Background())
	if !errors.Is(err, ErrConnectionRefused) {
		t.Fatalf("Poll() error = %v, want connection refused", err)
	}
	if len(clock.sleeps) != 0 {
		t.Error("refused connections must not be retried")
	}
}

func TestPollPurgeFailureIsNotFatal(t *testing.T) {
	d := newFakeDaemon(t)
	d.nodes = []string{nodeLine("a", "10")}
	d.purgeReply = "garbage"
	d.start()

	p, _ := newTestPoller(writePidFile(t, d.port()))
	logger := &recordingLogger{}
	p.SetLogger(logger)

	if _, err := p.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() error: %v", err)
	}
	if len(logger.lines) != 1 {
		t.Errorf("expected purge failure to be logged once, got %v", logger.lines)
	}
}

func TestPollCancelled(t *testing.T) {
	d := newFakeDaemon(t)
	d.rejectAll = true
	d.start()

	p, _ := newTestPoller(writePidFile(t, d.port()))
	ctx, cancel := context.WithCancel(context.Background())
	p.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	_, err := p.Poll(ctx)
	if !errors.Is(err, ErrTimeout) || !errors.Is(err, context.Canceled) {
		t.Errorf("Poll() error = %v, want cancelled timeout", err)
	}
}
