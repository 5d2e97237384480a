package control

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"tincgraph/internal/domain"
)

// Logger is the diagnostic sink; *log.Logger satisfies it
type Logger interface {
	Printf(format string, v ...any)
}

type discard struct{}

func (discard) Printf(string, ...any) {}

// Dump holds the raw records of one successful poll
type Dump struct {
	Nodes    []domain.RawNode
	Edges    []domain.RawEdge
	Subnets  []domain.RawSubnet
	Skipped  int // malformed lines dropped
	Attempts int
}

// PollerConfig holds the connection and retry settings
type PollerConfig struct {
	// IdentityPath is the daemon pid file holding the control port and cookie
	IdentityPath string
	// Host is the control socket address; the port comes from the pid file
	Host string
	// RetryDelay is the pause between failed attempts
	RetryDelay time.Duration
	// RetryBudget is the wall-clock limit for the whole poll
	RetryBudget time.Duration
}

// DefaultPollerConfig returns the defaults used by the tinc adapter
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		IdentityPath: "/var/run/tinc.pid",
		Host:         "127.0.0.1",
		RetryDelay:   time.Second,
		RetryBudget:  5 * time.Second,
	}
}

// Poller fetches node, edge and subnet dumps from the daemon
type Poller struct {
	config PollerConfig
	log    Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a poller; it does no I/O until Poll
func NewPoller(config PollerConfig) *Poller {
	if config.Host == "" {
		config.Host = "127.0.0.1"
	}
	return &Poller{
		config: config,
		log:    log.Default(),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// SetLogger replaces the diagnostic sink
func (p *Poller) SetLogger(l Logger) {
	if l == nil {
		l = discard{}
	}
	p.log = l
}

// Config returns the poller settings
func (p *Poller) Config() PollerConfig {
	return p.config
}

// Poll runs attempts until one yields all three dumps or the retry budget is spent.
// The pid file is read once per poll. The returned error is always an *Error of kind
// KindIdentityNotFound, KindConnectionRefused or KindTimeout.
func (p *Poller) Poll(ctx context.Context) (*Dump, error) {
	id, err := ReadIdentity(p.config.IdentityPath)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(p.config.Host, strconv.Itoa(id.Port))
	start := p.now()

	for attempt := 1; ; attempt++ {
		remaining := p.config.RetryBudget - p.now().Sub(start)
		dump, err := p.attempt(ctx, addr, id, time.Now().Add(remaining))
		if err == nil {
			dump.Attempts = attempt
			return dump, nil
		}

		if kind, ok := KindOf(err); ok && kind.Terminal() {
			return nil, err
		}
		p.log.Printf("Poll attempt %d against %s failed: %v", attempt, addr, err)

		if ctx.Err() != nil {
			return nil, newError(KindTimeout, "poll cancelled", ctx.Err())
		}
		if p.now().Sub(start)+p.config.RetryDelay >= p.config.RetryBudget {
			return nil, newError(KindTimeout,
				fmt.Sprintf("no complete dump after %d attempts in %s", attempt, p.config.RetryBudget), err)
		}
		if err := p.sleep(ctx, p.config.RetryDelay); err != nil {
			return nil, newError(KindTimeout, "poll cancelled", err)
		}
	}
}

// attempt performs one connect, handshake, three dumps and purge
func (p *Poller) attempt(ctx context.Context, addr string, id Identity, deadline time.Time) (*Dump, error) {
	conn, err := Dial(ctx, addr, id, deadline, p.log)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	dump := &Dump{}
	if dump.Nodes, err = conn.DumpNodes(); err != nil {
		return nil, err
	}
	if dump.Edges, err = conn.DumpEdges(); err != nil {
		return nil, err
	}
	if dump.Subnets, err = conn.DumpSubnets(); err != nil {
		return nil, err
	}
	dump.Skipped = conn.Skipped()

	if err := conn.Purge(); err != nil {
		p.log.Printf("Purge failed (ignored): %v", err)
	}

	return dump, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
