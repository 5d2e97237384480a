package adapter

import (
	"context"
	"log"
	"sync"

	"tincgraph/internal/control"
	"tincgraph/internal/domain"
)

// TincAdapterName is the registry name of the tinc control adapter
const TincAdapterName = "tinc"

// TincAdapter polls a tinc daemon's control socket and builds the mesh graph
type TincAdapter struct {
	poller *control.Poller
	poll   func(ctx context.Context) (*control.Dump, error)
	debug  bool

	mu      sync.Mutex
	skipped int
}

// NewTincAdapter creates an adapter around poller
func NewTincAdapter(poller *control.Poller) *TincAdapter {
	return &TincAdapter{
		poller: poller,
		poll:   poller.Poll,
	}
}

// SetDebug enables per-poll graph logging
func (a *TincAdapter) SetDebug(debug bool) {
	a.debug = debug
}

// Name returns the adapter name
func (a *TincAdapter) Name() string { return TincAdapterName }

// Type returns the adapter type
func (a *TincAdapter) Type() AdapterType { return AdapterTypePolling }

// Start is a no-op; every poll opens its own connection
func (a *TincAdapter) Start(ctx context.Context) error {
	log.Printf("Tinc adapter watching %s", a.poller.Config().IdentityPath)
	return nil
}

// Stop is a no-op
func (a *TincAdapter) Stop() error { return nil }

// Sync polls the daemon once and builds a graph of its live nodes
func (a *TincAdapter) Sync(ctx context.Context) (*domain.Graph, error) {
	dump, err := a.poll(ctx)
	if err != nil {
		a.setSkipped(0)
		return nil, err
	}
	a.setSkipped(dump.Skipped)

	graph := domain.BuildGraph(dump.Nodes, dump.Subnets, dump.Edges)
	if a.debug {
		a.debugf("Dump after %d attempt(s): %d nodes, %d edges, %d subnets, %d skipped",
			dump.Attempts, len(dump.Nodes), len(dump.Edges), len(dump.Subnets), dump.Skipped)
		for _, node := range graph.Nodes {
			a.debugf("  node %d %s nets=%v edges=%d", node.Index, node.Name, node.Subnets, node.Degree)
		}
		a.debugf("Graph: %s", graph.Summary())
	}
	return graph, nil
}

// LastSkipped implements SkipReporter
func (a *TincAdapter) LastSkipped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.skipped
}

func (a *TincAdapter) setSkipped(n int) {
	a.mu.Lock()
	a.skipped = n
	a.mu.Unlock()
}

func (a *TincAdapter) debugf(format string, v ...any) {
	log.Printf("[debug] "+format, v...)
}
