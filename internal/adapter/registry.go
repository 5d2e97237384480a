package adapter

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// DefaultPollInterval is used when a polling adapter is registered without one
const DefaultPollInterval = 20 * time.Second

// PublishFunc receives every sync result
type PublishFunc func(ctx context.Context, result Result) error

// Registry manages all registered adapters and their lifecycle
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	configs  map[string]AdapterConfig
	syncMu   map[string]*sync.Mutex
	last     map[string]Result
	publish  PublishFunc
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewRegistry creates a new adapter registry
func NewRegistry(publish PublishFunc) *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		configs:  make(map[string]AdapterConfig),
		syncMu:   make(map[string]*sync.Mutex),
		last:     make(map[string]Result),
		publish:  publish,
		now:      time.Now,
	}
}

// Register adds an adapter to the registry
func (r *Registry) Register(adapter Adapter, config AdapterConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := adapter.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter %s already registered", name)
	}

	if adapter.Type() == AdapterTypePolling && config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	r.adapters[name] = adapter
	r.configs[name] = config
	r.syncMu[name] = &sync.Mutex{}
	log.Printf("Registered adapter: %s (type=%s, enabled=%v)", name, adapter.Type(), config.Enabled)

	return nil
}

// Start initializes all enabled adapters and begins their sync cycles
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ctx, r.cancel = context.WithCancel(ctx)

	for name, adapter := range r.adapters {
		config := r.configs[name]
		if !config.Enabled {
			log.Printf("Adapter %s is disabled, skipping", name)
			continue
		}

		if err := adapter.Start(r.ctx); err != nil {
			log.Printf("Failed to start adapter %s: %v", name, err)
			continue
		}

		if adapter.Type() == AdapterTypePolling {
			r.startPollingLoop(name, adapter, config)
		}
	}

	return nil
}

// Stop gracefully shuts down all adapters
func (r *Registry) Stop() error {
	r.mu.RLock()
	cancel := r.cancel
	r.mu.RUnlock()

	if cancel != nil {
		cancel()
	}

	// Polling loops take r.mu through runSync, so wait without holding it
	r.wg.Wait()

	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, adapter := range r.adapters {
		if err := adapter.Stop(); err != nil {
			log.Printf("Error stopping adapter %s: %v", name, err)
		}
	}

	return nil
}

// TriggerSync manually triggers a sync for a specific adapter
func (r *Registry) TriggerSync(ctx context.Context, name string) error {
	r.mu.RLock()
	adapter, exists := r.adapters[name]
	config := r.configs[name]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("adapter %s not found", name)
	}

	if !config.Enabled {
		return fmt.Errorf("adapter %s is disabled", name)
	}

	return r.runSync(ctx, name, adapter)
}

// TriggerSyncAll manually triggers sync for all enabled adapters
func (r *Registry) TriggerSyncAll(ctx context.Context) error {
	r.mu.RLock()
	targets := make(map[string]Adapter)
	for name, adapter := range r.adapters {
		if r.configs[name].Enabled {
			targets[name] = adapter
		}
	}
	r.mu.RUnlock()

	var errs []error
	for name, adapter := range targets {
		if err := r.runSync(ctx, name, adapter); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("sync errors: %v", errs)
	}
	return nil
}

// AdapterInfo provides read-only information about an adapter
type AdapterInfo struct {
	Name         string      `json:"name"`
	Type         AdapterType `json:"type"`
	Enabled      bool        `json:"enabled"`
	PollInterval string      `json:"poll_interval,omitempty"`
	LastSync     *time.Time  `json:"last_sync,omitempty"`
	LastError    string      `json:"last_error,omitempty"`
}

// ListAdapters returns information about registered adapters, sorted by name
func (r *Registry) ListAdapters() []AdapterInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]AdapterInfo, 0, len(r.adapters))
	for name, adapter := range r.adapters {
		config := r.configs[name]
		info := AdapterInfo{
			Name:    name,
			Type:    adapter.Type(),
			Enabled: config.Enabled,
		}
		if config.PollInterval > 0 {
			info.PollInterval = config.PollInterval.String()
		}
		if last, ok := r.last[name]; ok {
			at := last.StartedAt
			info.LastSync = &at
			if last.Err != nil {
				info.LastError = last.Err.Error()
			}
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// startPollingLoop starts a goroutine that polls the adapter on schedule
func (r *Registry) startPollingLoop(name string, adapter Adapter, config AdapterConfig) {
	ctx := r.ctx
	interval := config.PollInterval

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		// Run initial sync
		if err := r.runSync(ctx, name, adapter); err != nil {
			log.Printf("Initial sync failed for %s: %v", name, err)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Printf("Stopping polling loop for %s", name)
				return
			case <-ticker.C:
				if err := r.runSync(ctx, name, adapter); err != nil {
					log.Printf("Sync failed for %s: %v", name, err)
				}
			}
		}
	}()

	log.Printf("Started polling loop for %s (interval=%s)", name, interval)
}

// runSync executes one sync and hands the result to the publish func.
// Syncs of the same adapter never overlap.
func (r *Registry) runSync(ctx context.Context, name string, adapter Adapter) error {
	r.mu.RLock()
	lock := r.syncMu[name]
	r.mu.RUnlock()

	lock.Lock()
	defer lock.Unlock()

	started := r.now()
	graph, err := adapter.Sync(ctx)
	result := Result{
		Source:    name,
		StartedAt: started,
		Duration:  r.now().Sub(started),
		Graph:     graph,
		Err:       err,
	}
	if err != nil {
		result.Graph = nil
	}
	if reporter, ok := adapter.(SkipReporter); ok {
		result.Skipped = reporter.LastSkipped()
	}

	r.mu.Lock()
	r.last[name] = result
	r.mu.Unlock()

	if r.publish != nil {
		if perr := r.publish(ctx, result); perr != nil {
			return fmt.Errorf("publish failed: %w", perr)
		}
	}

	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}
