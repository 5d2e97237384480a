package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tincgraph/internal/adapter"
	"tincgraph/internal/config"
	"tincgraph/internal/control"
	"tincgraph/internal/handler"
	"tincgraph/internal/hub"
	"tincgraph/internal/repository/sqlite"
	"tincgraph/internal/service"
	"tincgraph/internal/watcher"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	pidFile := flag.String("pidfile", "", "tincd pid file holding the control port and cookie")
	addr := flag.String("addr", "", "HTTP listen address")
	webRoot := flag.String("www", "", "Static web root; the snapshot is written below it")
	debug := flag.Bool("debug", false, "Log every poll's graph")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting tincgraph...")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override the file
	if *pidFile != "" {
		cfg.Daemon.PidFile = *pidFile
	}
	if *addr != "" {
		cfg.Web.Addr = *addr
	}
	if *webRoot != "" {
		cfg.Web.Root = *webRoot
	}
	if *debug {
		cfg.Debug = true
	}
	log.Printf("Config:\n%s", cfg.Summary())

	// Initialize poll journal
	journal, err := sqlite.New(cfg.Journal.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer journal.Close()
	log.Printf("Database opened: %s", cfg.Journal.Path)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize event bus
	eventBus := service.NewEventBus()

	// Initialize SSE hub
	sseHub := hub.New()
	go sseHub.Run(ctx)

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for {
			select {
			case event := <-eventChan:
				sseHub.Broadcast(string(event.Type), event.Payload)
			case <-ctx.Done():
				return
			}
		}
	}()

	snapshots := service.NewSnapshotService(service.SnapshotOptions{
		GraphPath:  cfg.GraphFile(),
		StatusPath: cfg.StatusFile(),
		OnFailure:  cfg.Snapshot.OnFailure,
		Keep:       cfg.Journal.Keep,
	}, journal, eventBus)

	// A fatal poll outcome stops the process the same way a signal does
	fatal := make(chan error, 1)

	registry := adapter.NewRegistry(func(ctx context.Context, result adapter.Result) error {
		err := snapshots.Publish(ctx, service.PollResult{
			Source:    result.Source,
			StartedAt: result.StartedAt,
			Duration:  result.Duration,
			Graph:     result.Graph,
			Skipped:   result.Skipped,
			Err:       result.Err,
		})
		if errors.Is(err, service.ErrFatalPoll) {
			select {
			case fatal <- err:
			default:
			}
		}
		return err
	})

	poller := control.NewPoller(control.PollerConfig{
		IdentityPath: cfg.Daemon.PidFile,
		Host:         cfg.Daemon.ControlHost,
		RetryDelay:   cfg.Poll.RetryDelay.Duration(),
		RetryBudget:  cfg.Poll.RetryBudget.Duration(),
	})
	tinc := adapter.NewTincAdapter(poller)
	tinc.SetDebug(cfg.Debug)

	if err := registry.Register(tinc, adapter.AdapterConfig{
		Enabled:      true,
		PollInterval: cfg.Poll.Interval.Duration(),
	}); err != nil {
		log.Fatalf("Failed to register tinc adapter: %v", err)
	}

	if err := registry.Start(ctx); err != nil {
		log.Printf("Warning: Failed to start adapter registry: %v", err)
	}

	// Poll immediately when tincd restarts and rewrites its pid file
	if cfg.Daemon.Watching() {
		w := watcher.New(cfg.Daemon.PidFile, func() {
			if err := registry.TriggerSync(ctx, adapter.TincAdapterName); err != nil {
				log.Printf("Poll after pid file change failed: %v", err)
			}
		})
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Pid file watcher stopped: %v", err)
			}
		}()
	}

	// Initialize HTTP handlers
	graphHandler := handler.NewGraphHandler(snapshots)
	graphHandler.SetPollTrigger(registry)

	finalHandler := handler.Chain(handler.NewRouter(graphHandler, sseHub, cfg.Web.Root),
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	server := &http.Server{
		Addr:        cfg.Web.Addr,
		Handler:     finalHandler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No WriteTimeout: /events streams indefinitely
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Web.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal or a fatal poll outcome
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		log.Printf("Received %s", sig)
	case err := <-fatal:
		log.Printf("Stopping: %v", err)
		exitCode = 1
	}

	log.Println("Shutting down server...")

	stop()
	if err := registry.Stop(); err != nil {
		log.Printf("Adapter registry shutdown error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	if exitCode != 0 {
		journal.Close()
		os.Exit(exitCode)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, _, err := config.LoadFromPath(path)
		return cfg, err
	}

	cfg, found, err := config.Load()
	if err != nil {
		return nil, err
	}
	if found != "" {
		log.Printf("Loaded config from %s", found)
	} else {
		log.Println("No config file found, using defaults")
	}
	return cfg, nil
}
