package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"LocalBoard/internal/collab"
	"LocalBoard/internal/config"
	"LocalBoard/internal/logging"
	"LocalBoard/internal/net"
	"LocalBoard/internal/snapshot"
	"LocalBoard/internal/state"
	"LocalBoard/internal/ui"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Development, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case cfg.Browse:
		err = browse(ctx)
	case cfg.Role == config.RoleClient:
		err = runClient(ctx, cfg, logger)
	default:
		err = runHost(ctx, cfg, logger)
	}
	if err != nil {
		logger.Error("LocalBoard stopped", zap.Error(err))
		os.Exit(1)
	}
}

func runHost(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting as HOST", zap.String("id", cfg.ID))

	hub := net.NewHub(logger)
	defer hub.Close()
	host := collab.NewHost(cfg.ID, hub, collab.WithLogger(logger))
	hub.OnJoin = host.AddClient
	hub.OnLeave = host.RemoveClient

	addr := fmt.Sprintf(":%d", cfg.Port)
	if cfg.Transport == "ws" {
		hub.Router().HandleFunc("/snapshot", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, host.Snapshot())
		}).Methods(http.MethodGet)
		if _, err := hub.ListenWS(addr); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	} else if _, err := hub.ListenTCP(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	if cfg.MDNS {
		server, err := net.Advertise(cfg.Port)
		if err != nil {
			logger.Warn("mDNS advertising disabled", zap.Error(err))
		} else {
			defer server.Shutdown()
		}
	}

	board := ui.NewBoard(host, cfg.Canvas())
	shareLink := net.ShareLink(config.CustomURLScheme, cfg.Port)
	board.SetStatus("Share this link: " + shareLink)
	fmt.Println("Share this link:", shareLink)

	c := &console{
		board:  board,
		host:   host,
		doc:    host,
		store:  openStore(ctx, cfg, logger),
		canvas: cfg.Canvas(),
		out:    os.Stdout,
		logger: logger,
	}
	defer c.close()
	return c.run(ctx, os.Stdin)
}

func runClient(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	id := cfg.ID
	if id == "" {
		id = state.NewSiteID()
	}
	logger.Info("Starting as CLIENT", zap.String("id", id), zap.String("host", cfg.HostAddr))

	dialCtx, cancel := context.WithTimeout(ctx, net.MaxDialElapsed)
	defer cancel()
	var (
		link *net.Link
		err  error
	)
	if cfg.Transport == "ws" {
		link, err = net.DialWS(dialCtx, "ws://"+cfg.HostAddr+"/ws", id, logger)
	} else {
		link, err = net.DialTCP(dialCtx, cfg.HostAddr, id, logger)
	}
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer link.Close()

	client := collab.NewClient(id, cfg.HostID, link, collab.WithGhostTTL(cfg.GhostTTL), collab.WithLogger(logger))
	defer client.Close()
	board := ui.NewBoard(client, cfg.Canvas())
	client.Join()
	board.SetStatus("Connected to host as " + id)

	go func() {
		<-link.Done()
		board.SetStatus("Disconnected from host")
	}()

	c := &console{
		board:  board,
		client: client,
		doc:    client,
		store:  openStore(ctx, cfg, logger),
		canvas: cfg.Canvas(),
		out:    os.Stdout,
		logger: logger,
	}
	defer c.close()
	return c.run(ctx, os.Stdin)
}

// openStore returns nil when the backend is unavailable; save and load then
// report it instead of the whole program failing.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) snapshot.Store {
	store, err := snapshot.Open(ctx, snapshot.Options{
		Backend:   cfg.SnapshotBackend,
		Dir:       cfg.SnapshotDir,
		BoltPath:  cfg.BoltPath,
		BadgerDir: cfg.BadgerDir,
		RedisAddr: cfg.RedisAddr,
	})
	if err != nil {
		logger.Warn("Snapshot store unavailable", zap.String("backend", cfg.SnapshotBackend), zap.Error(err))
		return nil
	}
	return store
}

func browse(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	fmt.Println("Looking for LocalBoard hosts...")
	return net.Browse(ctx, func(addr string) {
		fmt.Println(config.CustomURLScheme + addr)
	})
}
