// Package main implements the entry point for the hassclient binary: a
// long-running Home Assistant WebSocket session that keeps a local cache
// of registries, states, and services, and optionally exposes Prometheus
// metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/jamalex/home-assistant-customizations/config"
	"github.com/jamalex/home-assistant-customizations/frame"
	"github.com/jamalex/home-assistant-customizations/hass"
	"github.com/jamalex/home-assistant-customizations/health"
	"github.com/jamalex/home-assistant-customizations/metric"
)

const (
	// Version is the build version
	Version = "0.1.0"
	appName = "hassclient"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to JSON config file (HASS_* env vars override)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	slog.Info("Starting session", "version", Version, "url", cfg.URL)

	metricsRegistry := metric.NewRegistry()

	client, err := hass.NewClient(cfg.URL, cfg.Token,
		hass.WithLogger(&slogAdapter{logger: logger, verbose: cfg.Verbose}),
		hass.WithVerbose(cfg.Verbose),
		hass.WithProbeInterval(cfg.ProbeInterval),
		hass.WithConnectTimeout(cfg.ConnectTimeout),
		hass.WithReconnectDelay(cfg.ReconnectDelay),
		hass.WithMetrics(metricsRegistry),
	)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	if cfg.MetricsAddr != "" {
		go serveEndpoints(cfg.MetricsAddr, metricsRegistry, client)
	}

	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.WaitForReady(readyCtx); err != nil {
		_ = client.Stop()
		return fmt.Errorf("session never became ready: %w", err)
	}

	slog.Info("Session ready",
		"entities", client.Store().RegistrySize(frame.RegistryEntity),
		"states", client.Store().StateCount(),
		"service_domains", len(client.Store().ServiceDomains()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("Shutting down", "signal", sig.String())

	if err := client.Stop(); err != nil {
		return fmt.Errorf("stop client: %w", err)
	}
	return nil
}

func serveEndpoints(addr string, registry *metric.Registry, client *hass.Client) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	mux.Handle("/healthz", health.Handler(client))

	slog.Info("Serving metrics and health", "addr", addr)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Metrics server failed", "error", err)
	}
}

// slogAdapter bridges the client's logger interface onto slog
type slogAdapter struct {
	logger  *slog.Logger
	verbose bool
}

func (a *slogAdapter) Printf(format string, v ...any) {
	a.logger.Info(fmt.Sprintf(format, v...))
}

func (a *slogAdapter) Errorf(format string, v ...any) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

func (a *slogAdapter) Debugf(format string, v ...any) {
	if a.verbose {
		a.logger.Debug(fmt.Sprintf(format, v...))
	}
}
