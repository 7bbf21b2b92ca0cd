// Command triaged serves the support action classification engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/registrar-ops/triage/pkg/api"
	"github.com/registrar-ops/triage/pkg/audit"
	"github.com/registrar-ops/triage/pkg/config"
	"github.com/registrar-ops/triage/pkg/engine"
	"github.com/registrar-ops/triage/pkg/observability"
	"github.com/registrar-ops/triage/pkg/policy"
	"github.com/registrar-ops/triage/pkg/policyloader"
	"github.com/registrar-ops/triage/pkg/statecache"
	"github.com/registrar-ops/triage/pkg/store"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("triaged", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "", "listen address (overrides TRIAGE_ADDR)")
	bundleDir := fs.String("bundles", "", "policy bundle directory (overrides TRIAGE_BUNDLE_DIR)")
	profile := fs.String("profile", "", "optional YAML config profile")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Load()
	if *profile != "" {
		if err := cfg.ApplyProfile(*profile); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *bundleDir != "" {
		cfg.BundleDir = *bundleDir
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := observability.Setup(ctx, &observability.Config{
		ServiceName:    "triaged",
		ServiceVersion: "1.0.0",
		Environment:    "production",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		Enabled:        cfg.OTLPEndpoint != "",
	})
	if err != nil {
		log.Error("observability setup failed", "error", err)
		return 1
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutCtx)
	}()

	loader := policyloader.NewStore(cfg.BundleDir)
	loader.OnReload(func(kb *policy.KnowledgeBase) {
		log.Info("knowledge base loaded", "version", kb.Version().String(), "rules", kb.Len())
	})
	if cfg.BundleDir != "" {
		if err := loader.Load(); err != nil {
			log.Error("bundle load failed", "dir", cfg.BundleDir, "error", err)
			return 1
		}
	} else {
		if err := loader.UseBuiltin(); err != nil {
			log.Error("builtin bundle rejected", "error", err)
			return 1
		}
	}

	var sink audit.Sink
	auditStore, err := store.OpenSQLiteAuditStore(cfg.AuditDBPath)
	if err != nil {
		log.Warn("audit store unavailable, falling back to stdout", "error", err)
		sink = audit.NewLogger()
	} else {
		defer func() { _ = auditStore.Close() }()
		sink = auditStore
	}

	var states engine.StateLookup
	if cfg.StateServiceURL != "" {
		lookup := engine.NewHTTPStateLookup(engine.HTTPStateConfig{BaseURL: cfg.StateServiceURL})
		if cfg.RedisAddr != "" {
			client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			states = statecache.New(client, lookup, 0)
		} else {
			states = lookup
		}
	}

	eng := engine.New(loader, states, sink, engine.WithLogger(log))
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(eng, api.NewRateLimiter(cfg.RateRPS, cfg.RateBurst), log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// SIGHUP re-reads the bundle directory; a rejected bundle keeps the
	// active snapshot.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if cfg.BundleDir == "" {
				log.Warn("reload requested but no bundle directory configured")
				continue
			}
			if err := loader.Load(); err != nil {
				log.Error("bundle reload rejected", "error", err)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutCtx); err != nil {
			log.Error("shutdown error", "error", err)
			return 1
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			return 1
		}
	}
	return 0
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
