package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jtlapenna/multi-agent-content-system/internal/agent"
	"github.com/jtlapenna/multi-agent-content-system/internal/config"
	"github.com/jtlapenna/multi-agent-content-system/internal/notify"
	"github.com/jtlapenna/multi-agent-content-system/internal/observability"
	"github.com/jtlapenna/multi-agent-content-system/internal/orchestrator"
	"github.com/jtlapenna/multi-agent-content-system/internal/router"
	"github.com/jtlapenna/multi-agent-content-system/internal/store"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

// app holds all wired components for the lifetime of one command.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	graph        *workflow.Graph
	store        store.Store
	primary      *store.SQLiteStore
	mirror       *store.FileStore
	workspace    *agent.Workspace
	router       *router.Router
	orchestrator *orchestrator.Orchestrator

	tp *sdktrace.TracerProvider
}

// newApp loads configuration and wires the full component graph:
// SQLite primary plus JSON mirror behind the fallback store, workspace,
// notifier, router, executor registry, and orchestrator.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return nil, err
	}

	graph, err := cfg.Pipeline.Graph()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	sqliteCfg := store.DefaultSQLiteConfig(cfg.Store.Path)
	sqliteCfg.BusyTimeout = time.Duration(cfg.Store.BusyTimeout) * time.Millisecond
	primary, err := store.OpenSQLiteWithConfig(sqliteCfg, logger)
	if err != nil {
		return nil, err
	}

	mirror, err := store.NewFileStore(cfg.Store.MirrorDir, logger)
	if err != nil {
		primary.Close()
		return nil, err
	}

	ws, err := agent.NewWorkspace(cfg.Core.DataDir)
	if err != nil {
		primary.Close()
		return nil, err
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notify.Enabled {
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Timeout, logger)
	}

	st := store.NewFallbackStore(primary, mirror, logger)
	rt := router.New(st, graph, notifier, ws, logger)

	reg, err := agent.NewRegistry(graph, agent.DefaultExecutors(ws, logger))
	if err != nil {
		primary.Close()
		return nil, err
	}

	return &app{
		cfg:          cfg,
		logger:       logger,
		graph:        graph,
		store:        st,
		primary:      primary,
		mirror:       mirror,
		workspace:    ws,
		router:       rt,
		orchestrator: orchestrator.New(st, graph, reg, rt, cfg.Core.StepDelay, logger),
		tp:           tp,
	}, nil
}

// close releases stores and flushes any buffered spans.
func (a *app) close(ctx context.Context) {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", "error", err)
	}
	if a.tp != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.tp.Shutdown(ctx); err != nil {
			a.logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}
