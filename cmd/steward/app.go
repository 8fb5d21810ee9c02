package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/unneeks/stewardagent/pkg/actions"
	"github.com/unneeks/stewardagent/pkg/cli"
	"github.com/unneeks/stewardagent/pkg/config"
	"github.com/unneeks/stewardagent/pkg/eventlog"
	"github.com/unneeks/stewardagent/pkg/governance"
	"github.com/unneeks/stewardagent/pkg/governance/storage"
	"github.com/unneeks/stewardagent/pkg/investigation"
	"github.com/unneeks/stewardagent/pkg/lineage"
	"github.com/unneeks/stewardagent/pkg/policy"
	"github.com/unneeks/stewardagent/pkg/reasoning"
	"github.com/unneeks/stewardagent/pkg/review"
	"github.com/unneeks/stewardagent/pkg/scanner"
	"github.com/unneeks/stewardagent/pkg/simulation"
	"github.com/unneeks/stewardagent/pkg/telemetry/metrics"
	"github.com/unneeks/stewardagent/pkg/telemetry/tracing"
)

// app holds the components shared by the commands.
type app struct {
	cfg          *config.Config
	store        governance.Storage
	events       *eventlog.Log
	actions      *actions.Store
	resolver     *lineage.Resolver
	ontology     *policy.Ontology
	checker      *policy.Checker
	scanner      scanner.Scanner
	metrics      *metrics.Collector
	tracer       *tracing.Tracer
	orchestrator *investigation.Orchestrator
}

// newApp wires every component from cfg. Event traces are echoed to
// console when it is non-nil.
func newApp(cfg *config.Config, console io.Writer) (*app, error) {
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		store:   store,
		actions: actions.NewStore(store),
	}

	if cfg.Telemetry.Metrics.Enabled {
		a.metrics = metrics.NewCollector(&metrics.Config{
			Enabled:   true,
			Namespace: cfg.Telemetry.Metrics.Namespace,
			Subsystem: cfg.Telemetry.Metrics.Subsystem,
		}, nil)
	}

	opts := []eventlog.Option{eventlog.WithTraceFormat(cli.StyledTrace)}
	if console != nil {
		opts = append(opts, eventlog.WithConsole(console))
	}
	a.events = eventlog.New(store, opts...)

	var lineageOpts []lineage.Option
	if cfg.Cycle.ArtifactDir != "" {
		lineageOpts = append(lineageOpts, lineage.WithArtifactDir(cfg.Cycle.ArtifactDir))
	}
	a.resolver = lineage.NewResolver(store, lineageOpts...)

	a.ontology = policy.DefaultOntology()
	if cfg.Policy.OntologyPath != "" {
		if a.ontology, err = policy.LoadOntology(cfg.Policy.OntologyPath); err != nil {
			store.Close()
			return nil, cli.NewConfigError("policy.ontology_path", err.Error())
		}
	}
	a.checker = policy.NewChecker(a.ontology)
	a.scanner = newScanner(cfg, a.metrics)

	if a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, Version); err != nil {
		store.Close()
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}

	a.orchestrator, err = investigation.New(investigation.Dependencies{
		Store:    store,
		Events:   a.events,
		Actions:  a.actions,
		Resolver: a.resolver,
		Scanner:  a.scanner,
		Checker:  a.checker,
		Metrics:  a.metrics,
		Tracer:   a.tracer.Tracer("investigation"),
		Console:  console,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close flushes pending spans and releases the store.
func (a *app) Close() error {
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			slog.Warn("failed to flush spans", "error", err)
		}
	}
	return a.store.Close()
}

// reviewer builds a changeset reviewer over the app's store.
func (a *app) reviewer() *review.Reviewer {
	return review.New(a.resolver, a.actions,
		review.WithScanner(a.scanner),
		review.WithMetrics(a.metrics),
		review.WithTracer(a.tracer.Tracer("review")),
	)
}

// simulator builds a score simulator seeded from seed, or from config when
// seed is zero.
func (a *app) simulator(seed uint64) *simulation.Simulator {
	if seed == 0 {
		seed = a.cfg.Simulation.Seed
	}
	return simulation.New(a.store, a.actions, seed)
}

// baseDate returns the configured day 0.
func (a *app) baseDate() (time.Time, error) {
	return governance.ParseDate(a.cfg.Cycle.BaseDate)
}

// dateFor returns base_date + day.
func (a *app) dateFor(day int) (string, error) {
	base, err := a.baseDate()
	if err != nil {
		return "", err
	}
	return governance.FormatDate(base.AddDate(0, 0, day)), nil
}

// openStorage opens the configured backend. SQLite parent directories are
// created as needed.
func openStorage(cfg config.StorageConfig) (governance.Storage, error) {
	if cfg.Driver == config.StorageDriverMemory {
		return storage.NewMemoryStorage(), nil
	}

	if cfg.Driver != storage.DriverPostgres {
		if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	return storage.NewSQLStorage(&storage.SQLConfig{
		Driver:       cfg.Driver,
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		WALMode:      cfg.WALMode,
		BusyTimeout:  cfg.BusyTimeout,
	})
}

// newScanner returns the heuristic scanner, or a delegating scanner when
// configured. Without usable credentials the delegating scanner still runs
// and answers every scan from heuristics.
func newScanner(cfg *config.Config, collector *metrics.Collector) scanner.Scanner {
	if cfg.Scanner.Mode != config.ScannerModeDelegated {
		return scanner.NewHeuristic()
	}

	completer, err := reasoning.New(reasoning.Config{
		Provider:   cfg.Reasoning.Provider,
		Model:      cfg.Reasoning.Model,
		APIKey:     cfg.Reasoning.APIKey,
		BaseURL:    cfg.Reasoning.BaseURL,
		Timeout:    cfg.Reasoning.Timeout,
		MaxRetries: cfg.Reasoning.MaxRetries,
	})
	if err != nil {
		slog.Warn("reasoning service unavailable, scanning with heuristics", "error", err)
		completer = nil
	}

	return scanner.NewDelegating(completer,
		scanner.WithTimeout(cfg.Scanner.Timeout),
		scanner.WithFallbackHook(collector.RecordScannerFallback),
	)
}
