package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/unneeks/stewardagent/pkg/api"
	"github.com/unneeks/stewardagent/pkg/cli"
	"github.com/unneeks/stewardagent/pkg/config"
	"github.com/unneeks/stewardagent/pkg/playback"
	"github.com/unneeks/stewardagent/pkg/policy"
	"github.com/unneeks/stewardagent/pkg/scheduler"
	"github.com/unneeks/stewardagent/pkg/telemetry/health"
)

var serveFlags struct {
	host           string
	port           int
	simulateScores bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the playback API and run scheduled cycles",
	Long: `Start the read-only playback API. When cycle.schedule is set, daily cycles
run on that cron schedule for the current UTC date. When policy.watch is set,
the ontology file is reloaded on change.

Endpoints:
  GET /health, /ready, /events, /investigations, /latest_state, /learning_summary, /metrics

Examples:
  # Serve on the configured address
  steward serve

  # Demo mode: a simulated day every 15 minutes
  STEWARD_CYCLE_SCHEDULE="*/15 * * * *" steward serve --simulate-scores`,
	Args: exactArgs(0),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.host, "host", "", "override api.host")
	serveCmd.Flags().IntVarP(&serveFlags.port, "port", "p", 0, "override api.port")
	serveCmd.Flags().BoolVar(&serveFlags.simulateScores, "simulate-scores", false, "generate scores before each scheduled cycle")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.MustGetConfig()
	if serveFlags.host != "" {
		cfg.API.Host = serveFlags.host
	}
	if serveFlags.port != 0 {
		cfg.API.Port = serveFlags.port
	}
	out := cmd.OutOrStdout()

	a, err := newApp(cfg, out)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer a.Close()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	checker := health.New(Version, 2*time.Second)
	checker.Register("storage", func(ctx context.Context) error {
		_, err := a.store.ListTDEs(ctx)
		return err
	})
	checker.Register("ontology", func(context.Context) error {
		if len(a.ontology.Categories()) == 0 {
			return errors.New("ontology has no categories")
		}
		return nil
	})

	srv, err := api.NewServer(playback.NewReader(a.store), a.metrics, &api.Config{
		Host:         cfg.API.Host,
		Port:         cfg.API.Port,
		AllowOrigins: cfg.API.AllowOrigins,
		Tracer:       a.tracer.Tracer("api"),
		Health:       checker,
	})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	schedCfg := scheduler.Config{Schedule: cfg.Cycle.Schedule}
	if serveFlags.simulateScores {
		sim := a.simulator(0)
		schedCfg.BeforeCycle = func(ctx context.Context, date string) error {
			_, err := sim.Generate(ctx, date)
			return err
		}
	}
	sched := scheduler.New(a.orchestrator, schedCfg)
	if err := sched.Start(ctx); err != nil {
		return cli.NewConfigError("cycle.schedule", err.Error())
	}
	defer sched.Stop()
	if cfg.Cycle.Schedule != "" {
		checker.Register("scheduler", func(context.Context) error {
			if !sched.IsRunning() {
				return errors.New("scheduler is not running")
			}
			return nil
		})
	}
	if next := sched.NextRun(); next != nil {
		fmt.Fprintf(out, "✓ Cycles scheduled (%s), next at %s\n", cfg.Cycle.Schedule, next.Format(time.RFC3339))
	}

	if cfg.Policy.Watch {
		w, err := policy.NewWatcher(cfg.Policy.OntologyPath, a.ontology, cfg.Policy.WatchDebounce, func(err error) {
			if err == nil {
				fmt.Fprintf(out, "✓ Ontology reloaded (%d categories)\n", len(a.ontology.Categories()))
			}
		})
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("ontology watcher stopped", "error", err)
			}
		}()
		defer w.Stop()
		fmt.Fprintf(out, "✓ Watching %s\n", cfg.Policy.OntologyPath)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	fmt.Fprintf(out, "✓ Playback API listening on http://%s\n", addr)
	if a.metrics != nil {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s/metrics\n", addr)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return cli.NewCommandError("serve", err)
		}
		return nil
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		fmt.Fprintln(out, "✓ Server stopped")
		return nil
	}
}
