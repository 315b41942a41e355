package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/ragchat-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/ragchat-go/internal/config"
	ragchathttp "github.com/0xcro3dile/ragchat-go/internal/infrastructure/http"
	"github.com/0xcro3dile/ragchat-go/internal/infrastructure/observability"
	"github.com/0xcro3dile/ragchat-go/internal/infrastructure/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat HTTP API",
	Long: `Run the HTTP API:
  POST /api/chat    {"question": "..."} -> {"answer": "...", "sources": [...]}
  GET  /api/health  constant liveness signal
  GET  /api/ready   retrieval backend health
  GET  /metrics     Prometheus metrics

With watch enabled in the config file, edits to that file rebuild the
pipeline without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	},
}

func runServe(ctx context.Context, c *config.Config) error {
	shutdownTracing, err := telemetry.Setup(ctx, c.Telemetry, logger)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	p, err := buildPipeline(c, metrics, logger)
	if err != nil {
		return err
	}
	server := ragchathttp.NewServer(c, p.backend(), metrics, reg, logger)

	var reloader *configReloader
	if c.Watch && c.Path() != "" {
		watcher, err := filewatcher.NewFSNotifyWatcher(logger)
		if err != nil {
			return err
		}
		defer watcher.Stop()

		reloader = &configReloader{
			path:    c.Path(),
			current: c,
			watcher: watcher,
			logger:  logger,
			apply: func(next *config.Config) error {
				np, err := buildPipeline(next, metrics, logger)
				if err != nil {
					return err
				}
				server.SwapBackend(np.backend())
				return nil
			},
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx)
	})
	if reloader != nil {
		g.Go(func() error {
			return reloader.Run(ctx)
		})
	}

	return g.Wait()
}
