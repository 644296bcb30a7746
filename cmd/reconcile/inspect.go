package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	reconcile "github.com/vango-dev/reconcile"
	"github.com/vango-dev/reconcile/internal/devtools"
	"github.com/vango-dev/reconcile/internal/fixture"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/reactive"
	"github.com/vango-dev/reconcile/pkg/telemetry"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

func inspectCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "inspect FRAME...",
		Short: "Serve the devtools inspector over a sequence of frames",
		Long: `Inspect loads a sequence of tree fixtures and serves the devtools
inspector. Each file may hold several YAML documents, one frame each.
POST /next applies the next frame and streams its patches to /ws.

Routes:
  GET  /tree       current tree, markup and applier stats
  GET  /patches    patches of the last applied frame
  POST /next       apply the next frame
  POST /frames/{n} apply frame n
  GET  /ws         applied frames as JSON messages
  GET  /metrics    Prometheus metrics

Examples:
  reconcile inspect frames.yaml
  reconcile inspect --addr :8080 step1.yaml step2.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Devtools.Addr
			}
			logger := newLogger(cmd, cfg)

			var frames []*vdom.VNode
			for _, path := range args {
				fs, err := fixture.LoadFrames(path)
				if err != nil {
					return err
				}
				frames = append(frames, fs...)
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector())

			opts := []reconcile.Option{
				reconcile.WithConfig(cfg.Engine),
				reconcile.WithLogger(logger),
				reconcile.WithTracer(telemetry.Tracer()),
			}
			if cfg.Metrics.Enabled {
				metrics := telemetry.NewMetrics(
					telemetry.WithNamespace(cfg.Metrics.Namespace),
					telemetry.WithRegistry(registry),
				)
				opts = append(opts, reconcile.WithMetrics(metrics))
				reactive.SetObserver(metrics)
				defer reactive.SetObserver(nil)
			}
			reactive.SetErrorHandler(func(err error) {
				logger.Error("effect failed", "error", err)
			})
			defer reactive.SetErrorHandler(nil)

			mem := host.NewMemory()
			root := reconcile.New(mem, mem.NewContainer("body"), opts...)
			defer root.Dispose()

			srv := devtools.New(root, mem, frames,
				devtools.WithLogger(logger),
				devtools.WithGatherer(registry),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := cmd.OutOrStdout()
			success(w, "Devtools listening on http://%s", addr)
			info(w, "%d frames loaded; POST /next to step", len(frames))
			fmt.Fprintln(w)

			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default: devtools.addr from config)")

	return cmd
}
