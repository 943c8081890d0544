package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
	"github.com/Sumatoshi-tech/v8cov/pkg/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(global *GlobalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP merge service",
		Long: `Start an HTTP service merging coverage sent as JSON:
  POST /v1/merge/processes  [ProcessCov...] -> ProcessCov
  POST /v1/merge/scripts    [ScriptCov...]  -> ScriptCov or null
  POST /v1/merge/functions  [FunctionCov...] -> FunctionCov or null

Operational endpoints: /healthz, /readyz and /metrics (Prometheus).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, global, observability.ModeServe)
			if err != nil {
				return err
			}
			defer e.close()

			red, err := observability.NewREDMetrics(e.providers.Meter)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = e.cfg.Server.Addr()
			}

			srv := server.New(server.Options{
				Addr:         addr,
				MaxBodyBytes: e.cfg.Server.MaxBodyBytes,
				Validate:     e.cfg.Input.Validate,
				Workers:      e.cfg.Merge.Workers,
				ReadTimeout:  e.cfg.Server.ReadTimeout,
				WriteTimeout: e.cfg.Server.WriteTimeout,
				Logger:       e.logger,
				Tracer:       e.providers.Tracer,
				RED:          red,
				MergeMetrics: e.mergeMetrics,
				Metrics:      e.providers.MetricsHandler,
			})

			ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config server.host:server.port)")

	return cmd
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}

	return ctx
}
