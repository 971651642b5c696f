package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	memes "github.com/reglet-dev/reglet-memes"
	"github.com/reglet-dev/reglet-memes/health"
	"github.com/reglet-dev/reglet-memes/metrics"
)

var (
	flagAddr         string
	flagBackendCheck bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Activate and serve health and metrics endpoints",
	Long: `Serve activates the extension and keeps it running, exposing /live,
/ready and /metrics. SIGHUP resyncs the meme catalog; SIGINT or SIGTERM tears
the activation down and exits. A failed activation keeps serving with
/ready reporting unavailable.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":9464", "listen address")
	serveCmd.Flags().BoolVar(&flagBackendCheck, "backend-check", true, "include backend reachability in /ready")
}

func runServe(cmd *cobra.Command, args []string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.New(reg)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newPlugin(cmd, cfg, memes.WithMetrics(collector))
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr())

	var healthOpts []health.Option
	healthOpts = append(healthOpts, health.WithRegisterer(reg))
	if flagBackendCheck {
		timeout, _ := cfg.Request.TimeoutDuration()
		healthOpts = append(healthOpts, health.WithBackendCheck(cfg.Request.Endpoint, timeout))
	}
	checks, err := health.New(p, healthOpts...)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /live", checks.LiveEndpoint)
	mux.HandleFunc("GET /ready", checks.ReadyEndpoint)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: flagAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	act := p.Apply(ctx)
	logger.Info("activation finished", "activation", act.ID, "phase", act.Phase.String())

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := p.Resync(ctx); err != nil {
					logger.Warn("resync failed", "error", err)
				}
			}
		}
	}()

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", flagAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err = <-errc:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = srv.Shutdown(shutdownCtx)
	}
	if disposeErr := p.Dispose(); disposeErr != nil {
		logger.Warn("dispose", "error", disposeErr)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
