package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/yumee/internal/adapters/http"
	"github.com/dkeye/yumee/internal/app"
	"github.com/dkeye/yumee/internal/app/orch"
	"github.com/dkeye/yumee/internal/config"
	"github.com/dkeye/yumee/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())
	if cfg.Mode == "release" {
		// JSON lines for log collectors.
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	var policy app.Policy = app.SimplePolicy{}
	if cfg.KickSlowConsumers {
		policy = app.KickPolicy{}
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	o := &orch.Orchestrator{
		Registry:   app.NewRegistry(),
		Calls:      app.NewCallTable(),
		Policy:     policy,
		Metrics:    metrics.New(promReg),
		ICEServers: cfg.WebRTCICEServers(),
	}

	r := router.SetupRouter(ctx, cfg, o, promReg)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Yumee signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	// Hijacked WebSockets are not tracked by Shutdown; they end with ctx.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	users, calls := o.Stats()
	log.Info().Int("users", users).Int("calls", calls).Msg("Server exited gracefully")
}
