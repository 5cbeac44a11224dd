package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/http/api"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/http/swagger"
	app "github.com/stefanpalsson415/allietosavetheworld-sub011/internal/app"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/config"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	processMetricsInterval = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is configured from cfg, so report on stderr
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(os.Stdout, logger.Format(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}

	go startProcessMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown: stop accepting requests, then drain the ingest queue.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	svc.Stop(shutdownCtx)

	log.Info(ctx, "server stopped")
}

// newService maps the configuration onto service options.
func newService(cfg *config.Config, log logger.Logger) *app.Service {
	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithLabels(model.Labels{A: cfg.CompetitorALabel, B: cfg.CompetitorBLabel}),
		app.WithScoreCache(cfg.ScoreCacheTTL(), cfg.ScoreCacheSize),
		app.WithSignalTimeout(cfg.SignalTimeout()),
		app.WithSignalURLs(cfg.CognitiveLoadURL, cfg.HarmonyURL, cfg.HabitsURL),
		app.WithHistoryLimit(cfg.HistoryLimit),
	}
	if cfg.StoreDriver == config.StoreSQLite {
		opts = append(opts, app.WithSQLitePath(cfg.SQLitePath))
	}
	return app.New(opts...)
}

// newMux registers the docs and business API routes.
func newMux(ctx context.Context, svc *app.Service, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.WithLogger(log.Named("api"))).Register(ctx, mux)
	return mux
}

// startProcessMetricsUpdater periodically records heap and goroutine gauges.
func startProcessMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(processMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateProcess(m.HeapAlloc, runtime.NumGoroutine())
		}
	}
}

// startServiceMetricsUpdater refreshes the queue and family gauges.
// GetStats updates them as a side effect.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}
