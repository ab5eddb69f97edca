package routes

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	_ "x402_gateway/docs"
	"x402_gateway/internal/infrastructure/config"
	"x402_gateway/internal/infrastructure/logging"
	"x402_gateway/internal/infrastructure/tracing"

	"go.uber.org/zap"
)

const ServiceName = "x402-gateway"

// Run will start the server and block until SIGINT/SIGTERM.
func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := tracing.InitTracing(ServiceName, cfg.JaegerEndpoint, logger)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracing()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	logSupportedKinds(ctx, deps, logger)

	var wg sync.WaitGroup
	if cfg.WorkerEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deps.worker.Run(ctx, cfg.PollInterval)
		}()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(cfg, deps, logger),
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port), zap.String("store", string(cfg.StoreBackend)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	cancel()
	wg.Wait()
	logger.Info("Server exited")
}

func logSupportedKinds(ctx context.Context, deps *dependencies, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, supportedProbeTimeout)
	defer cancel()

	resp, err := deps.facilitator.Supported(ctx)
	if err != nil {
		logger.Warn("facilitator supported kinds unavailable", zap.Error(err))
		return
	}
	for _, k := range resp.Kinds {
		logger.Info("facilitator supports", zap.String("scheme", k.Scheme), zap.String("network", k.Network), zap.Int("x402_version", k.X402Version))
	}
}
