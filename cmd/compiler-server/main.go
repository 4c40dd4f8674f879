package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"identity-compiler/internal/common/camunda"
	"identity-compiler/internal/common/config"
	"identity-compiler/internal/common/logger"
	"identity-compiler/internal/common/observability"
	"identity-compiler/internal/compiler"
	"identity-compiler/internal/web"
	ci "identity-compiler/internal/workers/compiler/compile-identity"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting identity compiler...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
		zap.String("defaultMode", cfg.Compiler.DefaultMode),
	)

	var obsOpts []observability.Option
	if cfg.Tracing.Enabled {
		obsOpts = append(obsOpts, observability.WithTracing(cfg.Tracing.SampleRatio))
	}
	obs := observability.New(cfg.App.Name, append(obsOpts, observability.AsGlobal())...)
	defer obs.Shutdown()

	keyConfigured := cfg.Gemini.APIKey != ""
	service := compiler.NewService(log,
		compiler.WithObservability(obs),
		compiler.WithAPIKeyConfigured(keyConfigured),
	)

	defaultMode, err := compiler.ParseMode(cfg.Compiler.DefaultMode)
	if err != nil {
		zapLog.Fatal("invalid default mode", zap.Error(err))
	}

	// --- Optional Zeebe worker ---
	var (
		zeebe  *camunda.Client
		worker *camunda.CamundaWorker
	)
	if cfg.Camunda.Enabled && config.IsWorkerEnabled(cfg, ci.TaskType) {
		zeebe, err = camunda.NewClient(context.Background(), camunda.ConfigFrom(cfg.Camunda))
		if err != nil {
			zapLog.Error("zeebe unavailable, running without workflow worker", zap.Error(err))
		} else {
			wcfg := ci.LoadConfig(cfg)
			handler := ci.NewHandler(wcfg, service, obs, log)
			worker = camunda.NewWorker(zeebe.GetClient(), ci.TaskType, wcfg.MaxJobsActive, handler, log)
			worker.Start()
		}
	}

	var ready func(ctx context.Context) error
	if zeebe != nil {
		ready = zeebe.HealthCheck
	}

	server, err := web.NewServer(web.Options{
		Config:           cfg.Server,
		DefaultMode:      defaultMode,
		APIKeyConfigured: keyConfigured,
		Service:          service,
		Logger:           log,
		Ready:            ready,
	})
	if err != nil {
		zapLog.Fatal("failed to create web server", zap.Error(err))
	}
	server.Start()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if worker != nil {
		worker.Stop(shutdownCtx)
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	zapLog.Info("Identity compiler stopped gracefully")
}
