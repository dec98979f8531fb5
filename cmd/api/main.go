package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/localai-community/ai-assistant-tobee-sub000/internal/adapters/http"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/bootstrap"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/config"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/observability/logging"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	retrievalMetrics := metrics.NewRetrievalMetrics("api")
	router := httpadapter.NewRouter(app.Retrieval, app.AuditLog, retrievalMetrics, httpadapter.RouterOptions{
		DefaultTopK:     cfg.RetrievalTopK,
		RateLimitRPS:    cfg.APIRateLimitRPS,
		RateLimitBurst:  cfg.APIRateLimitBurst,
		MaxConcurrent:   cfg.APIMaxConcurrent,
		ConcurrencyWait: time.Duration(cfg.APIQueueWaitMillis) * time.Millisecond,
	}).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_error", "error", err)
	}
}
