package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/wildebeast/forecast-gateway/internal/adapter/http"
	kafkaadapter "github.com/wildebeast/forecast-gateway/internal/adapter/kafka"
	"github.com/wildebeast/forecast-gateway/internal/adapter/upstream"
	"github.com/wildebeast/forecast-gateway/internal/config"
	"github.com/wildebeast/forecast-gateway/internal/domain"
	"github.com/wildebeast/forecast-gateway/internal/observability"
	"github.com/wildebeast/forecast-gateway/internal/relay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := upstream.NewClient(cfg, metrics, logger)

	// Audit stream is feature-flagged via AUDIT_KAFKA_BROKERS / AUDIT_ENABLED.
	var publisher domain.AuditPublisher
	var auditWriter *kafkaadapter.Writer
	if cfg.AuditEnabled {
		auditWriter = kafkaadapter.NewWriter(cfg, logger)
		publisher = auditWriter
		metrics.AuditEnabled.Set(1)
		logger.Info("forecast audit enabled", "brokers", cfg.AuditBrokers, "topic", cfg.AuditTopic)
	} else {
		logger.Info("forecast audit disabled")
	}

	r := relay.New(client, publisher, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, r, cfg.UpstreamTimeout, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if auditWriter != nil {
		if err := auditWriter.Close(); err != nil {
			logger.Error("audit writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
