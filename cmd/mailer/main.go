package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnochamados/internal/config"
	"github.com/spec-kit/tecnochamados/internal/mailer/relay"
	"github.com/spec-kit/tecnochamados/internal/observability"
)

func main() {
	cfg, err := config.LoadMailer()
	if err != nil {
		log.Fatalf("failed to load mailer config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	transport := relay.NewSMTPTransport(*cfg)

	// An unreachable SMTP server is logged; the relay still starts and
	// reports failures per request.
	verifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := transport.Verify(verifyCtx); err != nil {
		logger.Error("smtp verification failed", zap.String("host", cfg.SMTPHost), zap.Error(err))
	} else {
		logger.Info("smtp server ready", zap.String("host", cfg.SMTPHost))
	}
	cancel()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	app := relay.NewApp(relay.NewHandler(transport, metrics, logger), cfg.CORSOrigin, metrics, logger)

	go func() {
		logger.Info("mail relay listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	_ = app.ShutdownWithTimeout(5 * time.Second)
}
