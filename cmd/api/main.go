package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tecnochamados/internal/api/http"
	"github.com/spec-kit/tecnochamados/internal/api/http/handlers"
	"github.com/spec-kit/tecnochamados/internal/auth"
	"github.com/spec-kit/tecnochamados/internal/config"
	"github.com/spec-kit/tecnochamados/internal/events"
	"github.com/spec-kit/tecnochamados/internal/mailer"
	"github.com/spec-kit/tecnochamados/internal/observability"
	"github.com/spec-kit/tecnochamados/internal/permission"
	"github.com/spec-kit/tecnochamados/internal/persistence"
	"github.com/spec-kit/tecnochamados/internal/repository"
	"github.com/spec-kit/tecnochamados/internal/service"
	"github.com/spec-kit/tecnochamados/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, metrics, logger).RegisterHandlers()

	userRepo := repository.NewUserRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)
	clientRepo := repository.NewClientRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	engine := permission.NewEngine()
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	sessions := session.NewManager(redis.SessionStore(cfg.Session), logger)

	authService := service.NewAuthService(service.AuthDependencies{
		Users:    userRepo,
		Accounts: accountRepo,
		Hasher:   hasher,
		Tokens:   tokens,
		Sessions: sessions,
		Engine:   engine,
		Logger:   logger,
	})
	invitationService := service.NewInvitationService(service.InvitationDependencies{
		Users:      userRepo,
		Sender:     mailer.NewHTTPSender(cfg.Invitation.MailerURL, cfg.Invitation.MailerTimeout(), logger),
		Engine:     engine,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		LinkOrigin: cfg.Invitation.LinkOrigin,
	})
	activationService := service.NewActivationService(service.ActivationDependencies{
		Users:         userRepo,
		Accounts:      accountRepo,
		Hasher:        hasher,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
		MinPassword:   cfg.Auth.MinPasswordLength,
		BindAttempts:  cfg.Invitation.ActivationAttempts,
		RetryInterval: cfg.Invitation.ActivationRetryInterval(),
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		AllowedOrigins: cfg.App.AllowedOrigins,
		Timeout:        cfg.App.RequestTimeout(),
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(service.NewUserService(userRepo, accountRepo, engine, logger), invitationService),
		Activation:     handlers.NewActivationHandler(activationService),
		Clients:        handlers.NewClientsHandler(service.NewClientService(clientRepo, engine)),
		Tickets:        handlers.NewTicketsHandler(service.NewTicketService(ticketRepo, engine, dispatcher, logger)),
		Dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(ticketRepo, clientRepo, engine)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, sessions),
		Engine:         engine,
		Gatherer:       registry,
	})

	go func() {
		logger.Info("api listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
