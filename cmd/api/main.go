package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/amendment-service/internal/api/http"
	"github.com/spec-kit/amendment-service/internal/api/http/handlers"
	"github.com/spec-kit/amendment-service/internal/auth"
	"github.com/spec-kit/amendment-service/internal/config"
	"github.com/spec-kit/amendment-service/internal/events"
	"github.com/spec-kit/amendment-service/internal/mail"
	"github.com/spec-kit/amendment-service/internal/observability"
	"github.com/spec-kit/amendment-service/internal/persistence"
	"github.com/spec-kit/amendment-service/internal/repository"
	"github.com/spec-kit/amendment-service/internal/service"
	"github.com/spec-kit/amendment-service/internal/worker"
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := repository.NewStore(pg.PoolHandle())
	dispatcher := events.NewInMemoryDispatcher()
	mailer := mail.NewSMTPSender(cfg.Mail, logger)
	metrics := observability.NewMetrics()

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Store:     store,
		Redis:     redis,
		Mailer:    mailer,
		Templates: mail.Templates{BaseURL: cfg.App.BaseURL},
		Logger:    logger,
	})
	qaService := service.NewQAService(service.QADependencies{
		Store:           store,
		Dispatcher:      dispatcher,
		Notifier:        notificationService,
		DefaultSLAHours: cfg.QA.DefaultSLAHours,
		Logger:          logger,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Notifier:   notificationService,
		Logger:     logger,
	})
	defectService := service.NewDefectService(service.DefectDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Notifier:   notificationService,
		Logger:     logger,
	})
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(service.AuthDependencies{
		Store:      store,
		Tokens:     tokenManager,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})

	authMiddleware := auth.NewAuthMiddleware(tokenManager, store.View().Collaborators)

	worker.StartNotificationWorker(ctx, notificationService, dispatcher, cfg.QA.SweepInterval(), logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Amendments:     handlers.NewAmendmentsHandler(qaService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Defects:        handlers.NewDefectsHandler(defectService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
