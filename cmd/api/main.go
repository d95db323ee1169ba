package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/email"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
	"github.com/spec-kit/helpdesk/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

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
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	files, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init file store", zap.Error(err))
	}
	sharedFiles, err := files.Sub(storage.SharedFolder)
	if err != nil {
		logger.Fatal("failed to init shared file store", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(pool)
	companyRepo := repository.NewCompanyRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	mailer := email.NewSMTPSender(cfg.Notification, logger)
	dispatcher := events.NewAsyncDispatcher(events.NewInMemoryDispatcher(), cfg.Notification.Timeout, logger, metrics.RecordNotificationFailure)

	settingService := service.NewSettingService(service.SettingDependencies{
		SettingRepo: settingRepo,
		Cache:       cache.NewSettingsCache(redis.ClientHandle(), cfg.Redis.SettingsCacheTTL, logger),
		Tester:      service.NewConnectionTester(mailer, pg, cfg.Notification.PMOURL, cfg.Notification.Timeout),
		Logger:      logger,
	})
	authService := service.NewAuthService(cfg.Auth, userRepo, logger)
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:    userRepo,
		CompanyRepo: companyRepo,
		BcryptCost:  cfg.Auth.BcryptCost,
		Logger:      logger,
	})
	companyService := service.NewCompanyService(service.CompanyDependencies{
		CompanyRepo: companyRepo,
		UserRepo:    userRepo,
		TicketRepo:  ticketRepo,
		Logger:      logger,
	})
	catalogService := service.NewCatalogService(catalogRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		CommentRepo:    repository.NewCommentRepository(pool),
		AttachmentRepo: repository.NewAttachmentRepository(pool),
		HistoryRepo:    repository.NewTicketHistoryRepository(pool),
		CatalogRepo:    catalogRepo,
		UserRepo:       userRepo,
		Files:          files,
		Dispatcher:     dispatcher,
		Logger:         logger,
		MaxRetries:     cfg.Ticketing.NumberMaxRetries,
		StorageTimeout: cfg.Storage.Timeout,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:  dispatcher,
		Sender:      mailer,
		UserRepo:    userRepo,
		CompanyRepo: companyRepo,
		Settings:    settingService,
		Logger:      logger,
	})

	if err := userService.EnsureSuperAdmin(ctx, cfg.Bootstrap); err != nil {
		logger.Fatal("failed to bootstrap super admin", zap.Error(err))
	}

	notificationWorker := worker.StartNotificationWorker(notificationService, dispatcher, logger)
	autoCloseWorker, err := worker.NewAutoCloseWorker(cfg.Ticketing, ticketService, logger)
	if err != nil {
		logger.Fatal("failed to init auto-close worker", zap.Error(err))
	}
	autoCloseWorker.Start()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitBytes,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Companies:      handlers.NewCompaniesHandler(companyService),
		Users:          handlers.NewUsersHandler(userService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Settings:       handlers.NewSettingsHandler(settingService),
		Files:          handlers.NewFilesHandler(sharedFiles, cfg.Storage.Timeout, logger),
		AuthMiddleware: authMiddleware.Handle,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := autoCloseWorker.Stop(shutdownCtx); err != nil {
		logger.Warn("auto-close worker shutdown", zap.Error(err))
	}
	if err := notificationWorker.Stop(shutdownCtx); err != nil {
		logger.Warn("notification worker shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
