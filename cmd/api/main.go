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

	httptransport "github.com/nordicdesk/helpdesk/internal/api/http"
	"github.com/nordicdesk/helpdesk/internal/api/http/handlers"
	"github.com/nordicdesk/helpdesk/internal/auth"
	"github.com/nordicdesk/helpdesk/internal/config"
	"github.com/nordicdesk/helpdesk/internal/events"
	"github.com/nordicdesk/helpdesk/internal/observability"
	"github.com/nordicdesk/helpdesk/internal/persistence"
	"github.com/nordicdesk/helpdesk/internal/realtime"
	"github.com/nordicdesk/helpdesk/internal/repository"
	"github.com/nordicdesk/helpdesk/internal/service"
	"github.com/nordicdesk/helpdesk/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	companyRepo := repository.NewCompanyRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg.Auth, userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		CommentRepo: commentRepo,
		TicketRepo:  ticketRepo,
		Dispatcher:  dispatcher,
	})
	userService := service.NewUserService(userRepo, companyRepo)
	companyService := service.NewCompanyService(companyRepo, userRepo, ticketRepo)
	statsService := service.NewStatsService(statsRepo, userRepo, redis.Client, logger)
	notificationService := service.NewNotificationService(dispatcher, logger)

	worker.StartNotificationWorker(notificationService)

	hub := realtime.NewHub(logger)
	hub.RegisterHandlers(dispatcher)

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, statsService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Companies:      handlers.NewCompaniesHandler(companyService),
		Users:          handlers.NewUsersHandler(userService),
		Stats:          handlers.NewStatsHandler(statsService),
		AuthMiddleware: authMiddleware,
		RateLimiter:    httptransport.RateLimiter(cfg.RateLimit, redis.Client, logger),
	})

	var realtimeSrv *realtime.Server
	if cfg.Realtime.Enabled {
		realtimeSrv = realtime.NewServer(cfg.Realtime, hub, authService.TokenManager(), logger)
		go func() {
			if err := realtimeSrv.Start(); err != nil {
				logger.Fatal("realtime listen", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if realtimeSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = realtimeSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
