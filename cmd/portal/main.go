package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/actor"
	httptransport "github.com/maximo-portal/version-portal/internal/api/http"
	"github.com/maximo-portal/version-portal/internal/api/http/handlers"
	"github.com/maximo-portal/version-portal/internal/cache"
	"github.com/maximo-portal/version-portal/internal/config"
	"github.com/maximo-portal/version-portal/internal/events"
	"github.com/maximo-portal/version-portal/internal/observability"
	"github.com/maximo-portal/version-portal/internal/persistence"
	"github.com/maximo-portal/version-portal/internal/repository"
	"github.com/maximo-portal/version-portal/internal/service"
	"github.com/maximo-portal/version-portal/internal/views"
	"github.com/maximo-portal/version-portal/internal/worker"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file read before the environment")
	seedFile := pflag.String("seed", "", "YAML fixture loaded into an empty local cache (overrides PORTAL_SEED_FILE)")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *seedFile != "" {
		cfg.Portal.SeedFile = *seedFile
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

	if pg.Configured() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Warn("migrations not applied; remote writes will fall back to the local cache", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var local cache.Cache = cache.NewMemoryCache(cfg.Portal.LocalLatency())
	if redis.Configured() {
		local = cache.NewRedisCache(redis.Client)
	}

	repos := repository.NewRepositories(repository.Dependencies{
		Remote:        repository.NewDocumentStore(pg.PoolHandle()),
		Local:         local,
		Namespace:     cfg.Portal.CacheKeyNamespace,
		Logger:        logger,
		RemoteTimeout: cfg.Portal.RemoteTimeout(),
	})

	seed, err := repository.LoadSeed(cfg.Portal.SeedFile)
	if err != nil {
		logger.Fatal("failed to load seed", zap.Error(err))
	}
	if err := repos.Seed(ctx, seed, logger); err != nil {
		logger.Fatal("failed to seed local cache", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repos.Tickets,
		UserRepo:   repos.Users,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	deploymentService := service.NewDeploymentService(service.DeploymentDependencies{
		DeploymentRepo: repos.Deployments,
		History:        ticketService,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	commitService := service.NewCommitService(service.CommitDependencies{
		CommitRepo: repos.Commits,
		History:    ticketService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	directoryService := service.NewDirectoryService(service.DirectoryDependencies{
		UserRepo:         repos.Users,
		OrganizationRepo: repos.Organizations,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		TicketRepo:     repos.Tickets,
		DeploymentRepo: repos.Deployments,
		CommitRepo:     repos.Commits,
		UserRepo:       repos.Users,
	})

	metrics := observability.NewMetrics()

	var pageCache *httptransport.PageCache
	if cfg.Portal.PageCacheEnabled {
		pageCache = httptransport.NewPageCache(local, cfg.Portal.CacheKeyNamespace, cfg.Portal.PageCacheTTL(), metrics, logger)
		worker.StartRevalidationWorker(service.NewRevalidationService(dispatcher, pageCache, logger))
	}

	engine, err := views.New()
	if err != nil {
		logger.Fatal("failed to load templates", zap.Error(err))
	}

	app := httptransport.NewServer(httptransport.ServerOptions{
		AppName:        cfg.App.Name,
		Views:          engine,
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Dashboard:   handlers.NewDashboardHandler(dashboardService),
		Tickets:     handlers.NewTicketsHandler(ticketService, deploymentService, commitService, directoryService, logger),
		Deployments: handlers.NewDeploymentsHandler(deploymentService, ticketService, directoryService, logger),
		Commits:     handlers.NewCommitsHandler(commitService, directoryService, logger),
		Directory:   handlers.NewDirectoryHandler(directoryService, logger),
		Session:     handlers.NewSessionHandler(),
		Actor:       actor.NewMiddleware(repos.Users, cfg.Portal.DefaultUserID, logger),
		PageCache:   pageCache,
	})

	go func() {
		logger.Info("portal listening", zap.String("addr", cfg.App.Addr()))
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
