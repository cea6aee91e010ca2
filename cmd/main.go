package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/auctionhall/engine/internal/auction/application"
	"github.com/auctionhall/engine/internal/auction/application/events"
	auctionhttp "github.com/auctionhall/engine/internal/auction/infra/http"
	auctionpg "github.com/auctionhall/engine/internal/auction/infra/repository/postgres"
	"github.com/auctionhall/engine/internal/auction/infra/views"
	auctionws "github.com/auctionhall/engine/internal/auction/infra/websocket"
	"github.com/auctionhall/engine/internal/auction/scheduler"
	"github.com/auctionhall/engine/internal/shared/config"
	"github.com/auctionhall/engine/internal/shared/db"
	"github.com/auctionhall/engine/internal/shared/db/migrations"
	"github.com/auctionhall/engine/internal/shared/httpserver"
	"github.com/auctionhall/engine/internal/shared/logger"
	sharedws "github.com/auctionhall/engine/internal/shared/websocket"
	userpg "github.com/auctionhall/engine/internal/user/infra/repository/postgres"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting auction engine...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrations.Run(cfg.Database.DSN()); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}
	log.Info("Database migrations completed")

	pool, err := db.NewPool(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// Realtime fan-out
	hub := sharedws.NewHub()
	go hub.Run(ctx)
	broadcaster := events.NewHubBroadcaster(hub)

	// Repositories
	auctionRepo := auctionpg.NewAuctionRepository(pool)
	bidRepo := auctionpg.NewBidRepository(pool)
	favoriteRepo := auctionpg.NewFavoriteRepository(pool)
	userRepo := userpg.NewUserRepository(pool)

	// View counter
	var counter views.Counter
	if cfg.Views.Backend == "redis" {
		counter, err = views.NewRedisCounter(ctx, &redis.Options{
			Addr:     cfg.Views.RedisAddr,
			Password: cfg.Views.RedisPassword,
			DB:       cfg.Views.RedisDB,
		}, auctionRepo, cfg.Views.FlushInterval)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
	} else {
		counter = views.NewMemoryCounter(auctionRepo, cfg.Views.FlushInterval)
	}
	go counter.Run(ctx)

	// Use cases and scheduler
	lifecycleUC := application.NewLifecycleUseCase(auctionRepo, bidRepo, userRepo, pool,
		broadcaster, cfg.Scheduler.LockTimeout)
	sched := scheduler.New(lifecycleUC, cfg.Scheduler.SweepInterval)

	placeBidUC := application.NewPlaceBidUseCase(auctionRepo, bidRepo, userRepo, pool,
		broadcaster, cfg.Scheduler.LockTimeout)
	manageUC := application.NewManageAuctionsUseCase(auctionRepo, bidRepo, favoriteRepo, sched, counter)
	svc := application.NewAuctionService(placeBidUC, manageUC, lifecycleUC)

	if err := sched.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// HTTP and websocket surface
	server := httpserver.NewServer(cfg.Server.ShutdownTimeout)
	auctionhttp.NewAuctionHandler(svc).RegisterRoutes(server.App())

	wsHandler := auctionws.NewAuctionWSHandler(ctx, svc, hub)
	wsHandler.RegisterRoutes(server.App())
	go wsHandler.ListenForMessages(ctx)

	if err := server.Start(ctx, cfg.Server.Address()); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
