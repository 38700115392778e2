package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/roadready/internal/config"
	"github.com/iliyamo/roadready/internal/database"
	"github.com/iliyamo/roadready/internal/geocode"
	"github.com/iliyamo/roadready/internal/handler"
	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/messaging"
	"github.com/iliyamo/roadready/internal/middleware"
	"github.com/iliyamo/roadready/internal/mockdata"
	"github.com/iliyamo/roadready/internal/queue"
	"github.com/iliyamo/roadready/internal/realtime"
	"github.com/iliyamo/roadready/internal/repository"
	"github.com/iliyamo/roadready/internal/router"
	"github.com/iliyamo/roadready/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	tokenSweepEvery = time.Hour
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.ILogger) error {
	db, err := database.Open(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("database connected", logger.String("host", cfg.DBHost), logger.String("db", cfg.DBName))

	if cfg.MigrationsEnabled {
		version, err := database.Migrate(db, cfg.DBName)
		if err != nil {
			return err
		}
		log.Info("migrations applied", logger.Uint64("version", uint64(version)))
	}

	// Redis is optional: without it the limiter and caches pass through
	// and chat transcripts stay in memory.
	var rdb *redis.Client
	if client, err := config.NewRedisClient(); err != nil {
		log.Warning("redis unavailable, continuing without it", logger.Error(err))
	} else {
		rdb = client
		defer rdb.Close()
	}

	hub := realtime.NewHub(realtime.DefaultBuffer)
	pub := service.NewChangePublisher(cfg.RabbitURL, hub, log)
	defer pub.Close()

	var store messaging.Store = messaging.NewMemoryStore()
	if rdb != nil {
		store = messaging.NewRedisStore(rdb, "", 0)
	}
	chat := messaging.NewSimulator(store, pub, cfg.ChatReplyDelay, log)
	geocoder := geocode.New(cfg.NominatimURL, rdb, cfg.GeocodeTTL, log)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	resets := repository.NewResetRepo(db)
	profiles := repository.NewProfileRepo(db)
	mechanics := repository.NewMechanicRepo(db)
	vehicles := repository.NewVehicleRepo(db)
	requests := repository.NewServiceRequestRepo(db)
	reviews := repository.NewReviewRepo(db)
	payments := repository.NewPaymentRepo(db)

	auth := handler.NewAuthHandler(cfg, users, tokens, resets, profiles, log)
	handlers := router.Handlers{
		Health:   &handler.HealthHandler{DB: db, Redis: rdb},
		Auth:     auth,
		Profile:  &handler.ProfileHandler{Profiles: profiles, Auth: auth, Pub: pub, Log: log},
		Mechanic: &handler.MechanicHandler{Cfg: cfg, Mechanics: mechanics, ReviewRepo: reviews, Pub: pub, Log: log},
		Search:   &handler.SearchHandler{Cfg: cfg, Generator: mockdata.New(), Geocoder: geocoder, Log: log},
		Vehicle:  &handler.VehicleHandler{Vehicles: vehicles, Pub: pub, Log: log},
		ServiceRequest: &handler.ServiceRequestHandler{
			Requests: requests, Mechanics: mechanics, Geocoder: geocoder, Pub: pub, Log: log,
		},
		Review:   &handler.ReviewHandler{Reviews: reviews, Pub: pub, Log: log},
		Payment:  &handler.PaymentHandler{Payments: payments, Pub: pub, Log: log},
		Chat:     &handler.ChatHandler{Chat: chat, Mechanics: mechanics, Log: log},
		Realtime: &handler.RealtimeHandler{Hub: hub, Requests: requests, Mechanics: mechanics, Log: log},
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))
	router.Register(e, handlers, cfg.JWTSecret, middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening", logger.String("addr", addr), logger.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.RabbitURL != "" {
		consumer := queue.NewConsumer(cfg.RabbitURL, hub, log)
		g.Go(func() error { return consumer.Run(ctx) })
	} else {
		log.Info("no broker configured, changes stay in process")
	}
	g.Go(func() error { sweepTokens(ctx, tokens, resets, log); return nil })
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := e.Shutdown(sctx)
		chat.Close()
		hub.Close()
		return err
	})
	return g.Wait()
}

// sweepTokens deletes dead refresh and reset tokens every tokenSweepEvery
// until ctx ends.
func sweepTokens(ctx context.Context, tokens *repository.TokenRepo, resets *repository.ResetRepo, log logger.ILogger) {
	t := time.NewTicker(tokenSweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := tokens.PurgeExpired(ctx, now)
			if err != nil {
				log.Warning("token sweep failed", logger.Error(err))
				continue
			}
			if n > 0 {
				log.Debug("expired refresh tokens purged", logger.Int64("count", n))
			}
			if n, err := resets.PurgeExpired(ctx, now); err != nil {
				log.Warning("reset token sweep failed", logger.Error(err))
			} else if n > 0 {
				log.Debug("expired reset tokens purged", logger.Int64("count", n))
			}
		}
	}
}
