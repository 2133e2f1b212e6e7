package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	zlog "github.com/rs/zerolog/log"

	"github.com/gatherly/event-service/internal/application/event"
	"github.com/gatherly/event-service/internal/config"
	rediscache "github.com/gatherly/event-service/internal/infrastructure/caching/redis"
	"github.com/gatherly/event-service/internal/infrastructure/db/postgres"
	rabbitpub "github.com/gatherly/event-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/gatherly/event-service/internal/logger"
	"github.com/gatherly/event-service/internal/transport/http/handlers"
	authmw "github.com/gatherly/event-service/internal/transport/http/middleware"
	"github.com/gatherly/event-service/internal/transport/http/router"
)

// sysClock implements event.Clock using system time.
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

// App holds all dependencies for the service.
type App struct {
	Config *config.Config
	Server *http.Server
	DB     *sql.DB

	Service   *event.Service
	Repo      *postgres.Repo
	Publisher *rabbitpub.Publisher
	Cache     *rediscache.Client
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("db open failed")
	}
	defer db.Close()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			zlog.Fatal().Err(err).Msg("db ping failed")
		}
	}

	app := NewApp(cfg, db)
	defer func() {
		if app.Publisher != nil {
			_ = app.Publisher.Close()
		}
		if app.Cache != nil {
			_ = app.Cache.Close()
		}
	}()

	// Background loops share one lifecycle context.
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Service.StartReconciler(rootCtx)
	app.Repo.StartOutboxWorker(rootCtx, publisherOrNoop(app.Publisher))

	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("server crashed")
		}
	}()

	<-rootCtx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("shutdown failed")
	}
}

func publisherOrNoop(p *rabbitpub.Publisher) event.EventPublisher {
	if p == nil {
		return event.NoopPublisher{}
	}
	return p
}

func NewApp(cfg *config.Config, db *sql.DB) *App {
	// 1) Infrastructure
	repo := postgres.New(db)
	members := postgres.NewMembershipRepo(db)

	var rabbit *rabbitpub.Publisher
	var pub event.EventPublisher = event.NoopPublisher{}

	if cfg.RabbitURL != "" {
		p, err := rabbitpub.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			zlog.Fatal().Err(err).Msg("rabbit publisher init failed")
		}
		rabbit = p
		pub = p
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: domain events will not be published")
	}

	var cacheClient *rediscache.Client
	var cache event.Cache
	if cfg.RedisURL != "" {
		c, err := rediscache.New(cfg.RedisURL)
		if err != nil {
			zlog.Warn().Err(err).Msg("redis unavailable: caching disabled")
		} else {
			cacheClient = c
			cache = c
		}
	}

	// 2) Application
	svc := event.New(repo, members, sysClock{}, pub, cache,
		cfg.CacheTTLDetails, cfg.CacheTTLList, cfg.ReconcileQueueSize)

	// 3) Transport
	h := handlers.NewEventsHandler(svc)
	auth := authmw.NewAuth(cfg.JWTSecret, cfg.JWTIssuer)
	z := handlers.NewHealthHandler()

	// 4) Router
	httpHandler := router.New(h, auth, z, cfg)

	// 5) Server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpHandler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &App{
		Config:    cfg,
		Server:    srv,
		DB:        db,
		Service:   svc,
		Repo:      repo,
		Publisher: rabbit,
		Cache:     cacheClient,
	}
}
