package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/canteen/internal/catalog"
	"github.com/Skotchmaster/canteen/internal/config"
	"github.com/Skotchmaster/canteen/internal/db"
	"github.com/Skotchmaster/canteen/internal/events"
	"github.com/Skotchmaster/canteen/internal/httpserver"
	"github.com/Skotchmaster/canteen/internal/idempotency"
	"github.com/Skotchmaster/canteen/internal/logging"
	"github.com/Skotchmaster/canteen/internal/metrics"
	loggingmw "github.com/Skotchmaster/canteen/internal/middleware/logging"
	"github.com/Skotchmaster/canteen/internal/repo"
	"github.com/Skotchmaster/canteen/internal/search"
	"github.com/Skotchmaster/canteen/internal/service"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("canteen_stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("canteen_stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	database, err := db.Open(openCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	if err := db.Migrate(ctx, database); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}

	cat := catalog.Default()
	r := &repo.GormRepo{DB: database}
	if err := r.UpsertItems(ctx, cat.List()); err != nil {
		return fmt.Errorf("seed items: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewServerMetrics(reg, cfg.ServiceName)

	pub := &metrics.CountingPublisher{Metrics: m}
	if producer := events.NewProducer(cfg.KafkaBrokers); producer != nil {
		defer func() { _ = producer.Close() }()
		pub.Next = producer
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers)
	}

	var searcher search.Searcher = search.CatalogSearcher{Catalog: cat}
	if cfg.ESURL != "" {
		client, err := search.NewClient(ctx, cfg)
		if err != nil {
			logger.Warn("es_unavailable", "reason", "falling back to catalog search", "error", err)
		} else {
			ix := &search.Index{ES: client, Name: cfg.ESIndex}
			if err := ix.IndexItems(ctx, cat.List()); err != nil {
				logger.Warn("es_index_error", "index", cfg.ESIndex, "error", err)
			}
			searcher = search.Fallback{Primary: ix, Secondary: searcher}
		}
	}

	var idem echo.MiddlewareFunc
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis_unavailable", "addr", cfg.RedisAddr, "error", err)
		}
		idem = idempotency.Middleware(idempotency.NewRedisStore(rdb), cfg.IdempotencyTTL)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(m.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler:   &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Catalog: cat, Events: pub}},
		PaymentHandler: &httpserver.PaymentHTTP{Svc: &service.PaymentService{Repo: r, Events: pub}},
		UserHandler:    &httpserver.UserHTTP{Svc: &service.UserService{Repo: r, Events: pub}},
		ItemHandler:    &httpserver.ItemHTTP{Catalog: cat, Searcher: searcher},
		CartHandler:    &httpserver.CartHTTP{Catalog: cat},
		HealthHandler:  &httpserver.HealthHTTP{DB: database, ServiceName: cfg.ServiceName},
		Idempotency:    idem,
		Metrics:        metrics.Handler(reg),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("canteen_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
