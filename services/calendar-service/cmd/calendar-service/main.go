package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/dentalcare/libs/config"
	"github.com/md-rashed-zaman/dentalcare/libs/db"
	"github.com/md-rashed-zaman/dentalcare/libs/httpx"
	"github.com/md-rashed-zaman/dentalcare/libs/kafkax"
	otelx "github.com/md-rashed-zaman/dentalcare/libs/otel"
	"github.com/md-rashed-zaman/dentalcare/libs/runtime"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/backend"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/cache"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/consumer"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/grpcserver"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/handlers"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/inbox"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/metrics"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/source"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/storage"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := loadSettings()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var checks []runtime.ReadyCheck

	var pool *db.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.Open(ctx, cfg.DatabaseURL, db.Options{})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	}

	var src source.Source
	switch cfg.Source {
	case sourcePostgres:
		src = storage.NewRepository(pool)
	default:
		src = backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	}
	logger.Info("snapshot source selected", "source", cfg.Source)

	calMetrics := metrics.NewCalendarMetrics(prometheus.DefaultRegisterer)

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			panic(err)
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	var invalidator consumer.Invalidator
	if rdb != nil {
		cached := cache.New(src, rdb, cache.Options{
			TTL:     cfg.CacheTTL,
			Logger:  logger,
			Observe: calMetrics.ObserveCache,
		})
		src = cached
		invalidator = cached
	}

	if cfg.KafkaBrokers != "" && invalidator != nil {
		var dedupe consumer.Inbox
		if pool != nil {
			inboxRepo := inbox.NewRepository(pool)
			if err := inboxRepo.EnsureSchema(ctx); err != nil {
				logger.Error("inbox schema setup failed", "err", err)
			} else {
				dedupe = inboxRepo
			}
		}
		for _, topic := range cfg.KafkaTopics {
			c := consumer.New(logger, dedupe, consumer.Config{
				Brokers: cfg.KafkaBrokers,
				GroupID: cfg.KafkaGroupID,
				Topic:   topic,
			}, consumer.InvalidateHandler(logger, invalidator)).WithObserver(calMetrics)
			go c.Run(ctx)
			logger.Info("kafka consumer started", "topic", topic)
		}
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	}

	var limiter httpx.Limiter = httpx.NewRateLimiter(cfg.RatePerMinute, time.Minute)
	if rdb != nil {
		limiter = httpx.NewRedisRateLimiter(rdb, cfg.RatePerMinute, time.Minute, cfg.Service+":rl")
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))
	calendarHandler := handlers.NewCalendarHandler(src, logger, handlers.Options{
		Grid:      cfg.Grid,
		Location:  cfg.Location,
		JWTSecret: cfg.JWTSecret,
		Metrics:   calMetrics,
	})
	calendarHandler.Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CalendarCORS(cfg.CORSOrigins)),
		httpx.WithRateLimit(limiter, logger, cfg.RateFailOpen),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	)
	handler = otelhttp.NewHandler(handler, "calendar")
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv := grpcserver.New(logger, 10*time.Second, checks...)
	go func() {
		if err := grpcSrv.ListenAndServe(ctx, net.JoinHostPort("", cfg.GRPCPort)); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
