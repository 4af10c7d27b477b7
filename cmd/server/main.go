// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service
// packages.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	jwttoken "reclamacidade/internal/jwt_token"
	"reclamacidade/internal/location"
	locationhandler "reclamacidade/internal/location/handler"
	"reclamacidade/internal/platform/config"
	"reclamacidade/internal/platform/httpserver"
	"reclamacidade/internal/platform/logger"
	"reclamacidade/internal/platform/metrics"
	"reclamacidade/internal/platform/middleware"
	"reclamacidade/internal/platform/postgres"
	platformredis "reclamacidade/internal/platform/redis"
	reporthandler "reclamacidade/internal/report/handler"
	reportmetrics "reclamacidade/internal/report/metrics"
	reportservice "reclamacidade/internal/report/service"
	reportstore "reclamacidade/internal/report/store"
	userhandler "reclamacidade/internal/user/handler"
	userservice "reclamacidade/internal/user/service"
	userstore "reclamacidade/internal/user/store"
	"reclamacidade/pkg/platform/audit"
	"reclamacidade/pkg/platform/audit/publisher"
	auditkafka "reclamacidade/pkg/platform/audit/sink/kafka"
	auditmemory "reclamacidade/pkg/platform/audit/store/memory"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	// Stores: Postgres when configured, otherwise in-memory.
	var reports reportstore.Store
	var balances userstore.Store
	if db != nil {
		pgReports := reportstore.NewPostgres(db)
		pgBalances := userstore.NewPostgres(db)
		if err := pgReports.EnsureSchema(ctx); err != nil {
			log.Error("report schema failed", "error", err)
			os.Exit(1)
		}
		if err := pgBalances.EnsureSchema(ctx); err != nil {
			log.Error("user schema failed", "error", err)
			os.Exit(1)
		}
		reports = pgReports
		balances = pgBalances
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		reports = reportstore.NewInMemory()
		balances = userstore.NewInMemory()
	}

	// Geolocation gate: Redis-backed when available so positions survive
	// restarts and fan out across instances.
	var locations location.Provider
	if redisClient != nil {
		locations = location.NewRedisProvider(redisClient)
	} else {
		locations = location.NewInMemoryProvider()
	}

	// Audit trail: Kafka sink when brokers are configured.
	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	var kafkaSink *auditkafka.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err = auditkafka.NewSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka audit sink failed", "error", err)
			os.Exit(1)
		}
		auditStore = kafkaSink
	}
	auditPublisher := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(256),
		publisher.WithLogger(log),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	jwtValidator := jwttoken.NewMiddlewareAdapter(jwtService)

	httpMetrics := metrics.New()

	reportSvc := reportservice.New(reports, locations,
		reportservice.WithAdminAllowlist(cfg.AdminEmails),
		reportservice.WithProximityRadius(cfg.ProximityRadiusMeters),
		reportservice.WithLocationMaxAge(cfg.LocationMaxAge),
		reportservice.WithListCache(redisClient, cfg.ListCacheTTL),
		reportservice.WithMetrics(reportmetrics.New()),
		reportservice.WithAuditPublisher(auditPublisher),
		reportservice.WithLogger(log),
	)
	userSvc := userservice.New(balances,
		userservice.WithAuditPublisher(auditPublisher),
		userservice.WithLogger(log),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(httpMetrics))

	reporthandler.New(reportSvc, log, jwtValidator).Register(r)
	locationhandler.New(locations, cfg.LocationMaxAge, log, jwtValidator).Register(r)
	userhandler.New(userSvc, log, jwtValidator).Register(r)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(req.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := httpserver.New(cfg.Addr, r)

	log.Info("starting reclama-cidade", "addr", cfg.Addr)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
	}

	auditPublisher.Close()
	if kafkaSink != nil {
		kafkaSink.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
