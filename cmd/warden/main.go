// Command warden runs the security daemon: the web-captcha callback
// endpoint, Prometheus metrics, and the background expiry/decay jobs. The
// bot process consumes the same packages as a library and attaches its own
// platform session.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"warden/internal/audit"
	"warden/internal/challenge"
	"warden/internal/gateway"
	"warden/internal/guildconfig"
	"warden/internal/host"
	"warden/internal/platform/config"
	"warden/internal/platform/httpserver"
	"warden/internal/platform/logger"
	"warden/internal/platform/metrics"
	"warden/internal/platform/postgres"
	"warden/internal/platform/redis"
	"warden/internal/transport/captcha"
	"warden/internal/trust"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	registry := prometheus.NewRegistry()
	met := metrics.New(registry)

	var counters gateway.CounterStore
	if redisClient != nil {
		counters = gateway.NewRedisCounterStore(redisClient)
		log.Info("redis connected, rate limit counters shared across processes")
	} else {
		memCounters := gateway.NewMemoryCounterStore(100_000, time.Hour, cfg.SweepInterval,
			gateway.EvictionMetric(met, "rate_limit"))
		defer memCounters.Destroy()
		counters = memCounters
		log.Info("rate limit counters held in process memory")
	}

	platform := host.Unattached()
	guilds := guildconfig.NewPostgresStore(db)
	publisher := audit.NewPublisher(audit.NewPostgresStore(db))
	signer := challenge.NewTokenSigner(cfg.CaptchaSigningKey)

	challenges, err := challenge.New(challenge.NewPostgresStore(db), guilds, platform,
		challenge.WithLogger(log),
		challenge.WithAuditPublisher(publisher),
		challenge.WithMetrics(met),
		challenge.WithCaptcha(signer, cfg.CaptchaBaseURL),
	)
	if err != nil {
		log.Error("challenge service init failed", "error", err)
		os.Exit(1)
	}

	trustSvc, err := trust.New(
		trust.NewPostgresIncidentStore(db),
		trust.NewPostgresModerationSource(db),
		platform,
		trust.WithLogger(log),
		trust.WithAuditPublisher(publisher),
		trust.WithMetrics(met),
	)
	if err != nil {
		log.Error("trust service init failed", "error", err)
		os.Exit(1)
	}

	gate, err := gateway.New(counters, platform,
		gateway.WithLogger(log),
		gateway.WithAuditPublisher(publisher),
		gateway.WithMetrics(met),
	)
	if err != nil {
		log.Error("gateway init failed", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	captcha.New(challenges, gate, signer, log).Register(router)
	router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("warden listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		err := challenges.RunSweep(ctx, cfg.SweepInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		err := trustSvc.RunDecay(ctx, cfg.IncidentDecayInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := group.Wait(); err != nil {
		log.Error("warden exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("warden stopped")
}
