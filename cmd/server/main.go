package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-timer/internal/config"
	"github.com/stemsi/exstem-timer/internal/database"
	"github.com/stemsi/exstem-timer/internal/handler"
	"github.com/stemsi/exstem-timer/internal/logger"
	"github.com/stemsi/exstem-timer/internal/middleware"
	"github.com/stemsi/exstem-timer/internal/repository"
	"github.com/stemsi/exstem-timer/internal/router"
	"github.com/stemsi/exstem-timer/internal/service"
	"github.com/stemsi/exstem-timer/internal/validator"
	"github.com/stemsi/exstem-timer/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Dur("tick", cfg.TickInterval).
		Msg("Starting ExStem Timer")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	clock := clockwork.NewRealClock()

	// ─── Initialize Repositories ───────────────────────────────────────
	testRepo := repository.NewTestRepository(pool)
	deadlineCache := repository.NewDeadlineCache(rdb)
	expiryQueue := repository.NewExpiryQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	testService := service.NewTestService(testRepo, deadlineCache, expiryQueue, cfg, clock, log)
	ticketService := service.NewTicketService(cfg, clock)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Test:  handler.NewTestHandler(testService, ticketService, log),
		Timer: handler.NewTimerWSHandler(testService, clock, cfg.TickInterval, log, cfg.AllowedOrigins),
		Health: handler.NewHealthHandler(
			map[string]handler.HealthCheck{
				"postgres": pool.Ping,
				"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			},
			func(ctx context.Context) (int64, error) {
				return rdb.LLen(ctx, config.WorkerKey.TimerExpiryQueue).Result()
			},
			log,
		),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	expiryWorker := worker.NewExpiryWorker(expiryQueue, testService, clock, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		expiryWorker.Start(workerCtx)
	}()

	// Rate limiter for test starts, per IP.
	startLimiter := middleware.NewRateLimiter(cfg.StartRatePerMinute, time.Minute, clock)
	go startLimiter.RunCleanup(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ticketService, startLimiter, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout). Hijacked timer
	// streams are not tracked by Shutdown and end with the process.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the expiry queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
