package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-calling-agent/internal/assistant"
	"ai-calling-agent/internal/calls"
	"ai-calling-agent/internal/config"
	"ai-calling-agent/internal/health"
	"ai-calling-agent/internal/httpapi"
	"ai-calling-agent/internal/reporting"
	"ai-calling-agent/internal/telephony"
	"ai-calling-agent/internal/voice"
	"ai-calling-agent/pkg/logger"
	"ai-calling-agent/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.DebugLogging())
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Optional probe targets. Connections are lazy; an unreachable store only degrades /health.
	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = utils.NewPostgres("pgx", cfg.Database.URL, utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		rdb, err = utils.NewRedis(utils.RedisConfig{URL: cfg.Redis.URL})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
	}

	dialer := telephony.NewDemoDialer(cfg.Calls.ProcessingDelay)
	callsSvc := calls.NewService(calls.NewMemoryRepo(cfg.Calls.MaxRecords), dialer, log)

	healthSvc := health.NewService(health.Config{DB: db, Redis: rdb})
	healthSvc.RegisterChecker("telephony", dialer.HealthCheck)

	h := httpapi.Handlers{
		Version:   cfg.App.Version,
		Assistant: assistant.NewService(cfg.OpenAI.Model),
		Voice:     voice.NewService(cfg.OpenAI.TTSModel, cfg.OpenAI.WhisperModel),
		Calls:     callsSvc,
		Reporting: reporting.NewService(callsSvc),
		Health:    healthSvc,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           newRouter(log, h),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "dialer", dialer.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	if err := callsSvc.Shutdown(shutdownCtx); err != nil {
		log.Error("call processing shutdown failed", "err", err)
	}
}
