package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roast-platform/internal/agents"
	"roast-platform/internal/auth"
	"roast-platform/internal/config"
	"roast-platform/internal/dialer"
	"roast-platform/internal/history"
	"roast-platform/internal/httpapi"
	"roast-platform/internal/payment"
	"roast-platform/internal/poller"
	"roast-platform/internal/session"
	"roast-platform/internal/stats"
	"roast-platform/pkg/logger"
	"roast-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local convenience; the file is absent in deployed environments.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	dialClient := dialer.NewClient(cfg.Dialer.BaseURL, cfg.Dialer.Timeout)
	catalog := agents.NewDefaultCatalog()
	processor := payment.NewSimulatedProcessor()
	counter := stats.NewRedisCounter(rdb, cfg.Roast.CounterSeed)
	hist := history.NewPostgresRepository(db)
	gate := session.NewRedisGate(rdb, 0)

	pollInterval := cfg.Roast.PollInterval
	hub := session.NewHub(func(visitorID string) *session.Orchestrator {
		return session.New(session.Config{
			VisitorID: visitorID,
			Dialer:    dialClient,
			Payments:  processor,
			NewPoller: func(sink poller.Sink, expectRecording bool) session.CallPoller {
				return poller.New(dialClient, sink, poller.Options{
					Interval:        pollInterval,
					ExpectRecording: expectRecording,
				}, log)
			},
			Counter: counter,
			History: hist,
			Gate:    gate,
			Logger:  log,
		})
	})

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	httpapi.Register(r, httpapi.Handlers{
		Auth:    authManager,
		Catalog: catalog,
		Hub:     hub,
		Counter: counter,
		History: hist,
	}, auth.RequireGuestToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
