package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/clipferry/clipferry/internal/allowlist"
	"github.com/clipferry/clipferry/internal/api"
	"github.com/clipferry/clipferry/internal/api/handler"
	"github.com/clipferry/clipferry/internal/bot"
	"github.com/clipferry/clipferry/internal/classify"
	"github.com/clipferry/clipferry/internal/config"
	"github.com/clipferry/clipferry/internal/fetch"
	"github.com/clipferry/clipferry/internal/relay"
	"github.com/clipferry/clipferry/internal/stats"
	"github.com/clipferry/clipferry/internal/worker"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("clipferry %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting clipferry",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ensure the temp directory exists
	if cfg.Download.TempDir == "" {
		cfg.Download.TempDir = filepath.Join(os.TempDir(), "clipferry")
	}
	if err := os.MkdirAll(cfg.Download.TempDir, 0o755); err != nil {
		logger.Error("failed to create temp directory", "error", err)
		os.Exit(1)
	}

	// Connect to Telegram
	var tg *tgbotapi.BotAPI
	if cfg.Telegram.APIEndpoint != "" {
		// Alternate Bot API server, e.g. a local one accepting large uploads.
		tg, err = tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Telegram.BotToken, cfg.Telegram.APIEndpoint)
	} else {
		tg, err = tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	}
	if err != nil {
		logger.Error("failed to connect to telegram", "error", err)
		os.Exit(1)
	}
	logger.Info("authorized", "username", tg.Self.UserName)

	// Initialize dependencies
	allow := allowlist.New(cfg.Telegram.Whitelist)
	classifier := classify.New(cfg.Extract.ExtraDomains)
	dispatcher := fetch.NewDispatcher(cfg.Download, cfg.Extract, logger)
	st := stats.New()

	pool := worker.NewPool(
		worker.Config{
			Workers:   cfg.Worker.Count,
			QueueSize: cfg.Worker.QueueSize,
		},
		logger,
	)

	sender := bot.NewSender(tg)
	relayer := relay.New(sender, logger)

	b := bot.New(
		tg,
		allow,
		classifier,
		dispatcher,
		relayer,
		pool,
		st,
		logger,
		bot.Config{
			UpdateTimeout: cfg.Telegram.UpdateTimeout,
			MaxSizeMB:     cfg.Download.MaxSizeMB,
		},
	)

	// Start worker pool
	pool.Start()

	// Setup ops HTTP server
	healthHandler := handler.NewHealthHandler(st, pool, cfg.Download.TempDir)
	adminSrv := &http.Server{
		Addr:         cfg.Admin.Address(),
		Handler:      api.NewRouter(healthHandler, cfg.Admin.APIKey),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("admin server listening", "addr", adminSrv.Addr)
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server failed", "error", err)
		}
	}()

	// Run the bot until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b.Run(ctx)

	// Graceful shutdown
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}

	if err := pool.Stop(cfg.Worker.StopGrace); err != nil {
		logger.Error("worker pool shutdown failed", "error", err)
	}

	logger.Info("stopped")
}
