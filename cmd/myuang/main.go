package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/sabilulmuttaqin/myuang/internal/amqp"
	"github.com/sabilulmuttaqin/myuang/internal/config"
	apphttp "github.com/sabilulmuttaqin/myuang/internal/http"
	"github.com/sabilulmuttaqin/myuang/internal/log"
	"github.com/sabilulmuttaqin/myuang/internal/parser"
	"github.com/sabilulmuttaqin/myuang/internal/services"
	"github.com/sabilulmuttaqin/myuang/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	log.Setup()
	logger := log.New(log.ComponentApp)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Store ready", "path", cfg.SQLiteDBPath)

	// Record-change events are optional; without a broker the tracker
	// works fully standalone.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		events = client
		logger.Info("Event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Event publishing disabled - no AMQP_URL provided")
	}

	var expParser apphttp.Parser
	if cfg.GeminiAPIKey != "" {
		p, err := parser.NewGeminiParser(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Failed to initialize Gemini parser", log.FieldError, err)
			os.Exit(1)
		}
		expParser = p
		logger.Info("Expense parsing enabled", "model", cfg.GeminiModel)
	} else {
		logger.Info("Expense parsing disabled - no GEMINI_API_KEY provided")
	}

	expenses := services.NewExpenseService(store, events)
	bills := services.NewSplitBillService(store, events)

	srv := apphttp.NewServer(":"+cfg.Port, expenses, bills, expParser, apphttp.Options{
		CacheSize:   cfg.CacheSize,
		CacheTTL:    cfg.CacheTTL,
		RecentLimit: cfg.RecentLimit,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
