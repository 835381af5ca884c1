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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"casa/internal/amqp"
	"casa/internal/assistant"
	"casa/internal/cache"
	"casa/internal/commands"
	"casa/internal/config"
	apphttp "casa/internal/http"
	applog "casa/internal/log"
	"casa/internal/metrics"
	"casa/internal/session"
	"casa/internal/store/memory"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger, err := applog.New(applog.Config{
		Level:     cfg.SlogLevel(),
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	if err != nil {
		slog.Error("Failed to configure logging", "error", err)
		os.Exit(1)
	}
	applog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	roster, err := memory.LoadRoster(cfg.HouseholdFile)
	if err != nil {
		return err
	}

	// The event feed is optional; without it commands are applied silently.
	var publisher commands.EventPublisher
	var ready func(context.Context) error
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without event feed", applog.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			ready = client.Ready
			logger.Info("AMQP event feed enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - household events will not be published")
	}

	var completer assistant.Completer
	if cfg.AssistantEnabled() {
		gemini, err := assistant.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Failed to initialize Gemini client, assistant features will use fallbacks", applog.FieldError, err)
		} else {
			completer = gemini
		}
	} else {
		logger.Info("GEMINI_API_KEY not set - assistant features will use fallbacks")
	}

	sessions := session.NewRegistry(
		session.Options{TTL: cfg.SessionTTL, MaxSessions: cfg.MaxSessions},
		session.Deps{
			Advisor:   assistant.NewAdvisor(completer, cfg.AssistantTimeout, m),
			Publisher: publisher,
			Metrics:   m,
			Roster:    roster,
			Showcase:  cfg.Showcase,
		},
	)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              ready,
	}, sessions, m, logger)
	if err != nil {
		return err
	}

	janitor := cache.NewManager(sessions.Cleaner())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return janitor.Run(gctx, cfg.SweepInterval)
	})
	g.Go(func() error {
		logger.Info("Starting casa server", "port", cfg.Port, "users", len(roster), "showcase", cfg.Showcase)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
