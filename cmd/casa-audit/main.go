// Command casa-audit consumes the household event feed and writes one
// structured log line per applied command.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"casa/internal/amqp"
	"casa/internal/config"
	applog "casa/internal/log"
)

const retryDelay = 5 * time.Second

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := applog.New(applog.Config{
		Level:     cfg.SlogLevel(),
		Format:    cfg.LogFormat,
		Component: applog.ComponentAudit,
		Output:    os.Stdout,
	})
	if err != nil {
		os.Stderr.WriteString("invalid log configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	audit := applog.NewStructuredLogger(logger)
	handle := func(ctx context.Context, ev *amqp.CommandApplied) error {
		audit.LogCommandApplied(ctx, ev.Household, ev.Kind, ev.EntityID)
		return nil
	}

	logger.Info("Starting casa-audit", "queue", cfg.AMQPQueue)
	if err := consume(ctx, client, handle, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Audit stopped", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Audit stopped")
}

// consume runs the consumer until ctx ends, reconnecting after the broker
// closes the channel.
func consume(ctx context.Context, client *amqp.Client, handle func(context.Context, *amqp.CommandApplied) error, logger *applog.Logger) error {
	for {
		err := client.ConsumeEvents(ctx, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Event consumption stopped, reconnecting", applog.FieldError, err, "delay", retryDelay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
		if err := client.Reconnect(ctx); err != nil {
			logger.Error("AMQP reconnect failed", applog.FieldError, err)
		}
	}
}
