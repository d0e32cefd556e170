package main

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Christian-Akor/enterprise-pos-system/internal/config"
	"github.com/Christian-Akor/enterprise-pos-system/internal/obs"
	"github.com/Christian-Akor/enterprise-pos-system/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	redisConn, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis uri")
	}

	srv := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: envInt("WORKER_CONCURRENCY", 10),
		Queues: map[string]int{
			"default": 5,
			"alerts":  3,
		},
		ShutdownTimeout: 30 * time.Second,
	})

	handler := &tasks.Handler{
		Logger:     logger,
		WebhookURL: cfg.LowStockWebhookURL,
		FromEmail:  cfg.ReceiptFromEmail,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}

	logger.Info().Msg("worker starting")
	if err := srv.Run(handler.Mux()); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
