package main

import (
	"net/http"
	"time"

	"study-assist/internal/api"
	"study-assist/internal/config"
	"study-assist/internal/services"
	"study-assist/internal/session"
	"study-assist/pkg/logger"
)

const janitorInterval = 5 * time.Minute

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if cfg.OpenAIKey == "" {
		logger.Warnf("no OPENAI_API_KEY configured; study actions will fail until one is set")
	}

	client := services.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIEndpoint)
	sessions := session.NewManager(time.Duration(cfg.SessionTTLMin)*time.Minute, cfg.HistoryLimit)

	stop := make(chan struct{})
	defer close(stop)
	go sessions.Janitor(stop, janitorInterval)

	server := api.NewServer(sessions, client, services.NewExtractor(), services.NewExporter())

	mux := http.NewServeMux()
	mux.Handle("/api/", server.Handler())

	logger.Infof("listening on :%s", cfg.Port)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute, // actions block on the completion provider
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server failed: %v", err)
	}
}
