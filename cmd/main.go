package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"ai-live-interpreter-service/internal/app"
	"ai-live-interpreter-service/internal/config"
	"ai-live-interpreter-service/internal/events"
	"ai-live-interpreter-service/internal/httpapi"
	"ai-live-interpreter-service/internal/observability"
	"ai-live-interpreter-service/internal/service/pipeline"
	"ai-live-interpreter-service/internal/source"
	"ai-live-interpreter-service/internal/source/deepgram"
	"ai-live-interpreter-service/internal/source/mock"
	"ai-live-interpreter-service/internal/translate/libre"
	"ai-live-interpreter-service/internal/translate/openai"
)

func main() {
	cfg := config.Load()

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	defer application.Shutdown()

	publisher := events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicDisplay: cfg.Kafka.TopicDisplay,
		TopicMessage: cfg.Kafka.TopicMessage,
		Principal:    cfg.Kafka.Principal,
	})
	defer publisher.Close()

	fast := libre.New(cfg.Translate.FastBaseURL, cfg.Translate.FastTimeout)
	quality := openai.New(cfg.Translate.OpenAIKey, cfg.Translate.OpenAIModel)

	pipe := pipeline.New(cfg, fast, quality, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go pipe.Run(ctx)

	adapter := newSourceAdapter(cfg)
	if err := adapter.Start(ctx, pipe); err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Source.Provider).Msg("Failed to start transcript source")
	}
	defer adapter.Close()

	obsServer := observability.NewServer(":" + cfg.Observability.MetricsPort)
	obsServer.Start()

	apiServer := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      httpapi.NewRouter(pipe),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", apiServer.Addr).Msg("Starting renderer API server")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Renderer API server error")
		}
	}()

	log.Info().
		Str("provider", cfg.Source.Provider).
		Str("sessionId", pipe.SessionID()).
		Msg("Live interpreter service is running")

	// Block until shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Renderer API shutdown error")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// newSourceAdapter selects the transcript source by configuration. The mock
// adapter replays a scripted interview and needs no credentials.
func newSourceAdapter(cfg *config.Configuration) source.Adapter {
	switch cfg.Source.Provider {
	case "deepgram":
		return deepgram.New(deepgram.Config{
			URL:      cfg.Source.URL,
			APIKey:   cfg.Source.APIKey,
			Language: cfg.Translate.SourceLang,
		})
	default:
		return mock.New()
	}
}
