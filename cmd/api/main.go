package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"moviegen/internal/events"
	"moviegen/internal/genai"
	"moviegen/internal/http/handlers"
	"moviegen/internal/http/httpapi"
	"moviegen/internal/infra"
	"moviegen/internal/infra/credentials"
	"moviegen/internal/movie"
	"moviegen/internal/storyboard"
	"moviegen/internal/video"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	keys := credentials.NewStore()
	if cfg.GeminiAPIKey != "" {
		if err := keys.SetGeminiAPIKey(cfg.GeminiAPIKey); err != nil {
			logger.Fatal().Err(err).Msg("invalid GEMINI_API_KEY")
		}
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set; supply one via PUT /v1/key before generating")
	}

	client := genai.NewClient(genai.Options{
		BaseURL:    cfg.GeminiBaseURL,
		TextModel:  cfg.TextModel,
		VideoModel: cfg.VideoModel,
		Logger:     &logger,
		Keys:       keys,
	})

	generator := storyboard.NewGeminiGenerator(client, storyboard.Options{
		SceneCount:  cfg.SceneCount,
		ClipSeconds: cfg.ClipSeconds,
	})
	renderer := video.NewVeoRenderer(client, video.RendererOptions{
		PollInterval:    cfg.VideoPollEvery,
		MaxPolls:        cfg.VideoMaxPolls,
		DurationSeconds: cfg.ClipSeconds,
		Logger:          &logger,
	})

	display := movie.NewDisplay()
	broadcaster := events.NewBroadcaster(64)
	orchestrator := movie.NewOrchestrator(generator, renderer, display, broadcaster, logger)

	app := handlers.NewApp(logger, orchestrator, display, movie.NewSession(), broadcaster, keys)
	router := httpapi.NewRouter(app, cfg.AllowedOrigins)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
