package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"moviegen/internal/events"
	"moviegen/internal/genai"
	"moviegen/internal/infra"
	"moviegen/internal/infra/credentials"
	"moviegen/internal/media"
	"moviegen/internal/movie"
	"moviegen/internal/storage"
	"moviegen/internal/storyboard"
	"moviegen/internal/video"
)

// render runs one generation end to end from the command line and writes each
// rendered scene to scene-N.mp4 under the output directory.
func main() {
	idea := flag.String("idea", "", "movie idea to generate")
	imagePath := flag.String("image", "", "optional reference image path")
	outDir := flag.String("out", "./movie", "output directory for rendered scenes")
	scenes := flag.Int("scenes", 0, "override scene count (default from SCENE_COUNT)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if *scenes > 0 {
		cfg.SceneCount = *scenes
	}

	keys := credentials.NewStore()
	if cfg.GeminiAPIKey == "" {
		logger.Fatal().Msg("render: GEMINI_API_KEY is required")
	}
	if err := keys.SetGeminiAPIKey(cfg.GeminiAPIKey); err != nil {
		logger.Fatal().Err(err).Msg("render: invalid GEMINI_API_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var image *media.Payload
	if *imagePath != "" {
		image, err = media.FromFile(*imagePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("render: failed to encode reference image")
		}
	}

	req, err := movie.NewRequest(*idea, image)
	if err != nil {
		logger.Fatal().Err(err).Msg("render: an idea is required (-idea)")
	}

	store, err := storage.NewFileStore(*outDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("render: failed to prepare output directory")
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

	// Mirror status events to the log so progress is visible on the console.
	sub := broadcaster.Subscribe()
	go func() {
		for e := range sub {
			logger.Info().Str("event", string(e.Type)).Msg(e.Message)
		}
	}()
	defer broadcaster.Unsubscribe(sub)

	runErr := orchestrator.Generate(ctx, req)

	for _, clip := range display.Clips() {
		key := fmt.Sprintf("scene-%d.mp4", clip.Scene+1)
		path, err := store.Write(ctx, key, clip.Data)
		if err != nil {
			logger.Error().Err(err).Str("scene", key).Msg("render: failed to write scene")
			continue
		}
		logger.Info().Str("path", path).Str("title", clip.Title).Msg("render: wrote scene")
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Warn().Msg("render: cancelled")
		}
		logger.Fatal().Err(runErr).Str("status", orchestrator.Run().Status).Msg("render: generation failed")
	}
	logger.Info().Int("scenes", display.Len()).Str("out", store.BasePath()).Msg("render: movie ready")
}
