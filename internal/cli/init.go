package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/app"
	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/config"
	"github.com/fpang/content-studio/internal/logging"
)

// InitApp loads configuration, configures logging and assembles the App.
// It exits fatally on failure.
func InitApp(ctx context.Context, configFile string) *app.App {
	initStart := time.Now()
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.InitWith(cfg.Log.Level, cfg.Log.Format)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize studio")
	}
	a.StartupLog(logging.NewStartupLogger("studio")).InitDuration(time.Since(initStart)).Log()
	return a
}

// InitClient returns a model client for apiKey (blank for the configured
// key) after validating the key with a minimal call. It exits fatally on
// failure.
func InitClient(ctx context.Context, a *app.App, apiKey string) *chat.Client {
	client, err := a.Client(ctx, apiKey)
	if err != nil {
		HandleValidationError(err)
	}
	log.Info().Msg("connection successful - model client initialized")

	if err := client.Validate(ctx); err != nil {
		HandleValidationError(err)
	}

	log.Info().Msg("API key validation complete - ready for operations")
	return client
}
