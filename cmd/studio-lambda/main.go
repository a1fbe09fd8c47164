// Package main is the Lambda entry point for the studio API.
//
// It serves the same router as studio-web behind API Gateway (HTTP API,
// payload v2). At cold start it loads configuration, pulls the model API
// key from SSM when GEMINI_API_KEY is not set, and wires the configured
// store and artifact backends, typically DynamoDB and S3.
//
// When ORIGIN_VERIFY_SECRET is set, API calls must carry it in the
// X-Origin-Verify header so they only arrive through CloudFront.
package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/app"
	"github.com/fpang/content-studio/internal/config"
	"github.com/fpang/content-studio/internal/lambdaboot"
	"github.com/fpang/content-studio/internal/logging"
	"github.com/fpang/content-studio/internal/server"
)

var api *server.Server

func init() {
	initStart := time.Now()
	logging.Init()
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("STUDIO_CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.InitWith(cfg.Log.Level, cfg.Log.Format)

	if cfg.AWS.SSMAPIKeyParam != "" {
		clients, err := lambdaboot.InitAWS(ctx, cfg.AWS.Region)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load AWS config")
		}
		if err := clients.LoadAPIKey(ctx, cfg.AWS.SSMAPIKeyParam); err != nil {
			log.Fatal().Err(err).Str("param", cfg.AWS.SSMAPIKeyParam).Msg("Failed to read API key from SSM")
		}
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize studio")
	}

	secret := os.Getenv("ORIGIN_VERIFY_SECRET")
	if secret == "" {
		log.Warn().Msg("ORIGIN_VERIFY_SECRET not set - origin verification disabled")
	}
	api = server.New(a, server.WithOriginVerify(secret))

	a.StartupLog(lambdaboot.StartupLog("studio-lambda", initStart)).
		Feature("originVerify", secret != "").
		Log()
}

func main() {
	adapter := httpadapter.NewV2(api.Handler())
	lambda.Start(adapter.ProxyWithContext)
}
