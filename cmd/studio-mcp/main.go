// Command studio-mcp exposes studio operations as Model Context Protocol
// tools over stdio, for agents working with files on the same machine.
//
// stdout carries the protocol; logs go to stderr.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/app"
	"github.com/fpang/content-studio/internal/config"
	"github.com/fpang/content-studio/internal/logging"
)

var version = "dev"

func main() {
	configFile := flag.String("config", "", "Config file (default: ./studio.yaml or ~/.content-studio/studio.yaml)")
	flag.Parse()

	initStart := time.Now()
	logging.Init()
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.InitWith(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize studio")
	}
	defer a.Close()

	t := &tools{ingestor: a.Ingestor, models: lazyModel(a)}
	server := mcp.NewServer(&mcp.Implementation{Name: "content-studio", Version: version}, nil)
	t.register(server)

	a.StartupLog(logging.NewStartupLogger("studio-mcp")).
		Version(version).
		InitDuration(time.Since(initStart)).
		Log()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("MCP server stopped")
	}
}

// lazyModel builds the model client on the first tool call that needs one,
// so tools like apply_filter work without a key.
func lazyModel(a *app.App) func(context.Context) (model, error) {
	var (
		mu     sync.Mutex
		client model
	)
	return func(ctx context.Context) (model, error) {
		mu.Lock()
		defer mu.Unlock()
		if client != nil {
			return client, nil
		}
		c, err := a.Client(ctx, "")
		if err != nil {
			return nil, err
		}
		client = c
		return client, nil
	}
}
