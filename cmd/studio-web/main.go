// Command studio-web serves the studio HTTP API for a browser frontend.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/content-studio/internal/app"
	"github.com/fpang/content-studio/internal/config"
	"github.com/fpang/content-studio/internal/logging"
	"github.com/fpang/content-studio/internal/server"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configFlag string
	portFlag   int
)

var rootCmd = &cobra.Command{
	Use:   "studio-web",
	Short: "HTTP API for the content studio",
	Long: `Studio Web serves the studio API under /api and Prometheus metrics under
/metrics. Storage, artifact and model settings come from studio.yaml and
STUDIO_* environment variables.

Examples:
  studio-web
  studio-web --port 9090
  studio-web --config ./deploy/studio.yaml`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runMain,
}

func init() {
	rootCmd.Flags().StringVar(&configFlag, "config", "", "Config file (default: ./studio.yaml or ~/.content-studio/studio.yaml)")
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (default: server.port)")
}

func main() {
	logging.Init()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	initStart := time.Now()
	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	logging.InitWith(cfg.Log.Level, cfg.Log.Format)
	if portFlag > 0 {
		cfg.Server.Port = portFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize studio: %w", err)
	}
	defer a.Close()

	api := server.New(a)
	defer api.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	a.StartupLog(logging.NewStartupLogger("studio-web")).
		Version(version).
		Config("server.port", fmt.Sprint(cfg.Server.Port)).
		InitDuration(time.Since(initStart)).
		Log()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting web server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
