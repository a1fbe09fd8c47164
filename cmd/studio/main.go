package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/content-studio/internal/app"
	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/cli"
	"github.com/fpang/content-studio/internal/logging"
	"github.com/fpang/content-studio/internal/media"
)

// Global flags
var (
	configFlag string
	apiKeyFlag string
	pickFlag   bool
)

// rootCmd is the main Cobra command for the studio CLI.
var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "AI content studio - captions, storyboards, images, video and voice",
	Long: `Studio turns photos, videos and audio into social media content with
generative models: captions in two languages, a director's edit plan with
storyboard renders, filtered images, generated images and video, speech,
transcripts and a persona chat.

Every command reads media from file arguments, or from a native file
dialog with --pick.

Examples:
  studio caption beach.jpg --tone funny --platform instagram
  studio direct clip.mp4 --goal "Make it cinematic" --render --out edit.zip
  studio filter photo.png --preset noir -o noir.png
  studio image "a neon city at night" --aspect 16:9 -o city.png
  studio tool hashtag "sunset surf session"`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: ./studio.yaml or ~/.content-studio/studio.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Model API key for this run (default: settings, GEMINI_API_KEY, SSM, GPG file)")
	rootCmd.PersistentFlags().BoolVar(&pickFlag, "pick", false, "Choose input files with the native file dialog")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var studioApp *app.App

// studio returns the App, building it on first use.
func studio(ctx context.Context) *app.App {
	if studioApp == nil {
		studioApp = cli.InitApp(ctx, configFlag)
	}
	return studioApp
}

func client(ctx context.Context) *chat.Client {
	return cli.InitClient(ctx, studio(ctx), apiKeyFlag)
}

// inputFiles returns the command's input paths, from arguments or the
// picker.
func inputFiles(args []string, multiple bool, kinds ...media.Kind) ([]string, error) {
	if pickFlag {
		return cli.PickMedia("Select media", multiple, kinds...)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("no input files: pass paths or use --pick")
	}
	if !multiple && len(args) > 1 {
		return nil, fmt.Errorf("expected one input file, got %d", len(args))
	}
	return cli.ResolveFiles(args)
}

// ingest reads input files into assets.
func ingest(ctx context.Context, paths []string) ([]*media.Asset, error) {
	assets := make([]*media.Asset, 0, len(paths))
	for _, p := range paths {
		asset, err := studio(ctx).Ingestor.IngestFile(ctx, p)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func ingestOne(ctx context.Context, args []string, kind media.Kind) (*media.Asset, error) {
	paths, err := inputFiles(args, false, kind)
	if err != nil {
		return nil, err
	}
	assets, err := ingest(ctx, paths)
	if err != nil {
		return nil, err
	}
	if assets[0].Kind != kind {
		return nil, &media.UnsupportedKindError{ContentType: assets[0].ContentType}
	}
	return assets[0], nil
}

// writeOutput writes data to path, or to a default name derived from
// stem and the content type when path is empty. It returns the path used.
func writeOutput(path, stem, contentType string, data []byte) (string, error) {
	if path == "" {
		path = stem + media.ExtensionFor(contentType)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("path", path).Str("size", cli.FormatBytes(int64(len(data)))).Msg("Output written")
	return path, nil
}
