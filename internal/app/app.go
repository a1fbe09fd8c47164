// Package app assembles the studio's components from a config.Config. Every
// binary builds one App and hands its pieces to its own surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/artifacts"
	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/config"
	"github.com/fpang/content-studio/internal/director"
	"github.com/fpang/content-studio/internal/frames"
	"github.com/fpang/content-studio/internal/lambdaboot"
	"github.com/fpang/content-studio/internal/logging"
	"github.com/fpang/content-studio/internal/media"
	"github.com/fpang/content-studio/internal/store"
)

// App is the wired set of studio components.
type App struct {
	Config   config.Config
	Models   *chat.Pool
	Sampler  *frames.Sampler
	Ingestor *media.Ingestor
	Library  *store.Library
	Sink     artifacts.Sink

	aws     *lambdaboot.AWSClients
	closers []func() error
}

// New builds an App. AWS is only contacted when a backend needs it.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg}

	decoder := frames.NewFFmpegDecoder(cfg.Sampler.FFmpegPath, cfg.Sampler.FFprobePath)
	a.Sampler = frames.NewSampler(decoder,
		frames.WithWidth(cfg.Sampler.Width),
		frames.WithJPEGQuality(cfg.Sampler.JPEGQuality),
	)
	a.Ingestor = media.NewIngestor(a.Sampler,
		media.WithFrameCount(cfg.Sampler.FrameCount),
		media.WithMaxBytes(cfg.Limits.MaxUploadBytes),
	)

	blobs, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Library, err = store.OpenLibrary(ctx, blobs)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Sink, err = a.openSink(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Models = chat.NewPool(ChatOptions(cfg, a.Library.Settings().SafetyFilter))
	return a, nil
}

// ChatOptions maps configuration onto model client options.
func ChatOptions(cfg config.Config, safety string) chat.Options {
	m := cfg.Models
	return chat.Options{
		Models: chat.Models{
			Caption:    m.Caption,
			Director:   m.Director,
			ImageGen:   m.ImageGen,
			ImageEdit:  m.ImageEdit,
			Video:      m.Video,
			Speech:     m.Speech,
			Transcribe: m.Transcribe,
			Tools:      m.Tools,
			Chat:       m.Chat,
		},
		PollInterval: cfg.Video.PollInterval,
		VideoTimeout: cfg.Video.Timeout,
		Safety:       safety,
	}
}

func (a *App) awsClients(ctx context.Context) (*lambdaboot.AWSClients, error) {
	if a.aws != nil {
		return a.aws, nil
	}
	c, err := lambdaboot.InitAWS(ctx, a.Config.AWS.Region)
	if err != nil {
		return nil, err
	}
	a.aws = c
	return c, nil
}

func (a *App) openStore(ctx context.Context) (store.BlobStore, error) {
	sc := a.Config.Store
	switch sc.Backend {
	case "file":
		return store.NewFileStore(sc.Dir)
	case "dynamo":
		clients, err := a.awsClients(ctx)
		if err != nil {
			return nil, err
		}
		return store.NewDynamoStore(clients.DynamoDB(), sc.Table, sc.Profile), nil
	case "redis":
		rdb, err := store.NewRedisClient(ctx, sc.RedisAddr, sc.RedisPassword, sc.RedisDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		return store.NewRedisStore(rdb, sc.Profile), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
}

func (a *App) openSink(ctx context.Context) (artifacts.Sink, error) {
	ac := a.Config.Artifacts
	switch ac.Backend {
	case "inline":
		return artifacts.Inline{}, nil
	case "dir":
		return artifacts.NewDir(ac.Dir, "")
	case "s3":
		clients, err := a.awsClients(ctx)
		if err != nil {
			return nil, err
		}
		client, presigner := clients.S3()
		return artifacts.NewS3(client, presigner, ac.Bucket, ac.Prefix, ac.URLExpiry)
	default:
		return nil, fmt.Errorf("unknown artifacts backend %q", ac.Backend)
	}
}

// Client returns the model client for a request. A key sent with the
// request wins over one stored in the user's settings, which wins over the
// process key.
func (a *App) Client(ctx context.Context, override string) (*chat.Client, error) {
	if strings.TrimSpace(override) == "" {
		override = a.Library.Settings().APIKey
	}
	return a.Models.Client(ctx, override)
}

// NewPipeline returns a director pipeline driving model and storing renders
// in the App's sink.
func (a *App) NewPipeline(model director.Model) *director.Pipeline {
	return director.New(model, a.Sampler, a.Sink, director.WithFrameCount(a.Config.Sampler.FrameCount))
}

// StartupLog fills a startup logger with the App's resources and settings.
func (a *App) StartupLog(s *logging.StartupLogger) *logging.StartupLogger {
	cfg := a.Config
	s.Resource("store", "backend", cfg.Store.Backend).
		Resource("artifacts", "backend", cfg.Artifacts.Backend).
		Resource("artifacts", "bucket", cfg.Artifacts.Bucket).
		Resource("ssmParams", "apiKey", cfg.AWS.SSMAPIKeyParam).
		Config("models.director", cfg.Models.Director).
		Config("models.caption", cfg.Models.Caption).
		Config("sampler.frameCount", fmt.Sprint(cfg.Sampler.FrameCount)).
		Config("sampler.width", fmt.Sprint(cfg.Sampler.Width)).
		Feature("ffmpeg", frames.CheckAvailable(cfg.Sampler.FFmpegPath, cfg.Sampler.FFprobePath) == nil)
	switch cfg.Store.Backend {
	case "file":
		s.Resource("store", "dir", cfg.Store.Dir)
	case "dynamo":
		s.Resource("store", "table", cfg.Store.Table)
	case "redis":
		s.Resource("store", "redis", cfg.Store.RedisAddr)
	}
	return s
}

// AWS returns the AWS clients, loading the config on first use.
func (a *App) AWS(ctx context.Context) (*lambdaboot.AWSClients, error) {
	return a.awsClients(ctx)
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		log.Warn().Errs("errors", errs).Msg("App close")
	}
	return errors.Join(errs...)
}
