package app

import (
	"context"
	"testing"
	"time"

	"github.com/fpang/content-studio/internal/artifacts"
	"github.com/fpang/content-studio/internal/config"
	"github.com/fpang/content-studio/internal/director"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	var cfg config.Config
	cfg.Models.Director = "director-model"
	cfg.Models.Caption = "caption-model"
	cfg.Sampler.FrameCount = 4
	cfg.Sampler.Width = 320
	cfg.Sampler.JPEGQuality = 70
	cfg.Sampler.FFmpegPath = "ffmpeg"
	cfg.Sampler.FFprobePath = "ffprobe"
	cfg.Video.PollInterval = 2 * time.Second
	cfg.Video.Timeout = time.Minute
	cfg.Store.Backend = "file"
	cfg.Store.Dir = t.TempDir()
	cfg.Artifacts.Backend = "inline"
	cfg.Limits.MaxUploadBytes = 1 << 20
	return cfg
}

func TestNew(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if _, ok := a.Sink.(artifacts.Inline); !ok {
		t.Errorf("Sink = %T, want artifacts.Inline", a.Sink)
	}
	if a.Ingestor.FrameCount() != 4 {
		t.Errorf("FrameCount() = %d, want 4", a.Ingestor.FrameCount())
	}
	if a.Library.Settings().SafetyFilter != "block_some" {
		t.Errorf("settings = %+v", a.Library.Settings())
	}
	p := a.NewPipeline(nil)
	defer p.Close()
	if p.State() != director.StateEmpty {
		t.Errorf("new pipeline state = %v", p.State())
	}
}

func TestNewRejectsUnknownBackends(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"store", func(c *config.Config) { c.Store.Backend = "mysql" }},
		{"artifacts", func(c *config.Config) { c.Artifacts.Backend = "ftp" }},
		{"s3 without bucket", func(c *config.Config) {
			c.Artifacts.Backend = "s3"
			c.AWS.Region = "us-east-1"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)
			if a, err := New(context.Background(), cfg); err == nil {
				a.Close()
				t.Fatal("New() succeeded")
			}
		})
	}
}

func TestChatOptions(t *testing.T) {
	opts := ChatOptions(testConfig(t), "block_most")
	if opts.Models.Director != "director-model" || opts.Models.Caption != "caption-model" {
		t.Errorf("models = %+v", opts.Models)
	}
	if opts.PollInterval != 2*time.Second || opts.VideoTimeout != time.Minute {
		t.Errorf("video timing = %v / %v", opts.PollInterval, opts.VideoTimeout)
	}
	if opts.Safety != "block_most" {
		t.Errorf("Safety = %q", opts.Safety)
	}
}
