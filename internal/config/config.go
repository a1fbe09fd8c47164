// Package config loads studio settings from an optional YAML file, a .env
// file and STUDIO_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config is the complete process configuration.
type Config struct {
	Log       LogConfig      `mapstructure:"log"`
	Models    ModelConfig    `mapstructure:"models"`
	Sampler   SamplerConfig  `mapstructure:"sampler"`
	Video     VideoConfig    `mapstructure:"video"`
	Store     StoreConfig    `mapstructure:"store"`
	Artifacts ArtifactConfig `mapstructure:"artifacts"`
	Server    ServerConfig   `mapstructure:"server"`
	Limits    LimitConfig    `mapstructure:"limits"`
	AWS       AWSConfig      `mapstructure:"aws"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ModelConfig names the model used for each generative operation.
type ModelConfig struct {
	Caption    string `mapstructure:"caption"`
	Director   string `mapstructure:"director"`
	ImageGen   string `mapstructure:"image_gen"`
	ImageEdit  string `mapstructure:"image_edit"`
	Video      string `mapstructure:"video"`
	Speech     string `mapstructure:"speech"`
	Transcribe string `mapstructure:"transcribe"`
	Tools      string `mapstructure:"tools"`
	Chat       string `mapstructure:"chat"`
}

type SamplerConfig struct {
	FrameCount  int    `mapstructure:"frame_count"`
	Width       int    `mapstructure:"width"`
	JPEGQuality int    `mapstructure:"jpeg_quality"`
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
}

type VideoConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects the persistence backend for history, settings,
// saved prompts and director snapshots.
type StoreConfig struct {
	Backend       string `mapstructure:"backend"` // file, dynamo, redis
	Dir           string `mapstructure:"dir"`
	Table         string `mapstructure:"table"`
	Profile       string `mapstructure:"profile"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// ArtifactConfig selects where generated images, video and audio are kept.
type ArtifactConfig struct {
	Backend   string        `mapstructure:"backend"` // inline, dir, s3
	Dir       string        `mapstructure:"dir"`
	Bucket    string        `mapstructure:"bucket"`
	Prefix    string        `mapstructure:"prefix"`
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type LimitConfig struct {
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

type AWSConfig struct {
	Region         string `mapstructure:"region"`
	SSMAPIKeyParam string `mapstructure:"ssm_api_key_param"`
}

var (
	storeBackends    = []string{"file", "dynamo", "redis"}
	artifactBackends = []string{"inline", "dir", "s3"}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("models.caption", "gemini-3-flash-preview")
	v.SetDefault("models.director", "gemini-3-pro-preview")
	v.SetDefault("models.image_gen", "gemini-3-pro-image-preview")
	v.SetDefault("models.image_edit", "gemini-2.5-flash-image")
	v.SetDefault("models.video", "veo-3.1-fast-generate-preview")
	v.SetDefault("models.speech", "gemini-2.5-flash-preview-tts")
	v.SetDefault("models.transcribe", "gemini-3-flash-preview")
	v.SetDefault("models.tools", "gemini-3-flash-preview")
	v.SetDefault("models.chat", "gemini-3-pro-preview")

	v.SetDefault("sampler.frame_count", 6)
	v.SetDefault("sampler.width", 480)
	v.SetDefault("sampler.jpeg_quality", 60)
	v.SetDefault("sampler.ffmpeg_path", "ffmpeg")
	v.SetDefault("sampler.ffprobe_path", "ffprobe")

	v.SetDefault("video.poll_interval", 5*time.Second)
	v.SetDefault("video.timeout", 10*time.Minute)

	v.SetDefault("store.backend", "file")
	v.SetDefault("store.dir", defaultStoreDir())
	v.SetDefault("store.table", "content-studio")
	v.SetDefault("store.profile", "default")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)

	v.SetDefault("artifacts.backend", "inline")
	v.SetDefault("artifacts.dir", "")
	v.SetDefault("artifacts.bucket", "")
	v.SetDefault("artifacts.prefix", "artifacts/")
	v.SetDefault("artifacts.url_expiry", time.Hour)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("limits.max_upload_bytes", int64(200<<20))

	v.SetDefault("aws.region", "")
	v.SetDefault("aws.ssm_api_key_param", "")
}

// Load reads configuration. When file is empty, studio.yaml is searched for
// in the working directory and ~/.content-studio; a missing file is not an
// error. A .env file in the working directory is loaded into the process
// environment first and never overrides variables that are already set.
func Load(file string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file loaded")
	}

	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("studio")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.content-studio")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("Loaded config file")
	}

	v.SetEnvPrefix("STUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Sampler.FrameCount < 1:
		return fmt.Errorf("sampler.frame_count must be at least 1, got %d", c.Sampler.FrameCount)
	case c.Sampler.Width < 16:
		return fmt.Errorf("sampler.width must be at least 16, got %d", c.Sampler.Width)
	case c.Sampler.JPEGQuality < 1 || c.Sampler.JPEGQuality > 100:
		return fmt.Errorf("sampler.jpeg_quality must be in [1,100], got %d", c.Sampler.JPEGQuality)
	case c.Video.PollInterval <= 0:
		return fmt.Errorf("video.poll_interval must be positive, got %s", c.Video.PollInterval)
	case !oneOf(c.Store.Backend, storeBackends):
		return fmt.Errorf("store.backend must be one of %v, got %q", storeBackends, c.Store.Backend)
	case !oneOf(c.Artifacts.Backend, artifactBackends):
		return fmt.Errorf("artifacts.backend must be one of %v, got %q", artifactBackends, c.Artifacts.Backend)
	case c.Artifacts.Backend == "s3" && c.Artifacts.Bucket == "":
		return errors.New("artifacts.bucket is required for the s3 artifact backend")
	case c.Artifacts.Backend == "dir" && c.Artifacts.Dir == "":
		return errors.New("artifacts.dir is required for the dir artifact backend")
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	case c.Limits.MaxUploadBytes <= 0:
		return fmt.Errorf("limits.max_upload_bytes must be positive, got %d", c.Limits.MaxUploadBytes)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
