package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger from the environment.
// STUDIO_LOG_LEVEL selects the level: debug, info, warn, error (default: info).
// STUDIO_LOG_FORMAT=json switches from the console writer to raw JSON lines.
func Init() {
	InitWith(os.Getenv("STUDIO_LOG_LEVEL"), os.Getenv("STUDIO_LOG_FORMAT"))
}

// InitWith configures the global logger with an explicit level and format.
// Lambda and other log-shipping hosts want "json"; terminals want "console".
func InitWith(level, format string) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	zerolog.DurationFieldUnit = 1e6 // milliseconds
	zerolog.DurationFieldInteger = false

	if strings.EqualFold(format, "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// ParseLevel maps a level name onto a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
