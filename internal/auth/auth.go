package auth

import (
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// EnvAPIKey is the environment variable holding the model API key.
const EnvAPIKey = "GEMINI_API_KEY"

// ErrNoAPIKey is returned when no key source yields a key.
var ErrNoAPIKey = errors.New("API key not found: set GEMINI_API_KEY or store it in ~/.content-studio/credentials.gpg")

// ResolveAPIKey returns override when it is non-empty (a key supplied with
// the request), otherwise the process key from GetAPIKey.
func ResolveAPIKey(override string) (string, error) {
	if key := strings.TrimSpace(override); key != "" {
		return key, nil
	}
	return GetAPIKey()
}

// GetAPIKey returns the process key: GEMINI_API_KEY when set (Lambda fills
// it from SSM at cold start), else the GPG-encrypted credentials file.
func GetAPIKey() (string, error) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}

	key, err := decryptCredentials()
	if err == nil && key != "" {
		log.Debug().Msg("Using API key from GPG encrypted file")
		return key, nil
	}

	log.Debug().Err(err).Msg("No API key available")
	return "", ErrNoAPIKey
}
