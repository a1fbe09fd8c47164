package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Dir writes artifacts under a local directory and returns file:// URLs,
// or paths relative to BaseURL when one is set.
type Dir struct {
	root    string
	baseURL string
}

// NewDir creates root if needed. baseURL, when not empty, is the URL
// prefix the directory is served under.
func NewDir(root, baseURL string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("artifacts dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}
	return &Dir{root: abs, baseURL: baseURL}, nil
}

func (d *Dir) Put(_ context.Context, kind, contentType string, data []byte) (string, error) {
	name, err := objectName(kind, contentType)
	if err != nil {
		return "", err
	}
	full := filepath.Join(d.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create %s dir: %w", kind, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	log.Debug().Str("path", full).Int("size", len(data)).Msg("Artifact written")
	if d.baseURL != "" {
		return d.baseURL + "/" + name, nil
	}
	return "file://" + filepath.ToSlash(full), nil
}
