package config

import (
	"os"
	"path/filepath"
)

// defaultStoreDir is ~/.content-studio/data, or a relative directory when
// the home directory cannot be resolved.
func defaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".content-studio", "data")
	}
	return filepath.Join(home, ".content-studio", "data")
}
