package auth

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// EnvCredentialsFile overrides the location of the encrypted key file.
const EnvCredentialsFile = "STUDIO_CREDENTIALS_FILE"

const passphraseName = ".gpg-passphrase"

// gpgBinary is overridden in tests.
var gpgBinary = "gpg"

// credentialPath is $STUDIO_CREDENTIALS_FILE or
// ~/.content-studio/credentials.gpg.
func credentialPath() (string, error) {
	if p := os.Getenv(EnvCredentialsFile); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".content-studio", "credentials.gpg"), nil
}

// passphraseFile finds a .gpg-passphrase next to the executable or in the
// working directory. Files readable by group or others are ignored.
func passphraseFile() (string, bool) {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, passphraseName)
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		if perm := fi.Mode().Perm(); perm&0o077 != 0 {
			log.Warn().Str("passphrase_file", path).Str("permissions", fmt.Sprintf("%04o", perm)).
				Msg("Passphrase file is not owner-only; ignoring it")
			continue
		}
		return path, true
	}
	return "", false
}

// decryptCredentials runs gpg over the credentials file and returns the
// trimmed plaintext.
func decryptCredentials() (string, error) {
	path, err := credentialPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("credentials file: %w", err)
	}

	args := []string{"--decrypt", "--quiet"}
	if pass, ok := passphraseFile(); ok {
		log.Debug().Str("passphrase_file", pass).Msg("Decrypting with passphrase file")
		args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", pass)
	}
	args = append(args, path)

	out, err := exec.Command(gpgBinary, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("gpg decrypt %s: %s", path, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("gpg decrypt %s: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil
}
