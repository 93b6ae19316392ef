package config

import (
	"os"
	"path/filepath"
)

// PairvoxPath returns the root directory for pairvox data.
// It uses $PAIRVOX_PATH if set, otherwise defaults to ~/.pairvox.
func PairvoxPath() string {
	if v := os.Getenv("PAIRVOX_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".pairvox")
	}
	return filepath.Join(home, ".pairvox")
}

// ConfigPath returns the config file path. config.jsonc wins; config.yaml is
// used when it is the only one present.
func ConfigPath() string {
	jsonc := filepath.Join(PairvoxPath(), "config.jsonc")
	if _, err := os.Stat(jsonc); err == nil {
		return jsonc
	}
	for _, name := range []string{"config.yaml", "config.yml"} {
		p := filepath.Join(PairvoxPath(), name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return jsonc
}

// DotenvPath returns the path to the .env file.
func DotenvPath() string {
	return filepath.Join(PairvoxPath(), ".env")
}

// SessionsPath returns the directory holding chat transcripts.
func SessionsPath() string {
	return filepath.Join(PairvoxPath(), "sessions")
}

// LogsPath returns the directory holding event logs.
func LogsPath() string {
	return filepath.Join(PairvoxPath(), "logs")
}

// WorkspacePath is the default home_dir for written snippets.
func WorkspacePath() string {
	return filepath.Join(PairvoxPath(), "workspace")
}
