package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a config file, expands ${{ .Env.VAR }} templates, unmarshals it
// into Config and applies defaults. Files ending in .yaml or .yml are YAML;
// anything else is JSONC (JSON with comments and trailing commas).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variable templates (before parsing, since templates are in strings)
	expanded := []byte(expandEnvTemplates(string(data)))

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = unmarshalYAML(expanded, &cfg)
	default:
		err = unmarshalJSONC(expanded, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadOrDefault loads path, or returns defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg, nil
	}
	return Load(path)
}

func unmarshalJSONC(data []byte, cfg *Config) error {
	std, err := hujson.Standardize(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(std, cfg)
}

// unmarshalYAML decodes through a generic tree so the json tags drive field
// names for both formats.
func unmarshalYAML(data []byte, cfg *Config) error {
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	if tree == nil {
		return nil
	}
	b, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, cfg)
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.HomeDir == "" {
		cfg.HomeDir = WorkspacePath()
	}
	cfg.HomeDir = expandHome(cfg.HomeDir)

	if len(cfg.Models.Providers) == 0 {
		cfg.Models.Providers = map[string]ProviderConfig{
			"openai": {Driver: "openai", Model: "gpt-4o-mini"},
		}
	}
	if cfg.Models.Default == "" && len(cfg.Models.Providers) == 1 {
		for name := range cfg.Models.Providers {
			cfg.Models.Default = name
		}
	}

	if cfg.Speech.Driver == "" {
		cfg.Speech.Driver = SpeechSay
	}
	if cfg.Shell.Driver == "" {
		cfg.Shell.Driver = ShellExec
	}
	if cfg.Shell.Shell == "" {
		cfg.Shell.Shell = "sh"
	}
	if cfg.Shell.Dir == "" {
		cfg.Shell.Dir = cfg.HomeDir
	}
	cfg.Shell.Dir = expandHome(cfg.Shell.Dir)

	if cfg.Snippets.Drain == "" {
		cfg.Snippets.Drain = DrainEnd
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 1024
	}
	// Auth resolution is deferred to models.ResolveAuth() at model init time.
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
